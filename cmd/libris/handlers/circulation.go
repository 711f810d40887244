package handlers

import (
	"strings"

	"github.com/labstack/echo/v4"
	apicirc "github.com/opst/libris/pkg/api/types/circulation"
	apierr "github.com/opst/libris/pkg/api/types/errors"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/utils"
)

// BorrowHandler checks a book out to a member at the desk.
//
// The staff sending the request is recorded on the loan.
func BorrowHandler(dbloan kdb.LoanInterface, now Clock) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principal(c)
		if err != nil {
			return err
		}
		req := apicirc.BorrowRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		memberID, bookID := strings.TrimSpace(req.MemberID), strings.TrimSpace(req.BookID)
		if memberID == "" || bookID == "" {
			return apierr.BadRequest(`"memberId" and "bookId" are required`, nil)
		}

		loan, err := dbloan.Borrow(c.Request().Context(), memberID, bookID, p.ID)
		if err != nil {
			return asHTTPError(err)
		}
		return created(c, apicirc.ComposeLoan(loan, now()))
	}
}

func loanQueryOf(c echo.Context) (kdb.LoanQuery, error) {
	q := kdb.LoanQuery{
		MemberID: c.QueryParam("member"),
		BookID:   c.QueryParam("book"),
	}
	if s := c.QueryParam("status"); s != "" {
		status, err := kdb.AsLoanStatus(s)
		if err != nil {
			return q, err
		}
		q.Status = status
	}
	overdue, err := flagOf(c, "overdue")
	if err != nil {
		return q, err
	}
	q.OverdueOnly = overdue

	page, err := pageOf(c)
	if err != nil {
		return q, err
	}
	q.Page = page
	return q, nil
}

// FindLoansHandler lists loans.
//
// Query params are "member", "book", "status", "overdue", "limit" and "offset".
func FindLoansHandler(dbloan kdb.LoanInterface, now Clock) echo.HandlerFunc {
	return func(c echo.Context) error {
		query, err := loanQueryOf(c)
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}
		loans, err := dbloan.Find(c.Request().Context(), query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, apicirc.ComposeLoans(loans, now()))
	}
}

// MemberLoansHandler is FindLoansHandler narrowed to the member in the path.
func MemberLoansHandler(dbloan kdb.LoanInterface, now Clock, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		query, err := loanQueryOf(c)
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}
		query.MemberID = c.Param(param)
		loans, err := dbloan.Find(c.Request().Context(), query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, apicirc.ComposeLoans(loans, now()))
	}
}

// GetLoanHandler shows a loan. Members can see their own loans only.
func GetLoanHandler(dbloan kdb.LoanInterface, now Clock, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		loan, err := dbloan.Get(c.Request().Context(), c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		if err := actFor(c, loan.MemberID); err != nil {
			return err
		}
		return ok(c, apicirc.ComposeLoan(loan, now()))
	}
}

// RenewLoanHandler extends the due date of a loan.
//
// Members can renew their own loans.
func RenewLoanHandler(dbloan kdb.LoanInterface, now Clock, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		loan, err := dbloan.Get(ctx, c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		if err := actFor(c, loan.MemberID); err != nil {
			return err
		}

		renewed, err := dbloan.Renew(ctx, loan.ID)
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apicirc.ComposeLoan(renewed, now()))
	}
}

// ReturnLoanHandler checks a copy in.
//
// The response tells a fine for the late return and the reservation holding
// the returned copy, if any.
func ReturnLoanHandler(dbloan kdb.LoanInterface, now Clock, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		settled, err := dbloan.Return(c.Request().Context(), c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apicirc.ComposeSettlement(settled, now()))
	}
}

func LostLoanHandler(dbloan kdb.LoanInterface, now Clock, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		settled, err := dbloan.MarkLost(c.Request().Context(), c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apicirc.ComposeSettlement(settled, now()))
	}
}

// ReserveHandler puts a member in the queue of a book.
//
// Members reserve for themselves; "memberId" can be omitted.
// Staff should tell "memberId".
func ReserveHandler(dbres kdb.ReservationInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principal(c)
		if err != nil {
			return err
		}
		req := apicirc.ReserveRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		memberID := strings.TrimSpace(req.MemberID)
		if memberID == "" && !p.Role.IsStaff() {
			memberID = p.ID
		}
		bookID := strings.TrimSpace(req.BookID)
		if memberID == "" || bookID == "" {
			return apierr.BadRequest(`"memberId" and "bookId" are required`, nil)
		}
		if !p.CanActFor(memberID) {
			return apierr.Forbidden()
		}

		reservation, err := dbres.Reserve(c.Request().Context(), memberID, bookID)
		if err != nil {
			return asHTTPError(err)
		}
		return created(c, apicirc.ComposeReservation(reservation))
	}
}

func reservationQueryOf(c echo.Context) (kdb.ReservationQuery, error) {
	q := kdb.ReservationQuery{
		MemberID: c.QueryParam("member"),
		BookID:   c.QueryParam("book"),
	}
	if s := c.QueryParam("status"); s != "" {
		status, err := kdb.AsReservationStatus(s)
		if err != nil {
			return q, err
		}
		q.Status = status
	}
	page, err := pageOf(c)
	if err != nil {
		return q, err
	}
	q.Page = page
	return q, nil
}

// FindReservationsHandler lists reservations.
//
// Query params are "member", "book", "status", "limit" and "offset".
func FindReservationsHandler(dbres kdb.ReservationInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		query, err := reservationQueryOf(c)
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}
		rs, err := dbres.Find(c.Request().Context(), query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, utils.Map(rs, apicirc.ComposeReservation))
	}
}

func MemberReservationsHandler(dbres kdb.ReservationInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		query, err := reservationQueryOf(c)
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}
		query.MemberID = c.Param(param)
		rs, err := dbres.Find(c.Request().Context(), query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, utils.Map(rs, apicirc.ComposeReservation))
	}
}

// CancelReservationHandler withdraws a reservation.
//
// Members can cancel their own reservations.
func CancelReservationHandler(dbres kdb.ReservationInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		r, err := dbres.Get(ctx, c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		if err := actFor(c, r.MemberID); err != nil {
			return err
		}
		cancelled, err := dbres.Cancel(ctx, r.ID)
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apicirc.ComposeReservation(cancelled))
	}
}

func fineQueryOf(c echo.Context) (kdb.FineQuery, error) {
	q := kdb.FineQuery{MemberID: c.QueryParam("member")}
	if s := c.QueryParam("status"); s != "" {
		status, err := kdb.AsFineStatus(s)
		if err != nil {
			return q, err
		}
		q.Status = status
	}
	page, err := pageOf(c)
	if err != nil {
		return q, err
	}
	q.Page = page
	return q, nil
}

// FindFinesHandler lists fines.
//
// Query params are "member", "status", "limit" and "offset".
func FindFinesHandler(dbfine kdb.FineInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		query, err := fineQueryOf(c)
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}
		fines, err := dbfine.Find(c.Request().Context(), query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, utils.Map(fines, apicirc.ComposeFine))
	}
}

// MemberFinesHandler shows fines of the member in the path with their totals.
func MemberFinesHandler(dbfine kdb.FineInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		query, err := fineQueryOf(c)
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}
		query.MemberID = c.Param(param)

		summary, err := dbfine.Summary(ctx, query.MemberID)
		if err != nil {
			return asHTTPError(err)
		}
		fines, err := dbfine.Find(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, apicirc.MemberFines{
			Summary: apicirc.ComposeFineSummary(summary),
			Fines:   utils.Map(fines, apicirc.ComposeFine),
		})
	}
}

// PayFineHandler records a payment of a pending fine.
//
// Members can pay their own fines.
func PayFineHandler(dbfine kdb.FineInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		fine, err := dbfine.Get(ctx, c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		if err := actFor(c, fine.MemberID); err != nil {
			return err
		}
		paid, err := dbfine.Pay(ctx, fine.ID)
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apicirc.ComposeFine(paid))
	}
}

// WaiveFineHandler cancels a pending fine. The staff waiving it is recorded.
func WaiveFineHandler(dbfine kdb.FineInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principal(c)
		if err != nil {
			return err
		}
		if !p.Role.IsStaff() {
			return apierr.Forbidden()
		}
		waived, err := dbfine.Waive(c.Request().Context(), c.Param(param), p.ID)
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apicirc.ComposeFine(waived))
	}
}
