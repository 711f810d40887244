package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v4"
	"github.com/opst/libris/cmd/libris/handlers"
	httptestutil "github.com/opst/libris/internal/testutils/http"
	apicirc "github.com/opst/libris/pkg/api/types/circulation"
	kdb "github.com/opst/libris/pkg/db"
	mockdb "github.com/opst/libris/pkg/db/mocks"
)

func exampleLoan(memberID string) kdb.Loan {
	return kdb.Loan{
		ID:         "loan-1",
		MemberID:   memberID,
		MemberName: "Ann",
		BookID:     "book-1",
		BookTitle:  "The Name of the Rose",
		StaffID:    "staff-1",
		LoanedAt:   now.Add(-20 * 24 * time.Hour),
		DueAt:      now.Add(-6 * 24 * time.Hour),
		Status:     kdb.LoanActive,
	}
}

func TestBorrowHandler(t *testing.T) {
	type when struct {
		principal func(echo.Context)
		body      string
		err       error
	}
	type then struct {
		status int
		called bool
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"staff lends a book": {
			when: when{principal: asLibrarian, body: `{"memberId": "member-1", "bookId": "book-1"}`},
			then: then{status: http.StatusCreated, called: true},
		},
		"when the member has pending fines, it responds 409": {
			when: when{
				principal: asLibrarian,
				body:      `{"memberId": "member-1", "bookId": "book-1"}`,
				err:       kdb.ErrHasPendingFines,
			},
			then: then{status: http.StatusConflict, called: true},
		},
		"when no copies are available, it responds 409": {
			when: when{
				principal: asLibrarian,
				body:      `{"memberId": "member-1", "bookId": "book-1"}`,
				err:       kdb.ErrNotAvailable,
			},
			then: then{status: http.StatusConflict, called: true},
		},
		"when the book is missing, it responds 404": {
			when: when{
				principal: asLibrarian,
				body:      `{"memberId": "member-1", "bookId": "book-x"}`,
				err:       kdb.ErrMissing,
			},
			then: then{status: http.StatusNotFound, called: true},
		},
		"when book is not told, it responds 400": {
			when: when{principal: asLibrarian, body: `{"memberId": "member-1"}`},
			then: then{status: http.StatusBadRequest},
		},
		"without login, it responds 401": {
			when: when{principal: anonymous, body: `{"memberId": "member-1", "bookId": "book-1"}`},
			then: then{status: http.StatusUnauthorized},
		},
	} {
		t.Run(name, func(t *testing.T) {
			loans := mockdb.NewLoanInterface()
			loans.Impl.Borrow = func(ctx context.Context, memberID, bookID, staffID string) (kdb.Loan, error) {
				l := exampleLoan(memberID)
				l.StaffID = staffID
				l.DueAt = now.Add(14 * 24 * time.Hour)
				return l, testcase.when.err
			}

			e := echo.New()
			c, respRec := httptestutil.Post(e, "/api/loans", strings.NewReader(testcase.when.body))
			testcase.when.principal(c)

			err := handlers.BorrowHandler(loans, clock)(c)
			status := statusOf(err)
			if err == nil {
				status = respRec.Code
			}
			if status != testcase.then.status {
				t.Fatalf("status: expected %d, but %d (%v)", testcase.then.status, status, err)
			}

			got := loans.Calls.Borrow
			if !testcase.then.called {
				if len(got) != 0 {
					t.Errorf("Borrow should not be called")
				}
				return
			}
			if len(got) != 1 || got[0].StaffID != "staff-1" || got[0].MemberID != "member-1" {
				t.Errorf("Borrow is called with unexpected args: %+v", got)
			}
			if err == nil {
				loan := httptestutil.Decode[apicirc.Loan](t, respRec)
				if loan.StaffID != "staff-1" || loan.Overdue {
					t.Errorf("unexpected body: %+v", loan)
				}
			}
		})
	}
}

func TestFindLoansHandler(t *testing.T) {
	loans := mockdb.NewLoanInterface()
	loans.Impl.Find = func(ctx context.Context, q kdb.LoanQuery) ([]kdb.Loan, error) {
		return []kdb.Loan{exampleLoan("member-1")}, nil
	}

	e := echo.New()
	c, respRec := httptestutil.Get(e, "/api/loans?status=active&overdue=true&book=book-1&limit=20")
	if err := handlers.FindLoansHandler(loans, clock)(c); err != nil {
		t.Fatal(err)
	}

	want := kdb.LoanQuery{
		BookID: "book-1", Status: kdb.LoanActive, OverdueOnly: true,
		Page: kdb.Page{Limit: 20},
	}
	if got := loans.Calls.Find; len(got) != 1 {
		t.Fatalf("Find is called %d times", len(got))
	} else if diff := cmp.Diff(want, got[0].Query); diff != "" {
		t.Errorf("query (-want +got): %s", diff)
	}

	body := httptestutil.Decode[[]apicirc.Loan](t, respRec)
	if len(body) != 1 || !body[0].Overdue {
		t.Errorf("overdue loans should be told: %+v", body)
	}

	t.Run("unknown status responds 400", func(t *testing.T) {
		loans := mockdb.NewLoanInterface()
		c, _ := httptestutil.Get(e, "/api/loans?status=borrowed")
		if got := statusOf(handlers.FindLoansHandler(loans, clock)(c)); got != http.StatusBadRequest {
			t.Errorf("status: %d", got)
		}
	})

	t.Run("member loans are narrowed by path", func(t *testing.T) {
		loans := mockdb.NewLoanInterface()
		loans.Impl.Find = func(ctx context.Context, q kdb.LoanQuery) ([]kdb.Loan, error) {
			return []kdb.Loan{}, nil
		}
		c, _ := httptestutil.Get(e, "/api/members/member-1/loans?member=member-2")
		c.SetParamNames("memberId")
		c.SetParamValues("member-1")
		if err := handlers.MemberLoansHandler(loans, clock, "memberId")(c); err != nil {
			t.Fatal(err)
		}
		if got := loans.Calls.Find; len(got) != 1 || got[0].Query.MemberID != "member-1" {
			t.Errorf("unexpected query: %+v", got)
		}
	})
}

func TestGetLoanHandler(t *testing.T) {
	for name, testcase := range map[string]struct {
		when func(echo.Context)
		then int
	}{
		"the borrower can see it": {when: asMember, then: http.StatusOK},
		"staff can see it":        {when: asLibrarian, then: http.StatusOK},
		"others can not see it":   {when: as("member-2", kdb.RoleMember), then: http.StatusForbidden},
	} {
		t.Run(name, func(t *testing.T) {
			loans := mockdb.NewLoanInterface()
			loans.Impl.Get = func(ctx context.Context, id string) (kdb.Loan, error) {
				return exampleLoan("member-1"), nil
			}

			e := echo.New()
			c, _ := httptestutil.Get(e, "/api/loans/loan-1")
			c.SetParamNames("loanId")
			c.SetParamValues("loan-1")
			testcase.when(c)

			err := handlers.GetLoanHandler(loans, clock, "loanId")(c)
			if got := statusOf(err); got != testcase.then {
				t.Errorf("status: expected %d, but %d (%v)", testcase.then, got, err)
			}
		})
	}
}

func TestRenewLoanHandler(t *testing.T) {
	type when struct {
		principal func(echo.Context)
		err       error
	}
	type then struct {
		status int
		renew  bool
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"the borrower can renew": {
			when: when{principal: asMember},
			then: then{status: http.StatusOK, renew: true},
		},
		"staff can renew": {
			when: when{principal: asLibrarian},
			then: then{status: http.StatusOK, renew: true},
		},
		"others can not renew": {
			when: when{principal: as("member-2", kdb.RoleMember)},
			then: then{status: http.StatusForbidden},
		},
		"renewing too many times responds 409": {
			when: when{principal: asMember, err: kdb.ErrRenewLimit},
			then: then{status: http.StatusConflict, renew: true},
		},
		"renewing a reserved book responds 409": {
			when: when{principal: asMember, err: kdb.ErrReservedByOther},
			then: then{status: http.StatusConflict, renew: true},
		},
		"renewing a returned loan responds 409": {
			when: when{principal: asMember, err: kdb.ErrInvalidState},
			then: then{status: http.StatusConflict, renew: true},
		},
	} {
		t.Run(name, func(t *testing.T) {
			loans := mockdb.NewLoanInterface()
			loans.Impl.Get = func(ctx context.Context, id string) (kdb.Loan, error) {
				l := exampleLoan("member-1")
				l.DueAt = now.Add(time.Hour)
				return l, nil
			}
			loans.Impl.Renew = func(ctx context.Context, id string) (kdb.Loan, error) {
				l := exampleLoan("member-1")
				l.DueAt = now.Add(15 * 24 * time.Hour)
				l.Renewals = 1
				return l, testcase.when.err
			}

			e := echo.New()
			c, respRec := httptestutil.Put(e, "/api/loans/loan-1/renew", nil)
			c.SetParamNames("loanId")
			c.SetParamValues("loan-1")
			testcase.when.principal(c)

			err := handlers.RenewLoanHandler(loans, clock, "loanId")(c)
			if got := statusOf(err); got != testcase.then.status {
				t.Fatalf("status: expected %d, but %d (%v)", testcase.then.status, got, err)
			}
			if got := loans.Calls.Renew.Times() == 1; got != testcase.then.renew {
				t.Errorf("renewed: %v", got)
			}
			if err == nil {
				if l := httptestutil.Decode[apicirc.Loan](t, respRec); l.Renewals != 1 {
					t.Errorf("unexpected body: %+v", l)
				}
			}
		})
	}
}

func TestReturnLoanHandler(t *testing.T) {
	returned := now
	loan := exampleLoan("member-1")
	loan.Status = kdb.LoanReturned
	loan.ReturnedAt = &returned
	fine := kdb.Fine{
		ID: "fine-1", MemberID: "member-1", LoanID: "loan-1",
		Reason: kdb.FineLate, Amount: 300, Status: kdb.FinePending, CreatedAt: now,
	}
	expires := now.Add(48 * time.Hour)
	promoted := kdb.Reservation{
		ID: "res-1", MemberID: "member-2", BookID: "book-1",
		Status: kdb.ReservationAvailable, NotifiedAt: &returned, ExpiresAt: &expires,
	}

	loans := mockdb.NewLoanInterface()
	loans.Impl.Return = func(ctx context.Context, id string) (kdb.Settlement, error) {
		return kdb.Settlement{Loan: loan, Fine: &fine, Promoted: &promoted}, nil
	}

	e := echo.New()
	c, respRec := httptestutil.Put(e, "/api/loans/loan-1/return", nil)
	c.SetParamNames("loanId")
	c.SetParamValues("loan-1")
	asLibrarian(c)

	if err := handlers.ReturnLoanHandler(loans, clock, "loanId")(c); err != nil {
		t.Fatal(err)
	}
	got := httptestutil.Decode[apicirc.Settlement](t, respRec)
	want := apicirc.ComposeSettlement(kdb.Settlement{Loan: loan, Fine: &fine, Promoted: &promoted}, now)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("body (-want +got): %s", diff)
	}
	if got.Fine == nil || got.Fine.AmountCents != 300 {
		t.Errorf("fine should be told: %+v", got.Fine)
	}
}

func TestReserveHandler(t *testing.T) {
	type when struct {
		principal func(echo.Context)
		body      string
		err       error
	}
	type then struct {
		status   int
		memberID string
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"members reserve for themselves": {
			when: when{principal: asMember, body: `{"bookId": "book-1"}`},
			then: then{status: http.StatusCreated, memberID: "member-1"},
		},
		"members can tell themselves": {
			when: when{principal: asMember, body: `{"memberId": "member-1", "bookId": "book-1"}`},
			then: then{status: http.StatusCreated, memberID: "member-1"},
		},
		"members can not reserve for others": {
			when: when{principal: asMember, body: `{"memberId": "member-2", "bookId": "book-1"}`},
			then: then{status: http.StatusForbidden},
		},
		"staff reserve for a member": {
			when: when{principal: asLibrarian, body: `{"memberId": "member-2", "bookId": "book-1"}`},
			then: then{status: http.StatusCreated, memberID: "member-2"},
		},
		"staff should tell the member": {
			when: when{principal: asLibrarian, body: `{"bookId": "book-1"}`},
			then: then{status: http.StatusBadRequest},
		},
		"reserving twice responds 409": {
			when: when{principal: asMember, body: `{"bookId": "book-1"}`, err: kdb.ErrAlreadyReserved},
			then: then{status: http.StatusConflict, memberID: "member-1"},
		},
		"reserving a borrowed book responds 409": {
			when: when{principal: asMember, body: `{"bookId": "book-1"}`, err: kdb.ErrAlreadyBorrowed},
			then: then{status: http.StatusConflict, memberID: "member-1"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			res := mockdb.NewReservationInterface()
			res.Impl.Reserve = func(ctx context.Context, memberID, bookID string) (kdb.Reservation, error) {
				return kdb.Reservation{
					ID: "res-1", MemberID: memberID, BookID: bookID,
					Position: 1, Status: kdb.ReservationWaiting, CreatedAt: now,
				}, testcase.when.err
			}

			e := echo.New()
			c, respRec := httptestutil.Post(e, "/api/reservations", strings.NewReader(testcase.when.body))
			testcase.when.principal(c)

			err := handlers.ReserveHandler(res)(c)
			status := statusOf(err)
			if err == nil {
				status = respRec.Code
			}
			if status != testcase.then.status {
				t.Fatalf("status: expected %d, but %d (%v)", testcase.then.status, status, err)
			}

			got := res.Calls.Reserve
			if testcase.then.memberID == "" {
				if len(got) != 0 {
					t.Errorf("Reserve should not be called")
				}
				return
			}
			if len(got) != 1 || got[0].MemberID != testcase.then.memberID || got[0].BookID != "book-1" {
				t.Errorf("Reserve is called with unexpected args: %+v", got)
			}
		})
	}
}

func TestCancelReservationHandler(t *testing.T) {
	for name, testcase := range map[string]struct {
		when func(echo.Context)
		then int
	}{
		"the member can cancel":      {when: asMember, then: http.StatusOK},
		"staff can cancel":           {when: asLibrarian, then: http.StatusOK},
		"other members can not":      {when: as("member-2", kdb.RoleMember), then: http.StatusForbidden},
		"anonymous requests can not": {when: anonymous, then: http.StatusUnauthorized},
	} {
		t.Run(name, func(t *testing.T) {
			res := mockdb.NewReservationInterface()
			res.Impl.Get = func(ctx context.Context, id string) (kdb.Reservation, error) {
				return kdb.Reservation{
					ID: id, MemberID: "member-1", BookID: "book-1", Position: 2, Status: kdb.ReservationWaiting,
				}, nil
			}
			res.Impl.Cancel = func(ctx context.Context, id string) (kdb.Reservation, error) {
				return kdb.Reservation{
					ID: id, MemberID: "member-1", BookID: "book-1", Status: kdb.ReservationCancelled,
				}, nil
			}

			e := echo.New()
			c, respRec := httptestutil.Delete(e, "/api/reservations/res-1")
			c.SetParamNames("reservationId")
			c.SetParamValues("res-1")
			testcase.when(c)

			err := handlers.CancelReservationHandler(res, "reservationId")(c)
			if got := statusOf(err); got != testcase.then {
				t.Fatalf("status: expected %d, but %d (%v)", testcase.then, got, err)
			}
			if err != nil {
				if res.Calls.Cancel.Times() != 0 {
					t.Errorf("Cancel should not be called")
				}
				return
			}
			if r := httptestutil.Decode[apicirc.Reservation](t, respRec); r.Status != "cancelled" {
				t.Errorf("unexpected body: %+v", r)
			}
		})
	}
}

func TestMemberFinesHandler(t *testing.T) {
	fines := mockdb.NewFineInterface()
	fines.Impl.Summary = func(ctx context.Context, memberID string) (kdb.FineSummary, error) {
		return kdb.FineSummary{MemberID: memberID, Pending: 450, Paid: 100}, nil
	}
	fines.Impl.Find = func(ctx context.Context, q kdb.FineQuery) ([]kdb.Fine, error) {
		return []kdb.Fine{
			{ID: "fine-1", MemberID: q.MemberID, Reason: kdb.FineLate, Amount: 450, Status: kdb.FinePending},
		}, nil
	}

	e := echo.New()
	c, respRec := httptestutil.Get(e, "/api/members/member-1/fines?status=pending")
	c.SetParamNames("memberId")
	c.SetParamValues("member-1")

	if err := handlers.MemberFinesHandler(fines, "memberId")(c); err != nil {
		t.Fatal(err)
	}
	if got := fines.Calls.Find; len(got) != 1 ||
		got[0].Query.MemberID != "member-1" || got[0].Query.Status != kdb.FinePending {
		t.Errorf("unexpected query: %+v", got)
	}

	got := httptestutil.Decode[apicirc.MemberFines](t, respRec)
	want := apicirc.MemberFines{
		Summary: apicirc.FineSummary{MemberID: "member-1", PendingCents: 450, PaidCents: 100},
		Fines: []apicirc.Fine{
			{ID: "fine-1", MemberID: "member-1", Reason: "late", AmountCents: 450, Status: "pending"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("body (-want +got): %s", diff)
	}
}

func TestPayFineHandler(t *testing.T) {
	type when struct {
		principal func(echo.Context)
		err       error
	}
	type then struct {
		status int
		paid   bool
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"members pay their own fines": {
			when: when{principal: asMember},
			then: then{status: http.StatusOK, paid: true},
		},
		"staff record payments": {
			when: when{principal: asLibrarian},
			then: then{status: http.StatusOK, paid: true},
		},
		"members can not pay for others": {
			when: when{principal: as("member-2", kdb.RoleMember)},
			then: then{status: http.StatusForbidden},
		},
		"settled fines can not be paid": {
			when: when{principal: asMember, err: kdb.ErrInvalidState},
			then: then{status: http.StatusConflict, paid: true},
		},
	} {
		t.Run(name, func(t *testing.T) {
			fines := mockdb.NewFineInterface()
			fines.Impl.Get = func(ctx context.Context, id string) (kdb.Fine, error) {
				return kdb.Fine{ID: id, MemberID: "member-1", Amount: 200, Status: kdb.FinePending}, nil
			}
			fines.Impl.Pay = func(ctx context.Context, id string) (kdb.Fine, error) {
				return kdb.Fine{ID: id, MemberID: "member-1", Amount: 200, Status: kdb.FinePaid}, testcase.when.err
			}

			e := echo.New()
			c, _ := httptestutil.Put(e, "/api/fines/fine-1/pay", nil)
			c.SetParamNames("fineId")
			c.SetParamValues("fine-1")
			testcase.when.principal(c)

			err := handlers.PayFineHandler(fines, "fineId")(c)
			if got := statusOf(err); got != testcase.then.status {
				t.Fatalf("status: expected %d, but %d (%v)", testcase.then.status, got, err)
			}
			if got := fines.Calls.Pay.Times() == 1; got != testcase.then.paid {
				t.Errorf("paid: %v", got)
			}
		})
	}
}

func TestWaiveFineHandler(t *testing.T) {
	t.Run("staff waive fines in their name", func(t *testing.T) {
		fines := mockdb.NewFineInterface()
		fines.Impl.Waive = func(ctx context.Context, id, staffID string) (kdb.Fine, error) {
			return kdb.Fine{ID: id, Status: kdb.FineWaived, SettledBy: staffID}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Put(e, "/api/fines/fine-1/waive", nil)
		c.SetParamNames("fineId")
		c.SetParamValues("fine-1")
		asLibrarian(c)

		if err := handlers.WaiveFineHandler(fines, "fineId")(c); err != nil {
			t.Fatal(err)
		}
		if got := fines.Calls.Waive; len(got) != 1 || got[0].FineID != "fine-1" || got[0].StaffID != "staff-1" {
			t.Errorf("Waive is called with unexpected args: %+v", got)
		}
		if f := httptestutil.Decode[apicirc.Fine](t, respRec); f.Status != "waived" || f.SettledBy != "staff-1" {
			t.Errorf("unexpected body: %+v", f)
		}
	})

	t.Run("members can not waive", func(t *testing.T) {
		fines := mockdb.NewFineInterface()

		e := echo.New()
		c, _ := httptestutil.Put(e, "/api/fines/fine-1/waive", nil)
		c.SetParamNames("fineId")
		c.SetParamValues("fine-1")
		asMember(c)

		if got := statusOf(handlers.WaiveFineHandler(fines, "fineId")(c)); got != http.StatusForbidden {
			t.Errorf("status: %d", got)
		}
	})
}
