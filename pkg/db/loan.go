package db

import (
	"context"
	"time"
)

type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
	LoanLost     LoanStatus = "lost"
)

func AsLoanStatus(s string) (LoanStatus, error) {
	switch LoanStatus(s) {
	case LoanActive, LoanReturned, LoanLost:
		return LoanStatus(s), nil
	default:
		return LoanStatus(s), ErrInvalidState
	}
}

type Loan struct {
	ID string

	MemberID   string
	MemberName string
	BookID     string
	BookTitle  string

	// StaffID is who handed the book over.
	StaffID string

	LoanedAt time.Time
	DueAt    time.Time

	// ReturnedAt is set when the loan is closed (returned or lost).
	ReturnedAt *time.Time

	Renewals int
	Status   LoanStatus
}

// Overdue tells the loan is active and past its due.
func (l Loan) Overdue(now time.Time) bool {
	return l.Status == LoanActive && now.After(l.DueAt)
}

type LoanQuery struct {
	MemberID string
	BookID   string
	Status   LoanStatus

	// OverdueOnly limits results to active loans past due.
	OverdueOnly bool

	Page
}

// Settlement is the outcome of closing a loan.
type Settlement struct {
	Loan Loan

	// Fine charged for the loan, if any.
	Fine *Fine

	// Promoted is the reservation which got the returned copy, if any.
	Promoted *Reservation
}

type LoanInterface interface {
	// Borrow lends a copy of the book to the member.
	//
	// When the member holds a copy by a reservation, the held copy is handed over
	// and the reservation is fulfilled.
	//
	// # Args
	//
	// - memberID, bookID: who borrows what
	//
	// - staffID: who hands over the copy
	//
	// # Returns
	//
	// - Loan: created loan
	//
	// - error: ErrMissing when member or book is not found,
	// or one of ErrMemberBlocked, ErrHasPendingFines, ErrOverdue, ErrLoanLimit,
	// ErrAlreadyBorrowed, ErrReservedByOther or ErrNotAvailable.
	Borrow(ctx context.Context, memberID, bookID, staffID string) (Loan, error)

	// Renew extends the due of an active loan.
	//
	// # Returns
	//
	// - error: ErrInvalidState when the loan is closed,
	// or one of ErrOverdue, ErrRenewLimit or ErrReservedByOther.
	Renew(ctx context.Context, loanID string) (Loan, error)

	// Return closes the loan and passes the copy to the reservation queue or the shelf.
	//
	// A late return is charged.
	Return(ctx context.Context, loanID string) (Settlement, error)

	// MarkLost closes the loan as lost. The copy is removed from the stock and charged.
	MarkLost(ctx context.Context, loanID string) (Settlement, error)

	Get(ctx context.Context, loanID string) (Loan, error)
	Find(ctx context.Context, query LoanQuery) ([]Loan, error)
}
