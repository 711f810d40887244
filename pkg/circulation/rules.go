// Package circulation holds the lending rules of the library.
//
// Functions here are pure: they judge a snapshot taken by the storage layer
// inside its transaction, and compute dues and fees.
package circulation

import (
	"time"

	kdb "github.com/opst/libris/pkg/db"
)

const day = 24 * time.Hour

// Policy is the lending condition for a kind of member.
type Policy struct {
	LoanPeriod  time.Duration
	MaxLoans    int
	MaxRenewals int
}

type Rules struct {
	Policies map[kdb.MemberKind]Policy

	// DailyFine is the charge per late day, in cents.
	DailyFine int64

	// MaxFinePerLoan caps the late charge of a loan. 0 means no cap.
	MaxFinePerLoan int64

	// LostBookFee is the charge for a lost copy, in cents.
	LostBookFee int64

	// BlockingFineTotal is the pending fine total which stops borrowing.
	// 0 means fines never stop borrowing.
	BlockingFineTotal int64

	// HoldPeriod is how long a copy is kept for a reservation.
	HoldPeriod time.Duration
}

// Default returns the rules used when nothing is configured.
func Default() Rules {
	return Rules{
		Policies: map[kdb.MemberKind]Policy{
			kdb.Student:   {LoanPeriod: 14 * day, MaxLoans: 3, MaxRenewals: 2},
			kdb.Professor: {LoanPeriod: 30 * day, MaxLoans: 10, MaxRenewals: 3},
			kdb.Employee:  {LoanPeriod: 21 * day, MaxLoans: 5, MaxRenewals: 2},
		},
		DailyFine:         100,
		MaxFinePerLoan:    5000,
		LostBookFee:       8000,
		BlockingFineTotal: 1,
		HoldPeriod:        48 * time.Hour,
	}
}

// PolicyFor returns the policy for the kind.
// Unknown kinds get the student policy, which is the strictest one by default.
func (r Rules) PolicyFor(kind kdb.MemberKind) Policy {
	if p, ok := r.Policies[kind]; ok {
		return p
	}
	return r.Policies[kdb.Student]
}

// BorrowState is what is known about a member at a borrowing.
type BorrowState struct {
	Kind   kdb.MemberKind
	Status kdb.MemberStatus

	// PendingFines is the total of pending fines, in cents.
	PendingFines int64

	ActiveLoans  int
	OverdueLoans int

	// AlreadyBorrowed is true when the member has an active loan of the same book.
	AlreadyBorrowed bool
}

// CheckBorrow tells whether the member may borrow one more book.
//
// Availability of copies is judged separately, by the caller.
func (r Rules) CheckBorrow(s BorrowState) error {
	if s.Status != kdb.MemberActive {
		return kdb.ErrMemberBlocked
	}
	if 0 < r.BlockingFineTotal && r.BlockingFineTotal <= s.PendingFines {
		return kdb.ErrHasPendingFines
	}
	if 0 < s.OverdueLoans {
		return kdb.ErrOverdue
	}
	if r.PolicyFor(s.Kind).MaxLoans <= s.ActiveLoans {
		return kdb.ErrLoanLimit
	}
	if s.AlreadyBorrowed {
		return kdb.ErrAlreadyBorrowed
	}
	return nil
}

// DueAt is the due of a loan started at from.
func (r Rules) DueAt(kind kdb.MemberKind, from time.Time) time.Time {
	return from.Add(r.PolicyFor(kind).LoanPeriod)
}

// RenewState is what is known about a loan at a renewal.
type RenewState struct {
	Loan kdb.Loan
	Kind kdb.MemberKind
	Now  time.Time

	// WaitingReservations is the number of members waiting for the book.
	WaitingReservations int
}

func (r Rules) CheckRenew(s RenewState) error {
	if s.Loan.Status != kdb.LoanActive {
		return kdb.ErrInvalidState
	}
	if s.Loan.Overdue(s.Now) {
		return kdb.ErrOverdue
	}
	if r.PolicyFor(s.Kind).MaxRenewals <= s.Loan.Renewals {
		return kdb.ErrRenewLimit
	}
	if 0 < s.WaitingReservations {
		return kdb.ErrReservedByOther
	}
	return nil
}

// RenewedDue is the due after a renewal: one more loan period from the current due.
func (r Rules) RenewedDue(loan kdb.Loan, kind kdb.MemberKind, now time.Time) time.Time {
	base := loan.DueAt
	if base.Before(now) {
		base = now
	}
	return r.DueAt(kind, base)
}

// DaysLate counts started days between due and at. It is 0 when at is not after due.
func DaysLate(due, at time.Time) int64 {
	late := at.Sub(due)
	if late <= 0 {
		return 0
	}
	days := int64(late / day)
	if late%day != 0 {
		days += 1
	}
	return days
}

// LateFee is the charge for returning at, for a loan due at due.
func (r Rules) LateFee(due, at time.Time) int64 {
	fee := DaysLate(due, at) * r.DailyFine
	if 0 < r.MaxFinePerLoan && r.MaxFinePerLoan < fee {
		fee = r.MaxFinePerLoan
	}
	return fee
}

// LostFee is the charge for a copy lost, reported at.
func (r Rules) LostFee(due, at time.Time) int64 {
	return r.LostBookFee + r.LateFee(due, at)
}

// ReserveState is what is known about a member at a reservation.
type ReserveState struct {
	Status kdb.MemberStatus

	AlreadyBorrowed bool
	AlreadyReserved bool
}

func (r Rules) CheckReserve(s ReserveState) error {
	if s.Status != kdb.MemberActive {
		return kdb.ErrMemberBlocked
	}
	if s.AlreadyBorrowed {
		return kdb.ErrAlreadyBorrowed
	}
	if s.AlreadyReserved {
		return kdb.ErrAlreadyReserved
	}
	return nil
}

// HoldUntil is the end of holding a copy which gets held at now.
func (r Rules) HoldUntil(now time.Time) time.Time {
	return now.Add(r.HoldPeriod)
}
