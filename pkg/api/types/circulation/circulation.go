package circulation

import (
	"time"

	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/utils"
)

type Loan struct {
	ID         string     `json:"id"`
	MemberID   string     `json:"memberId"`
	MemberName string     `json:"memberName"`
	BookID     string     `json:"bookId"`
	BookTitle  string     `json:"bookTitle"`
	StaffID    string     `json:"staffId,omitempty"`
	LoanedAt   time.Time  `json:"loanedAt"`
	DueAt      time.Time  `json:"dueAt"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`
	Renewals   int        `json:"renewals"`
	Status     string     `json:"status"`
	Overdue    bool       `json:"overdue"`
}

// ComposeLoan converts a loan. Overdue is judged at now.
func ComposeLoan(l kdb.Loan, now time.Time) Loan {
	return Loan{
		ID:         l.ID,
		MemberID:   l.MemberID,
		MemberName: l.MemberName,
		BookID:     l.BookID,
		BookTitle:  l.BookTitle,
		StaffID:    l.StaffID,
		LoanedAt:   l.LoanedAt,
		DueAt:      l.DueAt,
		ReturnedAt: l.ReturnedAt,
		Renewals:   l.Renewals,
		Status:     string(l.Status),
		Overdue:    l.Overdue(now),
	}
}

func ComposeLoans(ls []kdb.Loan, now time.Time) []Loan {
	return utils.Map(ls, func(l kdb.Loan) Loan { return ComposeLoan(l, now) })
}

type BorrowRequest struct {
	MemberID string `json:"memberId"`
	BookID   string `json:"bookId"`
}

type Reservation struct {
	ID         string     `json:"id"`
	MemberID   string     `json:"memberId"`
	MemberName string     `json:"memberName"`
	BookID     string     `json:"bookId"`
	BookTitle  string     `json:"bookTitle"`
	Position   int        `json:"position,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	NotifiedAt *time.Time `json:"notifiedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

func ComposeReservation(r kdb.Reservation) Reservation {
	return Reservation{
		ID:         r.ID,
		MemberID:   r.MemberID,
		MemberName: r.MemberName,
		BookID:     r.BookID,
		BookTitle:  r.BookTitle,
		Position:   r.Position,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		NotifiedAt: r.NotifiedAt,
		ExpiresAt:  r.ExpiresAt,
	}
}

type ReserveRequest struct {
	// MemberID may be omitted by members reserving for themselves.
	MemberID string `json:"memberId"`
	BookID   string `json:"bookId"`
}

type Fine struct {
	ID          string     `json:"id"`
	MemberID    string     `json:"memberId"`
	LoanID      string     `json:"loanId"`
	Reason      string     `json:"reason"`
	AmountCents int64      `json:"amountCents"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	SettledAt   *time.Time `json:"settledAt,omitempty"`
	SettledBy   string     `json:"settledBy,omitempty"`
}

func ComposeFine(f kdb.Fine) Fine {
	return Fine{
		ID:          f.ID,
		MemberID:    f.MemberID,
		LoanID:      f.LoanID,
		Reason:      string(f.Reason),
		AmountCents: f.Amount,
		Status:      string(f.Status),
		CreatedAt:   f.CreatedAt,
		SettledAt:   f.SettledAt,
		SettledBy:   f.SettledBy,
	}
}

type FineSummary struct {
	MemberID     string `json:"memberId"`
	PendingCents int64  `json:"pendingCents"`
	PaidCents    int64  `json:"paidCents"`
	WaivedCents  int64  `json:"waivedCents"`
}

func ComposeFineSummary(s kdb.FineSummary) FineSummary {
	return FineSummary{
		MemberID:     s.MemberID,
		PendingCents: s.Pending,
		PaidCents:    s.Paid,
		WaivedCents:  s.Waived,
	}
}

// MemberFines is fines of a member with their totals.
type MemberFines struct {
	Summary FineSummary `json:"summary"`
	Fines   []Fine      `json:"fines"`
}

// Settlement is a result of closing a loan.
type Settlement struct {
	Loan     Loan         `json:"loan"`
	Fine     *Fine        `json:"fine,omitempty"`
	Promoted *Reservation `json:"promoted,omitempty"`
}

func ComposeSettlement(s kdb.Settlement, now time.Time) Settlement {
	return Settlement{
		Loan: ComposeLoan(s.Loan, now),
		Fine: utils.IfNotNil(s.Fine, func(f *kdb.Fine) *Fine {
			c := ComposeFine(*f)
			return &c
		}),
		Promoted: utils.IfNotNil(s.Promoted, func(r *kdb.Reservation) *Reservation {
			c := ComposeReservation(*r)
			return &c
		}),
	}
}
