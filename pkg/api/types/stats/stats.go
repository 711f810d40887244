package stats

import kdb "github.com/opst/libris/pkg/db"

type Stats struct {
	Books           int `json:"books"`
	CopiesTotal     int `json:"copiesTotal"`
	CopiesAvailable int `json:"copiesAvailable"`

	MembersActive    int `json:"membersActive"`
	MembersSuspended int `json:"membersSuspended"`

	ActiveLoans         int `json:"activeLoans"`
	OverdueLoans        int `json:"overdueLoans"`
	WaitingReservations int `json:"waitingReservations"`
	HeldReservations    int `json:"heldReservations"`

	PendingFinesCents int64 `json:"pendingFinesCents"`
}

func Compose(s kdb.Stats) Stats {
	return Stats{
		Books:               s.Books,
		CopiesTotal:         s.CopiesTotal,
		CopiesAvailable:     s.CopiesAvailable,
		MembersActive:       s.MembersActive,
		MembersSuspended:    s.MembersSuspended,
		ActiveLoans:         s.ActiveLoans,
		OverdueLoans:        s.OverdueLoans,
		WaitingReservations: s.WaitingReservations,
		HeldReservations:    s.HeldReservations,
		PendingFinesCents:   s.PendingFines,
	}
}

type BookCount struct {
	BookID    string `json:"bookId"`
	BookTitle string `json:"bookTitle"`
	Loans     int    `json:"loans"`
}

func ComposeBookCount(b kdb.BookCount) BookCount {
	return BookCount{BookID: b.BookID, BookTitle: b.BookTitle, Loans: b.Loans}
}
