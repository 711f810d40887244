package db

import "context"

// Stats is a snapshot of the library for dashboards.
type Stats struct {
	Books           int
	CopiesTotal     int
	CopiesAvailable int

	MembersActive    int
	MembersSuspended int

	ActiveLoans         int
	OverdueLoans        int
	WaitingReservations int
	HeldReservations    int

	// in cents
	PendingFines int64
}

// BookCount is how many times a book has been borrowed.
type BookCount struct {
	BookID    string
	BookTitle string
	Loans     int
}

type StatsInterface interface {
	Get(ctx context.Context) (Stats, error)

	// Popular returns the most borrowed books, most first.
	// Ties are ordered by title.
	Popular(ctx context.Context, limit int) ([]BookCount, error)
}
