package db

import (
	"context"
	"time"
)

type ReservationStatus string

const (
	// in the queue.
	ReservationWaiting ReservationStatus = "waiting"

	// a copy is held for the member until ExpiresAt.
	ReservationAvailable ReservationStatus = "available"

	// the member borrowed the book.
	ReservationFulfilled ReservationStatus = "fulfilled"

	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

func AsReservationStatus(s string) (ReservationStatus, error) {
	switch ReservationStatus(s) {
	case ReservationWaiting, ReservationAvailable, ReservationFulfilled,
		ReservationCancelled, ReservationExpired:
		return ReservationStatus(s), nil
	default:
		return ReservationStatus(s), ErrInvalidState
	}
}

// Open tells the reservation is waiting or holding a copy.
func (s ReservationStatus) Open() bool {
	return s == ReservationWaiting || s == ReservationAvailable
}

type Reservation struct {
	ID string

	MemberID   string
	MemberName string
	BookID     string
	BookTitle  string

	// Position in the queue of the book, counted from 1.
	// It is 0 unless the reservation is waiting.
	Position int

	Status    ReservationStatus
	CreatedAt time.Time

	// NotifiedAt is when a copy got held for the member.
	NotifiedAt *time.Time

	// ExpiresAt is the end of holding.
	ExpiresAt *time.Time
}

type ReservationQuery struct {
	MemberID string
	BookID   string
	Status   ReservationStatus

	Page
}

type ReservationInterface interface {
	// Reserve puts the member into the queue of the book.
	//
	// When a copy is on the shelf, it is held for the member at once.
	//
	// # Returns
	//
	// - error: ErrMissing, or one of ErrMemberBlocked, ErrAlreadyBorrowed or ErrAlreadyReserved.
	Reserve(ctx context.Context, memberID, bookID string) (Reservation, error)

	// Cancel cancels an open reservation.
	//
	// A held copy goes to the next in the queue, or the shelf.
	//
	// # Returns
	//
	// - error: ErrInvalidState when the reservation is not open.
	Cancel(ctx context.Context, reservationID string) (Reservation, error)

	// ExpireHolds expires reservations holding a copy past their ExpiresAt,
	// and passes the copies to the next in each queue.
	//
	// # Returns
	//
	// - []Reservation: expired reservations
	ExpireHolds(ctx context.Context) ([]Reservation, error)

	Get(ctx context.Context, reservationID string) (Reservation, error)
	Find(ctx context.Context, query ReservationQuery) ([]Reservation, error)

	// Queue returns open reservations of the book; holding ones first, then waiting ones by position.
	Queue(ctx context.Context, bookID string) ([]Reservation, error)
}
