package internal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	kdb "github.com/opst/libris/pkg/db"
	kpgerr "github.com/opst/libris/pkg/db/postgres/errors"
	kpool "github.com/opst/libris/pkg/db/postgres/pool"
)

const ReservationColumns = `
	"reservation"."reservation_id",
	"reservation"."member_id", "member"."name",
	"reservation"."book_id", "book"."title",
	"reservation"."position", "reservation"."status", "reservation"."created_at",
	"reservation"."notified_at", "reservation"."expires_at"
`

const ReservationFrom = `
	from "reservation"
	inner join "member" on "member"."member_id" = "reservation"."member_id"
	inner join "book" on "book"."book_id" = "reservation"."book_id"
`

func ScanReservation(row pgx.Row) (kdb.Reservation, error) {
	r := kdb.Reservation{}
	var status string
	if err := row.Scan(
		&r.ID,
		&r.MemberID, &r.MemberName,
		&r.BookID, &r.BookTitle,
		&r.Position, &status, &r.CreatedAt,
		&r.NotifiedAt, &r.ExpiresAt,
	); err != nil {
		return kdb.Reservation{}, err
	}
	s, err := kdb.AsReservationStatus(status)
	if err != nil {
		return kdb.Reservation{}, err
	}
	r.Status = s
	return r, nil
}

func GetReservation(ctx context.Context, conn kpool.Queryer, id string) (kdb.Reservation, error) {
	if err := CheckID("reservation", id); err != nil {
		return kdb.Reservation{}, err
	}
	r, err := ScanReservation(conn.QueryRow(
		ctx,
		`select `+ReservationColumns+ReservationFrom+` where "reservation"."reservation_id" = $1`,
		id,
	))
	if err != nil {
		return kdb.Reservation{}, kpgerr.Interpret(err, "reservation", id)
	}
	return r, nil
}

// LeaveQueue moves up reservations waiting behind position.
//
// The caller should hold the lock of the book row.
func LeaveQueue(ctx context.Context, tx kpool.Tx, bookID string, position int) error {
	if position <= 0 {
		return nil
	}
	_, err := tx.Exec(
		ctx,
		`
		update "reservation" set "position" = "position" - 1
		where "book_id" = $1 and "status" = 'waiting' and $2 < "position"
		`,
		bookID, position,
	)
	return err
}

// ReleaseCopy passes a freed copy of the book to the head of its queue.
//
// When somebody is waiting, the copy is held for the first one until holdUntil.
// Otherwise the copy goes back to the shelf.
//
// The caller should hold the lock of the book row.
//
// # Returns
//
// - *kdb.Reservation: the reservation which got the copy. nil when the copy went to the shelf.
//
// - error
func ReleaseCopy(ctx context.Context, tx kpool.Tx, bookID string, now, holdUntil time.Time) (*kdb.Reservation, error) {
	var reservationID string
	var position int
	err := tx.QueryRow(
		ctx,
		`
		select "reservation_id", "position" from "reservation"
		where "book_id" = $1 and "status" = 'waiting'
		order by "position" limit 1
		for update
		`,
		bookID,
	).Scan(&reservationID, &position)

	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := tx.Exec(
			ctx,
			`
			update "book"
			set "available_copies" = "available_copies" + 1, "updated_at" = $2
			where "book_id" = $1
			`,
			bookID, now,
		); err != nil {
			return nil, err
		}
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "reservation"
		set "status" = 'available', "position" = 0, "notified_at" = $2, "expires_at" = $3
		where "reservation_id" = $1
		`,
		reservationID, now, holdUntil,
	); err != nil {
		return nil, err
	}
	if err := LeaveQueue(ctx, tx, bookID, position); err != nil {
		return nil, err
	}

	r, err := GetReservation(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
