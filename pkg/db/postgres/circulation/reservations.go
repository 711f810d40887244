package circulation

import (
	"context"
	"errors"

	kcirc "github.com/opst/libris/pkg/circulation"
	kdb "github.com/opst/libris/pkg/db"
	kpgerr "github.com/opst/libris/pkg/db/postgres/errors"
	kpgintr "github.com/opst/libris/pkg/db/postgres/internal"
	kpool "github.com/opst/libris/pkg/db/postgres/pool"
	xe "github.com/opst/libris/pkg/errors"
)

type pgReservations struct {
	pool kpool.Pool
	*config
}

func NewReservations(pool kpool.Pool, options ...Option) kdb.ReservationInterface {
	return &pgReservations{pool: pool, config: newConfig(options)}
}

func (r *pgReservations) Reserve(ctx context.Context, memberID, bookID string) (kdb.Reservation, error) {
	var reservation kdb.Reservation
	err := kpool.InTx(ctx, r.pool, func(tx kpool.Tx) error {
		now := r.now()

		member, err := lockMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		book, err := kpgintr.LockBook(ctx, tx, bookID)
		if err != nil {
			return err
		}

		borrowed, err := hasActiveLoan(ctx, tx, memberID, bookID)
		if err != nil {
			return err
		}
		open, err := lockOpenReservation(ctx, tx, memberID, bookID)
		if err != nil {
			return err
		}
		if err := r.rules.CheckReserve(kcirc.ReserveState{
			Status:          member.Status,
			AlreadyBorrowed: borrowed,
			AlreadyReserved: open != nil,
		}); err != nil {
			return err
		}

		id := kpgintr.NewID()
		if 0 < book.AvailableCopies {
			// a copy is on the shelf. hold it at once.
			if _, err := tx.Exec(
				ctx,
				`
				insert into "reservation" (
					"reservation_id", "member_id", "book_id", "position", "status",
					"created_at", "notified_at", "expires_at"
				)
				values ($1, $2, $3, 0, 'available', $4, $4, $5)
				`,
				id, memberID, bookID, now, r.rules.HoldUntil(now),
			); err != nil {
				return kpgerr.Interpret(err, "reservation", id)
			}
			if _, err := tx.Exec(
				ctx,
				`
				update "book"
				set "available_copies" = "available_copies" - 1, "updated_at" = $2
				where "book_id" = $1
				`,
				bookID, now,
			); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec(
				ctx,
				`
				insert into "reservation" (
					"reservation_id", "member_id", "book_id", "position", "status", "created_at"
				)
				select $1, $2, $3, coalesce(max("position"), 0) + 1, 'waiting', $4
				from "reservation"
				where "book_id" = $3 and "status" = 'waiting'
				`,
				id, memberID, bookID, now,
			); err != nil {
				return kpgerr.Interpret(err, "reservation", id)
			}
		}

		reservation, err = kpgintr.GetReservation(ctx, tx, id)
		return err
	})
	if err != nil {
		return kdb.Reservation{}, xe.Wrap(err)
	}
	return reservation, nil
}

func (r *pgReservations) Cancel(ctx context.Context, reservationID string) (kdb.Reservation, error) {
	var reservation kdb.Reservation
	err := kpool.InTx(ctx, r.pool, func(tx kpool.Tx) error {
		now := r.now()

		current, err := kpgintr.GetReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if _, err := kpgintr.LockBook(ctx, tx, current.BookID); err != nil {
			return err
		}

		// read again under the lock of the book.
		current, err = kpgintr.GetReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if !current.Status.Open() {
			return kdb.ErrInvalidState
		}

		if _, err := tx.Exec(
			ctx,
			`
			update "reservation" set "status" = 'cancelled', "position" = 0
			where "reservation_id" = $1
			`,
			reservationID,
		); err != nil {
			return err
		}

		switch current.Status {
		case kdb.ReservationWaiting:
			if err := kpgintr.LeaveQueue(ctx, tx, current.BookID, current.Position); err != nil {
				return err
			}
		case kdb.ReservationAvailable:
			if _, err := kpgintr.ReleaseCopy(
				ctx, tx, current.BookID, now, r.rules.HoldUntil(now),
			); err != nil {
				return err
			}
		}

		reservation, err = kpgintr.GetReservation(ctx, tx, reservationID)
		return err
	})
	if err != nil {
		return kdb.Reservation{}, xe.Wrap(err)
	}
	return reservation, nil
}

type expiring struct {
	ReservationID string
	BookID        string
}

func (r *pgReservations) ExpireHolds(ctx context.Context) ([]kdb.Reservation, error) {
	now := r.now()

	rows, err := r.pool.Query(
		ctx,
		`
		select "reservation_id", "book_id" from "reservation"
		where "status" = 'available' and "expires_at" <= $1
		order by "expires_at"
		`,
		now,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	candidates := []expiring{}
	for rows.Next() {
		e := expiring{}
		if err := rows.Scan(&e.ReservationID, &e.BookID); err != nil {
			rows.Close()
			return nil, xe.Wrap(err)
		}
		candidates = append(candidates, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, xe.Wrap(err)
	}

	expired := []kdb.Reservation{}
	for _, e := range candidates {
		var got *kdb.Reservation
		err := kpool.InTx(ctx, r.pool, func(tx kpool.Tx) error {
			if _, err := kpgintr.LockBook(ctx, tx, e.BookID); err != nil {
				return err
			}
			ctag, err := tx.Exec(
				ctx,
				`
				update "reservation" set "status" = 'expired'
				where "reservation_id" = $1 and "status" = 'available' and "expires_at" <= $2
				`,
				e.ReservationID, now,
			)
			if err != nil {
				return err
			}
			if ctag.RowsAffected() == 0 {
				// borrowed or cancelled meanwhile.
				return nil
			}
			if _, err := kpgintr.ReleaseCopy(ctx, tx, e.BookID, now, r.rules.HoldUntil(now)); err != nil {
				return err
			}
			res, err := kpgintr.GetReservation(ctx, tx, e.ReservationID)
			if err != nil {
				return err
			}
			got = &res
			return nil
		})
		if err != nil {
			return expired, xe.Wrap(err)
		}
		if got != nil {
			expired = append(expired, *got)
		}
	}
	return expired, nil
}

func (r *pgReservations) Get(ctx context.Context, reservationID string) (kdb.Reservation, error) {
	res, err := kpgintr.GetReservation(ctx, r.pool, reservationID)
	if err != nil {
		if errors.Is(err, kdb.ErrMissing) {
			return kdb.Reservation{}, err
		}
		return kdb.Reservation{}, xe.Wrap(err)
	}
	return res, nil
}

func (r *pgReservations) find(ctx context.Context, w *kpgintr.Where, order string, page kdb.Page) ([]kdb.Reservation, error) {
	page = page.Normalize()
	limit := w.Param(page.Limit)
	offset := w.Param(page.Offset)

	rows, err := r.pool.Query(
		ctx,
		`select `+kpgintr.ReservationColumns+kpgintr.ReservationFrom+w.Clause()+
			` order by `+order+` limit `+limit+` offset `+offset,
		w.Args()...,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	result := []kdb.Reservation{}
	for rows.Next() {
		res, err := kpgintr.ScanReservation(rows)
		if err != nil {
			return nil, xe.Wrap(err)
		}
		result = append(result, res)
	}
	return result, xe.Wrap(rows.Err())
}

func (r *pgReservations) Find(ctx context.Context, query kdb.ReservationQuery) ([]kdb.Reservation, error) {
	w := &kpgintr.Where{}
	if query.MemberID != "" {
		if kpgintr.CheckID("member", query.MemberID) != nil {
			return []kdb.Reservation{}, nil
		}
		w.Add(`"reservation"."member_id" = ?`, query.MemberID)
	}
	if query.BookID != "" {
		if kpgintr.CheckID("book", query.BookID) != nil {
			return []kdb.Reservation{}, nil
		}
		w.Add(`"reservation"."book_id" = ?`, query.BookID)
	}
	if query.Status != "" {
		w.Add(`"reservation"."status" = ?`, string(query.Status))
	}
	return r.find(
		ctx, w,
		`"reservation"."created_at" desc, "reservation"."reservation_id"`,
		query.Page,
	)
}

func (r *pgReservations) Queue(ctx context.Context, bookID string) ([]kdb.Reservation, error) {
	if err := kpgintr.CheckID("book", bookID); err != nil {
		return nil, err
	}
	var exists bool
	if err := r.pool.QueryRow(
		ctx, `select exists (select 1 from "book" where "book_id" = $1)`, bookID,
	).Scan(&exists); err != nil {
		return nil, xe.Wrap(err)
	}
	if !exists {
		return nil, kpgerr.Missing{Table: "book", Identity: bookID}
	}

	w := &kpgintr.Where{}
	w.Add(`"reservation"."book_id" = ?`, bookID)
	w.AddRaw(`"reservation"."status" in ('waiting', 'available')`)
	return r.find(
		ctx, w,
		`
		case when "reservation"."status" = 'available' then 0 else 1 end,
		"reservation"."position", "reservation"."created_at"
		`,
		kdb.Page{Limit: kdb.MaxLimit},
	)
}
