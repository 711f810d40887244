package circulation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	kcirc "github.com/opst/libris/pkg/circulation"
	kdb "github.com/opst/libris/pkg/db"
	kpgerr "github.com/opst/libris/pkg/db/postgres/errors"
	kpgintr "github.com/opst/libris/pkg/db/postgres/internal"
	kpool "github.com/opst/libris/pkg/db/postgres/pool"
	xe "github.com/opst/libris/pkg/errors"
)

type pgLoans struct {
	pool kpool.Pool
	*config
}

func NewLoans(pool kpool.Pool, options ...Option) kdb.LoanInterface {
	return &pgLoans{pool: pool, config: newConfig(options)}
}

const loanColumns = `
	"loan"."loan_id",
	"loan"."member_id", "member"."name",
	"loan"."book_id", "book"."title",
	coalesce("loan"."staff_id"::text, ''),
	"loan"."loaned_at", "loan"."due_at", "loan"."returned_at",
	"loan"."renewals", "loan"."status"
`

const loanFrom = `
	from "loan"
	inner join "member" on "member"."member_id" = "loan"."member_id"
	inner join "book" on "book"."book_id" = "loan"."book_id"
`

func scanLoan(row pgx.Row) (kdb.Loan, error) {
	l := kdb.Loan{}
	var returnedAt pgtype.Timestamptz
	var status string
	if err := row.Scan(
		&l.ID,
		&l.MemberID, &l.MemberName,
		&l.BookID, &l.BookTitle,
		&l.StaffID,
		&l.LoanedAt, &l.DueAt, &returnedAt,
		&l.Renewals, &status,
	); err != nil {
		return kdb.Loan{}, err
	}
	if returnedAt.Status == pgtype.Present {
		t := returnedAt.Time
		l.ReturnedAt = &t
	}
	s, err := kdb.AsLoanStatus(status)
	if err != nil {
		return kdb.Loan{}, err
	}
	l.Status = s
	return l, nil
}

func getLoan(ctx context.Context, conn kpool.Queryer, loanID string) (kdb.Loan, error) {
	if err := kpgintr.CheckID("loan", loanID); err != nil {
		return kdb.Loan{}, err
	}
	l, err := scanLoan(conn.QueryRow(
		ctx, `select `+loanColumns+loanFrom+` where "loan"."loan_id" = $1`, loanID,
	))
	if err != nil {
		return kdb.Loan{}, kpgerr.Interpret(err, "loan", loanID)
	}
	return l, nil
}

// lockLoan gets the loan with the lock of the loan row.
func lockLoan(ctx context.Context, tx kpool.Tx, loanID string) (kdb.Loan, error) {
	if err := kpgintr.CheckID("loan", loanID); err != nil {
		return kdb.Loan{}, err
	}
	l, err := scanLoan(tx.QueryRow(
		ctx,
		`select `+loanColumns+loanFrom+` where "loan"."loan_id" = $1 for update of "loan"`,
		loanID,
	))
	if err != nil {
		return kdb.Loan{}, kpgerr.Interpret(err, "loan", loanID)
	}
	return l, nil
}

func (l *pgLoans) borrowState(ctx context.Context, tx kpool.Tx, memberID, bookID string, member memberState, now time.Time) (kcirc.BorrowState, error) {
	state := kcirc.BorrowState{Kind: member.Kind, Status: member.Status}

	if err := tx.QueryRow(
		ctx,
		`
		select coalesce(sum("amount"), 0)::bigint from "fine"
		where "member_id" = $1 and "status" = 'pending'
		`,
		memberID,
	).Scan(&state.PendingFines); err != nil {
		return state, err
	}

	var sameBook int
	if err := tx.QueryRow(
		ctx,
		`
		select
			count(*),
			count(*) filter (where "due_at" < $2),
			count(*) filter (where "book_id" = $3)
		from "loan"
		where "member_id" = $1 and "status" = 'active'
		`,
		memberID, now, bookID,
	).Scan(&state.ActiveLoans, &state.OverdueLoans, &sameBook); err != nil {
		return state, err
	}
	state.AlreadyBorrowed = 0 < sameBook
	return state, nil
}

func (l *pgLoans) Borrow(ctx context.Context, memberID, bookID, staffID string) (kdb.Loan, error) {
	var loan kdb.Loan
	err := kpool.InTx(ctx, l.pool, func(tx kpool.Tx) error {
		now := l.now()

		member, err := lockMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		book, err := kpgintr.LockBook(ctx, tx, bookID)
		if err != nil {
			return err
		}

		state, err := l.borrowState(ctx, tx, memberID, bookID, member, now)
		if err != nil {
			return err
		}
		if err := l.rules.CheckBorrow(state); err != nil {
			return err
		}

		reservation, err := lockOpenReservation(ctx, tx, memberID, bookID)
		if err != nil {
			return err
		}

		switch {
		case reservation != nil && reservation.Status == kdb.ReservationAvailable:
			// the held copy is handed over.
		case 0 < book.AvailableCopies:
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
		default:
			var held int
			if err := tx.QueryRow(
				ctx,
				`select count(*) from "reservation" where "book_id" = $1 and "status" = 'available'`,
				bookID,
			).Scan(&held); err != nil {
				return err
			}
			if 0 < held {
				return kdb.ErrReservedByOther
			}
			return kdb.ErrNotAvailable
		}

		if reservation != nil {
			if _, err := tx.Exec(
				ctx,
				`
				update "reservation" set "status" = 'fulfilled', "position" = 0
				where "reservation_id" = $1
				`,
				reservation.ID,
			); err != nil {
				return err
			}
			if reservation.Status == kdb.ReservationWaiting {
				if err := kpgintr.LeaveQueue(ctx, tx, bookID, reservation.Position); err != nil {
					return err
				}
			}
		}

		loanID := kpgintr.NewID()
		if _, err := tx.Exec(
			ctx,
			`
			insert into "loan" ("loan_id", "member_id", "book_id", "staff_id", "loaned_at", "due_at")
			values ($1, $2, $3, $4, $5, $6)
			`,
			loanID, memberID, bookID, kpgintr.NullIfEmpty(staffID),
			now, l.rules.DueAt(member.Kind, now),
		); err != nil {
			return kpgerr.Interpret(err, "loan", loanID)
		}

		loan, err = getLoan(ctx, tx, loanID)
		return err
	})
	if err != nil {
		return kdb.Loan{}, xe.Wrap(err)
	}
	return loan, nil
}

func (l *pgLoans) Renew(ctx context.Context, loanID string) (kdb.Loan, error) {
	var loan kdb.Loan
	err := kpool.InTx(ctx, l.pool, func(tx kpool.Tx) error {
		now := l.now()
		current, err := lockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}

		var kind string
		var waiting int
		if err := tx.QueryRow(
			ctx,
			`
			select
				(select "kind" from "member" where "member_id" = $1),
				(select count(*) from "reservation" where "book_id" = $2 and "status" = 'waiting')
			`,
			current.MemberID, current.BookID,
		).Scan(&kind, &waiting); err != nil {
			return err
		}

		if err := l.rules.CheckRenew(kcirc.RenewState{
			Loan:                current,
			Kind:                kdb.MemberKind(kind),
			Now:                 now,
			WaitingReservations: waiting,
		}); err != nil {
			return err
		}

		if _, err := tx.Exec(
			ctx,
			`
			update "loan" set "due_at" = $2, "renewals" = "renewals" + 1
			where "loan_id" = $1
			`,
			loanID, l.rules.RenewedDue(current, kdb.MemberKind(kind), now),
		); err != nil {
			return err
		}

		loan, err = getLoan(ctx, tx, loanID)
		return err
	})
	if err != nil {
		return kdb.Loan{}, xe.Wrap(err)
	}
	return loan, nil
}

// closeLoan closes an active loan with the status, then charges fee when it is positive.
func (l *pgLoans) closeLoan(
	ctx context.Context, tx kpool.Tx, loan kdb.Loan, status kdb.LoanStatus,
	reason kdb.FineReason, fee int64, now time.Time,
) (*kdb.Fine, error) {
	if _, err := tx.Exec(
		ctx,
		`update "loan" set "status" = $2, "returned_at" = $3 where "loan_id" = $1`,
		loan.ID, string(status), now,
	); err != nil {
		return nil, err
	}
	if fee <= 0 {
		return nil, nil
	}
	f, err := insertFine(ctx, tx, loan.MemberID, loan.ID, reason, fee, now)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (l *pgLoans) Return(ctx context.Context, loanID string) (kdb.Settlement, error) {
	settlement := kdb.Settlement{}
	err := kpool.InTx(ctx, l.pool, func(tx kpool.Tx) error {
		now := l.now()
		loan, err := lockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != kdb.LoanActive {
			return kdb.ErrInvalidState
		}
		if _, err := kpgintr.LockBook(ctx, tx, loan.BookID); err != nil {
			return err
		}

		fine, err := l.closeLoan(
			ctx, tx, loan, kdb.LoanReturned, kdb.FineLate, l.rules.LateFee(loan.DueAt, now), now,
		)
		if err != nil {
			return err
		}
		promoted, err := kpgintr.ReleaseCopy(ctx, tx, loan.BookID, now, l.rules.HoldUntil(now))
		if err != nil {
			return err
		}

		closed, err := getLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		settlement = kdb.Settlement{Loan: closed, Fine: fine, Promoted: promoted}
		return nil
	})
	if err != nil {
		return kdb.Settlement{}, xe.Wrap(err)
	}
	return settlement, nil
}

func (l *pgLoans) MarkLost(ctx context.Context, loanID string) (kdb.Settlement, error) {
	settlement := kdb.Settlement{}
	err := kpool.InTx(ctx, l.pool, func(tx kpool.Tx) error {
		now := l.now()
		loan, err := lockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != kdb.LoanActive {
			return kdb.ErrInvalidState
		}
		if _, err := kpgintr.LockBook(ctx, tx, loan.BookID); err != nil {
			return err
		}

		fine, err := l.closeLoan(
			ctx, tx, loan, kdb.LoanLost, kdb.FineLost, l.rules.LostFee(loan.DueAt, now), now,
		)
		if err != nil {
			return err
		}

		// the copy was out, so it is not counted in available copies.
		if _, err := tx.Exec(
			ctx,
			`
			update "book" set "total_copies" = "total_copies" - 1, "updated_at" = $2
			where "book_id" = $1
			`,
			loan.BookID, now,
		); err != nil {
			return err
		}

		closed, err := getLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		settlement = kdb.Settlement{Loan: closed, Fine: fine}
		return nil
	})
	if err != nil {
		return kdb.Settlement{}, xe.Wrap(err)
	}
	return settlement, nil
}

func (l *pgLoans) Get(ctx context.Context, loanID string) (kdb.Loan, error) {
	loan, err := getLoan(ctx, l.pool, loanID)
	if err != nil {
		if errors.Is(err, kdb.ErrMissing) {
			return kdb.Loan{}, err
		}
		return kdb.Loan{}, xe.Wrap(err)
	}
	return loan, nil
}

func (l *pgLoans) Find(ctx context.Context, query kdb.LoanQuery) ([]kdb.Loan, error) {
	page := query.Page.Normalize()

	w := kpgintr.Where{}
	if query.MemberID != "" {
		if kpgintr.CheckID("member", query.MemberID) != nil {
			return []kdb.Loan{}, nil
		}
		w.Add(`"loan"."member_id" = ?`, query.MemberID)
	}
	if query.BookID != "" {
		if kpgintr.CheckID("book", query.BookID) != nil {
			return []kdb.Loan{}, nil
		}
		w.Add(`"loan"."book_id" = ?`, query.BookID)
	}
	if query.Status != "" {
		w.Add(`"loan"."status" = ?`, string(query.Status))
	}
	order := `"loan"."loaned_at" desc, "loan"."loan_id"`
	if query.OverdueOnly {
		w.AddRaw(`"loan"."status" = 'active'`)
		w.Add(`"loan"."due_at" < ?`, l.now())
		order = `"loan"."due_at", "loan"."loan_id"`
	}
	limit := w.Param(page.Limit)
	offset := w.Param(page.Offset)

	rows, err := l.pool.Query(
		ctx,
		`select `+loanColumns+loanFrom+w.Clause()+
			` order by `+order+` limit `+limit+` offset `+offset,
		w.Args()...,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	result := []kdb.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, xe.Wrap(err)
		}
		result = append(result, loan)
	}
	return result, xe.Wrap(rows.Err())
}
