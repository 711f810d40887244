package circulation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	kdb "github.com/opst/libris/pkg/db"
	kpgerr "github.com/opst/libris/pkg/db/postgres/errors"
	kpgintr "github.com/opst/libris/pkg/db/postgres/internal"
	kpool "github.com/opst/libris/pkg/db/postgres/pool"
	xe "github.com/opst/libris/pkg/errors"
)

type pgFines struct {
	pool kpool.Pool
	*config
}

func NewFines(pool kpool.Pool, options ...Option) kdb.FineInterface {
	return &pgFines{pool: pool, config: newConfig(options)}
}

const fineColumns = `
	"fine_id", "member_id", "loan_id", "reason", "amount", "status",
	"created_at", "settled_at", coalesce("settled_by"::text, '')
`

func scanFine(row pgx.Row) (kdb.Fine, error) {
	f := kdb.Fine{}
	var reason, status string
	if err := row.Scan(
		&f.ID, &f.MemberID, &f.LoanID, &reason, &f.Amount, &status,
		&f.CreatedAt, &f.SettledAt, &f.SettledBy,
	); err != nil {
		return kdb.Fine{}, err
	}
	f.Reason = kdb.FineReason(reason)
	s, err := kdb.AsFineStatus(status)
	if err != nil {
		return kdb.Fine{}, err
	}
	f.Status = s
	return f, nil
}

func insertFine(
	ctx context.Context, tx kpool.Tx,
	memberID, loanID string, reason kdb.FineReason, amount int64, now time.Time,
) (kdb.Fine, error) {
	id := kpgintr.NewID()
	f, err := scanFine(tx.QueryRow(
		ctx,
		`
		insert into "fine" ("fine_id", "member_id", "loan_id", "reason", "amount", "created_at")
		values ($1, $2, $3, $4, $5, $6)
		returning `+fineColumns,
		id, memberID, loanID, string(reason), amount, now,
	))
	if err != nil {
		return kdb.Fine{}, kpgerr.Interpret(err, "fine", id)
	}
	return f, nil
}

func (f *pgFines) Get(ctx context.Context, fineID string) (kdb.Fine, error) {
	if err := kpgintr.CheckID("fine", fineID); err != nil {
		return kdb.Fine{}, err
	}
	fine, err := scanFine(f.pool.QueryRow(
		ctx, `select `+fineColumns+` from "fine" where "fine_id" = $1`, fineID,
	))
	if err != nil {
		return kdb.Fine{}, kpgerr.Interpret(err, "fine", fineID)
	}
	return fine, nil
}

func (f *pgFines) Find(ctx context.Context, query kdb.FineQuery) ([]kdb.Fine, error) {
	page := query.Page.Normalize()

	w := kpgintr.Where{}
	if query.MemberID != "" {
		if kpgintr.CheckID("member", query.MemberID) != nil {
			return []kdb.Fine{}, nil
		}
		w.Add(`"member_id" = ?`, query.MemberID)
	}
	if query.Status != "" {
		w.Add(`"status" = ?`, string(query.Status))
	}
	limit := w.Param(page.Limit)
	offset := w.Param(page.Offset)

	rows, err := f.pool.Query(
		ctx,
		`select `+fineColumns+` from "fine" `+w.Clause()+
			` order by "created_at" desc, "fine_id" limit `+limit+` offset `+offset,
		w.Args()...,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	result := []kdb.Fine{}
	for rows.Next() {
		fine, err := scanFine(rows)
		if err != nil {
			return nil, xe.Wrap(err)
		}
		result = append(result, fine)
	}
	return result, xe.Wrap(rows.Err())
}

// settle changes a pending fine into status.
func (f *pgFines) settle(ctx context.Context, fineID string, status kdb.FineStatus, staffID string) (kdb.Fine, error) {
	if err := kpgintr.CheckID("fine", fineID); err != nil {
		return kdb.Fine{}, err
	}
	fine, err := scanFine(f.pool.QueryRow(
		ctx,
		`
		update "fine" set "status" = $2, "settled_at" = $3, "settled_by" = $4
		where "fine_id" = $1 and "status" = 'pending'
		returning `+fineColumns,
		fineID, string(status), f.now(), kpgintr.NullIfEmpty(staffID),
	))
	if err == nil {
		return fine, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return kdb.Fine{}, xe.Wrap(kpgerr.Interpret(err, "fine", fineID))
	}

	// not pending, or not found.
	if _, err := f.Get(ctx, fineID); err != nil {
		return kdb.Fine{}, err
	}
	return kdb.Fine{}, kdb.ErrInvalidState
}

func (f *pgFines) Pay(ctx context.Context, fineID string) (kdb.Fine, error) {
	return f.settle(ctx, fineID, kdb.FinePaid, "")
}

func (f *pgFines) Waive(ctx context.Context, fineID string, staffID string) (kdb.Fine, error) {
	return f.settle(ctx, fineID, kdb.FineWaived, staffID)
}

func (f *pgFines) Summary(ctx context.Context, memberID string) (kdb.FineSummary, error) {
	if err := kpgintr.CheckID("member", memberID); err != nil {
		return kdb.FineSummary{}, err
	}
	s := kdb.FineSummary{MemberID: memberID}
	var exists bool
	if err := f.pool.QueryRow(
		ctx,
		`
		select
			exists (select 1 from "member" where "member_id" = $1),
			coalesce(sum("amount") filter (where "status" = 'pending'), 0)::bigint,
			coalesce(sum("amount") filter (where "status" = 'paid'), 0)::bigint,
			coalesce(sum("amount") filter (where "status" = 'waived'), 0)::bigint
		from "fine" where "member_id" = $1
		`,
		memberID,
	).Scan(&exists, &s.Pending, &s.Paid, &s.Waived); err != nil {
		return kdb.FineSummary{}, xe.Wrap(err)
	}
	if !exists {
		return kdb.FineSummary{}, kpgerr.Missing{Table: "member", Identity: memberID}
	}
	return s, nil
}
