package stats

import (
	"context"
	"time"

	kdb "github.com/opst/libris/pkg/db"
	kpool "github.com/opst/libris/pkg/db/postgres/pool"
	xe "github.com/opst/libris/pkg/errors"
)

type pgStats struct {
	pool kpool.Pool
	now  func() time.Time
}

type Option func(*pgStats) *pgStats

// WithClock replaces the clock deciding overdue loans. Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *pgStats) *pgStats {
		s.now = now
		return s
	}
}

func New(pool kpool.Pool, options ...Option) kdb.StatsInterface {
	s := &pgStats{pool: pool, now: time.Now}
	for _, o := range options {
		s = o(s)
	}
	return s
}

func (s *pgStats) Get(ctx context.Context) (kdb.Stats, error) {
	st := kdb.Stats{}
	if err := s.pool.QueryRow(
		ctx,
		`
		with
		"b" as (
			select
				count(*) as "books",
				coalesce(sum("total_copies"), 0)::int as "total",
				coalesce(sum("available_copies"), 0)::int as "available"
			from "book"
		),
		"m" as (
			select
				count(*) filter (where "status" = 'active') as "active",
				count(*) filter (where "status" = 'suspended') as "suspended"
			from "member"
		),
		"l" as (
			select
				count(*) as "active",
				count(*) filter (where "due_at" < $1) as "overdue"
			from "loan" where "status" = 'active'
		),
		"r" as (
			select
				count(*) filter (where "status" = 'waiting') as "waiting",
				count(*) filter (where "status" = 'available') as "held"
			from "reservation"
		),
		"f" as (
			select coalesce(sum("amount"), 0)::bigint as "pending"
			from "fine" where "status" = 'pending'
		)
		select
			"b"."books", "b"."total", "b"."available",
			"m"."active", "m"."suspended",
			"l"."active", "l"."overdue",
			"r"."waiting", "r"."held",
			"f"."pending"
		from "b", "m", "l", "r", "f"
		`,
		s.now(),
	).Scan(
		&st.Books, &st.CopiesTotal, &st.CopiesAvailable,
		&st.MembersActive, &st.MembersSuspended,
		&st.ActiveLoans, &st.OverdueLoans,
		&st.WaitingReservations, &st.HeldReservations,
		&st.PendingFines,
	); err != nil {
		return kdb.Stats{}, xe.Wrap(err)
	}
	return st, nil
}

func (s *pgStats) Popular(ctx context.Context, limit int) ([]kdb.BookCount, error) {
	limit = kdb.Page{Limit: limit}.Normalize().Limit
	rows, err := s.pool.Query(
		ctx,
		`
		select "book"."book_id"::text, "book"."title", count("loan"."loan_id")::int as "loans"
		from "book"
		inner join "loan" using ("book_id")
		group by "book"."book_id", "book"."title"
		order by "loans" desc, "book"."title", "book"."book_id"
		limit $1
		`,
		limit,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	counts := []kdb.BookCount{}
	for rows.Next() {
		c := kdb.BookCount{}
		if err := rows.Scan(&c.BookID, &c.BookTitle, &c.Loans); err != nil {
			return nil, xe.Wrap(err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, xe.Wrap(err)
	}
	return counts, nil
}
