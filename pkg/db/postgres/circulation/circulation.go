// Package circulation implements loans, reservations and fines on PostgreSQL.
//
// Operations changing copies of a book take the lock of the book row first,
// so the number of available copies and reservation queues stay consistent.
package circulation

import (
	"context"
	"time"

	kcirc "github.com/opst/libris/pkg/circulation"
	kdb "github.com/opst/libris/pkg/db"
	kpgerr "github.com/opst/libris/pkg/db/postgres/errors"
	kpgintr "github.com/opst/libris/pkg/db/postgres/internal"
	kpool "github.com/opst/libris/pkg/db/postgres/pool"
)

type config struct {
	rules kcirc.Rules
	now   func() time.Time
}

type Option func(*config) *config

// WithRules replaces lending rules. Default is circulation.Default().
func WithRules(rules kcirc.Rules) Option {
	return func(c *config) *config {
		c.rules = rules
		return c
	}
}

// WithClock replaces the clock. Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *config) *config {
		c.now = now
		return c
	}
}

func newConfig(options []Option) *config {
	c := &config{rules: kcirc.Default(), now: time.Now}
	for _, o := range options {
		c = o(c)
	}
	return c
}

type memberState struct {
	Kind   kdb.MemberKind
	Status kdb.MemberStatus
}

// lockMember gets the member row with "for update" lock.
func lockMember(ctx context.Context, tx kpool.Tx, memberID string) (memberState, error) {
	if err := kpgintr.CheckID("member", memberID); err != nil {
		return memberState{}, err
	}
	var kind, status string
	if err := tx.QueryRow(
		ctx,
		`select "kind", "status" from "member" where "member_id" = $1 for update`,
		memberID,
	).Scan(&kind, &status); err != nil {
		return memberState{}, kpgerr.Interpret(err, "member", memberID)
	}
	return memberState{Kind: kdb.MemberKind(kind), Status: kdb.MemberStatus(status)}, nil
}

// hasActiveLoan tells the member has the book on loan.
func hasActiveLoan(ctx context.Context, conn kpool.Queryer, memberID, bookID string) (bool, error) {
	var found bool
	err := conn.QueryRow(
		ctx,
		`
		select exists (
			select 1 from "loan"
			where "member_id" = $1 and "book_id" = $2 and "status" = 'active'
		)
		`,
		memberID, bookID,
	).Scan(&found)
	return found, err
}

type openReservation struct {
	ID       string
	Status   kdb.ReservationStatus
	Position int
}

// lockOpenReservation gets the open reservation of the member for the book with lock.
//
// It returns nil when there are none.
func lockOpenReservation(ctx context.Context, tx kpool.Tx, memberID, bookID string) (*openReservation, error) {
	rows, err := tx.Query(
		ctx,
		`
		select "reservation_id", "status", "position" from "reservation"
		where "member_id" = $1 and "book_id" = $2 and "status" in ('waiting', 'available')
		for update
		`,
		memberID, bookID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found *openReservation
	for rows.Next() {
		r := openReservation{}
		var status string
		if err := rows.Scan(&r.ID, &status, &r.Position); err != nil {
			return nil, err
		}
		r.Status = kdb.ReservationStatus(status)
		found = &r
	}
	return found, rows.Err()
}
