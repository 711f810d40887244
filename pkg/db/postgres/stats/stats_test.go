package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	kcirc "github.com/opst/libris/pkg/circulation"
	kdb "github.com/opst/libris/pkg/db"
	kpgacct "github.com/opst/libris/pkg/db/postgres/accounts"
	kpgcat "github.com/opst/libris/pkg/db/postgres/catalog"
	kpgcirc "github.com/opst/libris/pkg/db/postgres/circulation"
	"github.com/opst/libris/pkg/db/postgres/pool/testenv"
	"github.com/opst/libris/pkg/db/postgres/stats"
	"github.com/opst/libris/pkg/utils/try"
)

func TestStats(t *testing.T) {
	ctx := context.Background()
	pool := testenv.NewPoolBroaker(ctx, t).GetPool(ctx, t)

	now := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	rules := kcirc.Default()

	catalog := kpgcat.New(pool, kpgcat.WithClock(clock), kpgcat.WithHoldUntil(rules.HoldUntil))
	accounts := kpgacct.New(pool)
	loans := kpgcirc.NewLoans(pool, kpgcirc.WithRules(rules), kpgcirc.WithClock(clock))
	reservations := kpgcirc.NewReservations(pool, kpgcirc.WithRules(rules), kpgcirc.WithClock(clock))

	member := func(name string) kdb.Member {
		return try.To(accounts.RegisterMember(ctx, kdb.MemberSpec{
			Name: name, Email: name + "@example.edu", Registration: name, Kind: kdb.Professor,
		}, []byte("hash"))).OrFatal(t)
	}
	alice, bob, carol := member("alice"), member("bob"), member("carol")
	try.To(accounts.SetMemberStatus(ctx, carol.ID, kdb.MemberSuspended)).OrFatal(t)

	rose := try.To(catalog.CreateBook(ctx, kdb.BookSpec{Title: "The Name of the Rose"}, 1)).OrFatal(t)
	dune := try.To(catalog.CreateBook(ctx, kdb.BookSpec{Title: "Dune"}, 3)).OrFatal(t)
	try.To(catalog.CreateBook(ctx, kdb.BookSpec{Title: "Unread"}, 2)).OrFatal(t)

	l := try.To(loans.Borrow(ctx, alice.ID, dune.ID, "")).OrFatal(t)
	try.To(loans.Return(ctx, l.ID)).OrFatal(t)
	try.To(loans.Borrow(ctx, alice.ID, dune.ID, "")).OrFatal(t)
	try.To(loans.Borrow(ctx, bob.ID, rose.ID, "")).OrFatal(t)
	try.To(reservations.Reserve(ctx, alice.ID, rose.ID)).OrFatal(t)

	testee := stats.New(pool, stats.WithClock(func() time.Time { return now.Add(60 * 24 * time.Hour) }))

	t.Run("Get", func(t *testing.T) {
		got := try.To(testee.Get(ctx)).OrFatal(t)
		expected := kdb.Stats{
			Books:               3,
			CopiesTotal:         6,
			CopiesAvailable:     4,
			MembersActive:       2,
			MembersSuspended:    1,
			ActiveLoans:         2,
			OverdueLoans:        2,
			WaitingReservations: 1,
			HeldReservations:    0,
			PendingFines:        0,
		}
		if diff := cmp.Diff(expected, got); diff != "" {
			t.Errorf("(-want +got): %s", diff)
		}
	})

	t.Run("Popular", func(t *testing.T) {
		got := try.To(testee.Popular(ctx, 10)).OrFatal(t)
		expected := []kdb.BookCount{
			{BookID: dune.ID, BookTitle: "Dune", Loans: 2},
			{BookID: rose.ID, BookTitle: "The Name of the Rose", Loans: 1},
		}
		if diff := cmp.Diff(expected, got); diff != "" {
			t.Errorf("(-want +got): %s", diff)
		}

		top := try.To(testee.Popular(ctx, 1)).OrFatal(t)
		if len(top) != 1 || top[0].BookID != dune.ID {
			t.Errorf("top: %+v", top)
		}
	})
}
