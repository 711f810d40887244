package holds

import (
	"context"
	"log"

	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/loop"
)

// initial value for task: number of holds expired so far.
func Seed() int {
	return 0
}

// return:
//
// - task: expire reservations holding a copy too long, and pass the copies to
// the next members in queues.
func Task(logger *log.Logger, dbres kdb.ReservationInterface) loop.Recurring[int] {
	return func(ctx context.Context, expired int) (int, bool, error) {
		rs, err := dbres.ExpireHolds(ctx)
		if err != nil {
			return expired, false, err
		}
		for _, r := range rs {
			logger.Printf(
				"hold expired: reservation %s (member %s, book %q)",
				r.ID, r.MemberID, r.BookTitle,
			)
		}
		return expired + len(rs), 0 < len(rs), nil
	}
}
