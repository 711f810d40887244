package overdue

import (
	"context"
	"log"
	"time"

	kcirc "github.com/opst/libris/pkg/circulation"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/loop"
)

// initial value for task: number of overdue loans found in the last run.
func Seed() int {
	return 0
}

// return:
//
// - task: log active loans past due. It never reports updates, so the loop
// always waits its cooldown.
func Task(logger *log.Logger, dbloan kdb.LoanInterface, now func() time.Time) loop.Recurring[int] {
	return func(ctx context.Context, _ int) (int, bool, error) {
		at := now()
		page := kdb.Page{Limit: kdb.MaxLimit}
		count := 0
		for {
			loans, err := dbloan.Find(ctx, kdb.LoanQuery{OverdueOnly: true, Page: page})
			if err != nil {
				return count, false, err
			}
			for _, l := range loans {
				logger.Printf(
					"overdue: loan %s, %q by %s (member %s), %d day(s) past due",
					l.ID, l.BookTitle, l.MemberName, l.MemberID, kcirc.DaysLate(l.DueAt, at),
				)
			}
			count += len(loans)
			if len(loans) < page.Limit {
				break
			}
			page.Offset += len(loans)
		}
		logger.Printf("%d loan(s) overdue", count)
		return count, false, nil
	}
}
