package holds_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/opst/libris/cmd/libris_loops/tasks/holds"
	kdb "github.com/opst/libris/pkg/db"
	mockdb "github.com/opst/libris/pkg/db/mocks"
)

func TestHoldExpiryTask(t *testing.T) {
	t.Run("when holds are expired, it reports them as updated", func(t *testing.T) {
		dbres := mockdb.NewReservationInterface()
		dbres.Impl.ExpireHolds = func(ctx context.Context) ([]kdb.Reservation, error) {
			return []kdb.Reservation{
				{ID: "res-1", MemberID: "member-1", BookTitle: "Dune", Status: kdb.ReservationExpired},
				{ID: "res-2", MemberID: "member-2", BookTitle: "Emma", Status: kdb.ReservationExpired},
			}, nil
		}
		buf := new(bytes.Buffer)

		testee := holds.Task(log.New(buf, "", 0), dbres)
		expired, updated, err := testee(context.Background(), 3)

		if err != nil {
			t.Fatal(err)
		}
		if expired != 5 || !updated {
			t.Errorf("(expired, updated) = (%d, %v), want (5, true)", expired, updated)
		}
		if got := strings.Count(buf.String(), "hold expired"); got != 2 {
			t.Errorf("logged %d holds, want 2:\n%s", got, buf.String())
		}
		if dbres.Calls.ExpireHolds.Times() != 1 {
			t.Errorf("ExpireHolds is called %d times", dbres.Calls.ExpireHolds.Times())
		}
	})

	t.Run("when nothing is expired, it reports not updated", func(t *testing.T) {
		dbres := mockdb.NewReservationInterface()
		dbres.Impl.ExpireHolds = func(ctx context.Context) ([]kdb.Reservation, error) {
			return []kdb.Reservation{}, nil
		}

		testee := holds.Task(log.New(new(bytes.Buffer), "", 0), dbres)
		expired, updated, err := testee(context.Background(), holds.Seed())

		if expired != 0 || updated || err != nil {
			t.Errorf("(expired, updated, err) = (%d, %v, %v), want (0, false, nil)", expired, updated, err)
		}
	})

	t.Run("when the database fails, it passes the error", func(t *testing.T) {
		expectedError := errors.New("expected error")
		dbres := mockdb.NewReservationInterface()
		dbres.Impl.ExpireHolds = func(ctx context.Context) ([]kdb.Reservation, error) {
			return nil, expectedError
		}

		testee := holds.Task(log.New(new(bytes.Buffer), "", 0), dbres)
		expired, updated, err := testee(context.Background(), 7)

		if !errors.Is(err, expectedError) {
			t.Errorf("err = %v, want %v", err, expectedError)
		}
		if expired != 7 || updated {
			t.Errorf("(expired, updated) = (%d, %v), want (7, false)", expired, updated)
		}
	})
}
