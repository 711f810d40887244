package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	testctx "github.com/opst/libris/internal/testutils/context"
	"github.com/opst/libris/pkg/auth"
	kdb "github.com/opst/libris/pkg/db"
	mockdb "github.com/opst/libris/pkg/db/mocks"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func runCLI(t *testing.T, db kdb.LibraryDatabase, args ...string) (string, error) {
	t.Helper()
	opener := func(ctx context.Context, path string) (kdb.LibraryDatabase, error) {
		if path != "libris.yaml" {
			t.Errorf("config path = %q, want %q", path, "libris.yaml")
		}
		return db, nil
	}
	cmd := newRootCommand(opener, func() time.Time { return now })
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--config", "libris.yaml"}, args...))
	err := cmd.ExecuteContext(testctx.WithTest(context.Background(), t))
	return out.String(), err
}

func requireContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(out, w) {
			t.Errorf("output does not contain %q:\n%s", w, out)
		}
	}
}

func TestConfigIsRequired(t *testing.T) {
	cmd := newRootCommand(func(ctx context.Context, path string) (kdb.LibraryDatabase, error) {
		t.Fatal("database should not be opened")
		return nil, nil
	}, time.Now)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"schema", "version", "--config", " "})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("expected error, but nil")
	}
}

func TestSchemaCommands(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		db := mockdb.NewLibraryDatabase()
		db.MockSchema.Impl.Version = func(ctx context.Context) (int, error) { return 2, nil }

		out, err := runCLI(t, db, "schema", "version")
		if err != nil {
			t.Fatal(err)
		}
		requireContains(t, out, "schema version: 2")
	})

	t.Run("upgrade", func(t *testing.T) {
		version := 1
		db := mockdb.NewLibraryDatabase()
		db.MockSchema.Impl.Version = func(ctx context.Context) (int, error) { return version, nil }
		db.MockSchema.Impl.Upgrade = func(ctx context.Context) error {
			version = 2
			return nil
		}

		out, err := runCLI(t, db, "schema", "upgrade")
		if err != nil {
			t.Fatal(err)
		}
		requireContains(t, out, "schema upgraded: 1 -> 2")
	})

	t.Run("upgrade when up to date", func(t *testing.T) {
		db := mockdb.NewLibraryDatabase()
		db.MockSchema.Impl.Version = func(ctx context.Context) (int, error) { return 2, nil }

		out, err := runCLI(t, db, "schema", "upgrade")
		if err != nil {
			t.Fatal(err)
		}
		requireContains(t, out, "up to date (version 2)")
	})

	t.Run("upgrade fails", func(t *testing.T) {
		expectedError := errors.New("expected error")
		db := mockdb.NewLibraryDatabase()
		db.MockSchema.Impl.Upgrade = func(ctx context.Context) error { return expectedError }

		if _, err := runCLI(t, db, "schema", "upgrade"); !errors.Is(err, expectedError) {
			t.Errorf("err = %v, want %v", err, expectedError)
		}
	})
}

func TestStaffCreateCommand(t *testing.T) {
	t.Run("it creates staff with hashed password", func(t *testing.T) {
		db := mockdb.NewLibraryDatabase()
		db.MockAccounts.Impl.CreateStaff = func(ctx context.Context, spec kdb.StaffSpec, hash []byte) (kdb.Staff, error) {
			return kdb.Staff{ID: "staff-1", StaffSpec: spec}, nil
		}

		out, err := runCLI(
			t, db, "staff", "create",
			"--name", "Bob", "--email", "bob@example.edu", "--role", "admin", "--password", "correct horse",
		)
		if err != nil {
			t.Fatal(err)
		}
		requireContains(t, out, "staff created: staff-1 (bob@example.edu, admin)")

		calls := db.MockAccounts.Calls.CreateStaff
		if calls.Times() != 1 {
			t.Fatalf("CreateStaff is called %d times", calls.Times())
		}
		want := kdb.StaffSpec{Name: "Bob", Email: "bob@example.edu", Role: kdb.RoleAdmin}
		if diff := cmp.Diff(want, calls[0].Spec); diff != "" {
			t.Errorf("spec (-want +got): %s", diff)
		}
		if !auth.ComparePassword(calls[0].PasswordHash, "correct horse") {
			t.Errorf("password is not hashed from the given one")
		}
	})

	t.Run("password can be given by environment", func(t *testing.T) {
		t.Setenv(EnvStaffPassword, "from environment")
		db := mockdb.NewLibraryDatabase()
		db.MockAccounts.Impl.CreateStaff = func(ctx context.Context, spec kdb.StaffSpec, hash []byte) (kdb.Staff, error) {
			return kdb.Staff{ID: "staff-1", StaffSpec: spec}, nil
		}

		if _, err := runCLI(t, db, "staff", "create", "--name", "Bob", "--email", "bob@example.edu"); err != nil {
			t.Fatal(err)
		}
		calls := db.MockAccounts.Calls.CreateStaff
		if calls.Times() != 1 || !auth.ComparePassword(calls[0].PasswordHash, "from environment") {
			t.Errorf("password is not taken from %s", EnvStaffPassword)
		}
		if calls[0].Spec.Role != kdb.RoleLibrarian {
			t.Errorf("role = %s, want %s", calls[0].Spec.Role, kdb.RoleLibrarian)
		}
	})

	for name, args := range map[string][]string{
		"short password": {"--name", "Bob", "--email", "bob@example.edu", "--password", "short"},
		"member role":    {"--name", "Bob", "--email", "bob@example.edu", "--password", "correct horse", "--role", "member"},
		"no name":        {"--email", "bob@example.edu", "--password", "correct horse"},
	} {
		t.Run("it refuses "+name, func(t *testing.T) {
			t.Setenv(EnvStaffPassword, "")
			db := mockdb.NewLibraryDatabase()

			if _, err := runCLI(t, db, append([]string{"staff", "create"}, args...)...); err == nil {
				t.Error("expected error, but nil")
			}
			if db.MockAccounts.Calls.CreateStaff.Times() != 0 {
				t.Error("CreateStaff should not be called")
			}
		})
	}

	t.Run("duplicated email", func(t *testing.T) {
		db := mockdb.NewLibraryDatabase()
		db.MockAccounts.Impl.CreateStaff = func(ctx context.Context, spec kdb.StaffSpec, hash []byte) (kdb.Staff, error) {
			return kdb.Staff{}, kdb.ErrConflict
		}

		_, err := runCLI(
			t, db, "staff", "create",
			"--name", "Bob", "--email", "bob@example.edu", "--password", "correct horse",
		)
		if !errors.Is(err, kdb.ErrConflict) {
			t.Errorf("err = %v, want %v", err, kdb.ErrConflict)
		}
	})
}

func TestReportOverdueCommand(t *testing.T) {
	t.Run("it lists overdue loans, most late first", func(t *testing.T) {
		db := mockdb.NewLibraryDatabase()
		db.MockLoans.Impl.Find = func(ctx context.Context, q kdb.LoanQuery) ([]kdb.Loan, error) {
			if !q.OverdueOnly {
				t.Errorf("query should be OverdueOnly: %+v", q)
			}
			return []kdb.Loan{
				{ID: "loan-1", MemberName: "Ann", BookTitle: "Dune", DueAt: now.Add(-36 * time.Hour), Status: kdb.LoanActive},
				{ID: "loan-2", MemberName: "Ben", BookTitle: "Emma", DueAt: now.Add(-10 * 24 * time.Hour), Status: kdb.LoanActive},
			}, nil
		}

		out, err := runCLI(t, db, "report", "overdue")
		if err != nil {
			t.Fatal(err)
		}
		requireContains(t, out, "Days Late", "Dune", "Emma", "2 loan(s) overdue")
		if strings.Index(out, "loan-2") > strings.Index(out, "loan-1") {
			t.Errorf("loan-2 should come first:\n%s", out)
		}
	})

	t.Run("without overdue loans", func(t *testing.T) {
		db := mockdb.NewLibraryDatabase()
		db.MockLoans.Impl.Find = func(ctx context.Context, q kdb.LoanQuery) ([]kdb.Loan, error) {
			return []kdb.Loan{}, nil
		}

		out, err := runCLI(t, db, "report", "overdue")
		if err != nil {
			t.Fatal(err)
		}
		requireContains(t, out, "no overdue loans")
	})
}

func TestReportFinesCommand(t *testing.T) {
	t.Run("it sums pending fines per member", func(t *testing.T) {
		db := mockdb.NewLibraryDatabase()
		db.MockFines.Impl.Find = func(ctx context.Context, q kdb.FineQuery) ([]kdb.Fine, error) {
			if q.Status != kdb.FinePending {
				t.Errorf("status = %s, want %s", q.Status, kdb.FinePending)
			}
			return []kdb.Fine{
				{ID: "fine-1", MemberID: "member-1", Amount: 200, Status: kdb.FinePending},
				{ID: "fine-2", MemberID: "member-2", Amount: 8000, Status: kdb.FinePending},
				{ID: "fine-3", MemberID: "member-1", Amount: 150, Status: kdb.FinePending},
			}, nil
		}

		out, err := runCLI(t, db, "report", "fines")
		if err != nil {
			t.Fatal(err)
		}
		requireContains(t, out, "member-1", "3.50", "80.00", "total pending: 83.50 (3 fine(s))")
	})

	t.Run("with status", func(t *testing.T) {
		db := mockdb.NewLibraryDatabase()
		db.MockFines.Impl.Find = func(ctx context.Context, q kdb.FineQuery) ([]kdb.Fine, error) {
			if q.Status != kdb.FineWaived {
				t.Errorf("status = %s, want %s", q.Status, kdb.FineWaived)
			}
			return []kdb.Fine{}, nil
		}

		out, err := runCLI(t, db, "report", "fines", "--status", "waived")
		if err != nil {
			t.Fatal(err)
		}
		requireContains(t, out, "no waived fines")
	})

	t.Run("with unknown status", func(t *testing.T) {
		if _, err := runCLI(t, mockdb.NewLibraryDatabase(), "report", "fines", "--status", "lost"); err == nil {
			t.Error("expected error, but nil")
		}
	})
}

func TestSweepHoldsCommand(t *testing.T) {
	expires := now.Add(-time.Hour)
	db := mockdb.NewLibraryDatabase()
	db.MockReservations.Impl.ExpireHolds = func(ctx context.Context) ([]kdb.Reservation, error) {
		return []kdb.Reservation{
			{ID: "res-1", MemberName: "Ann", BookTitle: "Dune", Status: kdb.ReservationExpired, ExpiresAt: &expires},
		}, nil
	}

	out, err := runCLI(t, db, "sweep", "holds")
	if err != nil {
		t.Fatal(err)
	}
	requireContains(t, out, "res-1", "Dune", "1 hold(s) expired")
}

func TestCollect(t *testing.T) {
	pages := [][]int{make([]int, 500), make([]int, 3)}
	offsets := []int{}
	got, err := collect(func(p kdb.Page) ([]int, error) {
		offsets = append(offsets, p.Offset)
		return pages[len(offsets)-1], nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 503 {
		t.Errorf("len = %d, want 503", len(got))
	}
	if diff := cmp.Diff([]int{0, 500}, offsets); diff != "" {
		t.Errorf("offsets (-want +got): %s", diff)
	}
}

func TestFormatCents(t *testing.T) {
	for in, want := range map[int64]string{0: "0.00", 5: "0.05", 1234: "12.34", -250: "-2.50"} {
		if got := formatCents(in); got != want {
			t.Errorf("formatCents(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, mockdb.NewLibraryDatabase(), "version")
	if err != nil {
		t.Fatal(err)
	}
	requireContains(t, out, "librisctl dev (commit: unknown)")
}
