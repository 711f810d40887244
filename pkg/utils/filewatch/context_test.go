package filewatch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opst/libris/pkg/utils/filewatch"
)

func touch(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func waitDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(d):
		return false
	}
}

func TestUntilModifyContext(t *testing.T) {
	for name, testcase := range map[string]struct {
		// prepare returns targets to be watched
		prepare func(t *testing.T, dir string) []string
		modify  func(t *testing.T, dir string)
		then    bool
	}{
		"when a file is created in a watched directory, it cancels context": {
			prepare: func(t *testing.T, dir string) []string { return []string{dir} },
			modify:  func(t *testing.T, dir string) { touch(t, filepath.Join(dir, "file"), "") },
			then:    true,
		},
		"when a watched file is written, it cancels context": {
			prepare: func(t *testing.T, dir string) []string {
				touch(t, filepath.Join(dir, "libris.yaml"), "port: 80")
				return []string{filepath.Join(dir, "libris.yaml")}
			},
			modify: func(t *testing.T, dir string) { touch(t, filepath.Join(dir, "libris.yaml"), "port: 81") },
			then:   true,
		},
		"when a watched file is replaced by rename, it cancels context": {
			prepare: func(t *testing.T, dir string) []string {
				touch(t, filepath.Join(dir, "libris.yaml"), "port: 80")
				return []string{filepath.Join(dir, "libris.yaml")}
			},
			modify: func(t *testing.T, dir string) {
				touch(t, filepath.Join(dir, "libris.yaml.new"), "port: 81")
				if err := os.Rename(filepath.Join(dir, "libris.yaml.new"), filepath.Join(dir, "libris.yaml")); err != nil {
					t.Fatal(err)
				}
			},
			then: true,
		},
		"when a watched file is deleted, it cancels context": {
			prepare: func(t *testing.T, dir string) []string {
				touch(t, filepath.Join(dir, "libris.yaml"), "port: 80")
				return []string{filepath.Join(dir, "libris.yaml")}
			},
			modify: func(t *testing.T, dir string) {
				if err := os.Remove(filepath.Join(dir, "libris.yaml")); err != nil {
					t.Fatal(err)
				}
			},
			then: true,
		},
		"when a neighbor of a watched file is written, it does not cancel context": {
			prepare: func(t *testing.T, dir string) []string {
				touch(t, filepath.Join(dir, "libris.yaml"), "port: 80")
				return []string{filepath.Join(dir, "libris.yaml")}
			},
			modify: func(t *testing.T, dir string) { touch(t, filepath.Join(dir, "other.yaml"), "x") },
			then:   false,
		},
		"empty targets are ignored": {
			prepare: func(t *testing.T, dir string) []string { return []string{"", dir} },
			modify:  func(t *testing.T, dir string) {},
			then:    false,
		},
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			targets := testcase.prepare(t, dir)

			ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), targets...)
			if err != nil {
				t.Fatal(err)
			}
			defer cancel()
			if err := ctx.Err(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testcase.modify(t, dir)

			wait := 5 * time.Second
			if !testcase.then {
				wait = 200 * time.Millisecond
			}
			if got := waitDone(ctx, wait); got != testcase.then {
				t.Errorf("canceled: expected %v, but %v (cause: %v)", testcase.then, got, context.Cause(ctx))
			}
		})
	}

	t.Run("cancel function cancels context without cause", func(t *testing.T) {
		ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		cancel()
		if !errors.Is(ctx.Err(), context.Canceled) {
			t.Errorf("unexpected: %v", ctx.Err())
		}
	})

	t.Run("missing target is an error", func(t *testing.T) {
		_, _, err := filewatch.UntilModifyContext(context.Background(), filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected ErrNotExist, but %v", err)
		}
	})
}
