package schema_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	dbtestenv "github.com/opst/libris/pkg/db/postgres/pool/testenv"
	"github.com/opst/libris/pkg/db/postgres/schema"
	"github.com/opst/libris/pkg/utils/try"
)

func TestVersions(t *testing.T) {
	t.Run("it lists numbered directories in numeric order", func(t *testing.T) {
		repo := t.TempDir()
		for _, d := range []string{"10", "2", "1", "draft"} {
			if err := os.Mkdir(filepath.Join(repo, d), 0o755); err != nil {
				t.Fatal(err)
			}
		}
		if err := os.WriteFile(filepath.Join(repo, "3"), []byte("not a directory"), 0o644); err != nil {
			t.Fatal(err)
		}

		vs := try.To(schema.Versions(repo)).OrFatal(t)

		got := []int{}
		for _, v := range vs {
			got = append(got, v.Version)
		}
		expected := []int{1, 2, 10}
		if len(got) != len(expected) {
			t.Fatalf("got %v, want %v", got, expected)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Errorf("got %v, want %v", got, expected)
			}
		}
		if latest := schema.Latest(vs); latest != 10 {
			t.Errorf("latest: got %d", latest)
		}
	})

	t.Run("it fails when the repository is missing", func(t *testing.T) {
		if _, err := schema.Versions(filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("expected error, but nil")
		}
	})

	t.Run("the schema repository in this tree has versions", func(t *testing.T) {
		vs := try.To(schema.Versions(dbtestenv.SchemaRepository())).OrFatal(t)
		if schema.Latest(vs) < 1 {
			t.Errorf("no versions found in %s", dbtestenv.SchemaRepository())
		}
	})

	t.Run("Latest of nothing is 0", func(t *testing.T) {
		if latest := schema.Latest(nil); latest != 0 {
			t.Errorf("got %d", latest)
		}
	})
}

func TestPgSchema_Upgrade(t *testing.T) {
	ctx := context.Background()
	pool := dbtestenv.NewPoolBroaker(ctx, t).GetPool(ctx, t)

	testee := schema.New(pool, dbtestenv.SchemaRepository())

	t.Run("the database is at the latest version", func(t *testing.T) {
		vs := try.To(schema.Versions(dbtestenv.SchemaRepository())).OrFatal(t)
		got := try.To(testee.Version(ctx)).OrFatal(t)
		if got != schema.Latest(vs) {
			t.Errorf("version: got %d, want %d", got, schema.Latest(vs))
		}
	})

	t.Run("upgrading again does nothing", func(t *testing.T) {
		before := try.To(testee.Version(ctx)).OrFatal(t)
		if err := testee.Upgrade(ctx); err != nil {
			t.Fatal(err)
		}
		after := try.To(testee.Version(ctx)).OrFatal(t)
		if before != after {
			t.Errorf("version changed: %d -> %d", before, after)
		}
	})

	t.Run("Context is not cancelled while the schema is up to date", func(t *testing.T) {
		cctx, cancel := testee.Context(ctx)
		defer cancel()
		if err := cctx.Err(); err != nil {
			t.Errorf("context is done: %v", context.Cause(cctx))
		}
	})
}
