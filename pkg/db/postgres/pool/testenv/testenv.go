package testenv

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/opst/libris/pkg/db/postgres/pool"
	kpgschema "github.com/opst/libris/pkg/db/postgres/schema"
)

// EnvDatabase is the environment variable naming a database for tests.
//
// Tests using this package are skipped when it is empty.
// Tables in the database are truncated by tests. DO NOT SET A DATABASE IN USE.
const EnvDatabase = "LIBRIS_TEST_DATABASE"

// PoolBroaker is a interface to get a pool.
type PoolBroaker interface {
	// GetPool returns a pool.
	//
	// Tables are cleaned up before returning and after t.
	GetPool(ctx context.Context, t *testing.T) kpool.Pool
}

type pg struct {
	pool *pgxpool.Pool
}

func (p *pg) GetPool(ctx context.Context, t *testing.T) kpool.Pool {
	t.Helper()
	t.Cleanup(func() {
		ClearTables(context.Background(), p.pool, t)
	})

	ClearTables(ctx, p.pool, t)
	return kpool.Wrap(p.pool)
}

var upgradeOnce sync.Once

// NewPoolBroaker returns a PoolBroaker connected to the database in LIBRIS_TEST_DATABASE.
//
// The schema is upgraded to the latest at the first call.
// When the environment variable is empty, t is skipped.
func NewPoolBroaker(ctx context.Context, t *testing.T) PoolBroaker {
	t.Helper()

	uri := os.Getenv(EnvDatabase)
	if uri == "" {
		t.Skipf("%s is not set. skip tests with database.", EnvDatabase)
	}

	pool, err := pgxpool.Connect(ctx, uri)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	var upgradeErr error
	upgradeOnce.Do(func() {
		upgradeErr = kpgschema.New(kpool.Wrap(pool), SchemaRepository()).Upgrade(ctx)
	})
	if upgradeErr != nil {
		t.Fatal(upgradeErr)
	}

	return &pg{pool: pool}
}

// SchemaRepository returns path to the schema repository in this source tree.
func SchemaRepository() string {
	_, file, _, _ := runtime.Caller(0)
	// file = <root>/pkg/db/postgres/pool/testenv/testenv.go
	root := filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "..")
	return filepath.Join(root, "schema", "postgres")
}

// ClearTables truncates all tables except "schema_version".
func ClearTables(ctx context.Context, pool *pgxpool.Pool, t *testing.T) {
	t.Helper()
	if _, err := pool.Exec(
		ctx,
		`
		truncate table
			"fine", "reservation", "loan",
			"book_author", "book_category", "book", "author", "category",
			"member", "staff"
		cascade
		`,
	); err != nil {
		t.Fatal(err)
	}
}
