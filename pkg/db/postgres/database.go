package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	kcirc "github.com/opst/libris/pkg/circulation"
	kdb "github.com/opst/libris/pkg/db"
	kpgacct "github.com/opst/libris/pkg/db/postgres/accounts"
	kpgcat "github.com/opst/libris/pkg/db/postgres/catalog"
	kpgcirc "github.com/opst/libris/pkg/db/postgres/circulation"
	kpool "github.com/opst/libris/pkg/db/postgres/pool"
	kpgschema "github.com/opst/libris/pkg/db/postgres/schema"
	kpgstats "github.com/opst/libris/pkg/db/postgres/stats"
	xe "github.com/opst/libris/pkg/errors"
)

type librisDBPostgres struct {
	pool         *pgxpool.Pool
	catalog      kdb.CatalogInterface
	accounts     kdb.AccountsInterface
	loans        kdb.LoanInterface
	reservations kdb.ReservationInterface
	fines        kdb.FineInterface
	stats        kdb.StatsInterface
	schema       kdb.SchemaInterface
}

type Config struct {
	Rules            kcirc.Rules
	Clock            func() time.Time
	SchemaRepository string
}

func DefaultConfig() Config {
	return Config{
		Rules: kcirc.Default(),
		Clock: time.Now,
	}
}

type Option func(*Config) *Config

// WithRules sets lending rules.
func WithRules(rules kcirc.Rules) Option {
	return func(c *Config) *Config {
		c.Rules = rules
		return c
	}
}

func WithClock(clock func() time.Time) Option {
	return func(c *Config) *Config {
		c.Clock = clock
		return c
	}
}

// WithSchemaRepository sets the directory of schema versions.
//
// Without this, Schema() does nothing.
func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (kdb.LibraryDatabase, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := DefaultConfig()
	for _, option := range options {
		c = *option(&c)
	}

	return newWithPool(pool, c), nil
}

func newWithPool(pool *pgxpool.Pool, c Config) *librisDBPostgres {
	p := kpool.Wrap(pool)
	var schema kdb.SchemaInterface = kpgschema.Null()
	if c.SchemaRepository != "" {
		schema = kpgschema.New(p, c.SchemaRepository)
	}

	circOpts := []kpgcirc.Option{kpgcirc.WithRules(c.Rules), kpgcirc.WithClock(c.Clock)}
	return &librisDBPostgres{
		pool: pool,
		catalog: kpgcat.New(
			p, kpgcat.WithClock(c.Clock), kpgcat.WithHoldUntil(c.Rules.HoldUntil),
		),
		accounts:     kpgacct.New(p),
		loans:        kpgcirc.NewLoans(p, circOpts...),
		reservations: kpgcirc.NewReservations(p, circOpts...),
		fines:        kpgcirc.NewFines(p, circOpts...),
		stats:        kpgstats.New(p, kpgstats.WithClock(c.Clock)),
		schema:       schema,
	}
}

func (l *librisDBPostgres) Catalog() kdb.CatalogInterface {
	return l.catalog
}

func (l *librisDBPostgres) Accounts() kdb.AccountsInterface {
	return l.accounts
}

func (l *librisDBPostgres) Loans() kdb.LoanInterface {
	return l.loans
}

func (l *librisDBPostgres) Reservations() kdb.ReservationInterface {
	return l.reservations
}

func (l *librisDBPostgres) Fines() kdb.FineInterface {
	return l.fines
}

func (l *librisDBPostgres) Stats() kdb.StatsInterface {
	return l.stats
}

func (l *librisDBPostgres) Schema() kdb.SchemaInterface {
	return l.schema
}

func (l *librisDBPostgres) Close() error {
	l.pool.Close()
	return nil
}
