package db

import "context"

type LibraryDatabase interface {
	Catalog() CatalogInterface
	Accounts() AccountsInterface
	Loans() LoanInterface
	Reservations() ReservationInterface
	Fines() FineInterface
	Stats() StatsInterface
	Schema() SchemaInterface
	Close() error
}

type SchemaInterface interface {
	// Upgrade applies schema versions newer than the current one.
	Upgrade(ctx context.Context) error

	// Version returns the current schema version. 0 means the database is empty.
	Version(ctx context.Context) (int, error)

	// Context returns a context which is cancelled when the schema in the database
	// gets outdated against the schema repository.
	Context(ctx context.Context) (context.Context, context.CancelFunc)
}

// Page is a window of a listing.
type Page struct {
	// Limit is the max number of items. 0 or negative means DefaultLimit.
	Limit int

	// Offset is the number of items skipped.
	Offset int
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Normalize returns the page with Limit and Offset in range.
func (p Page) Normalize() Page {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if MaxLimit < limit {
		limit = MaxLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
