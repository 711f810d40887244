package mocks

import (
	"context"

	kdb "github.com/opst/libris/pkg/db"
)

// LibraryDatabase bundles mocks of each interface.
type LibraryDatabase struct {
	MockCatalog      *CatalogInterface
	MockAccounts     *AccountsInterface
	MockLoans        *LoanInterface
	MockReservations *ReservationInterface
	MockFines        *FineInterface
	MockStats        *StatsInterface
	MockSchema       *SchemaInterface
}

func NewLibraryDatabase() *LibraryDatabase {
	return &LibraryDatabase{
		MockCatalog:      NewCatalogInterface(),
		MockAccounts:     NewAccountsInterface(),
		MockLoans:        NewLoanInterface(),
		MockReservations: NewReservationInterface(),
		MockFines:        NewFineInterface(),
		MockStats:        NewStatsInterface(),
		MockSchema:       NewSchemaInterface(),
	}
}

var _ kdb.LibraryDatabase = &LibraryDatabase{}

func (m *LibraryDatabase) Catalog() kdb.CatalogInterface {
	return m.MockCatalog
}

func (m *LibraryDatabase) Accounts() kdb.AccountsInterface {
	return m.MockAccounts
}

func (m *LibraryDatabase) Loans() kdb.LoanInterface {
	return m.MockLoans
}

func (m *LibraryDatabase) Reservations() kdb.ReservationInterface {
	return m.MockReservations
}

func (m *LibraryDatabase) Fines() kdb.FineInterface {
	return m.MockFines
}

func (m *LibraryDatabase) Stats() kdb.StatsInterface {
	return m.MockStats
}

func (m *LibraryDatabase) Schema() kdb.SchemaInterface {
	return m.MockSchema
}

func (m *LibraryDatabase) Close() error {
	return nil
}

// SchemaInterface reports the schema is up to date unless Impl says otherwise.
type SchemaInterface struct {
	Impl struct {
		Upgrade func(context.Context) error
		Version func(context.Context) (int, error)
	}
}

func NewSchemaInterface() *SchemaInterface {
	return &SchemaInterface{}
}

var _ kdb.SchemaInterface = &SchemaInterface{}

func (m *SchemaInterface) Upgrade(ctx context.Context) error {
	if m.Impl.Upgrade != nil {
		return m.Impl.Upgrade(ctx)
	}
	return nil
}

func (m *SchemaInterface) Version(ctx context.Context) (int, error) {
	if m.Impl.Version != nil {
		return m.Impl.Version(ctx)
	}
	return 0, nil
}

func (m *SchemaInterface) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(ctx)
}
