package mocks

import (
	"context"
	"errors"

	kdb "github.com/opst/libris/pkg/db"
)

type StatsInterface struct {
	Impl struct {
		Get     func(context.Context) (kdb.Stats, error)
		Popular func(ctx context.Context, limit int) ([]kdb.BookCount, error)
	}
	Calls struct {
		Get     CallLog[struct{}]
		Popular CallLog[int]
	}
}

func NewStatsInterface() *StatsInterface {
	return &StatsInterface{}
}

var _ kdb.StatsInterface = &StatsInterface{}

func (m *StatsInterface) Get(ctx context.Context) (kdb.Stats, error) {
	m.Calls.Get = append(m.Calls.Get, struct{}{})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *StatsInterface) Popular(ctx context.Context, limit int) ([]kdb.BookCount, error) {
	m.Calls.Popular = append(m.Calls.Popular, limit)
	if m.Impl.Popular != nil {
		return m.Impl.Popular(ctx, limit)
	}
	panic(errors.New("it should not be called"))
}
