package mocks

import (
	"context"
	"errors"

	kdb "github.com/opst/libris/pkg/db"
)

type FineInterface struct {
	Impl struct {
		Get     func(context.Context, string) (kdb.Fine, error)
		Find    func(context.Context, kdb.FineQuery) ([]kdb.Fine, error)
		Pay     func(context.Context, string) (kdb.Fine, error)
		Waive   func(context.Context, string, string) (kdb.Fine, error)
		Summary func(context.Context, string) (kdb.FineSummary, error)
	}
	Calls struct {
		Get CallLog[struct{ FineID string }]
		Find CallLog[struct{ Query kdb.FineQuery }]
		Pay CallLog[struct{ FineID string }]
		Waive CallLog[struct {
			FineID  string
			StaffID string
		}]
		Summary CallLog[struct{ MemberID string }]
	}
}

func NewFineInterface() *FineInterface {
	return &FineInterface{}
}

var _ kdb.FineInterface = &FineInterface{}

func (m *FineInterface) Get(ctx context.Context, fineID string) (kdb.Fine, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ FineID string }{FineID: fineID})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, fineID)
	}
	panic(errors.New("it should not be called"))
}

func (m *FineInterface) Find(ctx context.Context, query kdb.FineQuery) ([]kdb.Fine, error) {
	m.Calls.Find = append(m.Calls.Find, struct{ Query kdb.FineQuery }{Query: query})
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (m *FineInterface) Pay(ctx context.Context, fineID string) (kdb.Fine, error) {
	m.Calls.Pay = append(m.Calls.Pay, struct{ FineID string }{FineID: fineID})
	if m.Impl.Pay != nil {
		return m.Impl.Pay(ctx, fineID)
	}
	panic(errors.New("it should not be called"))
}

func (m *FineInterface) Waive(ctx context.Context, fineID string, staffID string) (kdb.Fine, error) {
	m.Calls.Waive = append(m.Calls.Waive, struct {
		FineID  string
		StaffID string
	}{
		FineID: fineID, StaffID: staffID,
	})
	if m.Impl.Waive != nil {
		return m.Impl.Waive(ctx, fineID, staffID)
	}
	panic(errors.New("it should not be called"))
}

func (m *FineInterface) Summary(ctx context.Context, memberID string) (kdb.FineSummary, error) {
	m.Calls.Summary = append(m.Calls.Summary, struct{ MemberID string }{MemberID: memberID})
	if m.Impl.Summary != nil {
		return m.Impl.Summary(ctx, memberID)
	}
	panic(errors.New("it should not be called"))
}
