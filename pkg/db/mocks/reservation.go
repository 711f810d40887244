package mocks

import (
	"context"
	"errors"

	kdb "github.com/opst/libris/pkg/db"
)

type ReservationInterface struct {
	Impl struct {
		Reserve     func(context.Context, string, string) (kdb.Reservation, error)
		Cancel      func(context.Context, string) (kdb.Reservation, error)
		ExpireHolds func(context.Context) ([]kdb.Reservation, error)
		Get         func(context.Context, string) (kdb.Reservation, error)
		Find        func(context.Context, kdb.ReservationQuery) ([]kdb.Reservation, error)
		Queue       func(context.Context, string) ([]kdb.Reservation, error)
	}
	Calls struct {
		Reserve CallLog[struct {
			MemberID string
			BookID   string
		}]
		Cancel CallLog[struct{ ReservationID string }]
		ExpireHolds CallLog[struct{}]
		Get CallLog[struct{ ReservationID string }]
		Find CallLog[struct{ Query kdb.ReservationQuery }]
		Queue CallLog[struct{ BookID string }]
	}
}

func NewReservationInterface() *ReservationInterface {
	return &ReservationInterface{}
}

var _ kdb.ReservationInterface = &ReservationInterface{}

func (m *ReservationInterface) Reserve(ctx context.Context, memberID string, bookID string) (kdb.Reservation, error) {
	m.Calls.Reserve = append(m.Calls.Reserve, struct {
		MemberID string
		BookID   string
	}{
		MemberID: memberID, BookID: bookID,
	})
	if m.Impl.Reserve != nil {
		return m.Impl.Reserve(ctx, memberID, bookID)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReservationInterface) Cancel(ctx context.Context, reservationID string) (kdb.Reservation, error) {
	m.Calls.Cancel = append(m.Calls.Cancel, struct{ ReservationID string }{ReservationID: reservationID})
	if m.Impl.Cancel != nil {
		return m.Impl.Cancel(ctx, reservationID)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReservationInterface) ExpireHolds(ctx context.Context) ([]kdb.Reservation, error) {
	m.Calls.ExpireHolds = append(m.Calls.ExpireHolds, struct{}{})
	if m.Impl.ExpireHolds != nil {
		return m.Impl.ExpireHolds(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReservationInterface) Get(ctx context.Context, reservationID string) (kdb.Reservation, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ ReservationID string }{ReservationID: reservationID})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, reservationID)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReservationInterface) Find(ctx context.Context, query kdb.ReservationQuery) ([]kdb.Reservation, error) {
	m.Calls.Find = append(m.Calls.Find, struct{ Query kdb.ReservationQuery }{Query: query})
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReservationInterface) Queue(ctx context.Context, bookID string) ([]kdb.Reservation, error) {
	m.Calls.Queue = append(m.Calls.Queue, struct{ BookID string }{BookID: bookID})
	if m.Impl.Queue != nil {
		return m.Impl.Queue(ctx, bookID)
	}
	panic(errors.New("it should not be called"))
}
