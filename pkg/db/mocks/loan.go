package mocks

import (
	"context"
	"errors"

	kdb "github.com/opst/libris/pkg/db"
)

type LoanInterface struct {
	Impl struct {
		Borrow   func(context.Context, string, string, string) (kdb.Loan, error)
		Renew    func(context.Context, string) (kdb.Loan, error)
		Return   func(context.Context, string) (kdb.Settlement, error)
		MarkLost func(context.Context, string) (kdb.Settlement, error)
		Get      func(context.Context, string) (kdb.Loan, error)
		Find     func(context.Context, kdb.LoanQuery) ([]kdb.Loan, error)
	}
	Calls struct {
		Borrow CallLog[struct {
			MemberID string
			BookID   string
			StaffID  string
		}]
		Renew CallLog[struct{ LoanID string }]
		Return CallLog[struct{ LoanID string }]
		MarkLost CallLog[struct{ LoanID string }]
		Get CallLog[struct{ LoanID string }]
		Find CallLog[struct{ Query kdb.LoanQuery }]
	}
}

func NewLoanInterface() *LoanInterface {
	return &LoanInterface{}
}

var _ kdb.LoanInterface = &LoanInterface{}

func (m *LoanInterface) Borrow(ctx context.Context, memberID string, bookID string, staffID string) (kdb.Loan, error) {
	m.Calls.Borrow = append(m.Calls.Borrow, struct {
		MemberID string
		BookID   string
		StaffID  string
	}{
		MemberID: memberID, BookID: bookID, StaffID: staffID,
	})
	if m.Impl.Borrow != nil {
		return m.Impl.Borrow(ctx, memberID, bookID, staffID)
	}
	panic(errors.New("it should not be called"))
}

func (m *LoanInterface) Renew(ctx context.Context, loanID string) (kdb.Loan, error) {
	m.Calls.Renew = append(m.Calls.Renew, struct{ LoanID string }{LoanID: loanID})
	if m.Impl.Renew != nil {
		return m.Impl.Renew(ctx, loanID)
	}
	panic(errors.New("it should not be called"))
}

func (m *LoanInterface) Return(ctx context.Context, loanID string) (kdb.Settlement, error) {
	m.Calls.Return = append(m.Calls.Return, struct{ LoanID string }{LoanID: loanID})
	if m.Impl.Return != nil {
		return m.Impl.Return(ctx, loanID)
	}
	panic(errors.New("it should not be called"))
}

func (m *LoanInterface) MarkLost(ctx context.Context, loanID string) (kdb.Settlement, error) {
	m.Calls.MarkLost = append(m.Calls.MarkLost, struct{ LoanID string }{LoanID: loanID})
	if m.Impl.MarkLost != nil {
		return m.Impl.MarkLost(ctx, loanID)
	}
	panic(errors.New("it should not be called"))
}

func (m *LoanInterface) Get(ctx context.Context, loanID string) (kdb.Loan, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ LoanID string }{LoanID: loanID})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, loanID)
	}
	panic(errors.New("it should not be called"))
}

func (m *LoanInterface) Find(ctx context.Context, query kdb.LoanQuery) ([]kdb.Loan, error) {
	m.Calls.Find = append(m.Calls.Find, struct{ Query kdb.LoanQuery }{Query: query})
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}
