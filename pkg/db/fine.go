package db

import (
	"context"
	"time"
)

type FineReason string

const (
	FineLate FineReason = "late"
	FineLost FineReason = "lost"
)

type FineStatus string

const (
	FinePending FineStatus = "pending"
	FinePaid    FineStatus = "paid"
	FineWaived  FineStatus = "waived"
)

func AsFineStatus(s string) (FineStatus, error) {
	switch FineStatus(s) {
	case FinePending, FinePaid, FineWaived:
		return FineStatus(s), nil
	default:
		return FineStatus(s), ErrInvalidState
	}
}

type Fine struct {
	ID       string
	MemberID string
	LoanID   string
	Reason   FineReason

	// Amount in cents.
	Amount int64

	Status    FineStatus
	CreatedAt time.Time

	// SettledAt is when the fine is paid or waived.
	SettledAt *time.Time

	// SettledBy is the staff who waived the fine.
	SettledBy string
}

type FineQuery struct {
	MemberID string
	Status   FineStatus

	Page
}

type FineSummary struct {
	MemberID string

	// totals in cents
	Pending int64
	Paid    int64
	Waived  int64
}

type FineInterface interface {
	Get(ctx context.Context, fineID string) (Fine, error)
	Find(ctx context.Context, query FineQuery) ([]Fine, error)

	// Pay settles a pending fine as paid.
	//
	// # Returns
	//
	// - error: ErrInvalidState when the fine is not pending.
	Pay(ctx context.Context, fineID string) (Fine, error)

	// Waive settles a pending fine without payment.
	Waive(ctx context.Context, fineID string, staffID string) (Fine, error)

	Summary(ctx context.Context, memberID string) (FineSummary, error)
}
