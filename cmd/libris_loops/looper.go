package main

import (
	"context"
	"log"
	"time"

	"github.com/opst/libris/cmd/libris_loops/tasks/holds"
	"github.com/opst/libris/cmd/libris_loops/tasks/overdue"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/loop"
)

type LoggerOptions func(*log.Logger) *log.Logger

func byLogger(l *log.Logger, opt ...LoggerOptions) *log.Logger {
	for _, o := range opt {
		l = o(l)
	}
	return l
}

func Copied() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		return log.New(l.Writer(), l.Prefix(), l.Flags())
	}
}

func WithPrefix(pre string) LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetPrefix(pre)
		return l
	}
}

func WithTimestamp() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetFlags(l.Flags() | log.Ldate | log.Ltime | log.Lmicroseconds)
		return l
	}
}

type LoopType string

const (
	HoldExpiry    LoopType = "holds"
	OverdueReport LoopType = "overdue"
)

// LoopManifest is how a loop runs.
type LoopManifest struct {
	Type   LoopType
	Policy loop.Policy

	// Timeout of each iteration.
	Timeout time.Duration
}

func StartLoop(ctx context.Context, logger *log.Logger, db kdb.LibraryDatabase, manifest LoopManifest, now func() time.Time) error {
	switch manifest.Type {
	case HoldExpiry:
		return StartHoldExpiryLoop(ctx, logger, db.Reservations(), manifest)
	case OverdueReport:
		return StartOverdueReportLoop(ctx, logger, db.Loans(), manifest, now)
	default:
		return ErrUnknownLoopType
	}
}

func StartHoldExpiryLoop(ctx context.Context, logger *log.Logger, dbres kdb.ReservationInterface, manifest LoopManifest) error {
	l := byLogger(logger, Copied(), WithPrefix("[hold expiry loop] "))
	_, err := loop.Start(
		ctx, holds.Seed(),
		loop.Monitor(l, holds.Task(l, dbres).Applied(manifest.Policy)),
		loop.WithTimeout(manifest.Timeout),
	)
	return err
}

func StartOverdueReportLoop(ctx context.Context, logger *log.Logger, dbloan kdb.LoanInterface, manifest LoopManifest, now func() time.Time) error {
	l := byLogger(logger, Copied(), WithPrefix("[overdue report loop] "))
	_, err := loop.Start(
		ctx, overdue.Seed(),
		loop.Monitor(l, overdue.Task(l, dbloan, now).Applied(manifest.Policy)),
		loop.WithTimeout(manifest.Timeout),
	)
	return err
}
