// Package loop runs tasks repeatedly, until they break or the context is done.
package loop

import (
	"context"
	"fmt"
	"time"
)

type Next struct {
	// if not nil, breaks with error
	err error

	// if quit == true and err == nil, breaks without error
	quit bool

	// otherwise, continue loop with interval.
	interval time.Duration
}

func (n Next) String() string {
	if n.err != nil {
		return fmt.Sprintf("[break] with error: %v", n.err)
	}
	if n.quit {
		return "[break] without error"
	}

	return fmt.Sprintf("[continue] interval: %s", n.interval)
}

// continue loop.
//
// args:
//
// - interval: sleep before starting next task.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// break loop.
//
// args:
//
// - err: If you break loop with error, set non nil value.
func Break(err error) Next {
	return Next{quit: true, err: err}
}

// Task receives the value returned last time, and returns a new value and what to do next.
type Task[T any] func(context.Context, T) (T, Next)

// Start task in loop.
//
// The task is called with init at first, then with the value it returned last time.
// It returns Continue(interval) to be called again after interval, or Break(err) to stop.
// Zero value (Next{}) equals Continue(0).
//
// Example: expire holds every 10 minutes until an error.
//
//	Start(ctx, 0, func(ctx context.Context, total int) (int, Next) {
//		expired, err := reservations.ExpireHolds(ctx)
//		if err != nil {
//			return total, Break(err)
//		}
//		return total + len(expired), Continue(10 * time.Minute)
//	})
//
// # Args
//
// - ctx: When this context get be Done, loop will be break with ctx.Err().
//
// - init: the first value passed to task.
//
// - task: the task.
//
// - options: options for loop.
//
// # Returns
//
// - T: T task returns at last, returned even with an error.
//
// - error: error in Break(error), or ctx.Err(). It is nil when loop breaks with Break(nil).
func Start[T any](ctx context.Context, init T, task Task[T], options ...LoopOption) (T, error) {
	select {
	case <-ctx.Done():
		return init, ctx.Err()
	default:
	}

	value := init
	for {
		lc := &loopConfig{ctx: ctx}
		for _, opt := range options {
			lc = opt(lc)
		}

		v, n := func() (T, Next) {
			if lc.deferred != nil {
				defer lc.deferred()
			}
			return task(lc.ctx, value)
		}()

		if n.err != nil {
			return v, n.err
		} else if n.quit {
			return v, nil
		}
		value = v

		timer := time.NewTimer(n.interval)
		select {
		case <-ctx.Done():
			// shutting down comes first.
			timer.Stop()
			return value, ctx.Err()
		case <-timer.C:
		}
	}
}

type loopConfig struct {
	ctx      context.Context
	deferred func()
}

type LoopOption func(*loopConfig) *loopConfig

// set timeout per loop
//
// this timeout is set on context.Context passed to task.
func WithTimeout(d time.Duration) LoopOption {
	return func(lc *loopConfig) *loopConfig {
		ctx, cancel := context.WithTimeout(lc.ctx, d)
		return &loopConfig{
			ctx: ctx,
			deferred: func() {
				if lc.deferred != nil {
					defer lc.deferred()
				}
				cancel()
			},
		}
	}
}
