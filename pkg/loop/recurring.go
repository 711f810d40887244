package loop

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Recurring is a task telling whether it did something.
//
// # Returns
//
// - T: same as the value of Task[T]
//
// - bool: true when this task did something in this cycle, and more backlog can be.
//
// - error: error of this cycle
type Recurring[T any] func(context.Context, T) (T, bool, error)

// Applied makes a Task which runs rt and decides next by p.
func (rt Recurring[T]) Applied(p Policy) Task[T] {
	return func(ctx context.Context, t T) (T, Next) {
		new, ok, err := rt(ctx, t)
		return new, p.Next(ok, err)
	}
}

// Policy decides how a recurring task goes on.
type Policy interface {
	Next(updated bool, err error) Next
	String() string
}

// ParsePolicy parses "forever[:COOLDOWN]" or "backlog".
func ParsePolicy(s string) (Policy, error) {
	typ, param, ok := strings.Cut(s, ":")
	switch typ {
	case "forever":
		if !ok || param == "" {
			return Forever(0), nil
		}
		period, err := time.ParseDuration(param)
		if err != nil {
			return nil, fmt.Errorf(`failed to parse: %s as "forever:COOLDOWN": %w`, s, err)
		}
		return Forever(period), nil
	case "backlog":
		if ok {
			return nil, fmt.Errorf("backlog policy does not take paramters: %s", s)
		}
		return Backlog(), nil
	}
	return nil, fmt.Errorf("unknown policy name: %s (should be one of -- forever|backlog)", typ)
}

// Forever restarts immediately while there are things to do.
// Otherwise, restarts after cooldown.
//
// Errors do not stop the loop; they are handled by the task.
func Forever(cooldown time.Duration) Policy {
	return forever(cooldown)
}

type forever time.Duration

func (f forever) String() string {
	return fmt.Sprintf("forever:%s", time.Duration(f).String())
}

func (f forever) Next(updated bool, _ error) Next {
	if updated {
		return Continue(0)
	}
	return Continue(time.Duration(f))
}

// Backlog restarts immediately while there are things to do.
// Otherwise, Break(nil).
func Backlog() Policy {
	return backlogPolicy{}
}

type backlogPolicy struct{}

func (backlogPolicy) String() string {
	return "backlog"
}

func (backlogPolicy) Next(updated bool, _ error) Next {
	if updated {
		return Continue(0)
	}
	return Break(nil)
}

// UntilError adds a clause to p: in case of error, Break with that error.
func UntilError(p Policy) Policy {
	return untilError{base: p}
}

type untilError struct {
	base Policy
}

func (u untilError) String() string {
	return fmt.Sprintf("%s (until error)", u.base.String())
}

func (u untilError) Next(updated bool, err error) Next {
	if err != nil {
		return Break(err)
	}
	return u.base.Next(updated, err)
}

// Monitor logs the start and the end of each run of task.
func Monitor[T any](logger *log.Logger, task Task[T]) Task[T] {
	var counter uint64
	return func(ctx context.Context, t T) (ret T, next Next) {
		counter += 1
		c := counter
		timestamp := time.Now()

		logger.Printf("task start: #%d", c)
		defer func() {
			logger.Printf("task end: #%d (takes %s): %s / value = %+v", c, time.Since(timestamp), next, ret)
		}()

		ret, next = task(ctx, t)
		return
	}
}
