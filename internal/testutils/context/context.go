package context

import (
	"context"
	"testing"
	"time"
)

// WithTest derives a context which is done 1 second before the test deadline,
// so that loops under test stop in time to clean up.
//
// The context is cancelled on test cleanup.
func WithTest(ctx context.Context, t *testing.T) context.Context {
	t.Helper()
	cancel := func() {}
	if deadline, ok := t.Deadline(); ok {
		ctx, cancel = context.WithDeadline(ctx, deadline.Add(-time.Second))
	}
	t.Cleanup(cancel)
	return ctx
}
