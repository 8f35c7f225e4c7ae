// Package timer provides executor-agnostic sleep and timeout helpers for
// asynchronous producers. They do not interact with the reactive graph.
package timer

import (
	"context"
	"time"
)

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithTimeout runs f under a deadline of d and returns f's result as-is.
// When the deadline expires, f's context is canceled; WithTimeout still
// waits for f to return and adds no deadline error of its own.
func WithTimeout[T any](ctx context.Context, d time.Duration, f func(context.Context) (T, error)) (T, error) {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return f(tctx)
}

// WithShouldTimeout runs f under a deadline of d and reports whether the
// deadline cut it short.
func WithShouldTimeout(ctx context.Context, d time.Duration, f func(context.Context) error) (timedOut bool, err error) {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	err = f(tctx)
	if tctx.Err() == context.DeadlineExceeded {
		return true, err
	}
	return false, err
}
