package knot

import (
	"context"

	"github.com/AnatoleLucet/knot/internal"
)

// Poll is the value shape of async-backed signals: Pending until the
// producer delivers, then Ready with the delivered value. A dependency
// change flips a Ready value back to Pending while the producer restarts.
type Poll[T any] struct {
	Ready bool
	Value T
}

func pollOps[T any](name string, start func(context.Context, *AsyncSignalContext), invalidate bool) internal.AsyncOps {
	ops := internal.AsyncOps{
		Name:    name,
		Start:   start,
		Fold:    func(prev, v any) any { return Poll[T]{Ready: true, Value: as[T](v)} },
		Discard: func(any) any { return Poll[T]{} },
	}
	if invalidate {
		ops.Invalidate = func(prev any) (any, bool) {
			if !as[Poll[T]](prev).Ready {
				return prev, false
			}
			return Poll[T]{}, true
		}
	}
	return ops
}

func guard(asc *AsyncSignalContext, body func()) {
	defer func() {
		if r := recover(); r != nil {
			asc.Abort(r)
		}
	}()
	body()
}

// FromAsync creates a signal recomputed by an asynchronous closure. f runs
// on its own goroutine and may read reactive sources through asc.With; a
// change to any source it read cancels the in-flight run and starts a
// fresh one on next demand, so only values for settled inputs are ever
// committed.
func FromAsync[T any](f func(asc *AsyncSignalContext) T) Signal[Poll[T]] {
	node := internal.NewAsyncNode(internal.GetRuntime(), Poll[T]{}, pollOps[T](
		"async",
		func(ctx context.Context, asc *AsyncSignalContext) {
			guard(asc, func() {
				v := f(asc)
				if ctx.Err() != nil {
					return
				}
				asc.CommitValue(v, true)
			})
		},
		true,
	))
	return Signal[Poll[T]]{node: node}
}

// FromFuture runs f once and holds its completion: Pending, then Ready.
// Losing its last observer resets it to Pending, and the next demand runs
// f again. f does not read reactive sources; use FromAsync for that.
func FromFuture[T any](f func(ctx context.Context) T) Signal[Poll[T]] {
	node := internal.NewAsyncNode(internal.GetRuntime(), Poll[T]{}, pollOps[T](
		"future",
		func(ctx context.Context, asc *AsyncSignalContext) {
			guard(asc, func() {
				v := f(ctx)
				if ctx.Err() != nil {
					return
				}
				asc.CommitValue(v, true)
			})
		},
		false,
	))
	return Signal[Poll[T]]{node: node}
}

// FromFutureScan folds a one-shot completion into state: the signal holds
// initial until f completes, then fold(initial, v).
func FromFutureScan[St, T any](initial St, fold func(St, T) St, f func(ctx context.Context) T) Signal[St] {
	node := internal.NewAsyncNode(internal.GetRuntime(), initial, internal.AsyncOps{
		Name: "future-scan",
		Start: func(ctx context.Context, asc *AsyncSignalContext) {
			guard(asc, func() {
				v := f(ctx)
				if ctx.Err() != nil {
					return
				}
				asc.CommitValue(v, true)
			})
		},
		Fold:    func(prev, v any) any { return fold(as[St](prev), as[T](v)) },
		Discard: func(any) any { return initial },
	})
	return Signal[St]{node: node}
}

// FromStream holds the latest item received from ch: Pending until the
// first item arrives. The pump goroutine starts on first demand and stops
// when the signal loses its last observer or ch closes.
func FromStream[T any](ch <-chan T) Signal[Poll[T]] {
	node := internal.NewAsyncNode(internal.GetRuntime(), Poll[T]{}, pollOps[T](
		"stream",
		streamPump(ch),
		false,
	))
	return Signal[Poll[T]]{node: node}
}

// FromStreamScan folds every incoming item through fold, exposing the
// running state.
func FromStreamScan[St, T any](initial St, fold func(St, T) St, ch <-chan T) Signal[St] {
	node := internal.NewAsyncNode(internal.GetRuntime(), initial, internal.AsyncOps{
		Name:    "stream-scan",
		Start:   streamPump(ch),
		Fold:    func(prev, v any) any { return fold(as[St](prev), as[T](v)) },
		Discard: func(any) any { return initial },
	})
	return Signal[St]{node: node}
}

func streamPump[T any](ch <-chan T) func(context.Context, *AsyncSignalContext) {
	return func(ctx context.Context, asc *AsyncSignalContext) {
		for {
			select {
			case v, ok := <-ch:
				if !ok {
					asc.Finish()
					return
				}
				asc.CommitValue(v, false)
			case <-ctx.Done():
				return
			}
		}
	}
}
