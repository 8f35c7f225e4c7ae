package knot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFromFuture(t *testing.T) {
	t.Run("pending until the producer completes", func(t *testing.T) {
		release := make(chan struct{})
		sig := FromFuture(func(ctx context.Context) int {
			<-release
			return 42
		})

		var seen []Poll[int]
		ready := make(chan struct{})
		sig.Subscribe(func(p Poll[int]) {
			seen = append(seen, p)
			if p.Ready {
				close(ready)
			}
		})
		Flush()
		assert.Equal(t, []Poll[int]{{}}, seen)

		close(release)
		err := GetRuntime().Run(testCtx(t), func(ctx context.Context) error {
			select {
			case <-ready:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		assert.NoError(t, err)
		assert.Equal(t, []Poll[int]{{}, {Ready: true, Value: 42}}, seen)
	})

	t.Run("future scan folds the completion into state", func(t *testing.T) {
		sig := FromFutureScan(10, func(st, v int) int { return st + v }, func(ctx context.Context) int {
			return 5
		})

		got := make(chan int, 4)
		sig.Subscribe(func(v int) { got <- v })

		err := GetRuntime().Run(testCtx(t), func(ctx context.Context) error {
			for {
				select {
				case v := <-got:
					if v == 15 {
						return nil
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
		assert.NoError(t, err)
	})
}

func TestFromAsync(t *testing.T) {
	t.Run("dependency changes cancel the in-flight run", func(t *testing.T) {
		st := NewState(1)
		polled := make(chan struct{}, 16)
		gate := make(chan struct{})

		sig := FromAsync(func(asc *AsyncSignalContext) int {
			var x int
			if err := asc.With(func(sc *SignalContext) { x = st.Get(sc) }); err != nil {
				return 0
			}
			polled <- struct{}{}
			select {
			case <-gate:
			case <-asc.Context().Done():
				return 0
			}
			return x + 1
		})

		var seen []Poll[int]
		ready := make(chan struct{})
		sig.Subscribe(func(p Poll[int]) {
			seen = append(seen, p)
			if p.Ready {
				close(ready)
			}
		})

		rt := GetRuntime()
		ctx := testCtx(t)

		// first epoch reads 1, then parks on the gate
		err := rt.Run(ctx, func(ctx context.Context) error {
			select {
			case <-polled:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		assert.NoError(t, err)

		// a write to the dependency drops that epoch and starts another
		Action(func(ac *ActionContext) { st.Set(2, ac) })
		err = rt.Run(ctx, func(ctx context.Context) error {
			select {
			case <-polled:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		assert.NoError(t, err)

		close(gate)
		err = rt.Run(ctx, func(ctx context.Context) error {
			select {
			case <-ready:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		assert.NoError(t, err)

		// only the settled input's value was ever committed
		last := seen[len(seen)-1]
		assert.Equal(t, Poll[int]{Ready: true, Value: 3}, last)
		assert.NotContains(t, seen, Poll[int]{Ready: true, Value: 2})
	})
}

func TestFromStream(t *testing.T) {
	t.Run("holds the latest item", func(t *testing.T) {
		ch := make(chan int, 8)
		sig := FromStream(ch)

		got := make(chan Poll[int], 8)
		sig.Subscribe(func(p Poll[int]) { got <- p })

		ch <- 7
		err := GetRuntime().Run(testCtx(t), func(ctx context.Context) error {
			for {
				select {
				case p := <-got:
					if p == (Poll[int]{Ready: true, Value: 7}) {
						return nil
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
		assert.NoError(t, err)
	})

	t.Run("stream scan folds every item", func(t *testing.T) {
		ch := make(chan int, 8)
		sig := FromStreamScan(0, func(st, v int) int { return st + v }, ch)

		got := make(chan int, 8)
		sig.Subscribe(func(v int) { got <- v })

		ch <- 1
		ch <- 2
		ch <- 3
		err := GetRuntime().Run(testCtx(t), func(ctx context.Context) error {
			for {
				select {
				case v := <-got:
					if v == 6 {
						return nil
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
		assert.NoError(t, err)
	})
}

func TestSubscribeAsync(t *testing.T) {
	t.Run("restarts when a dependency changes", func(t *testing.T) {
		st := NewState(1)
		got := make(chan int, 16)

		sub := SubscribeAsync(func(asc *AsyncSignalContext) {
			var x int
			if err := asc.With(func(sc *SignalContext) { x = st.Get(sc) }); err != nil {
				return
			}
			got <- x
		})
		defer sub.Dispose()

		rt := GetRuntime()
		ctx := testCtx(t)

		err := rt.Run(ctx, func(ctx context.Context) error {
			select {
			case v := <-got:
				assert.Equal(t, 1, v)
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		assert.NoError(t, err)

		rt.Post(func(ac *ActionContext) { st.Set(9, ac) })
		err = rt.Run(ctx, func(ctx context.Context) error {
			for {
				select {
				case v := <-got:
					if v == 9 {
						return nil
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
		assert.NoError(t, err)
	})
}
