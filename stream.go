package knot

import (
	"context"

	"github.com/AnatoleLucet/knot/internal"
)

// ErrStreamClosed is returned from Stream.Recv after Stop.
var ErrStreamClosed = internal.ErrStreamClosed

// Stream pulls a signal's values from another goroutine: one value per
// change wave, latest-wins if the consumer lags. Pair the consumer with
// Runtime.Run so the graph keeps pumping while Recv parks.
type Stream[T any] struct {
	a *internal.StreamAdapter
}

// Recv blocks until the next value, the context expires, or the stream is
// stopped.
func (s *Stream[T]) Recv(ctx context.Context) (T, error) {
	v, err := s.a.Recv(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](v), nil
}

// Stop closes the stream and releases its upstream bindings.
func (s *Stream[T]) Stop() {
	s.a.Stop()
}
