package knot

import "github.com/AnatoleLucet/knot/internal"

// State is the root mutable source: a cell holding a value of type T.
// Reading through a SignalContext records a dependency; writing requires
// an ActionContext and notifies every recorded reader.
type State[T any] struct {
	cell *internal.Cell
}

// NewState creates a cell owned by the current goroutine's runtime.
func NewState[T any](initial T) *State[T] {
	return &State[T]{
		cell: internal.NewCell(internal.GetRuntime(), initial),
	}
}

// Get reads the current value, tracking the dependency when sc belongs to
// a recording sink.
func (s *State[T]) Get(sc *SignalContext) T {
	return as[T](s.cell.Borrow(sc))
}

// Set replaces the value. The notification is buffered until the action
// scope ends, so several writes in one action collapse into one wave.
func (s *State[T]) Set(v T, ac *ActionContext) {
	s.cell.Set(v, ac)
}

// Modify applies f to the value in place, deferring the notification the
// same way Set does.
func (s *State[T]) Modify(ac *ActionContext, f func(T) T) {
	s.cell.Modify(ac, func(v any) any { return f(as[T](v)) })
}

// Borrow reads the value behind a StateRef for projection composition.
func (s *State[T]) Borrow(sc *SignalContext) StateRef[T] {
	return StateRef[T]{v: s.Get(sc)}
}

// ToSignal presents the cell through the uniform Signal handle.
func (s *State[T]) ToSignal() Signal[T] {
	return Signal[T]{node: s.cell}
}
