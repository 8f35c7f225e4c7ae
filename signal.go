package knot

import "github.com/AnatoleLucet/knot/internal"

// Signal is the polymorphic, cheaply-copyable handle over any source of T:
// a constant, a state cell, a derived scan, or an async node, optionally
// viewed through a projection. Copies share the underlying node.
type Signal[T any] struct {
	node    internal.SignalNode
	value   any
	project func(any) any
}

// New creates a derived signal that re-runs f when any source it read last
// time changes. Every recompute counts as a new value downstream; combine
// with Dedup to filter.
func New[T any](f func(sc *SignalContext) T) Signal[T] {
	node := internal.NewScan(internal.GetRuntime(), nil, internal.ScanOps{
		Name: "computed",
		Compute: func(st any, sc *internal.SignalContext) (any, bool) {
			return f(sc), true
		},
		Discard: func(any) any { return nil },
	})
	return Signal[T]{node: node}
}

// FromValue wraps a constant. Reads never record a dependency; there is
// nothing that could change.
func FromValue[T any](v T) Signal[T] {
	return Signal[T]{value: v}
}

// FromStaticRef wraps a pointer to process-lifetime data; reads always see
// the pointee's current contents.
func FromStaticRef[T any](p *T) Signal[T] {
	return Signal[T]{value: p, project: func(v any) any { return *v.(*T) }}
}

func (s Signal[T]) raw(sc *SignalContext) any {
	var v any
	if s.node != nil {
		v = s.node.Borrow(sc)
	} else {
		v = s.value
	}
	if s.project != nil {
		v = s.project(v)
	}
	return v
}

// Get reads the signal's current value, tracking the dependency.
func (s Signal[T]) Get(sc *SignalContext) T {
	return as[T](s.raw(sc))
}

// Borrow reads the value behind a StateRef, mirroring Get for call sites
// that want to compose further projections.
func (s Signal[T]) Borrow(sc *SignalContext) StateRef[T] {
	return StateRef[T]{v: s.Get(sc)}
}

// Map projects a signal through f without creating a node: the projection
// re-runs on every read. Wrap with Cached when the projection is expensive
// and read from several places.
func Map[T, U any](s Signal[T], f func(T) U) Signal[U] {
	prev := s.project
	return Signal[U]{
		node:  s.node,
		value: s.value,
		project: func(v any) any {
			if prev != nil {
				v = prev(v)
			}
			return f(as[T](v))
		},
	}
}

type dedupBox[T any] struct {
	has bool
	v   T
}

// Dedup wraps the signal in a filtering node that compares consecutive
// values with ==: downstream never sees the same value twice in a row.
// Panics at read time if T is not comparable, like any == on such values.
func (s Signal[T]) Dedup() Signal[T] {
	node := internal.NewScan(internal.GetRuntime(), dedupBox[T]{}, internal.ScanOps{
		Name:   "dedup",
		Filter: true,
		Compute: func(st any, sc *internal.SignalContext) (any, bool) {
			cur := as[dedupBox[T]](st)
			v := s.Get(sc)
			if cur.has && isEqual(v, cur.v) {
				return cur, false
			}
			return dedupBox[T]{has: true, v: v}, true
		},
		Discard: func(any) any { return dedupBox[T]{} },
	})
	return Signal[T]{
		node:    node,
		project: func(v any) any { return as[dedupBox[T]](v).v },
	}
}

// Cached materializes a projection chain into a node so the chain runs at
// most once per wave no matter how many sinks read it.
func (s Signal[T]) Cached() Signal[T] {
	node := internal.NewScan(internal.GetRuntime(), nil, internal.ScanOps{
		Name: "cached",
		Compute: func(st any, sc *internal.SignalContext) (any, bool) {
			return s.Get(sc), true
		},
		Discard: func(any) any { return nil },
	})
	return Signal[T]{node: node}
}

// Subscribe invokes f with the signal's value on the next flush and after
// every change.
func (s Signal[T]) Subscribe(f func(T)) Subscription {
	return Subscribe(func(sc *SignalContext) {
		f(s.Get(sc))
	})
}

// ToStream adapts the signal into a Stream pulling one value per change.
func (s Signal[T]) ToStream() *Stream[T] {
	a := internal.NewStreamAdapter(internal.GetRuntime(), func(sc *internal.SignalContext) any {
		return s.Get(sc)
	})
	return &Stream[T]{a: a}
}

// StateRef is a value borrowed out of a signal read, supporting further
// projection without touching the graph.
type StateRef[T any] struct {
	v T
}

func (r StateRef[T]) Value() T { return r.v }

// MapRef projects a borrowed value.
func MapRef[T, U any](r StateRef[T], f func(T) U) StateRef[U] {
	return StateRef[U]{v: f(r.v)}
}
