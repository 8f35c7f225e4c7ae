package internal

import (
	"context"
	"errors"
	"sync"
)

// ErrStreamClosed is returned from StreamAdapter.Recv after Stop.
var ErrStreamClosed = errors.New("knot: stream closed")

// StreamAdapter turns a reactive expression into a stream of values
// consumable from another goroutine. It is a root sink like Subscriber;
// the runtime side recomputes on change and parks the value, the consumer
// side waits on a waker channel. One wake fires per recomputed value.
type StreamAdapter struct {
	rt      *Runtime
	get     func(*SignalContext) any
	sources SourceBindings

	dirty     DirtyLevel
	scheduled bool
	done      bool

	mu     sync.Mutex
	val    any
	has    bool
	waker  chan struct{}
	closed bool
}

func NewStreamAdapter(rt *Runtime, get func(*SignalContext) any) *StreamAdapter {
	a := &StreamAdapter{rt: rt, get: get, dirty: LevelDirty}
	a.schedule()
	return a
}

func (a *StreamAdapter) schedule() {
	if a.scheduled || a.done {
		return
	}
	a.scheduled = true
	a.rt.ScheduleTask(TaskKindUpdate, a)
}

func (a *StreamAdapter) Notify(slot Slot, level DirtyLevel, rt *Runtime) {
	if a.done {
		return
	}
	old := a.dirty
	a.dirty = a.dirty.join(level)
	if old == LevelClean && a.dirty != LevelClean {
		a.schedule()
	}
}

func (a *StreamAdapter) RunTask(uc *UpdateContext) {
	a.scheduled = false
	if a.done {
		return
	}
	if a.dirty == LevelMaybeDirty {
		if !a.sources.Check(uc) {
			a.dirty = LevelClean
			return
		}
	}
	a.dirty = LevelClean

	var v any
	a.sources.Update(a.rt, a, SlotDeps, false, func(sc *SignalContext) {
		v = a.get(sc)
	})

	a.mu.Lock()
	a.val = v
	a.has = true
	w := a.waker
	a.waker = nil
	closed := a.closed
	a.mu.Unlock()
	if w != nil && !closed {
		close(w)
	}
}

// Recv yields the next value, parking the calling goroutine until the
// runtime produces one. It must not be called from the runtime goroutine
// itself (nothing would pump the graph); pair it with Runtime.Run.
func (a *StreamAdapter) Recv(ctx context.Context) (any, error) {
	for {
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			return nil, ErrStreamClosed
		}
		if a.has {
			v := a.val
			a.has = false
			a.mu.Unlock()
			return v, nil
		}
		if a.waker == nil {
			a.waker = make(chan struct{})
		}
		w := a.waker
		a.mu.Unlock()

		select {
		case <-w:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Stop closes the stream and unbinds its sources on the runtime goroutine,
// making them discardable.
func (a *StreamAdapter) Stop() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	w := a.waker
	a.waker = nil
	a.mu.Unlock()
	if w != nil {
		close(w)
	}
	a.rt.Wake(func(*Runtime) {
		a.done = true
		a.sources.Clear()
	})
}
