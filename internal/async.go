package internal

import (
	"context"
	"errors"
	"fmt"
)

// ErrCanceled is returned from AsyncSignalContext.With when the epoch that
// owns the context was canceled (its dependencies changed or the node was
// discarded).
var ErrCanceled = errors.New("knot: async computation canceled")

// AsyncOps describes a derived source driven by an asynchronous producer.
//
// Start runs on its own goroutine, once per epoch. It reads reactive
// sources through the AsyncSignalContext and delivers results with
// CommitValue; the context is canceled when the epoch is dropped.
type AsyncOps struct {
	Name string

	Start func(ctx context.Context, asc *AsyncSignalContext)

	// Fold merges a committed value into the node state. nil replaces.
	Fold func(prev, v any) any

	// Invalidate resets the state when dependencies change while a value
	// is held (e.g. back to a pending marker). It reports whether the
	// reset is itself a visible change. nil keeps the old value.
	Invalidate func(prev any) (any, bool)

	// Discard tears state down when the last sink goes away.
	Discard func(st any) any
}

// AsyncNode is a derived source whose recompute happens off the runtime
// goroutine. Each (re)start is an epoch: dependency changes cancel the
// epoch's context, drop the producer, and a fresh epoch begins on next
// demand. Reads made by the producer are recorded against SlotDeps through
// a session that stays open across polls; parked reads and commits arrive
// as closures on the runtime's wake queue, not as SlotWake notifications.
type AsyncNode struct {
	rt      *Runtime
	ops     AsyncOps
	sinks   SinkBindings
	sources SourceBindings
	session *BindSession

	state     any
	loaded    bool
	depsDirty DirtyLevel
	stale     bool
	running   bool
	epoch     uint64
	cancel    context.CancelFunc
	scheduled bool
	pending   []*pollRequest

	discardQueued bool
}

type pollRequest struct {
	epoch uint64
	f     func(*SignalContext)
	done  chan error
}

// AsyncSignalContext lets an asynchronous producer read reactive sources.
// It is cheap, goroutine-safe, and tied to one epoch of one node.
type AsyncSignalContext struct {
	node  *AsyncNode
	epoch uint64
	ctx   context.Context
}

func NewAsyncNode(rt *Runtime, initial any, ops AsyncOps) *AsyncNode {
	return &AsyncNode{rt: rt, ops: ops, state: initial, stale: true}
}

// Context is the epoch's lifetime; producers should abandon work when it
// is done.
func (a *AsyncSignalContext) Context() context.Context { return a.ctx }

// With borrows a real SignalContext for the duration of f. The calling
// goroutine parks until the node's update task polls it on the runtime
// goroutine; sources read inside f join the node's dependency set, so a
// read made after an await point reshapes the set. Returns ErrCanceled if
// the epoch was dropped before f could run.
func (a *AsyncSignalContext) With(f func(*SignalContext)) error {
	req := &pollRequest{epoch: a.epoch, f: f, done: make(chan error, 1)}
	a.node.rt.Wake(func(*Runtime) { a.node.enqueuePoll(req) })
	select {
	case err := <-req.done:
		return err
	case <-a.ctx.Done():
		return ErrCanceled
	}
}

// CommitValue folds v into the node state and notifies sinks. final marks
// the producer as finished; a non-final commit (stream item) keeps the
// epoch running.
func (a *AsyncSignalContext) CommitValue(v any, final bool) {
	ep := a.epoch
	a.node.rt.Wake(func(*Runtime) { a.node.onCommit(ep, v, final) })
}

// Finish ends the epoch without committing anything further.
func (a *AsyncSignalContext) Finish() {
	ep := a.epoch
	a.node.rt.Wake(func(*Runtime) { a.node.onFinish(ep) })
}

// Abort surfaces a producer panic on the runtime goroutine, where it
// propagates out of Flush.
func (a *AsyncSignalContext) Abort(reason any) {
	a.node.rt.Wake(func(*Runtime) {
		panic(fmt.Sprintf("knot: async producer panicked: %v", reason))
	})
}

func (n *AsyncNode) enqueuePoll(req *pollRequest) {
	if req.epoch != n.epoch || !n.running {
		req.done <- ErrCanceled
		return
	}
	n.pending = append(n.pending, req)
	n.scheduleTask()
}

func (n *AsyncNode) scheduleTask() {
	if n.scheduled {
		return
	}
	n.scheduled = true
	n.rt.ScheduleTask(TaskKindUpdate, n)
}

// RunTask resolves pending dependency staleness and then answers parked
// polls under the update scope.
func (n *AsyncNode) RunTask(uc *UpdateContext) {
	n.scheduled = false
	n.settleDeps(uc)

	reqs := n.pending
	n.pending = nil
	for _, req := range reqs {
		if req.epoch != n.epoch || !n.running {
			req.done <- ErrCanceled
			continue
		}
		n.servePoll(req)
	}
}

// servePoll runs one parked read closure. A panic inside it drops the
// epoch and unparks the producer before propagating, so no goroutine is
// left waiting on a reply that will never come.
func (n *AsyncNode) servePoll(req *pollRequest) {
	defer func() {
		if r := recover(); r != nil {
			n.stopEpoch()
			req.done <- ErrCanceled
			panic(r)
		}
	}()
	req.f(n.pollContext())
	req.done <- nil
}

func (n *AsyncNode) pollContext() *SignalContext {
	if n.session == nil {
		n.session = n.sources.Begin(n, SlotDeps, true)
	}
	return &SignalContext{rt: n.rt, uc: &UpdateContext{rt: n.rt}, session: n.session}
}

func (n *AsyncNode) onCommit(epoch uint64, v any, final bool) {
	if epoch != n.epoch {
		return
	}
	if n.ops.Fold != nil {
		n.state = n.ops.Fold(n.state, v)
	} else {
		n.state = v
	}
	n.loaded = true
	if final {
		n.endEpoch()
	}
	n.rt.NotifySinks(&n.sinks, LevelDirty)
}

func (n *AsyncNode) onFinish(epoch uint64) {
	if epoch != n.epoch {
		return
	}
	n.endEpoch()
}

func (n *AsyncNode) endEpoch() {
	n.running = false
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.closeSession()
}

func (n *AsyncNode) closeSession() {
	if n.session != nil {
		n.session.End()
		n.session = nil
	}
}

// stopEpoch drops the in-flight producer: the epoch counter advances so
// parked polls and late commits resolve as canceled.
func (n *AsyncNode) stopEpoch() {
	if !n.running {
		return
	}
	n.epoch++
	n.endEpoch()
}

func (n *AsyncNode) start() {
	n.stale = false
	n.running = true
	n.epoch++
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	asc := &AsyncSignalContext{node: n, epoch: n.epoch, ctx: ctx}
	go n.ops.Start(ctx, asc)
}

// Notify handles both roles: SlotWake re-polls, SlotDeps invalidates. A
// definite dependency change cancels the in-flight producer immediately; a
// MaybeDirty wave is resolved lazily at next demand.
func (n *AsyncNode) Notify(slot Slot, level DirtyLevel, rt *Runtime) {
	switch slot {
	case SlotWake:
		n.scheduleTask()
	case SlotDeps:
		old := n.depsDirty
		if level == LevelDirty {
			n.depsDirty = LevelClean
			n.stopEpoch()
			n.stale = true
			changed := false
			if n.ops.Invalidate != nil && n.loaded {
				n.state, changed = n.ops.Invalidate(n.state)
			}
			if old == LevelClean || changed {
				fwd := LevelMaybeDirty
				if changed {
					fwd = LevelDirty
				}
				n.sinks.Notify(fwd, rt)
			}
			return
		}
		n.depsDirty = n.depsDirty.join(level)
		if old == LevelClean && n.depsDirty != LevelClean && n.loaded {
			n.sinks.Notify(LevelMaybeDirty, rt)
		}
	}
}

// settleDeps resolves a MaybeDirty dependency wave: a check deciding "real
// change" drops the epoch and invalidates, one deciding "absorbed" settles
// downstream edges back to clean.
func (n *AsyncNode) settleDeps(uc *UpdateContext) {
	if n.depsDirty != LevelMaybeDirty {
		return
	}
	n.depsDirty = LevelClean
	if n.sources.Check(uc) {
		n.stopEpoch()
		n.stale = true
		changed := false
		if n.ops.Invalidate != nil && n.loaded {
			n.state, changed = n.ops.Invalidate(n.state)
		}
		n.sinks.Resolve(changed)
	} else {
		n.sinks.Resolve(false)
	}
}

func (n *AsyncNode) ensure(uc *UpdateContext) {
	n.settleDeps(uc)
	if n.stale && !n.running {
		n.start()
	}
}

func (n *AsyncNode) Borrow(sc *SignalContext) any {
	sc.BindSource(n)
	n.ensure(sc.UC())
	return n.state
}

func (n *AsyncNode) BindSink(sink Sink, slot Slot) BindKey {
	return n.sinks.Bind(sink, slot)
}

func (n *AsyncNode) Unbind(key BindKey) {
	if n.sinks.Unbind(key) {
		n.scheduleDiscard()
	}
}

func (n *AsyncNode) Rebind(key BindKey, sink Sink, slot Slot) BindKey {
	return n.sinks.Rebind(key, sink, slot)
}

func (n *AsyncNode) EdgeDirty(key BindKey, uc *UpdateContext) bool {
	n.ensure(uc)
	return n.sinks.IsDirty(key)
}

func (n *AsyncNode) scheduleDiscard() {
	if n.discardQueued {
		return
	}
	n.discardQueued = true
	n.rt.ScheduleDiscard(n)
}

// RunDiscard drops the producer and derived state if the node is still
// unobserved and no scheduled task references it.
func (n *AsyncNode) RunDiscard(uc *UpdateContext) {
	n.discardQueued = false
	if !n.sinks.Empty() || n.scheduled {
		return
	}
	n.stopEpoch()
	n.sources.Clear()
	if n.ops.Discard != nil {
		n.state = n.ops.Discard(n.state)
	}
	n.loaded = false
	n.depsDirty = LevelClean
	n.stale = true
}

func (n *AsyncNode) DebugLabel() string {
	name := n.ops.Name
	if name == "" {
		name = "async"
	}
	return name
}

func (n *AsyncNode) DebugSources() []Source { return n.sources.Sources() }
