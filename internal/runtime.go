package internal

import (
	"context"
	"sync"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAction
	PhaseObs
	PhaseUpdate
	PhaseNotify
)

const (
	defaultFlushLimit = 100_000
	defaultCycleLimit = 64
)

// Runtime owns all mutable scheduling state for one thread of reactive
// nodes: the action/task/discard queues, the deferred-notification buffer,
// and the phase machine that gates scope creation. It is not a task
// executor; Flush drains ready work to quiescence and Run combines Flush
// with external async progress.
type Runtime struct {
	phase       Phase
	actionDepth int
	obsDepth    int
	flushing    bool

	actionKinds []string
	taskKinds   []string
	actions     [][]func(*ActionContext)
	tasks       [][]Task
	discards    []Discardable
	notices     []func()

	reentries  int
	cycleLimit int
	flushLimit int

	wakeMu sync.Mutex
	wakes  []func(*Runtime)
	wakeCh chan struct{}
}

// Task is a unit of update work posted by a node.
type Task interface {
	RunTask(uc *UpdateContext)
}

// Discardable is a node whose unused derived state can be torn down.
type Discardable interface {
	RunDiscard(uc *UpdateContext)
}

// TaskKind is a registered task priority class. Lower classes drain first.
type TaskKind struct{ index int }

// ActionKind is a registered action priority class.
type ActionKind struct{ index int }

// Kinds registered by NewRuntime, in drain order.
var (
	TaskKindUpdate = TaskKind{0}
	TaskKindRender = TaskKind{1}
	TaskKindUser   = TaskKind{2}

	ActionKindDefault = ActionKind{0}
)

type Option func(*Runtime)

// WithCycleLimit bounds how many cycle re-entries one flush tolerates
// before aborting.
func WithCycleLimit(n int) Option {
	return func(r *Runtime) { r.cycleLimit = n }
}

// WithFlushLimit bounds the number of scheduling rounds one Flush may run.
func WithFlushLimit(n int) Option {
	return func(r *Runtime) { r.flushLimit = n }
}

func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		cycleLimit: defaultCycleLimit,
		flushLimit: defaultFlushLimit,
		wakeCh:     make(chan struct{}, 1),
	}
	r.RegisterTaskKind("update")
	r.RegisterTaskKind("render")
	r.RegisterTaskKind("user")
	r.RegisterActionKind("default")
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configure applies options after construction, for runtimes obtained
// through the ambient registry.
func (r *Runtime) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(r)
	}
}

// RegisterTaskKind declares a task priority class. Classes drain in
// registration order, FIFO within a class.
func (r *Runtime) RegisterTaskKind(name string) TaskKind {
	r.taskKinds = append(r.taskKinds, name)
	r.tasks = append(r.tasks, nil)
	return TaskKind{index: len(r.taskKinds) - 1}
}

// RegisterActionKind declares an action priority class.
func (r *Runtime) RegisterActionKind(name string) ActionKind {
	r.actionKinds = append(r.actionKinds, name)
	r.actions = append(r.actions, nil)
	return ActionKind{index: len(r.actionKinds) - 1}
}

// ScheduleTask enqueues t under kind. Scheduling with an unregistered kind
// is a programmer error.
func (r *Runtime) ScheduleTask(kind TaskKind, t Task) {
	if kind.index < 0 || kind.index >= len(r.tasks) {
		panic("knot: task scheduled with unregistered kind")
	}
	r.tasks[kind.index] = append(r.tasks[kind.index], t)
}

// ScheduleAction enqueues an external-mutation callback. It runs under a
// fresh ActionContext during the next Flush, before any pending tasks.
func (r *Runtime) ScheduleAction(kind ActionKind, f func(*ActionContext)) {
	if kind.index < 0 || kind.index >= len(r.actions) {
		panic("knot: action scheduled with unregistered kind")
	}
	r.actions[kind.index] = append(r.actions[kind.index], f)
}

// ScheduleDiscard enqueues a teardown check for a node whose sink set
// became empty. Discards drain after tasks; the node re-checks its sink set
// when the discard actually runs.
func (r *Runtime) ScheduleDiscard(d Discardable) {
	r.discards = append(r.discards, d)
}

// Action enters the action phase. Mutations are permitted inside f;
// notifications are buffered until the scope ends. Re-entrant use from an
// action reuses the outer scope; entering from a read or update scope
// aborts.
func (r *Runtime) Action(f func(*ActionContext)) {
	switch r.phase {
	case PhaseAction:
		r.actionDepth++
		defer func() { r.actionDepth-- }()
		f(&ActionContext{rt: r})
		return
	case PhaseIdle:
	default:
		panic("knot: action context requested during " + r.phaseName())
	}
	r.phase = PhaseAction
	defer func() {
		r.phase = PhaseIdle
		r.deliverNotices()
	}()
	f(&ActionContext{rt: r})
}

// Obs enters a top-level read phase. Values can be read inside f but no
// dependencies are recorded (there is no sink). Entering from an action
// scope aborts.
func (r *Runtime) Obs(f func(*SignalContext)) {
	switch r.phase {
	case PhaseObs:
		r.obsDepth++
		defer func() { r.obsDepth-- }()
	case PhaseIdle:
		r.reentries = 0
		r.phase = PhaseObs
		defer func() { r.phase = PhaseIdle }()
	default:
		panic("knot: signal context requested during " + r.phaseName())
	}
	f(&SignalContext{rt: r, uc: &UpdateContext{rt: r}})
}

// NotifySinks delivers a source's notification, deferring it when an action
// scope is live so that multiple mutations in one action coalesce.
func (r *Runtime) NotifySinks(b *SinkBindings, level DirtyLevel) {
	if r.phase == PhaseAction {
		r.notices = append(r.notices, func() { b.Notify(level, r) })
		return
	}
	prev := r.phase
	r.phase = PhaseNotify
	b.Notify(level, r)
	r.phase = prev
}

func (r *Runtime) deliverNotices() {
	for len(r.notices) > 0 {
		ns := r.notices
		r.notices = nil
		r.phase = PhaseNotify
		for _, f := range ns {
			f()
		}
		r.phase = PhaseIdle
	}
}

// Flush repeatedly drains pending actions, then pending tasks, then
// pending discards, until all queues are empty. Re-entrant calls are
// no-ops. A panic in user code propagates to the caller with the queues
// left consistent.
func (r *Runtime) Flush() {
	if r.flushing || r.phase != PhaseIdle {
		return
	}
	r.flushing = true
	defer func() { r.flushing = false }()
	r.reentries = 0

	for rounds := 0; ; rounds++ {
		if rounds > r.flushLimit {
			panic("knot: possible infinite update loop detected")
		}
		if r.drainWakes() {
			continue
		}
		if f, ok := r.dequeueAction(); ok {
			r.runAction(f)
			continue
		}
		if t, ok := r.dequeueTask(); ok {
			r.runTask(t)
			continue
		}
		if d, ok := r.dequeueDiscard(); ok {
			r.runDiscard(d)
			continue
		}
		return
	}
}

func (r *Runtime) dequeueAction() (func(*ActionContext), bool) {
	for i := range r.actions {
		if q := r.actions[i]; len(q) > 0 {
			f := q[0]
			r.actions[i] = q[1:]
			return f, true
		}
	}
	return nil, false
}

func (r *Runtime) dequeueTask() (Task, bool) {
	for i := range r.tasks {
		if q := r.tasks[i]; len(q) > 0 {
			t := q[0]
			r.tasks[i] = q[1:]
			return t, true
		}
	}
	return nil, false
}

func (r *Runtime) dequeueDiscard() (Discardable, bool) {
	if len(r.discards) == 0 {
		return nil, false
	}
	d := r.discards[0]
	r.discards = r.discards[1:]
	return d, true
}

func (r *Runtime) runAction(f func(*ActionContext)) {
	r.phase = PhaseAction
	defer func() {
		r.phase = PhaseIdle
		r.deliverNotices()
	}()
	f(&ActionContext{rt: r})
}

func (r *Runtime) runTask(t Task) {
	r.phase = PhaseUpdate
	defer func() {
		r.phase = PhaseIdle
		r.deliverNotices()
	}()
	t.RunTask(&UpdateContext{rt: r})
}

func (r *Runtime) runDiscard(d Discardable) {
	r.phase = PhaseUpdate
	defer func() { r.phase = PhaseIdle }()
	d.RunDiscard(&UpdateContext{rt: r})
}

// Wake hands f to the runtime goroutine. It is the one entry point safe to
// call from other goroutines; f runs during the next Flush (Run wakes up
// and flushes when a wake arrives while it is parked).
func (r *Runtime) Wake(f func(*Runtime)) {
	r.wakeMu.Lock()
	r.wakes = append(r.wakes, f)
	r.wakeMu.Unlock()
	select {
	case r.wakeCh <- struct{}{}:
	default:
	}
}

func (r *Runtime) drainWakes() bool {
	r.wakeMu.Lock()
	ws := r.wakes
	r.wakes = nil
	r.wakeMu.Unlock()
	for _, f := range ws {
		f(r)
	}
	return len(ws) > 0
}

// Run pumps the runtime while f makes progress on another goroutine:
// flush, park until a wake or f's completion, repeat. The context bounds
// the whole run.
func (r *Runtime) Run(ctx context.Context, f func(context.Context) error) error {
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- f(fctx) }()
	for {
		r.Flush()
		select {
		case err := <-done:
			r.Flush()
			return err
		case <-r.wakeCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// noteReentry counts a cycle fallback read; exceeding the guard aborts.
func (r *Runtime) noteReentry() {
	r.reentries++
	if r.reentries > r.cycleLimit {
		panic("knot: dependency cycle exceeded the re-entry guard")
	}
}

func (r *Runtime) phaseName() string {
	switch r.phase {
	case PhaseAction:
		return "an action scope"
	case PhaseObs:
		return "a read scope"
	case PhaseUpdate:
		return "an update scope"
	case PhaseNotify:
		return "notification delivery"
	default:
		return "idle"
	}
}
