package knot

import (
	"context"

	"github.com/AnatoleLucet/knot/internal"
)

// Runtime owns one thread's reactive graph: its queues, phase state, and
// scheduler registrations. Most code uses the ambient per-goroutine
// runtime through the package-level functions; an explicit Runtime exists
// for embedders and tests that want full control.
type Runtime struct {
	in *internal.Runtime
}

type RuntimeOption = internal.Option

// WithCycleLimit bounds dependency-cycle re-entries per flush.
func WithCycleLimit(n int) RuntimeOption { return internal.WithCycleLimit(n) }

// WithFlushLimit bounds scheduling rounds per flush.
func WithFlushLimit(n int) RuntimeOption { return internal.WithFlushLimit(n) }

func NewRuntime(opts ...RuntimeOption) *Runtime {
	return &Runtime{in: internal.NewRuntime(opts...)}
}

// GetRuntime returns the runtime pinned to the current goroutine, creating
// it on first use.
func GetRuntime() *Runtime {
	return &Runtime{in: internal.GetRuntime()}
}

// Configure applies options to an already-created runtime.
func (r *Runtime) Configure(opts ...RuntimeOption) { r.in.Configure(opts...) }

// Action enters the action phase. See the package-level Action.
func (r *Runtime) Action(f func(*ActionContext)) { r.in.Action(f) }

// Obs enters a top-level read phase.
func (r *Runtime) Obs(f func(*SignalContext)) { r.in.Obs(f) }

// Flush repeatedly drains pending actions, then tasks, then discards,
// returning once every queue is empty. It is idempotent: flushing twice
// with no intervening mutation does nothing the second time.
func (r *Runtime) Flush() { r.in.Flush() }

// Run pumps the runtime while f executes on another goroutine, waking to
// flush whenever asynchronous work arrives. It returns f's result, or the
// context error if ctx expires first.
func (r *Runtime) Run(ctx context.Context, f func(context.Context) error) error {
	return r.in.Run(ctx, f)
}

// RegisterTaskKind declares a task priority class; classes drain in
// registration order, FIFO within a class.
func (r *Runtime) RegisterTaskKind(name string) TaskKind {
	return r.in.RegisterTaskKind(name)
}

// RegisterActionKind declares an action priority class.
func (r *Runtime) RegisterActionKind(name string) ActionKind {
	return r.in.RegisterActionKind(name)
}

// ScheduleAction enqueues an external-mutation callback under kind.
func (r *Runtime) ScheduleAction(kind ActionKind, f func(*ActionContext)) {
	r.in.ScheduleAction(kind, f)
}

// Post hands an action to the runtime from any goroutine. It is the
// mutation counterpart of the wake queue: f is enqueued as a default-kind
// action and runs during the next flush, which Run triggers on wake.
func (r *Runtime) Post(f func(*ActionContext)) {
	r.in.Wake(func(in *internal.Runtime) {
		in.ScheduleAction(internal.ActionKindDefault, f)
	})
}
