// Package knot is a single-threaded push-pull reactive runtime: state
// cells, derived signals, and subscribers wired into a dependency graph
// that is tracked automatically as computations read values.
//
// A source mutation marks its transitive sinks dirty (push); a read walks
// upstream recomputing only what must change (pull), so every observer
// sees a consistent, glitch-free snapshot of its inputs.
//
// All nodes belong to the Runtime of the goroutine that created them;
// sharing nodes across goroutines is not supported. Asynchronous producers
// are the one sanctioned boundary: they run on their own goroutines and
// talk to the runtime through AsyncSignalContext.
package knot

import "github.com/AnatoleLucet/knot/internal"

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

func isEqual(a, b any) bool {
	return a == b
}

// Context and scheduling types, shared with the internal engine.
type (
	ActionContext      = internal.ActionContext
	SignalContext      = internal.SignalContext
	UpdateContext      = internal.UpdateContext
	AsyncSignalContext = internal.AsyncSignalContext
	TaskKind           = internal.TaskKind
	ActionKind         = internal.ActionKind
)

// Task kinds pre-registered on every runtime, in drain order.
var (
	TaskUpdate = internal.TaskKindUpdate
	TaskRender = internal.TaskKindRender
	TaskUser   = internal.TaskKindUser

	ActionDefault = internal.ActionKindDefault
)

// ErrCanceled reports that an async computation's epoch was dropped.
var ErrCanceled = internal.ErrCanceled

// Action runs f in the current goroutine runtime's action phase. State
// mutations are permitted inside and their notifications are delivered,
// coalesced, when the scope ends.
func Action(f func(*ActionContext)) {
	internal.GetRuntime().Action(f)
}

// Obs runs f in a top-level read phase.
func Obs(f func(*SignalContext)) {
	internal.GetRuntime().Obs(f)
}

// Flush drains the current goroutine runtime's pending work to quiescence.
func Flush() {
	internal.GetRuntime().Flush()
}

// Schedule enqueues an action callback to run during the next flush, ahead
// of pending tasks. It is the sanctioned way for a subscriber to mutate
// state.
func Schedule(f func(*ActionContext)) {
	internal.GetRuntime().ScheduleAction(internal.ActionKindDefault, f)
}

// Configure applies options to the current goroutine's runtime.
func Configure(opts ...RuntimeOption) {
	internal.GetRuntime().Configure(opts...)
}
