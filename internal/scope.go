package internal

// The three scope tokens the API uses to prove phase. They are handed to
// closures by the Runtime (or by a node's recompute) and must not be stored
// past the closure's return.

// ActionContext is permission to mutate state cells. Notifications produced
// during the scope are buffered and delivered, coalesced, at scope end.
type ActionContext struct {
	rt *Runtime
}

func (ac *ActionContext) Runtime() *Runtime { return ac.rt }

// UpdateContext is permission to run scheduled work: flush sources,
// recompute, discard.
type UpdateContext struct {
	rt *Runtime
}

func (uc *UpdateContext) Runtime() *Runtime { return uc.rt }

// SignalContext is permission to read reactive values while recording
// dependencies. A nil session means a top-level read scope: values can be
// read but no edges are recorded (there is no sink to attach them to).
type SignalContext struct {
	rt        *Runtime
	uc        *UpdateContext
	session   *BindSession
	untracked bool
}

func (sc *SignalContext) Runtime() *Runtime { return sc.rt }

// UC exposes the update context reads use to resolve stale upstream nodes.
func (sc *SignalContext) UC() *UpdateContext { return sc.uc }

// BindSource records an edge from the current sink to src. Returns the
// zero key when the context is non-recording.
func (sc *SignalContext) BindSource(src Source) BindKey {
	if sc.untracked || sc.session == nil {
		return BindKey{}
	}
	return sc.session.bind(src)
}

// Untracked runs f with a non-recording view of this context, for one-shot
// snapshots. Calling it from inside a derived node's compute is a
// programmer error: the node would silently miss dependencies.
func (sc *SignalContext) Untracked(f func(*SignalContext)) {
	if sc.session != nil && sc.session.derived {
		panic("knot: untracked read inside a derived compute")
	}
	f(&SignalContext{rt: sc.rt, uc: sc.uc, untracked: true})
}
