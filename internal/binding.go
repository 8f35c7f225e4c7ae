package internal

// Slot distinguishes the logical roles one sink can play against a source.
// A node that both depends on sources and waits for external wakeups uses a
// separate slot for each so a notification can be routed without ambiguity.
type Slot int

const (
	SlotDeps Slot = iota
	SlotWake
)

// BindKey identifies one edge inside a source's sink set. It is issued by
// the source at bind time and presented back at unbind/check. The zero key
// is never issued (generations start at 1), so it can be used as a sentinel
// for "no edge was recorded".
type BindKey struct {
	idx int
	gen uint32
}

// Sink reacts to source changes. Notify receives the slot the sink bound
// with and the dirty kind the source propagated.
type Sink interface {
	Notify(slot Slot, level DirtyLevel, rt *Runtime)
}

// Source can be read reactively. Bind/Unbind/Rebind manage the edge set;
// EdgeDirty answers whether the edge behind key carries a definite change,
// resolving the source's own staleness first if needed.
type Source interface {
	BindSink(sink Sink, slot Slot) BindKey
	Unbind(key BindKey)
	Rebind(key BindKey, sink Sink, slot Slot) BindKey
	EdgeDirty(key BindKey, uc *UpdateContext) bool
}

// SignalNode is a Source whose current value can be borrowed. All derived
// and root value nodes (cells, scans, async nodes) implement it; the public
// Signal façade dispatches through this interface.
type SignalNode interface {
	Source
	Borrow(sc *SignalContext) any
}
