package internal

// Cell is the root mutable source: a value, the sinks reading it, and
// nothing upstream. Reading binds the reader; writing replaces the value
// and notifies every sink with a definite change.
type Cell struct {
	rt    *Runtime
	sinks SinkBindings
	value any
}

func NewCell(rt *Runtime, initial any) *Cell {
	return &Cell{rt: rt, value: initial}
}

func (c *Cell) Borrow(sc *SignalContext) any {
	if sc.rt != c.rt {
		panic("knot: cell read through a context from another runtime")
	}
	sc.BindSource(c)
	return c.value
}

func (c *Cell) Set(v any, ac *ActionContext) {
	if ac.rt != c.rt {
		panic("knot: cell written through a context from another runtime")
	}
	c.value = v
	c.rt.NotifySinks(&c.sinks, LevelDirty)
}

// Modify applies f to the value in place. The notification is deferred
// through the Runtime so it fires after the current action, like Set.
func (c *Cell) Modify(ac *ActionContext, f func(any) any) {
	if ac.rt != c.rt {
		panic("knot: cell written through a context from another runtime")
	}
	c.value = f(c.value)
	c.rt.NotifySinks(&c.sinks, LevelDirty)
}

func (c *Cell) BindSink(sink Sink, slot Slot) BindKey {
	return c.sinks.Bind(sink, slot)
}

func (c *Cell) Unbind(key BindKey) {
	c.sinks.Unbind(key)
}

func (c *Cell) Rebind(key BindKey, sink Sink, slot Slot) BindKey {
	return c.sinks.Rebind(key, sink, slot)
}

// EdgeDirty: a cell has nothing to resolve; the edge is dirty iff a write
// happened since the sink last (re)bound.
func (c *Cell) EdgeDirty(key BindKey, uc *UpdateContext) bool {
	return c.sinks.IsDirty(key)
}
