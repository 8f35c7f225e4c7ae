package internal

// SinkBindings is the edge set a source holds over its sinks: a slab of
// entries tagged with the sink's slot and a per-edge dirty level. Unbound
// slots are recycled through a free list so keys stay dense.
type sinkEntry struct {
	sink   Sink
	slot   Slot
	gen    uint32
	level  DirtyLevel
	active bool
}

type SinkBindings struct {
	entries []sinkEntry
	free    []int
	count   int
}

// Bind adds an edge to sink and returns its key. Amortized O(1).
func (b *SinkBindings) Bind(sink Sink, slot Slot) BindKey {
	var idx int
	if n := len(b.free); n > 0 {
		idx = b.free[n-1]
		b.free = b.free[:n-1]
	} else {
		b.entries = append(b.entries, sinkEntry{})
		idx = len(b.entries) - 1
	}
	gen := b.entries[idx].gen + 1
	b.entries[idx] = sinkEntry{sink: sink, slot: slot, gen: gen, active: true}
	b.count++
	return BindKey{idx: idx, gen: gen}
}

func (b *SinkBindings) lookup(key BindKey) *sinkEntry {
	if key.idx < 0 || key.idx >= len(b.entries) {
		return nil
	}
	e := &b.entries[key.idx]
	if !e.active || e.gen != key.gen {
		return nil
	}
	return e
}

// Unbind removes the edge behind key. Reports whether the removal emptied
// the set (the caller's cue to schedule a discard). A stale key is a no-op.
func (b *SinkBindings) Unbind(key BindKey) bool {
	e := b.lookup(key)
	if e == nil {
		return false
	}
	e.active = false
	e.sink = nil
	b.free = append(b.free, key.idx)
	b.count--
	return b.count == 0
}

// Rebind reuses key for a sink that re-read the source, resetting the edge's
// dirty level. Falls back to a fresh Bind if the key went stale.
func (b *SinkBindings) Rebind(key BindKey, sink Sink, slot Slot) BindKey {
	if e := b.lookup(key); e != nil {
		e.sink = sink
		e.slot = slot
		e.level = LevelClean
		return key
	}
	return b.Bind(sink, slot)
}

// Notify raises every edge to at least level and delivers the notification
// to each sink. Sinks coalesce on their side: only a Clean-to-dirty
// transition propagates further downstream.
func (b *SinkBindings) Notify(level DirtyLevel, rt *Runtime) {
	for i := range b.entries {
		e := &b.entries[i]
		if !e.active {
			continue
		}
		e.level = e.level.join(level)
		e.sink.Notify(e.slot, level, rt)
	}
}

// IsDirty answers the upstream-side check of a specific edge.
func (b *SinkBindings) IsDirty(key BindKey) bool {
	e := b.lookup(key)
	return e != nil && e.level == LevelDirty
}

// SetEdge raises one edge's level without notifying.
func (b *SinkBindings) SetEdge(key BindKey, level DirtyLevel) {
	if e := b.lookup(key); e != nil {
		e.level = e.level.join(level)
	}
}

// Resolve settles every MaybeDirty edge after the owner recomputed (or
// absorbed a check): to Dirty when the value really changed, back to Clean
// otherwise. Edges already Dirty or freshly bound Clean are untouched.
func (b *SinkBindings) Resolve(modified bool) {
	for i := range b.entries {
		e := &b.entries[i]
		if !e.active || e.level != LevelMaybeDirty {
			continue
		}
		if modified {
			e.level = LevelDirty
		} else {
			e.level = LevelClean
		}
	}
}

func (b *SinkBindings) Empty() bool { return b.count == 0 }

func (b *SinkBindings) Len() int { return b.count }
