package internal

// Scan is the central derived node: a piece of state incrementally rebuilt
// by a compute closure whenever the sources it read last time change.
//
// Two flavors differ only in the compute contract. An always-modifies scan
// treats every recompute as producing a new value; a filtering scan returns
// whether the value really changed, which lets a MaybeDirty check resolve
// back to Clean without waking anything downstream.
type ScanOps struct {
	Name string

	// Compute receives the previous state and returns the next one plus
	// whether it differs. The bool is ignored unless Filter is set.
	Compute func(st any, sc *SignalContext) (any, bool)

	// Discard, if set, tears state down when the node loses its last sink;
	// it returns the state the node restarts from.
	Discard func(st any) any

	Filter bool
}

type Scan struct {
	rt      *Runtime
	ops     ScanOps
	sinks   SinkBindings
	sources SourceBindings

	state         any
	loaded        bool
	dirty         DirtyLevel
	computing     bool
	discardQueued bool
}

func NewScan(rt *Runtime, initial any, ops ScanOps) *Scan {
	return &Scan{rt: rt, ops: ops, state: initial}
}

// Borrow implements the read protocol: bind the reader, settle own
// staleness, hand out the state. A read that re-enters a node mid-compute
// gets the last committed state and an edge marked MaybeDirty, so a cycle
// converges to a fixed point or trips the runtime's re-entry guard.
func (s *Scan) Borrow(sc *SignalContext) any {
	key := sc.BindSource(s)
	if s.computing {
		s.rt.noteReentry()
		if key != (BindKey{}) {
			s.sinks.SetEdge(key, LevelMaybeDirty)
		}
		return s.state
	}
	s.resolve(sc.UC())
	return s.state
}

func (s *Scan) resolve(uc *UpdateContext) {
	if !s.loaded {
		s.recompute(uc)
		return
	}
	if s.dirty == LevelMaybeDirty {
		if s.sources.Check(uc) {
			s.dirty = LevelDirty
		} else {
			s.dirty = LevelClean
			s.sinks.Resolve(false)
		}
	}
	if s.dirty == LevelDirty {
		s.recompute(uc)
	}
}

func (s *Scan) recompute(uc *UpdateContext) {
	s.computing = true
	defer func() { s.computing = false }()

	modified := !s.ops.Filter
	s.sources.Update(s.rt, s, SlotDeps, true, func(sc *SignalContext) {
		st, m := s.ops.Compute(s.state, sc)
		s.state = st
		if m {
			modified = true
		}
	})
	s.loaded = true
	s.dirty = LevelClean
	s.sinks.Resolve(modified)
}

// Notify transitions the local dirty state; only a Clean-to-dirty
// transition forwards downstream. A filtering scan forwards MaybeDirty
// regardless of the incoming kind, because the filter may absorb the
// change.
func (s *Scan) Notify(slot Slot, level DirtyLevel, rt *Runtime) {
	if slot != SlotDeps || !s.loaded {
		return
	}
	old := s.dirty
	s.dirty = s.dirty.join(level)
	if old != LevelClean || s.dirty == LevelClean {
		return
	}
	fwd := level
	if s.ops.Filter {
		fwd = LevelMaybeDirty
	}
	s.sinks.Notify(fwd, rt)
}

func (s *Scan) BindSink(sink Sink, slot Slot) BindKey {
	return s.sinks.Bind(sink, slot)
}

func (s *Scan) Unbind(key BindKey) {
	if s.sinks.Unbind(key) {
		s.scheduleDiscard()
	}
}

func (s *Scan) Rebind(key BindKey, sink Sink, slot Slot) BindKey {
	return s.sinks.Rebind(key, sink, slot)
}

func (s *Scan) EdgeDirty(key BindKey, uc *UpdateContext) bool {
	if s.computing {
		return false
	}
	s.resolve(uc)
	return s.sinks.IsDirty(key)
}

func (s *Scan) scheduleDiscard() {
	if s.discardQueued {
		return
	}
	s.discardQueued = true
	s.rt.ScheduleDiscard(s)
}

// RunDiscard reclaims derived state if the sink set is still empty by the
// time the scheduled discard runs. A read between unbind and now
// resurrects the node and the discard becomes a no-op.
func (s *Scan) RunDiscard(uc *UpdateContext) {
	s.discardQueued = false
	if !s.sinks.Empty() || !s.loaded {
		return
	}
	if s.ops.Discard != nil {
		s.state = s.ops.Discard(s.state)
	}
	s.sources.Clear()
	s.loaded = false
	s.dirty = LevelClean
}

func (s *Scan) DebugLabel() string {
	name := s.ops.Name
	if name == "" {
		name = "scan"
	}
	return name
}

func (s *Scan) DebugSources() []Source { return s.sources.Sources() }
