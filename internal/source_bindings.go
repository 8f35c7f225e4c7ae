package internal

// SourceBindings is the ordered edge list a sink holds over its sources,
// recorded in read order. A BindSession replays the list positionally
// during a recompute: a read matching the entry at the cursor rebinds it
// (keeping the key, clearing the edge's dirty bit), a mismatch replaces the
// entry, and whatever remains past the cursor at session end was not read
// this pass and is unbound. This keeps the graph minimal without a separate
// garbage scan.
type sourceEntry struct {
	source Source
	slot   Slot
	key    BindKey
}

type SourceBindings struct {
	entries []sourceEntry
}

type BindSession struct {
	b       *SourceBindings
	sink    Sink
	slot    Slot
	pos     int
	derived bool
}

// Begin opens a positional session. derived marks sessions owned by a
// derived node's compute, where non-recording reads are prohibited.
func (b *SourceBindings) Begin(sink Sink, slot Slot, derived bool) *BindSession {
	return &BindSession{b: b, sink: sink, slot: slot, derived: derived}
}

func (s *BindSession) bind(src Source) BindKey {
	es := s.b.entries
	if s.pos < len(es) {
		e := &es[s.pos]
		if e.source == src && e.slot == s.slot {
			e.key = src.Rebind(e.key, s.sink, s.slot)
			s.pos++
			return e.key
		}
		old := *e
		*e = sourceEntry{source: src, slot: s.slot, key: src.BindSink(s.sink, s.slot)}
		old.source.Unbind(old.key)
		s.pos++
		return e.key
	}
	key := src.BindSink(s.sink, s.slot)
	s.b.entries = append(s.b.entries, sourceEntry{source: src, slot: s.slot, key: key})
	s.pos++
	return key
}

// End unbinds the unread tail and truncates the list to what this session
// actually recorded.
func (s *BindSession) End() {
	for _, e := range s.b.entries[s.pos:] {
		e.source.Unbind(e.key)
	}
	s.b.entries = s.b.entries[:s.pos]
}

// Update runs f under a fresh session: reads performed through the supplied
// SignalContext are recorded as this sink's new source set.
func (b *SourceBindings) Update(rt *Runtime, sink Sink, slot Slot, derived bool, f func(*SignalContext)) {
	ses := b.Begin(sink, slot, derived)
	defer ses.End()
	sc := &SignalContext{rt: rt, uc: &UpdateContext{rt: rt}, session: ses}
	f(sc)
}

// Check walks the recorded sources asking each whether its edge carries a
// definite change, short-circuiting on the first that does.
func (b *SourceBindings) Check(uc *UpdateContext) bool {
	for i := range b.entries {
		if b.entries[i].source.EdgeDirty(b.entries[i].key, uc) {
			return true
		}
	}
	return false
}

// Clear unbinds everything.
func (b *SourceBindings) Clear() {
	for _, e := range b.entries {
		e.source.Unbind(e.key)
	}
	b.entries = nil
}

func (b *SourceBindings) Empty() bool { return len(b.entries) == 0 }

// Sources returns the recorded sources in read order, for debug dumps.
func (b *SourceBindings) Sources() []Source {
	out := make([]Source, len(b.entries))
	for i := range b.entries {
		out[i] = b.entries[i].source
	}
	return out
}
