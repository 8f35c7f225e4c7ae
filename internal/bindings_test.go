package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordSink struct {
	notifies []DirtyLevel
}

func (s *recordSink) Notify(slot Slot, level DirtyLevel, rt *Runtime) {
	s.notifies = append(s.notifies, level)
}

func TestSinkBindings(t *testing.T) {
	t.Run("unbound slots are recycled with fresh generations", func(t *testing.T) {
		var b SinkBindings
		s1 := &recordSink{}
		s2 := &recordSink{}

		k1 := b.Bind(s1, SlotDeps)
		assert.True(t, b.Unbind(k1))

		k2 := b.Bind(s2, SlotDeps)
		assert.Equal(t, k1.idx, k2.idx)
		assert.NotEqual(t, k1.gen, k2.gen)

		// the stale key can no longer touch the recycled slot
		assert.False(t, b.Unbind(k1))
		assert.Equal(t, 1, b.Len())
	})

	t.Run("notify raises edges and rebind clears them", func(t *testing.T) {
		var b SinkBindings
		rt := NewRuntime()
		s := &recordSink{}

		k := b.Bind(s, SlotDeps)
		b.Notify(LevelDirty, rt)
		assert.True(t, b.IsDirty(k))
		assert.Equal(t, []DirtyLevel{LevelDirty}, s.notifies)

		k = b.Rebind(k, s, SlotDeps)
		assert.False(t, b.IsDirty(k))
	})

	t.Run("resolve settles only maybe-dirty edges", func(t *testing.T) {
		var b SinkBindings
		rt := NewRuntime()
		maybe := &recordSink{}
		definite := &recordSink{}

		km := b.Bind(maybe, SlotDeps)
		b.Notify(LevelMaybeDirty, rt)
		kd := b.Bind(definite, SlotDeps)

		b.Resolve(true)
		assert.True(t, b.IsDirty(km))
		assert.False(t, b.IsDirty(kd))

		k3 := b.Rebind(km, maybe, SlotDeps)
		b.Notify(LevelMaybeDirty, rt)
		b.Resolve(false)
		assert.False(t, b.IsDirty(k3))
	})
}

type staticSource struct {
	sinks SinkBindings
}

func (s *staticSource) BindSink(sink Sink, slot Slot) BindKey { return s.sinks.Bind(sink, slot) }
func (s *staticSource) Unbind(key BindKey)                    { s.sinks.Unbind(key) }
func (s *staticSource) Rebind(key BindKey, sink Sink, slot Slot) BindKey {
	return s.sinks.Rebind(key, sink, slot)
}
func (s *staticSource) EdgeDirty(key BindKey, uc *UpdateContext) bool { return s.sinks.IsDirty(key) }

func TestSourceBindings(t *testing.T) {
	t.Run("sources not re-read are unbound at session end", func(t *testing.T) {
		rt := NewRuntime()
		sink := &recordSink{}
		first := &staticSource{}
		second := &staticSource{}

		var b SourceBindings
		b.Update(rt, sink, SlotDeps, false, func(sc *SignalContext) {
			sc.BindSource(first)
			sc.BindSource(second)
		})
		assert.Equal(t, 1, first.sinks.Len())
		assert.Equal(t, 1, second.sinks.Len())

		b.Update(rt, sink, SlotDeps, false, func(sc *SignalContext) {
			sc.BindSource(first)
		})
		assert.Equal(t, 1, first.sinks.Len())
		assert.Equal(t, 0, second.sinks.Len())
	})

	t.Run("a mismatched read replaces the positional entry", func(t *testing.T) {
		rt := NewRuntime()
		sink := &recordSink{}
		first := &staticSource{}
		second := &staticSource{}

		var b SourceBindings
		b.Update(rt, sink, SlotDeps, false, func(sc *SignalContext) {
			sc.BindSource(first)
		})
		b.Update(rt, sink, SlotDeps, false, func(sc *SignalContext) {
			sc.BindSource(second)
		})

		assert.Equal(t, 0, first.sinks.Len())
		assert.Equal(t, 1, second.sinks.Len())
	})

	t.Run("check reports a definite change on a recorded edge", func(t *testing.T) {
		rt := NewRuntime()
		sink := &recordSink{}
		src := &staticSource{}

		var b SourceBindings
		b.Update(rt, sink, SlotDeps, false, func(sc *SignalContext) {
			sc.BindSource(src)
		})

		uc := &UpdateContext{rt: rt}
		assert.False(t, b.Check(uc))

		src.sinks.Notify(LevelDirty, rt)
		assert.True(t, b.Check(uc))
	})
}
