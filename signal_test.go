package knot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignal(t *testing.T) {
	t.Run("diamond produces one consistent value per wave", func(t *testing.T) {
		s := NewState(1)
		a := Map(s.ToSignal(), func(x int) int { return x + 1 })
		b := Map(s.ToSignal(), func(x int) int { return x * 2 })
		c := New(func(sc *SignalContext) int {
			return a.Get(sc) + b.Get(sc)
		})

		var seen []int
		c.Subscribe(func(v int) { seen = append(seen, v) })
		Flush()

		Action(func(ac *ActionContext) { s.Set(2, ac) })
		Flush()

		// never an intermediate 3+2 or 1+4
		assert.Equal(t, []int{4, 7}, seen)
	})

	t.Run("reading twice in one scope computes once", func(t *testing.T) {
		s := NewState(1)
		computes := 0
		c := New(func(sc *SignalContext) int {
			computes++
			return s.Get(sc) * 10
		})

		Obs(func(sc *SignalContext) {
			assert.Equal(t, 10, c.Get(sc))
			assert.Equal(t, 10, c.Get(sc))
		})
		assert.Equal(t, 1, computes)
	})

	t.Run("dedup never forwards equal consecutive values", func(t *testing.T) {
		s := NewState(1)
		d := Map(s.ToSignal(), func(x int) int { return x }).Dedup()

		var seen []int
		d.Subscribe(func(v int) { seen = append(seen, v) })
		Flush()

		Action(func(ac *ActionContext) { s.Set(1, ac) })
		Flush()
		Action(func(ac *ActionContext) { s.Set(2, ac) })
		Flush()
		Action(func(ac *ActionContext) { s.Set(2, ac) })
		Flush()

		assert.Equal(t, []int{1, 2}, seen)
	})

	t.Run("deep dedup chain notifies once per distinct root value", func(t *testing.T) {
		s := NewState(0)
		cur := s.ToSignal()
		for i := 0; i < 100; i++ {
			cur = Map(cur, func(x int) int { return x + 1 }).Dedup()
		}

		runs := 0
		cur.Subscribe(func(int) { runs++ })
		Flush()
		assert.Equal(t, 1, runs)

		Action(func(ac *ActionContext) { s.Set(0, ac) })
		Flush()
		assert.Equal(t, 1, runs)

		Action(func(ac *ActionContext) { s.Set(1, ac) })
		Flush()
		assert.Equal(t, 2, runs)

		var got int
		Obs(func(sc *SignalContext) { got = cur.Get(sc) })
		assert.Equal(t, 101, got)
	})

	t.Run("map is a projection, cached materializes it", func(t *testing.T) {
		s := NewState(1)
		projections := 0
		m := Map(s.ToSignal(), func(x int) int {
			projections++
			return x + 1
		})

		Obs(func(sc *SignalContext) {
			m.Get(sc)
			m.Get(sc)
		})
		assert.Equal(t, 2, projections)

		projections = 0
		cached := m.Cached()
		Obs(func(sc *SignalContext) {
			cached.Get(sc)
			cached.Get(sc)
		})
		assert.Equal(t, 1, projections)
	})

	t.Run("constants", func(t *testing.T) {
		v := FromValue("hello")
		var got string
		Obs(func(sc *SignalContext) { got = v.Get(sc) })
		assert.Equal(t, "hello", got)

		backing := 7
		p := FromStaticRef(&backing)
		Obs(func(sc *SignalContext) { assert.Equal(t, 7, p.Get(sc)) })
	})

	t.Run("borrow supports further projection", func(t *testing.T) {
		s := NewState("reactive")
		sig := s.ToSignal()

		var n int
		Obs(func(sc *SignalContext) {
			n = MapRef(sig.Borrow(sc), func(v string) int { return len(v) }).Value()
		})
		assert.Equal(t, 8, n)
	})
}
