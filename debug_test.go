package knot

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDumpGraph(t *testing.T) {
	t.Run("renders the dependency tree", func(t *testing.T) {
		price := NewState(100)
		qty := NewState(2)
		total := NewScan(0, func(st int, sc *SignalContext) int {
			return price.Get(sc) * qty.Get(sc)
		}, WithName[int]("total"))

		// populate the source edges
		Obs(func(sc *SignalContext) { total.Get(sc) })

		var buf bytes.Buffer
		err := total.DumpGraph(&buf)
		assert.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, "total")
		assert.Contains(t, out, "state(100)")
		assert.Contains(t, out, "state(2)")
	})

	t.Run("constants render without a node", func(t *testing.T) {
		var buf bytes.Buffer
		err := FromValue(5).DumpGraph(&buf)
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "const(5)")
	})

	t.Run("cycles are cut at the repeated node", func(t *testing.T) {
		var a, b Signal[int]
		a = New(func(sc *SignalContext) int { return b.Get(sc) + 1 })
		b = New(func(sc *SignalContext) int { return a.Get(sc) + 1 })
		Obs(func(sc *SignalContext) { a.Get(sc) })

		var buf bytes.Buffer
		assert.NoError(t, a.DumpGraph(&buf))
		assert.Contains(t, buf.String(), "(cycle)")
	})

	t.Run("log graph emits one structured record", func(t *testing.T) {
		s := NewState(1)
		sig := Map(s.ToSignal(), func(x int) int { return x + 1 }).Cached()
		Obs(func(sc *SignalContext) { sig.Get(sc) })

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		sig.LogGraph(logger, "graph")

		out := buf.String()
		assert.Equal(t, 1, strings.Count(out, "msg=graph"))
		assert.Contains(t, out, "dependency_graph")
	})
}
