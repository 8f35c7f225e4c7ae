package knot

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/m1gwings/treedrawer/tree"

	"github.com/AnatoleLucet/knot/internal"
)

// DumpGraph renders the dependency tree below the signal (the sources its
// node read during its last compute, transitively) to w. Cycles are cut at
// the repeated node.
func (s Signal[T]) DumpGraph(w io.Writer) error {
	root := tree.NewTree(tree.NodeString(s.debugLabel()))
	if s.node != nil {
		visited := map[internal.Source]bool{s.node: true}
		addDebugChildren(root, s.node, visited)
	}
	_, err := fmt.Fprintln(w, root.String())
	return err
}

// LogGraph logs the rendered dependency tree through l at debug level,
// following the shape graph-debug tooling expects: one record, the drawn
// tree as an attribute.
func (s Signal[T]) LogGraph(l *slog.Logger, msg string) {
	root := tree.NewTree(tree.NodeString(s.debugLabel()))
	if s.node != nil {
		visited := map[internal.Source]bool{s.node: true}
		addDebugChildren(root, s.node, visited)
	}
	l.Debug(msg,
		"signal", s.debugLabel(),
		"dependency_graph", root.String(),
	)
}

func (s Signal[T]) debugLabel() string {
	if s.node == nil {
		return fmt.Sprintf("const(%v)", s.value)
	}
	return internal.DebugLabelOf(s.node)
}

func addDebugChildren(t *tree.Tree, src internal.Source, visited map[internal.Source]bool) {
	for _, dep := range internal.DebugSourcesOf(src) {
		label := internal.DebugLabelOf(dep)
		if visited[dep] {
			t.AddChild(tree.NodeString(label + " (cycle)"))
			continue
		}
		visited[dep] = true
		child := t.AddChild(tree.NodeString(label))
		addDebugChildren(child, dep, visited)
	}
}
