package internal

import "fmt"

// GraphNode is implemented by sources that can describe themselves for the
// debug dump facility.
type GraphNode interface {
	DebugLabel() string
	DebugSources() []Source
}

func (c *Cell) DebugLabel() string { return fmt.Sprintf("state(%v)", c.value) }

func (c *Cell) DebugSources() []Source { return nil }

// DebugLabelOf names any source, falling back to its dynamic type.
func DebugLabelOf(src Source) string {
	if g, ok := src.(GraphNode); ok {
		return g.DebugLabel()
	}
	return fmt.Sprintf("%T", src)
}

// DebugSourcesOf lists a source's recorded upstream edges, if it exposes
// them.
func DebugSourcesOf(src Source) []Source {
	if g, ok := src.(GraphNode); ok {
		return g.DebugSources()
	}
	return nil
}
