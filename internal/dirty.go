package internal

// DirtyLevel is the per-sink (and per-edge) staleness lattice.
// Clean < MaybeDirty < Dirty, join = max. Transitions are monotone until
// a successful recompute (or an absorbed check) returns the node to Clean.
type DirtyLevel int

const (
	LevelClean DirtyLevel = iota

	// LevelMaybeDirty means an upstream may have changed; a check against
	// the recorded sources is required to decide.
	LevelMaybeDirty

	// LevelDirty means an upstream definitely changed; a recompute is required.
	LevelDirty
)

func (l DirtyLevel) join(o DirtyLevel) DirtyLevel {
	if o > l {
		return o
	}
	return l
}

func (l DirtyLevel) String() string {
	switch l {
	case LevelClean:
		return "clean"
	case LevelMaybeDirty:
		return "maybe-dirty"
	default:
		return "dirty"
	}
}
