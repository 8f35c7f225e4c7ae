package knot

import "github.com/AnatoleLucet/knot/internal"

type scanConfig[St any] struct {
	name    string
	discard func(St) St
}

type ScanOption[St any] func(*scanConfig[St])

// WithDiscard overrides what happens to the accumulated state when the
// node loses its last observer. The default resets to the initial state.
func WithDiscard[St any](f func(St) St) ScanOption[St] {
	return func(c *scanConfig[St]) { c.discard = f }
}

// WithName labels the node in graph dumps.
func WithName[St any](name string) ScanOption[St] {
	return func(c *scanConfig[St]) { c.name = name }
}

// NewScan creates a stateful derived signal: scan folds the previous state
// into the next one each time a source it read changes. Every recompute is
// treated as producing a new value.
func NewScan[St any](initial St, scan func(St, *SignalContext) St, opts ...ScanOption[St]) Signal[St] {
	cfg := scanConfig[St]{name: "scan", discard: func(St) St { return initial }}
	for _, opt := range opts {
		opt(&cfg)
	}
	node := internal.NewScan(internal.GetRuntime(), initial, internal.ScanOps{
		Name: cfg.name,
		Compute: func(st any, sc *internal.SignalContext) (any, bool) {
			return scan(as[St](st), sc), true
		},
		Discard: func(st any) any { return cfg.discard(as[St](st)) },
	})
	return Signal[St]{node: node}
}

// NewFilterScan is the filtering flavor: scan additionally reports whether
// the state really changed. A recompute that reports false resolves the
// wave without waking anything downstream.
func NewFilterScan[St any](initial St, scan func(St, *SignalContext) (St, bool), opts ...ScanOption[St]) Signal[St] {
	cfg := scanConfig[St]{name: "scan", discard: func(St) St { return initial }}
	for _, opt := range opts {
		opt(&cfg)
	}
	node := internal.NewScan(internal.GetRuntime(), initial, internal.ScanOps{
		Name:   cfg.name,
		Filter: true,
		Compute: func(st any, sc *internal.SignalContext) (any, bool) {
			next, modified := scan(as[St](st), sc)
			return next, modified
		},
		Discard: func(st any) any { return cfg.discard(as[St](st)) },
	})
	return Signal[St]{node: node}
}
