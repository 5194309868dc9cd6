// Package pattern implements the CHARM Pattern Router: a cheap candidate
// generator (O/I/L/Z/U) that tries to connect two same-net components
// without paying for a full Lee maze search, producing candidates in
// non-decreasing cost order the way the teacher's CH query phase tries a
// cheap direct shortcut before falling back to the full witness search.
package pattern

import (
	"context"

	"github.com/azybler/charm/internal/component"
	"github.com/azybler/charm/internal/drc"
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/layout"
	"github.com/azybler/charm/internal/material"
	"github.com/azybler/charm/internal/routeerr"
)

// CandidateBudget is the termination bound on candidates tried per pair.
const CandidateBudget = 50000

// LazyThreshold is the pair-count above which the generator only expands
// one pair's candidates at a time instead of all of them up front.
const LazyThreshold = 100

// Elevator raises c's highest occupied layer up to destMat by placing a
// 5x-scaled pad and connecting it with a vertical-mode Lee search. The
// caller (cmd/charm) wires this to internal/lee to avoid pattern
// depending on lee.
type Elevator func(l *layout.Layout, tbl *material.Table, c *component.Component, destMat material.Material, label string) error

// Route tries candidates from the pattern generator in increasing cost
// order until one passes DRC, the candidate budget is exhausted, or ctx
// is cancelled.
func Route(ctx context.Context, l *layout.Layout, tbl *material.Table, c1, c2 *component.Component, label string, elevate Elevator) (geom.Route, error) {
	if err := elevatePreamble(l, tbl, c1, c2, label, elevate); err != nil {
		return geom.Route{}, err
	}

	gen := NewGenerator(tbl, c1, c2)
	for {
		select {
		case <-ctx.Done():
			return geom.Route{}, routeerr.ErrCancelled
		default:
		}
		route, ok := gen.Next()
		if !ok {
			if gen.produced >= gen.budget {
				return geom.Route{}, routeerr.ErrBudgetExhausted
			}
			return geom.Route{}, routeerr.ErrInfeasible
		}
		res := drc.CheckRoute(l, tbl, route, label)
		if res.Clean {
			return route, nil
		}
	}
}

func elevatePreamble(l *layout.Layout, tbl *material.Table, c1, c2 *component.Component, label string, elevate Elevator) error {
	if elevate == nil {
		return nil
	}
	h1, h2 := highestLayer(tbl, c1), highestLayer(tbl, c2)
	switch {
	case h1 < h2:
		return elevate(l, tbl, c1, tbl.MaterialAtLayer(h2), label)
	case h2 < h1:
		return elevate(l, tbl, c2, tbl.MaterialAtLayer(h1), label)
	}
	return nil
}

func highestLayer(tbl *material.Table, c *component.Component) int {
	best := -1
	for _, n := range c.Nodes {
		if tbl.IsRouting(n.Mat) || tbl.IsContact(n.Mat) {
			if layer := tbl.Layer(n.Mat); layer > best {
				best = layer
			}
		}
	}
	for _, s := range c.Segments {
		if layer := tbl.Layer(s.A.Mat); layer > best {
			best = layer
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
