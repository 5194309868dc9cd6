package pattern

import (
	"sort"

	"github.com/azybler/charm/internal/component"
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/material"
)

type pairPoint struct {
	S, D geom.Point
}

// Generator is the pattern router's explicit state machine: a pair
// cursor over c1.Line() x c2.Line(), a pending-candidate min-heap (the
// teacher's concrete-heap idiom, not container/heap's interface
// dispatch). U detour candidates are generated per pair in expandPair;
// there is no separate detour cursor.
type Generator struct {
	tbl   *material.Table
	pairs []pairPoint

	pairIdx  int
	expanded bool
	lazy     bool

	heap     candidateHeap
	seq      int64
	produced int
	budget   int
}

// NewGenerator builds a Generator over every routing point in c1's line
// crossed with every routing point in c2's line, sorted by
// manhattan_distance * material_cost_average (spec.md §4.3).
func NewGenerator(tbl *material.Table, c1, c2 *component.Component) *Generator {
	l1, l2 := c1.Line(), c2.Line()
	pairs := make([]pairPoint, 0, len(l1)*len(l2))
	for _, s := range l1 {
		if !tbl.IsRouting(s.Mat) {
			continue
		}
		for _, d := range l2 {
			if !tbl.IsRouting(d.Mat) {
				continue
			}
			pairs = append(pairs, pairPoint{S: s, D: d})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairRank(tbl, pairs[i]) < pairRank(tbl, pairs[j])
	})
	return &Generator{
		tbl:    tbl,
		pairs:  pairs,
		lazy:   len(pairs) > LazyThreshold,
		budget: CandidateBudget,
	}
}

func pairRank(tbl *material.Table, p pairPoint) int64 {
	dist := geom.Manhattan(p.S, p.D)
	avgCost := (tbl.Cost(p.S.Mat) + tbl.Cost(p.D.Mat)) / 2
	if avgCost <= 0 {
		avgCost = 1
	}
	return dist * avgCost
}

// Next returns the next candidate route in non-decreasing cost order, or
// ok=false once the pair cursor and pending queue are both exhausted or
// the candidate budget is spent. In lazy mode the order holds only among
// the candidates of one pair: the next pair is expanded once the heap is
// empty, and its candidates may cost less than ones already returned.
func (g *Generator) Next() (geom.Route, bool) {
	if g.produced >= g.budget {
		return geom.Route{}, false
	}
	if !g.lazy && !g.expanded {
		for _, p := range g.pairs {
			g.expandPair(p)
		}
		g.expanded = true
	}
	for len(g.heap) == 0 {
		if g.pairIdx >= len(g.pairs) {
			return geom.Route{}, false
		}
		g.expandPair(g.pairs[g.pairIdx])
		g.pairIdx++
	}
	e := g.heapPop()
	g.produced++
	return e.route, true
}

// expandPair pushes every valid O/I/L/Z candidate for (s, d), plus every
// U detour candidate whose detour amount is at most the pair's own
// Manhattan distance (the "interleaved" rule in spec.md §4.3), onto the
// pending heap.
func (g *Generator) expandPair(p pairPoint) {
	var all []geom.Route
	all = append(all, oCandidates(g.tbl, p.S, p.D)...)
	all = append(all, iCandidates(g.tbl, p.S, p.D)...)
	all = append(all, lCandidates(g.tbl, p.S, p.D)...)
	all = append(all, zCandidates(g.tbl, p.S, p.D)...)

	maxDetour := geom.Manhattan(p.S, p.D)
	all = append(all, uCandidates(g.tbl, p.S, p.D, maxDetour)...)

	for _, route := range all {
		if !jogValid(g.tbl, route.Waypoints) {
			continue
		}
		g.heapPush(heapEntry{route: route, cost: route.CostEstimate(g.tbl), seq: g.seq})
		g.seq++
	}
}

// jogValid rejects a route with an internal segment shorter than
// point_to_edge(material) when that short segment is flanked by another
// short segment or by a contact (spec.md §4.3 jog validation); first and
// last segments must individually meet point_to_edge.
func jogValid(tbl *material.Table, wp []geom.Point) bool {
	n := len(wp) - 1 // number of legs
	if n < 1 {
		return true
	}
	isContactLeg := func(i int) bool { return wp[i].Mat != wp[i+1].Mat }
	short := func(i int) bool {
		if isContactLeg(i) {
			return false
		}
		return int32(geom.Manhattan(wp[i], wp[i+1])) < tbl.PointToEdge(wp[i].Mat)
	}

	if !isContactLeg(0) && short(0) {
		return false
	}
	if !isContactLeg(n-1) && short(n-1) {
		return false
	}
	for i := 0; i < n; i++ {
		if !short(i) {
			continue
		}
		flankedByContact := (i > 0 && isContactLeg(i-1)) || (i < n-1 && isContactLeg(i+1))
		flankedByShort := (i > 0 && short(i-1)) || (i < n-1 && short(i+1))
		if flankedByContact || flankedByShort {
			return false
		}
	}
	return true
}
