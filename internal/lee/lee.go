// Package lee implements the CHARM Lee Maze Router: a Dijkstra wavefront
// search over the 3D (x, y, layer) grid, used when the pattern router's
// cheap candidates all fail DRC. The search state and its concrete
// binary heap follow the teacher's ch.witnessHeap idiom (a plain []T
// with hand-rolled sift, not container/heap's interface dispatch) the
// same way internal/pattern's candidate queue does.
package lee

import (
	"context"
	"time"

	"github.com/azybler/charm/internal/component"
	"github.com/azybler/charm/internal/drc"
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/layout"
	"github.com/azybler/charm/internal/material"
	"github.com/azybler/charm/internal/routeerr"
)

// Timeout is the per-invocation wall-clock budget (spec.md §4.4).
const Timeout = 120 * time.Second

var directions = [4][2]int32{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// node is one search-queue entry: a grid cell plus the path-state needed
// to validate jogs, area-before-layer-change, and contact atomicity.
type node struct {
	point    geom.Point
	cost     int64
	parent   int
	dir      [2]int32 // last x/y move direction; zero if none yet or last move was a layer change
	layerDir int8     // +1/-1 if this state was reached by a layer change, for contact-atomicity continuation
	jog      int32    // distance (grid units) moved since the last turn, on this material
	prevJog  int32    // the jog length completed just before the current one
	pathLen  int32    // distance (grid units) moved on the current material since the last layer change
	area     int64    // area swept on the current material since the last layer change
	origin   int       // 0 = seeded from c1, 1 = seeded from c2
}

// search holds one Route invocation's mutable state.
type search struct {
	tbl      *material.Table
	l        *layout.Layout
	label    string
	vertical bool

	nodes []node
	heap  []int

	visited [2]map[geom.Point]int
	failed  map[geom.Point]bool
}

func normalize(p geom.Point) geom.Point {
	return geom.Point{X: p.X, Y: p.Y, Mat: p.Mat}
}

func (s *search) push(n node) {
	idx := len(s.nodes)
	s.nodes = append(s.nodes, n)
	s.heap = append(s.heap, idx)
	i := len(s.heap) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if s.nodes[s.heap[i]].cost >= s.nodes[s.heap[parent]].cost {
			break
		}
		s.heap[i], s.heap[parent] = s.heap[parent], s.heap[i]
		i = parent
	}
}

func (s *search) pop() int {
	top := s.heap[0]
	n := len(s.heap) - 1
	s.heap[0] = s.heap[n]
	s.heap = s.heap[:n]
	i := 0
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && s.nodes[s.heap[left]].cost < s.nodes[s.heap[smallest]].cost {
			smallest = left
		}
		if right < n && s.nodes[s.heap[right]].cost < s.nodes[s.heap[smallest]].cost {
			smallest = right
		}
		if smallest == i {
			break
		}
		s.heap[i], s.heap[smallest] = s.heap[smallest], s.heap[i]
		i = smallest
	}
	return top
}

// Route searches from every routing-material point of c1's and c2's line
// (each tagged with its originating component) until the two frontiers
// meet at a jog-compatible point, the 120s timeout elapses, or the
// search space is exhausted.
func Route(ctx context.Context, l *layout.Layout, tbl *material.Table, c1, c2 *component.Component, label string) (geom.Route, error) {
	return run(ctx, l, tbl, routingPoints(tbl, c1), routingPoints(tbl, c2), false, label)
}

func routingPoints(tbl *material.Table, c *component.Component) []geom.Point {
	var out []geom.Point
	for _, p := range c.Line() {
		if tbl.IsRouting(p.Mat) {
			out = append(out, p)
		}
	}
	return out
}

func run(ctx context.Context, l *layout.Layout, tbl *material.Table, seeds0, seeds1 []geom.Point, vertical bool, label string) (geom.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	s := &search{
		tbl:      tbl,
		l:        l,
		label:    label,
		vertical: vertical,
		visited:  [2]map[geom.Point]int{make(map[geom.Point]int), make(map[geom.Point]int)},
		failed:   make(map[geom.Point]bool),
	}
	for _, p := range seeds0 {
		s.push(node{point: normalize(p), parent: -1, origin: 0})
	}
	for _, p := range seeds1 {
		s.push(node{point: normalize(p), parent: -1, origin: 1})
	}

	for len(s.heap) > 0 {
		select {
		case <-ctx.Done():
			return geom.Route{}, routeerr.ErrCancelled
		default:
		}

		idx := s.pop()
		cur := s.nodes[idx]
		key := cur.point

		if fin, ok := s.visited[cur.origin][key]; ok {
			if s.nodes[fin].cost <= cur.cost {
				continue // stale heap entry, already finalized more cheaply
			}
		}
		s.visited[cur.origin][key] = idx

		if otherIdx, ok := s.visited[1-cur.origin][key]; ok {
			other := s.nodes[otherIdx]
			if jogCompatible(tbl, cur, other, key.Mat) {
				return s.retrace(idx, otherIdx), nil
			}
		}

		for _, nxt := range s.expand(cur, idx) {
			nk := nxt.point
			if s.failed[nk] {
				continue
			}
			if fin, ok := s.visited[nxt.origin][nk]; ok && s.nodes[fin].cost <= nxt.cost {
				continue
			}
			if !l.Contains(nk.X, nk.Y) {
				continue
			}
			if res := drc.CheckPoint(l, tbl, nxt.point, label); !res.Clean {
				s.failed[nk] = true
				continue
			}
			s.push(nxt)
		}
	}
	if ctx.Err() != nil {
		return geom.Route{}, routeerr.ErrCancelled
	}
	return geom.Route{}, routeerr.ErrInfeasible
}

// expand returns every valid transition from cur, per spec.md §4.4.
func (s *search) expand(cur node, curIdx int) []node {
	tbl := s.tbl
	mat := cur.point.Mat

	if tbl.IsContact(mat) {
		// Rule 1: contacts are traversed atomically — continue shifting
		// layer in the same direction as arrival.
		newLayer := tbl.Layer(mat) + int(cur.layerDir)
		newMat := tbl.MaterialAtLayer(newLayer)
		if newMat == material.None {
			return nil
		}
		return []node{{
			point: geom.NewPoint(cur.point.X, cur.point.Y, newMat, tbl),
			cost:  cur.cost + layerChangeCost(tbl, newMat, s.vertical),
			parent: curIdx, layerDir: cur.layerDir, origin: cur.origin,
		}}
	}

	var out []node
	step := tbl.MinWidth(mat)
	pte := tbl.PointToEdge(mat)
	hasDir := cur.dir != [2]int32{}

	for _, d := range directions {
		if hasDir {
			dot := d[0]*cur.dir[0] + d[1]*cur.dir[1]
			if dot < 0 {
				continue // no reversal
			}
			if dot == 0 { // a ±90 turn
				if cur.jog < pte && cur.prevJog < pte {
					continue
				}
			}
		}
		isSame := cur.dir == d
		var newJog, newPrevJog int32
		if isSame {
			newJog = cur.jog + step
			newPrevJog = cur.prevJog
		} else {
			newJog = step
			newPrevJog = cur.jog
		}
		out = append(out, node{
			point:   geom.NewPoint(cur.point.X+d[0]*step, cur.point.Y+d[1]*step, mat, tbl),
			cost:    cur.cost + tbl.Cost(mat)*int64(step),
			parent:  curIdx,
			dir:     d,
			jog:     newJog,
			prevJog: newPrevJog,
			pathLen: cur.pathLen + step,
			area:    cur.area + int64(step)*int64(step),
			origin:  cur.origin,
		})
	}

	out = append(out, s.layerChangeTransitions(cur, curIdx)...)
	return out
}

func (s *search) layerChangeTransitions(cur node, curIdx int) []node {
	tbl := s.tbl
	mat := cur.point.Mat
	if s.vertical {
		dir := 1
		if cur.origin == 1 {
			dir = -1
		}
		newMat := tbl.MaterialAtLayer(tbl.Layer(mat) + dir)
		if newMat == material.None {
			return nil
		}
		return []node{{
			point: geom.NewPoint(cur.point.X, cur.point.Y, newMat, tbl),
			cost:  cur.cost, parent: curIdx, layerDir: int8(dir), origin: cur.origin,
		}}
	}
	if cur.area < tbl.MinArea(mat) {
		return nil
	}
	var out []node
	for _, dir := range [2]int{1, -1} {
		newMat := tbl.MaterialAtLayer(tbl.Layer(mat) + dir)
		if newMat == material.None {
			continue
		}
		out = append(out, node{
			point:    geom.NewPoint(cur.point.X, cur.point.Y, newMat, tbl),
			cost:     cur.cost + layerChangeCost(tbl, newMat, false),
			parent:   curIdx,
			layerDir: int8(dir),
			origin:   cur.origin,
		})
	}
	return out
}

func layerChangeCost(tbl *material.Table, newMat material.Material, vertical bool) int64 {
	if vertical {
		return 0
	}
	w := int64(tbl.MinWidth(newMat))
	return tbl.Cost(newMat) * w * w
}

// jogCompatible implements the §4.4 meeting rule: same-axis arrivals
// need a combined jog of at least point_to_edge; different-axis arrivals
// each individually need at least point_to_edge.
func jogCompatible(tbl *material.Table, a, b node, mat material.Material) bool {
	pte := tbl.PointToEdge(mat)
	axisA, axisB := axisOf(a.dir), axisOf(b.dir)
	if axisA >= 0 && axisA == axisB {
		return a.jog+b.jog >= pte
	}
	return a.jog >= pte && b.jog >= pte
}

func axisOf(d [2]int32) int {
	switch {
	case d[0] != 0:
		return 0
	case d[1] != 0:
		return 1
	default:
		return -1
	}
}

// retrace concatenates the two arrival paths at their meeting point and
// collapses the raw per-cell path into minimal waypoints.
func (s *search) retrace(a, b int) geom.Route {
	var left []geom.Point
	for i := a; i != -1; i = s.nodes[i].parent {
		left = append(left, s.nodes[i].point)
	}
	for i, j := 0, len(left)-1; i < j; i, j = i+1, j-1 {
		left[i], left[j] = left[j], left[i]
	}
	var right []geom.Point
	for i := b; i != -1; i = s.nodes[i].parent {
		right = append(right, s.nodes[i].point)
	}
	full := append(left, right[1:]...)
	return geom.Route{Waypoints: geom.FromPoints(full)}
}
