// Package ordering implements the CHARM controller's two pair-selection
// rules (net_rule3, pair_rule3) and the closest_first secondary rule,
// each operating purely over a *layout.Layout snapshot with no knowledge
// of routing itself — the controller asks ordering for a queue, then
// drives pattern/lee/drc on its own.
package ordering

import (
	"sort"

	"github.com/azybler/charm/internal/component"
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/layout"
)

// Pair is one candidate component pair to route, scoped to a single net.
type Pair struct {
	Label string
	C1    *component.Component
	C2    *component.Component
}

// Key identifies a pair by component id, normalized so (a, b) and (b, a)
// collide — used both by pair_rule3's memo and by ClosestFirst's
// "already attempted" set.
type Key struct {
	A, B int
}

func keyOf(c1, c2 *component.Component) Key {
	if c1.ID <= c2.ID {
		return Key{c1.ID, c2.ID}
	}
	return Key{c2.ID, c1.ID}
}

func mbb(rects ...[4]int32) (x0, y0, x1, y1 int32, ok bool) {
	for _, r := range rects {
		if !ok {
			x0, y0, x1, y1 = r[0], r[1], r[2], r[3]
			ok = true
			continue
		}
		if r[0] < x0 {
			x0 = r[0]
		}
		if r[1] < y0 {
			y0 = r[1]
		}
		if r[2] > x1 {
			x1 = r[2]
		}
		if r[3] > y1 {
			y1 = r[3]
		}
	}
	return
}

func bboxOf(c *component.Component) ([4]int32, bool) {
	x0, x1, y0, y1, ok := c.BoundingBox()
	if !ok {
		return [4]int32{}, false
	}
	return [4]int32{x0, y0, x1, y1}, true
}

// NetRule3 returns every net label in l, sorted ascending by how many
// other nets' pins fall inside the net's own Manhattan bounding box.
func NetRule3(l *layout.Layout) []string {
	labels := l.NetLabels()
	type scored struct {
		label string
		score int
	}
	all := l.AllComponents()
	scores := make([]scored, 0, len(labels))
	for _, label := range labels {
		box, ok := netMBB(all[label])
		if !ok {
			scores = append(scores, scored{label, 0})
			continue
		}
		count := 0
		for other, comps := range all {
			if other == label {
				continue
			}
			for _, c := range comps {
				for _, n := range c.Nodes {
					if rectInBox(n, box) {
						count++
					}
				}
			}
		}
		scores = append(scores, scored{label, count})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score < scores[j].score })
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.label
	}
	return out
}

func netMBB(comps []*component.Component) ([4]int32, bool) {
	var boxes [][4]int32
	for _, c := range comps {
		if b, ok := bboxOf(c); ok {
			boxes = append(boxes, b)
		}
	}
	if len(boxes) == 0 {
		return [4]int32{}, false
	}
	x0, y0, x1, y1 := boxes[0][0], boxes[0][1], boxes[0][2], boxes[0][3]
	for _, b := range boxes[1:] {
		x0, y0, x1, y1, _ = mbb([4]int32{x0, y0, x1, y1}, b)
	}
	return [4]int32{x0, y0, x1, y1}, true
}

func rectInBox(r geom.Rect, box [4]int32) bool {
	rb := geom.Rect{X0: box[0], Y0: box[1], W: box[2] - box[0], H: box[3] - box[1]}
	return rb.Overlaps(geom.Rect{X0: r.X0, Y0: r.Y0, W: r.W, H: r.H})
}

// PairScorer memoizes pair_rule3 scores by component-id pair across
// repeated calls within one controller run, since the layout's component
// set only changes on accept/rip-up (each of which invalidates exactly
// the pairs touching the components that changed — the caller is
// expected to construct a fresh PairScorer whenever route_queue is
// regenerated, matching the controller's per-step queue regeneration).
type PairScorer struct {
	memo map[Key]int
}

// NewPairScorer returns an empty memo, ready for one PairRule3 pass.
func NewPairScorer() *PairScorer {
	return &PairScorer{memo: make(map[Key]int)}
}

// PairRule3 enumerates every unordered same-label component pair in l,
// scores each by the number of pins (including same-net pins) inside the
// pair's joint Manhattan bounding box, and returns them sorted ascending
// by score.
func (s *PairScorer) PairRule3(l *layout.Layout) []Pair {
	all := l.AllComponents()
	var pairs []Pair
	scores := make(map[Key]int)
	for label, comps := range all {
		for i := 0; i < len(comps); i++ {
			for j := i + 1; j < len(comps); j++ {
				c1, c2 := comps[i], comps[j]
				k := keyOf(c1, c2)
				score, ok := s.memo[k]
				if !ok {
					score = s.scorePair(all, c1, c2)
					s.memo[k] = score
				}
				scores[k] = score
				pairs = append(pairs, Pair{Label: label, C1: c1, C2: c2})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return scores[keyOf(pairs[i].C1, pairs[i].C2)] < scores[keyOf(pairs[j].C1, pairs[j].C2)]
	})
	return pairs
}

func (s *PairScorer) scorePair(all map[string][]*component.Component, c1, c2 *component.Component) int {
	b1, ok1 := bboxOf(c1)
	b2, ok2 := bboxOf(c2)
	if !ok1 || !ok2 {
		return 0
	}
	x0, y0, x1, y1, _ := mbb(b1, b2)
	box := [4]int32{x0, y0, x1, y1}
	count := 0
	for _, comps := range all {
		for _, c := range comps {
			for _, n := range c.Nodes {
				if rectInBox(n, box) {
					count++
				}
			}
		}
	}
	return count
}

// ClosestFirst returns the pair among components (all belonging to the
// same net) not present in attempted with the smallest inter-component
// Manhattan distance, defined as the minimum distance between any point
// of c1.Line() and any point of c2.Line().
func ClosestFirst(label string, components []*component.Component, attempted map[Key]bool) (Pair, bool) {
	best := Pair{}
	bestDist := int64(-1)
	found := false
	for i := 0; i < len(components); i++ {
		for j := i + 1; j < len(components); j++ {
			c1, c2 := components[i], components[j]
			if attempted[keyOf(c1, c2)] {
				continue
			}
			d := minLineDistance(c1, c2)
			if !found || d < bestDist {
				best = Pair{Label: label, C1: c1, C2: c2}
				bestDist = d
				found = true
			}
		}
	}
	return best, found
}

// PairRule3Closest orders nets via NetRule3, then within each net enumerates
// every same-net component pair and sorts them ascending by inter-component
// distance, concatenating net by net. This is distinct from PairRule3, which
// scores every pair layout-wide by pins inside its joint bounding box rather
// than by distance within a single net.
func PairRule3Closest(l *layout.Layout) []Pair {
	nets := NetRule3(l)
	var out []Pair
	for _, label := range nets {
		comps := l.Components(label)
		type scoredPair struct {
			pair Pair
			dist int64
		}
		var scored []scoredPair
		for i := 0; i < len(comps); i++ {
			for j := i + 1; j < len(comps); j++ {
				c1, c2 := comps[i], comps[j]
				scored = append(scored, scoredPair{Pair{Label: label, C1: c1, C2: c2}, minLineDistance(c1, c2)})
			}
		}
		sort.SliceStable(scored, func(i, j int) bool { return scored[i].dist < scored[j].dist })
		for _, s := range scored {
			out = append(out, s.pair)
		}
	}
	return out
}

func minLineDistance(c1, c2 *component.Component) int64 {
	best := int64(-1)
	for _, p1 := range c1.Line() {
		for _, p2 := range c2.Line() {
			d := geom.Manhattan(p1, p2)
			if best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}
