package geom

import "github.com/azybler/charm/internal/material"

// Route is an ordered waypoint list produced by the pattern or Lee router.
// Adjacent waypoints are orthogonal and share a material, or sit at the
// same (x, y) across a valid contact transition.
type Route struct {
	Waypoints []Point
}

// CostEstimate computes the route's cost: the sum of each same-material
// segment's rectangle area times that material's unit cost, plus
// width*width times the entered material's cost at every contact
// transition, plus an end cap of width*(width-1) at every internal material-change waypoint and a
// single additional end cap at the route's terminal waypoint.
func (r Route) CostEstimate(tbl *material.Table) int64 {
	wp := r.Waypoints
	if len(wp) == 0 {
		return 0
	}
	var cost int64
	for i := 0; i+1 < len(wp); i++ {
		a, b := wp[i], wp[i+1]
		if a.Mat == b.Mat {
			rect := SegmentRect(tbl, a, b)
			cost += rect.Area() * tbl.Cost(a.Mat)
		} else {
			w := int64(b.W)
			cost += w * w * tbl.Cost(b.Mat)
		}
	}
	for i := 1; i+1 < len(wp); i++ {
		if wp[i].Mat != wp[i-1].Mat || wp[i].Mat != wp[i+1].Mat {
			w := int64(wp[i].W)
			cost += w * (w - 1)
		}
	}
	last := wp[len(wp)-1]
	cost += int64(last.W) * int64(last.W-1)
	return cost
}

// Valid reports whether the route's waypoints form orthogonal, same- or
// contact-bridged-material hops, per the Route invariant in spec.md §3.
func (r Route) Valid(tbl *material.Table) bool {
	for i := 0; i+1 < len(r.Waypoints); i++ {
		a, b := r.Waypoints[i], r.Waypoints[i+1]
		if a.X == b.X && a.Y == b.Y {
			continue // contact transition at a single point
		}
		if a.Mat != b.Mat {
			return false
		}
		if a.X != b.X && a.Y != b.Y {
			return false
		}
	}
	return true
}

// FromPoints collapses a raw per-grid-cell path (as produced by the Lee
// router's wavefront search) into a minimal waypoint list: consecutive
// duplicate points and interior points that are colinear with their same-
// material neighbors are dropped. Re-rasterizing the resulting waypoints
// segment-by-segment reproduces the original point set (property 7).
func FromPoints(pts []Point) []Point {
	deduped := make([]Point, 0, len(pts))
	for _, p := range pts {
		if len(deduped) > 0 && deduped[len(deduped)-1].Equal(p) {
			continue
		}
		deduped = append(deduped, p)
	}
	if len(deduped) <= 2 {
		return deduped
	}
	out := []Point{deduped[0]}
	for i := 1; i+1 < len(deduped); i++ {
		prev := out[len(out)-1]
		cur := deduped[i]
		next := deduped[i+1]
		if cur.Mat == prev.Mat && cur.Mat == next.Mat && colinear(prev, cur, next) {
			continue
		}
		out = append(out, cur)
	}
	out = append(out, deduped[len(deduped)-1])
	return out
}

// colinear reports whether b lies on the straight line through a and c,
// restricted to the orthogonal runs the grid search ever produces (all
// three share a row or all three share a column).
func colinear(a, b, c Point) bool {
	if a.Y == b.Y && b.Y == c.Y {
		return between(a.X, b.X, c.X)
	}
	if a.X == b.X && b.X == c.X {
		return between(a.Y, b.Y, c.Y)
	}
	return false
}

func between(a, b, c int32) bool {
	lo, hi := a, c
	if lo > hi {
		lo, hi = hi, lo
	}
	return b >= lo && b <= hi
}

// ExpandToPoints re-rasterizes a minimal waypoint list segment by segment,
// returning the union of per-cell grid points it covers. Used to verify
// property 7 against the original path a Route was built from.
func ExpandToPoints(tbl *material.Table, wp []Point) []Point {
	var out []Point
	for i := 0; i+1 < len(wp); i++ {
		a, b := wp[i], wp[i+1]
		if a.Mat != b.Mat {
			out = append(out, a, b)
			continue
		}
		out = append(out, RasterizeSegment(tbl, a, b)...)
	}
	if len(wp) == 1 {
		out = append(out, wp[0])
	}
	return out
}
