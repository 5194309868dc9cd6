package component

import (
	"fmt"

	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/material"
)

// Join merges two same-label components via a newly accepted route,
// producing a fresh merged component. a and b's nodes, segments and
// fillers are replayed (trusted, so without the connectivity assert),
// then the route's own segments are added with the assert enabled —
// which is exactly why a successfully DRC-checked route is guaranteed to
// connect: its waypoints terminate on a's or b's line.
func Join(tbl *material.Table, id int, a, b *Component, route geom.Route) (*Component, error) {
	if a.Label != b.Label {
		return nil, fmt.Errorf("component: structural violation: cannot join components of different nets %q and %q", a.Label, b.Label)
	}
	merged := New(id, a.Label)
	for _, n := range a.Nodes {
		if err := merged.AddNode(tbl, n); err != nil {
			return nil, err
		}
	}
	for _, n := range b.Nodes {
		if err := merged.AddNode(tbl, n); err != nil {
			return nil, err
		}
	}
	for _, s := range a.Segments {
		merged.addSegmentRaw(tbl, s)
	}
	for _, s := range b.Segments {
		merged.addSegmentRaw(tbl, s)
	}
	merged.Fillers = append(merged.Fillers, a.Fillers...)
	merged.Fillers = append(merged.Fillers, b.Fillers...)

	wp := route.Waypoints
	for i := 0; i+1 < len(wp); i++ {
		seg := geom.Segment{A: wp[i], B: wp[i+1]}
		if seg.A.X == seg.B.X && seg.A.Y == seg.B.Y {
			// Contact transition: both endpoints sit at the same point on
			// different materials. Model it as a zero-length same-material
			// segment on each side is impossible (materials differ), so we
			// just ensure both materials' anchor points are present. No
			// contact rectangle is recorded on the component, so none is
			// emitted for it.
			merged.line[geom.Point{X: seg.A.X, Y: seg.A.Y, Mat: seg.A.Mat}] = true
			merged.line[geom.Point{X: seg.B.X, Y: seg.B.Y, Mat: seg.B.Mat}] = true
			continue
		}
		if err := merged.AddSegment(tbl, seg); err != nil {
			return nil, fmt.Errorf("component: join: %w", err)
		}
	}

	mergeCorners(tbl, merged)
	fillNotches(tbl, merged)

	return merged, nil
}

// mergeCorners collapses pairs of same-material, same-axis segments that
// meet at a shared endpoint into a single longer segment (other segments
// incident at that endpoint are not checked), matching the "corner merging" step of
// component maintenance. Runs to a fixpoint since one merge can expose a
// further merge opportunity.
func mergeCorners(tbl *material.Table, c *Component) {
	for {
		merged := false
		for i := 0; i < len(c.Segments) && !merged; i++ {
			for j := i + 1; j < len(c.Segments); j++ {
				if s, ok := tryMergeSegments(c.Segments[i], c.Segments[j]); ok {
					c.Segments[i] = s
					c.Segments = append(c.Segments[:j], c.Segments[j+1:]...)
					merged = true
					break
				}
			}
		}
		if !merged {
			break
		}
	}
	rebuildJunctions(c)
}

// tryMergeSegments merges two segments into one if they are collinear,
// same material, and share exactly one endpoint with no intervening gap.
func tryMergeSegments(a, b geom.Segment) (geom.Segment, bool) {
	if a.A.Mat != b.A.Mat {
		return geom.Segment{}, false
	}
	shared, aOther, bOther, ok := sharedEndpoint(a, b)
	if !ok {
		return geom.Segment{}, false
	}
	if !isCollinearTriple(aOther, shared, bOther) {
		return geom.Segment{}, false
	}
	return geom.Segment{A: aOther, B: bOther}, true
}

func sharedEndpoint(a, b geom.Segment) (shared, aOther, bOther geom.Point, ok bool) {
	switch {
	case a.A.Equal(b.A):
		return a.A, a.B, b.B, true
	case a.A.Equal(b.B):
		return a.A, a.B, b.A, true
	case a.B.Equal(b.A):
		return a.B, a.A, b.B, true
	case a.B.Equal(b.B):
		return a.B, a.A, b.A, true
	}
	return geom.Point{}, geom.Point{}, geom.Point{}, false
}

func isCollinearTriple(a, b, c geom.Point) bool {
	if a.Y == b.Y && b.Y == c.Y {
		return true
	}
	if a.X == b.X && b.X == c.X {
		return true
	}
	return false
}

func rebuildJunctions(c *Component) {
	c.junctions = make(map[geom.Point][]int)
	for i, s := range c.Segments {
		c.junctions[s.A] = append(c.junctions[s.A], i)
		c.junctions[s.B] = append(c.junctions[s.B], i)
	}
}

// fillNotches adds small filler rectangles wherever a segment's bounding
// rectangle is adjacent to, but not overlapping, one of the component's
// node rectangles of the same material — a gap left where a route landed
// beside an existing pin or contact instead of squarely on it. Only
// bridges bounded-size notches; a large non-overlap is left alone since it
// means the route genuinely didn't land near that node.
func fillNotches(tbl *material.Table, c *Component) {
	for _, seg := range c.Segments {
		segRect := geom.SegmentRect(tbl, seg.A, seg.B)
		for _, node := range c.Nodes {
			if node.Mat != segRect.Mat {
				continue
			}
			if segRect.Overlaps(node) || !segRect.Touches(node) {
				continue
			}
			bx0, by0 := min32(segRect.X0, node.X0), min32(segRect.Y0, node.Y0)
			bx1, by1 := max32(segRect.X1(), node.X1()), max32(segRect.Y1(), node.Y1())
			unionArea := int64(bx1-bx0) * int64(by1-by0)
			notchArea := unionArea - segRect.Area() - node.Area()
			maxNotch := int64(tbl.MinWidth(segRect.Mat)) * int64(tbl.MinWidth(segRect.Mat)) * 4
			if notchArea <= 0 || notchArea > maxNotch {
				continue
			}
			c.AddFiller(geom.Rect{X0: bx0, Y0: by0, W: bx1 - bx0, H: by1 - by0, Mat: segRect.Mat, Label: c.Label})
		}
	}
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
