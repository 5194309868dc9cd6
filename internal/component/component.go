// Package component implements a CHARM Component: the connected subgraph
// of a single net's pins and the wires routed between them so far.
//
// Like the teacher's Graph/CHGraph (plain structs holding slices, mutated
// by free functions such as graph.Build/graph.FilterToComponent rather than
// a deep class hierarchy), a Component is a flat struct with a handful of
// mutating methods; there is no inheritance or interface dispatch here,
// only the mutation discipline the spec requires (every add either extends
// the component from existing geometry, or is the bypassed first add that
// defines its origin).
package component

import (
	"fmt"

	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/material"
)

// Component is a connected subgraph for a single net label.
type Component struct {
	ID    int
	Label string

	Nodes    []geom.Rect
	Segments []geom.Segment
	Fillers  []geom.Rect

	line      map[geom.Point]bool
	junctions map[geom.Point][]int // segment indices incident at a point

	hasExtent          bool
	x0, x1, y0, y1 int32
}

// New creates an empty component for the given net label.
func New(id int, label string) *Component {
	return &Component{
		ID:        id,
		Label:     label,
		line:      make(map[geom.Point]bool),
		junctions: make(map[geom.Point][]int),
	}
}

// IsEmpty reports whether the component has no geometry at all yet (no
// nodes and no segments) — the state in which AddSegment's connectivity
// assert is bypassed.
func (c *Component) IsEmpty() bool {
	return len(c.Nodes) == 0 && len(c.Segments) == 0
}

// HasPoint reports whether p (or any point sharing p's coordinate and
// material) is part of the component's line.
func (c *Component) HasPoint(p geom.Point) bool {
	for q := range c.line {
		if q.X == p.X && q.Y == p.Y && q.Mat == p.Mat {
			return true
		}
	}
	return false
}

// Line returns every grid-anchor point the component's nodes and segments
// cover: the candidate connection points used by the pattern router's
// c1.line x c2.line cartesian product.
func (c *Component) Line() []geom.Point {
	out := make([]geom.Point, 0, len(c.line))
	for p := range c.line {
		out = append(out, p)
	}
	return out
}

// BoundingBox returns the component's incrementally maintained Manhattan
// bounding box. ok is false for an empty component.
func (c *Component) BoundingBox() (x0, x1, y0, y1 int32, ok bool) {
	return c.x0, c.x1, c.y0, c.y1, c.hasExtent
}

// GetCorners recomputes the bounding box directly from c.line, per the
// spec.md §9 resolution of the source's `get_corners` transcription bug:
// x1 = max(p.X), y1 = max(p.Y) over the component's line (and symmetrically
// x0 = min(p.X), y0 = min(p.Y)). Unlike BoundingBox, which spans the
// full rectangle extents, this covers only the line's anchor points. Not
// used on any hot path.
func (c *Component) GetCorners() (x0, x1, y0, y1 int32, ok bool) {
	first := true
	for p := range c.line {
		if first {
			x0, x1, y0, y1 = p.X, p.X, p.Y, p.Y
			first = false
			continue
		}
		if p.X < x0 {
			x0 = p.X
		}
		if p.X > x1 {
			x1 = p.X
		}
		if p.Y < y0 {
			y0 = p.Y
		}
		if p.Y > y1 {
			y1 = p.Y
		}
	}
	return x0, x1, y0, y1, !first
}

func (c *Component) extendBBox(x0, y0, x1, y1 int32) {
	if !c.hasExtent {
		c.x0, c.x1, c.y0, c.y1 = x0, x1, y0, y1
		c.hasExtent = true
		return
	}
	if x0 < c.x0 {
		c.x0 = x0
	}
	if x1 > c.x1 {
		c.x1 = x1
	}
	if y0 < c.y0 {
		c.y0 = y0
	}
	if y1 > c.y1 {
		c.y1 = y1
	}
}

// AddNode registers a pre-existing pin rectangle as a node of the
// component. The component's label must already match, or the component
// must have no label yet (the rectangle's label then becomes its own
// — the normal per-pin component creation path in Layout).
func (c *Component) AddNode(tbl *material.Table, r geom.Rect) error {
	if c.Label == "" {
		c.Label = r.Label
	} else if r.Label != c.Label {
		return fmt.Errorf("component: structural violation: node label %q does not match component label %q", r.Label, c.Label)
	}
	c.Nodes = append(c.Nodes, r)
	for _, p := range geom.RasterizeNode(tbl, r) {
		c.line[p] = true
	}
	c.extendBBox(r.X0, r.Y0, r.X1(), r.Y1())
	return nil
}

// AddSegment adds a routed segment to the component. At least one segment
// endpoint must already be a point of the component's line, UNLESS the
// component is entirely empty, in which case this first segment bypasses
// the connectivity check and defines the component's origin (spec.md §9
// Open Question resolution).
func (c *Component) AddSegment(tbl *material.Table, seg geom.Segment) error {
	if !seg.IsOrthogonal() {
		return fmt.Errorf("component: structural violation: segment %v-%v is not orthogonal", seg.A, seg.B)
	}
	if seg.A.Mat != seg.B.Mat {
		return fmt.Errorf("component: structural violation: segment endpoints have different materials (%s, %s)", tbl.Name(seg.A.Mat), tbl.Name(seg.B.Mat))
	}
	if !c.IsEmpty() {
		if !c.HasPoint(seg.A) && !c.HasPoint(seg.B) {
			return fmt.Errorf("component: route not connected to component: neither %v nor %v is on the component's line", seg.A, seg.B)
		}
	}
	c.addSegmentRaw(tbl, seg)
	return nil
}

// addSegmentRaw appends a segment without the connectivity check, used to
// replay trusted geometry (e.g. when reconstructing a merged component
// from its two predecessors in Join).
func (c *Component) addSegmentRaw(tbl *material.Table, seg geom.Segment) {
	idx := len(c.Segments)
	c.Segments = append(c.Segments, seg)
	c.junctions[seg.A] = append(c.junctions[seg.A], idx)
	c.junctions[seg.B] = append(c.junctions[seg.B], idx)
	for _, p := range geom.RasterizeSegment(tbl, seg.A, seg.B) {
		c.line[p] = true
	}
	rect := geom.SegmentRect(tbl, seg.A, seg.B)
	c.extendBBox(rect.X0, rect.Y0, rect.X1(), rect.Y1())
}

// MarkPoint records p as part of the component's line without adding a
// segment or node for it — used when a route crosses a contact transition
// (same (x, y), different material) that has no rectangle of its own.
func (c *Component) MarkPoint(p geom.Point) {
	c.line[geom.Point{X: p.X, Y: p.Y, Mat: p.Mat}] = true
}

// AddFiller registers a small auxiliary rectangle that repairs a notch
// between a new segment and a pre-existing node or contact.
func (c *Component) AddFiller(r geom.Rect) {
	c.Fillers = append(c.Fillers, r)
}

// RemoveSegment removes seg from the component's segment list and
// junction index. Per spec.md §9, the source removes a segment twice
// (once as a segment, once as a tuple key); the second removal on an
// already-absent key is treated as a no-op, which matches Go's native
// map-delete semantics, so no special-casing is required here.
func (c *Component) RemoveSegment(seg geom.Segment) {
	for i, s := range c.Segments {
		if s == seg {
			c.Segments = append(c.Segments[:i], c.Segments[i+1:]...)
			break
		}
	}
	c.removeJunction(seg.A, seg)
	c.removeJunction(seg.B, seg)
}

func (c *Component) removeJunction(p geom.Point, seg geom.Segment) {
	idxs, ok := c.junctions[p]
	if !ok {
		return
	}
	// Indices shift whenever an earlier segment is removed from
	// c.Segments; junctions are only used for topology (is this point a
	// segment endpoint), so we just drop p entirely if it no longer
	// appears as an endpoint of any remaining segment.
	stillPresent := false
	for _, s := range c.Segments {
		if s.A == p || s.B == p {
			stillPresent = true
			break
		}
	}
	if !stillPresent {
		delete(c.junctions, p)
	}
	_ = idxs
	_ = seg
}

// Connected reports whether every node in the component is reachable from
// every other via the component's segments (invariant 3, property 3).
// A component with zero or one node is trivially connected.
func (c *Component) Connected() bool {
	if len(c.Nodes) <= 1 {
		return true
	}
	// Union-find over node indices, merging any two nodes whose
	// rasterized footprints share a line point connected by segments.
	// Build adjacency over all line points via segments, then check each
	// node's footprint lands in a single reachability class.
	parent := make(map[geom.Point]geom.Point)
	var find func(geom.Point) geom.Point
	find = func(p geom.Point) geom.Point {
		root, ok := parent[p]
		if !ok {
			parent[p] = p
			return p
		}
		if root == p {
			return p
		}
		r := find(root)
		parent[p] = r
		return r
	}
	union := func(a, b geom.Point) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, seg := range c.Segments {
		union(seg.A, seg.B)
	}
	var classes []geom.Point
	for i, n := range c.Nodes {
		var rep geom.Point
		found := false
		for p := range c.line {
			if p.Mat == n.Mat && n.Contains(p.X, p.Y) {
				rep = find(p)
				found = true
				break
			}
		}
		if !found {
			return false
		}
		if i == 0 {
			classes = append(classes, rep)
			continue
		}
		if rep != classes[0] {
			return false
		}
	}
	return true
}
