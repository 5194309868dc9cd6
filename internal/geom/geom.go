// Package geom implements the CHARM geometric data model: integer-grid
// points, axis-aligned rectangles, and orthogonal segments, together with
// the bloating, overlap, and rasterization operations the design-rule
// checker and routers build on.
//
// The types here are plain structs-of-fields rather than the teacher's
// struct-of-arrays CSR layout (Graph.FirstOut/Head/Weight) because CHARM's
// geometry is mutated one rectangle at a time as routes are accepted and
// ripped up, not built once and queried — the access pattern the teacher
// optimizes for CSR doesn't apply here.
package geom

import (
	"fmt"

	"github.com/azybler/charm/internal/material"
)

// Point is a grid-aligned point carrying the material and width of the
// min_width-square (or explicitly wider pad) anchored at (X, Y).
type Point struct {
	X, Y int32
	Mat  material.Material
	W    int32
}

// NewPoint builds a Point defaulting W to the material's minimum width.
func NewPoint(x, y int32, mat material.Material, tbl *material.Table) Point {
	return Point{X: x, Y: y, Mat: mat, W: tbl.MinWidth(mat)}
}

// NewPointW builds a Point with an explicit width.
func NewPointW(x, y int32, mat material.Material, w int32) Point {
	return Point{X: x, Y: y, Mat: mat, W: w}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d,%s,%d)", p.X, p.Y, matName(p.Mat), p.W)
}

func matName(m material.Material) string {
	return fmt.Sprintf("mat%d", int(m))
}

// Equal reports whether two points share the same coordinate and material
// (width is ignored, matching the spec's treatment of a point's width as a
// display/placement attribute, not part of its identity for comparisons
// like the "O (incident)" pattern's s == d test).
func (p Point) Equal(q Point) bool {
	return p.X == q.X && p.Y == q.Y && p.Mat == q.Mat
}

// Manhattan returns the L1 distance between two points, ignoring material.
func Manhattan(a, b Point) int64 {
	return int64(abs32(a.X-b.X)) + int64(abs32(a.Y-b.Y))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Rect is an axis-aligned integer rectangle. Label identifies the net it
// belongs to (empty for pure geometry); BlockID identifies the owning cell
// (-1 for geometry not owned by any cell, e.g. router-generated wires).
type Rect struct {
	X0, Y0  int32
	W, H    int32
	Mat     material.Material
	Label   string
	BlockID int32
}

// NoBlock is the BlockID sentinel for rectangles with no owning cell.
const NoBlock int32 = -1

// X1 returns the exclusive right edge.
func (r Rect) X1() int32 { return r.X0 + r.W }

// Y1 returns the exclusive top edge.
func (r Rect) Y1() int32 { return r.Y0 + r.H }

// Validate checks the rectangle's min-width invariants against tbl.
func (r Rect) Validate(tbl *material.Table) error {
	mw := tbl.MinWidth(r.Mat)
	if r.W < mw || r.H < mw {
		return fmt.Errorf("geom: rect %v below min_width %d for material %s", r, mw, tbl.Name(r.Mat))
	}
	return nil
}

// Bloat returns r expanded by d in every direction (d may be negative to
// shrink, but never below a zero-size rectangle).
func (r Rect) Bloat(d int32) Rect {
	w := r.W + 2*d
	h := r.H + 2*d
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rect{X0: r.X0 - d, Y0: r.Y0 - d, W: w, H: h, Mat: r.Mat, Label: r.Label, BlockID: r.BlockID}
}

// Overlaps reports whether two rectangles share any interior area (a
// shared edge alone, with zero overlap area, does not count).
func (r Rect) Overlaps(o Rect) bool {
	return r.X0 < o.X1() && o.X0 < r.X1() && r.Y0 < o.Y1() && o.Y0 < r.Y1()
}

// Touches reports whether two rectangles overlap or share a boundary.
func (r Rect) Touches(o Rect) bool {
	return r.X0 <= o.X1() && o.X0 <= r.X1() && r.Y0 <= o.Y1() && o.Y0 <= r.Y1()
}

// Contains reports whether point (x, y) lies within the rectangle
// (half-open on the top/right, matching the .mag `rect` convention).
func (r Rect) Contains(x, y int32) bool {
	return x >= r.X0 && x < r.X1() && y >= r.Y0 && y < r.Y1()
}

// Area returns the rectangle's area.
func (r Rect) Area() int64 { return int64(r.W) * int64(r.H) }

// PerpGap returns the perpendicular gap between two parallel rectangles
// that overlap along their shared axis; ok is false (gap 0) if they don't
// share the axis at all. dir 0 = horizontal segments (gap measured in Y), dir 1 =
// vertical segments (gap measured in X).
func PerpGap(a, b Rect, dir int) (gap int32, axisOverlap int32, ok bool) {
	if dir == 0 {
		lo := max32(a.X0, b.X0)
		hi := min32(a.X1(), b.X1())
		axisOverlap = hi - lo
		if axisOverlap <= 0 {
			return 0, axisOverlap, false
		}
		if a.Y1() <= b.Y0 {
			return b.Y0 - a.Y1(), axisOverlap, true
		}
		if b.Y1() <= a.Y0 {
			return a.Y0 - b.Y1(), axisOverlap, true
		}
		return 0, axisOverlap, true // overlapping
	}
	lo := max32(a.Y0, b.Y0)
	hi := min32(a.Y1(), b.Y1())
	axisOverlap = hi - lo
	if axisOverlap <= 0 {
		return 0, axisOverlap, false
	}
	if a.X1() <= b.X0 {
		return b.X0 - a.X1(), axisOverlap, true
	}
	if b.X1() <= a.X0 {
		return a.X0 - b.X1(), axisOverlap, true
	}
	return 0, axisOverlap, true
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

// Segment is an ordered pair of orthogonal grid points (sharing X or Y).
type Segment struct {
	A, B Point
}

// Axis reports the segment's orientation: 0 = horizontal (shared Y),
// 1 = vertical (shared X). Panics if the segment is neither (a structural
// violation the caller must reject before constructing a Segment).
func (s Segment) Axis() int {
	switch {
	case s.A.Y == s.B.Y:
		return 0
	case s.A.X == s.B.X:
		return 1
	default:
		panic(fmt.Sprintf("geom: segment %v-%v is not orthogonal", s.A, s.B))
	}
}

// IsOrthogonal reports whether the segment is a valid horizontal or
// vertical run (including a zero-length segment, which is both).
func (s Segment) IsOrthogonal() bool {
	return s.A.X == s.B.X || s.A.Y == s.B.Y
}

// Length returns the segment's Manhattan length along its axis.
func (s Segment) Length() int32 {
	if s.A.X == s.B.X {
		return abs32(s.A.Y - s.B.Y)
	}
	return abs32(s.A.X - s.B.X)
}

// SegmentRect derives the segment's bounding rectangle: origin at the min
// corner, extent |delta|+min_width along the segment's axis, min_width
// perpendicular. A and B must share a material (same-material segment);
// contact sandwiches are modeled as three collinear waypoints at the
// contact material's own min-width square, not as a single SegmentRect
// call across two materials.
func SegmentRect(tbl *material.Table, a, b Point) Rect {
	if a.Mat != b.Mat {
		panic(fmt.Sprintf("geom: SegmentRect requires same material, got %s and %s", tbl.Name(a.Mat), tbl.Name(b.Mat)))
	}
	mw := tbl.MinWidth(a.Mat)
	if a.X == b.X && a.Y == b.Y {
		return Rect{X0: a.X, Y0: a.Y, W: mw, H: mw, Mat: a.Mat}
	}
	if a.Y == b.Y {
		x0 := min32(a.X, b.X)
		return Rect{X0: x0, Y0: a.Y, W: abs32(a.X-b.X) + mw, H: mw, Mat: a.Mat}
	}
	if a.X == b.X {
		y0 := min32(a.Y, b.Y)
		return Rect{X0: a.X, Y0: y0, W: mw, H: abs32(a.Y-b.Y) + mw, Mat: a.Mat}
	}
	panic(fmt.Sprintf("geom: SegmentRect: %v-%v is not orthogonal", a, b))
}

// ContouredRect returns the segment's bounding rectangle bloated by the
// material's end-of-line distance in both axes, used by DRC for spacing
// checks (property 8: SegmentRect(A,B) == SegmentRect(B,A), and by
// extension ContouredRect is symmetric too, since Bloat and SegmentRect
// both are).
func ContouredRect(tbl *material.Table, a, b Point) Rect {
	r := SegmentRect(tbl, a, b)
	return r.Bloat(tbl.EndOfLine(a.Mat))
}

// RasterizeNode returns the grid-anchor points covered by a node
// (pre-existing pin) rectangle: every min_width-aligned lattice point
// inside the rectangle's footprint, since any such point is a valid
// electrical contact point for that pin.
func RasterizeNode(tbl *material.Table, r Rect) []Point {
	step := tbl.MinWidth(r.Mat)
	if step <= 0 {
		step = 1
	}
	var pts []Point
	for x := r.X0; x < r.X1(); x += step {
		for y := r.Y0; y < r.Y1(); y += step {
			pts = append(pts, Point{X: x, Y: y, Mat: r.Mat, W: step})
		}
	}
	if len(pts) == 0 {
		pts = append(pts, Point{X: r.X0, Y: r.Y0, Mat: r.Mat, W: step})
	}
	return pts
}

// RasterizeSegment returns the grid-anchor points along a same-material
// segment from A to B inclusive, stepped by the material's min width.
func RasterizeSegment(tbl *material.Table, a, b Point) []Point {
	if a.Mat != b.Mat {
		panic("geom: RasterizeSegment requires same material")
	}
	step := tbl.MinWidth(a.Mat)
	if step <= 0 {
		step = 1
	}
	var pts []Point
	if a.X == b.X && a.Y == b.Y {
		return []Point{a}
	}
	if a.Y == b.Y {
		lo, hi := a.X, b.X
		if lo > hi {
			lo, hi = hi, lo
		}
		for x := lo; x <= hi; x += step {
			pts = append(pts, Point{X: x, Y: a.Y, Mat: a.Mat, W: step})
		}
		if pts[len(pts)-1].X != hi {
			pts = append(pts, Point{X: hi, Y: a.Y, Mat: a.Mat, W: step})
		}
		return pts
	}
	lo, hi := a.Y, b.Y
	if lo > hi {
		lo, hi = hi, lo
	}
	for y := lo; y <= hi; y += step {
		pts = append(pts, Point{X: a.X, Y: y, Mat: a.Mat, W: step})
	}
	if pts[len(pts)-1].Y != hi {
		pts = append(pts, Point{X: a.X, Y: hi, Mat: a.Mat, W: step})
	}
	return pts
}
