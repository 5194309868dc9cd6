package geom

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/azybler/charm/internal/material"
)

func testTable(t *testing.T) *material.Table {
	t.Helper()
	tbl, err := material.NewTable(2)
	require.NoError(t, err)
	return tbl
}

func TestSegmentRectCollinearHorizontal(t *testing.T) {
	tbl := testTable(t)
	a := NewPoint(0, 0, material.Metal(1), tbl)
	b := NewPoint(10, 0, material.Metal(1), tbl)

	r := SegmentRect(tbl, a, b)
	require.Equal(t, Rect{X0: 0, Y0: 0, W: 13, H: 3, Mat: material.Metal(1)}, r)
}

func TestSegmentRectSymmetric(t *testing.T) {
	tbl := testTable(t)
	a := NewPoint(0, 0, material.Metal(1), tbl)
	b := NewPoint(0, 10, material.Metal(1), tbl)

	require.Equal(t, SegmentRect(tbl, a, b), SegmentRect(tbl, b, a), "property 8: make_segment_rect(A,B) == make_segment_rect(B,A)")
}

func TestContouredRectBloatsBothAxes(t *testing.T) {
	tbl := testTable(t)
	a := NewPoint(0, 0, material.Metal(1), tbl)
	b := NewPoint(10, 0, material.Metal(1), tbl)

	plain := SegmentRect(tbl, a, b)
	contoured := ContouredRect(tbl, a, b)
	eol := tbl.EndOfLine(material.Metal(1))

	require.Equal(t, plain.X0-eol, contoured.X0)
	require.Equal(t, plain.W+2*eol, contoured.W)
	require.Equal(t, plain.H+2*eol, contoured.H)
}

func TestRectOverlaps(t *testing.T) {
	a := Rect{X0: 0, Y0: 0, W: 5, H: 5}
	b := Rect{X0: 4, Y0: 4, W: 5, H: 5}
	c := Rect{X0: 5, Y0: 0, W: 5, H: 5}

	require.True(t, a.Overlaps(b))
	require.False(t, a.Overlaps(c), "edge-sharing rects do not overlap")
	require.True(t, a.Touches(c))
}

func TestPerpGapParallelSameAxis(t *testing.T) {
	a := Rect{X0: 0, Y0: 0, W: 10, H: 3, Mat: material.Metal(1)}
	b := Rect{X0: 0, Y0: 6, W: 10, H: 3, Mat: material.Metal(1)}

	gap, overlap, ok := PerpGap(a, b, 0)
	require.True(t, ok)
	require.Equal(t, int32(3), gap)
	require.Equal(t, int32(10), overlap)
}

func TestManhattan(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: -4}
	require.Equal(t, int64(7), Manhattan(a, b))
}

func TestRasterizeNodeCoversFootprint(t *testing.T) {
	tbl := testTable(t)
	r := Rect{X0: 0, Y0: 0, W: 6, H: 3, Mat: material.Metal(1)}
	pts := RasterizeNode(tbl, r)
	require.NotEmpty(t, pts)
	for _, p := range pts {
		require.True(t, r.Contains(p.X, p.Y))
	}
}

func TestRasterizeSegmentIncludesEndpoints(t *testing.T) {
	tbl := testTable(t)
	a := NewPoint(0, 0, material.Metal(1), tbl)
	b := NewPoint(9, 0, material.Metal(1), tbl)
	pts := RasterizeSegment(tbl, a, b)
	require.Equal(t, a.X, pts[0].X)
	require.Equal(t, b.X, pts[len(pts)-1].X)
}
