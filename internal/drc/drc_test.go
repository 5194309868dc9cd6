package drc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/layout"
	"github.com/azybler/charm/internal/material"
)

func testSetup(t *testing.T) (*layout.Layout, *material.Table) {
	t.Helper()
	tbl, err := material.NewTable(2)
	require.NoError(t, err)
	return layout.New(tbl), tbl
}

func TestCheckSegmentCleanOnEmptyLayout(t *testing.T) {
	l, tbl := testSetup(t)
	a := geom.NewPoint(0, 0, material.Metal(1), tbl)
	b := geom.NewPoint(0, 20, material.Metal(1), tbl)
	res := CheckSegment(l, tbl, a, b, "A", false)
	require.True(t, res.Clean)
}

func TestCheckSegmentRejectsDifferentNetTooClose(t *testing.T) {
	l, tbl := testSetup(t)
	_, err := l.AddRect(geom.Rect{X0: 0, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "B", BlockID: geom.NoBlock})
	require.NoError(t, err)

	a := geom.NewPoint(3, 0, material.Metal(1), tbl)
	b := geom.NewPoint(3, 20, material.Metal(1), tbl)
	res := CheckSegment(l, tbl, a, b, "A", false)
	require.False(t, res.Clean)
	require.True(t, res.LayoutConflict, "rectangle of a different net within end-of-line spacing must conflict")
}

func TestCheckSegmentAllowsSameNetOverlap(t *testing.T) {
	l, tbl := testSetup(t)
	_, err := l.AddRect(geom.Rect{X0: 0, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock})
	require.NoError(t, err)

	a := geom.NewPoint(0, 0, material.Metal(1), tbl)
	b := geom.NewPoint(0, 20, material.Metal(1), tbl)
	res := CheckSegment(l, tbl, a, b, "A", false)
	require.True(t, res.Clean)
}

func TestCheckSegmentCachesLayoutResult(t *testing.T) {
	l, tbl := testSetup(t)
	a := geom.NewPoint(0, 0, material.Metal(1), tbl)
	b := geom.NewPoint(0, 20, material.Metal(1), tbl)

	res1 := CheckSegment(l, tbl, a, b, "A", false)
	require.True(t, res1.Clean)

	key := layout.CacheKey{A: a, B: b, Label: "A"}
	v, ok := l.GetLayoutCache(key)
	require.True(t, ok)
	require.True(t, v)
}

func TestCheckSegmentDetectsSameNetSpacingViolation(t *testing.T) {
	l, tbl := testSetup(t)
	c, err := l.AddRect(geom.Rect{X0: 0, Y0: 0, W: 3, H: 10, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock})
	require.NoError(t, err)
	require.NoError(t, c.AddSegment(tbl, geom.Segment{
		A: geom.NewPoint(0, 0, material.Metal(1), tbl),
		B: geom.NewPoint(0, 10, material.Metal(1), tbl),
	}))

	// A parallel run one unit away (less than the 3-unit spacing rule) on
	// the SAME net must be flagged as a route conflict against c's segment,
	// even though same-net geometry is never a layout conflict.
	a := geom.NewPoint(4, 0, material.Metal(1), tbl)
	b := geom.NewPoint(4, 10, material.Metal(1), tbl)
	res := CheckSegment(l, tbl, a, b, "A", false)
	require.False(t, res.Clean)
	require.False(t, res.LayoutConflict)
	require.NotEmpty(t, res.RouteConflicts)
}

func TestCheckRouteStopsAtFirstLayoutConflict(t *testing.T) {
	l, tbl := testSetup(t)
	_, err := l.AddRect(geom.Rect{X0: 0, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "B", BlockID: geom.NoBlock})
	require.NoError(t, err)

	route := geom.Route{Waypoints: []geom.Point{
		geom.NewPoint(3, 0, material.Metal(1), tbl),
		geom.NewPoint(3, 20, material.Metal(1), tbl),
	}}
	res := CheckRoute(l, tbl, route, "A")
	require.False(t, res.Clean)
	require.True(t, res.LayoutConflict)
}

func TestCheckPointDelegatesToCheckSegment(t *testing.T) {
	l, tbl := testSetup(t)
	p := geom.NewPoint(0, 0, material.Metal(1), tbl)
	res := CheckPoint(l, tbl, p, "A")
	require.True(t, res.Clean)
}
