package lee

import (
	"context"
	"testing"

	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/layout"
	"github.com/azybler/charm/internal/material"
)

func testTable(t *testing.T) *material.Table {
	t.Helper()
	tbl, err := material.NewTable(2)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func TestRouteConnectsStraightLineOnEmptyLayout(t *testing.T) {
	tbl := testTable(t)
	l := layout.New(tbl)
	c1, err := l.AddRect(geom.Rect{X0: 0, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock})
	if err != nil {
		t.Fatalf("AddRect c1: %v", err)
	}
	c2, err := l.AddRect(geom.Rect{X0: 15, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock})
	if err != nil {
		t.Fatalf("AddRect c2: %v", err)
	}

	route, err := Route(context.Background(), l, tbl, c1, c2, "A")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !route.Valid(tbl) {
		t.Fatalf("route not valid: %v", route.Waypoints)
	}
	if len(route.Waypoints) < 2 {
		t.Fatalf("expected a multi-waypoint route, got %v", route.Waypoints)
	}
	first, last := route.Waypoints[0], route.Waypoints[len(route.Waypoints)-1]
	if !c1.HasPoint(first) && !c2.HasPoint(first) {
		t.Fatalf("route does not start on either component's line: %v", first)
	}
	if !c1.HasPoint(last) && !c2.HasPoint(last) {
		t.Fatalf("route does not end on either component's line: %v", last)
	}
}

func TestRouteFailsWhenNoPathExists(t *testing.T) {
	tbl := testTable(t)
	l := layout.New(tbl)
	c1, err := l.AddRect(geom.Rect{X0: 0, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock})
	if err != nil {
		t.Fatalf("AddRect c1: %v", err)
	}
	c2, err := l.AddRect(geom.Rect{X0: 15, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock})
	if err != nil {
		t.Fatalf("AddRect c2: %v", err)
	}
	// Wall off c1 on every side with a different net's metal1 geometry,
	// leaving no gap wide enough to clear spacing.
	walls := []geom.Rect{
		{X0: -6, Y0: -6, W: 12, H: 3, Mat: material.Metal(1), Label: "B", BlockID: geom.NoBlock},
		{X0: -6, Y0: 6, W: 12, H: 3, Mat: material.Metal(1), Label: "B", BlockID: geom.NoBlock},
		{X0: -6, Y0: -6, W: 3, H: 12, Mat: material.Metal(1), Label: "B", BlockID: geom.NoBlock},
		{X0: 6, Y0: -6, W: 3, H: 12, Mat: material.Metal(1), Label: "B", BlockID: geom.NoBlock},
	}
	for _, w := range walls {
		if _, err := l.AddRect(w); err != nil {
			t.Fatalf("AddRect wall: %v", err)
		}
	}

	_, err = Route(context.Background(), l, tbl, c1, c2, "A")
	if err == nil {
		t.Fatal("expected routing to fail, got a clean route")
	}
}

func TestJogCompatibleSameAxisNeedsCombinedJog(t *testing.T) {
	tbl := testTable(t)
	mat := material.Metal(1)
	pte := tbl.PointToEdge(mat)
	a := node{dir: [2]int32{1, 0}, jog: pte - 1}
	b := node{dir: [2]int32{1, 0}, jog: 1}
	if !jogCompatible(tbl, a, b, mat) {
		t.Fatalf("expected combined jog %d to satisfy point_to_edge %d", a.jog+b.jog, pte)
	}
	b.jog = 0
	if jogCompatible(tbl, a, b, mat) {
		t.Fatal("expected insufficient combined jog to fail")
	}
}

func TestJogCompatibleDifferentAxisNeedsBothIndividually(t *testing.T) {
	tbl := testTable(t)
	mat := material.Metal(1)
	pte := tbl.PointToEdge(mat)
	a := node{dir: [2]int32{1, 0}, jog: pte}
	b := node{dir: [2]int32{0, 1}, jog: pte}
	if !jogCompatible(tbl, a, b, mat) {
		t.Fatal("expected both individually-sufficient jogs on different axes to be compatible")
	}
	b.jog = pte - 1
	if jogCompatible(tbl, a, b, mat) {
		t.Fatal("expected insufficient individual jog on a different axis to fail")
	}
}

func TestElevateConnectsComponentToPad(t *testing.T) {
	tbl := testTable(t)
	l := layout.New(tbl)
	c, err := l.AddRect(geom.Rect{X0: 0, Y0: 0, W: 2, H: 2, Mat: material.Poly, Label: "A", BlockID: geom.NoBlock})
	if err != nil {
		t.Fatalf("AddRect: %v", err)
	}
	if err := Elevate(l, tbl, c, material.Metal(1), "A"); err != nil {
		t.Fatalf("Elevate: %v", err)
	}
	if len(c.Nodes) != 2 {
		t.Fatalf("expected elevate to add the pad as a second node, got %d nodes", len(c.Nodes))
	}
	foundMetal := false
	for _, p := range c.Line() {
		if p.Mat == material.Metal(1) {
			foundMetal = true
			break
		}
	}
	if !foundMetal {
		t.Fatal("expected the component's line to include metal1 points after elevation")
	}
}
