package controller

import (
	"context"
	"testing"

	"github.com/azybler/charm/internal/component"
	"github.com/azybler/charm/internal/drc"
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/layout"
	"github.com/azybler/charm/internal/lee"
	"github.com/azybler/charm/internal/material"
	"github.com/azybler/charm/internal/pattern"
	"github.com/azybler/charm/internal/routeerr"
)

func testTable(t *testing.T) *material.Table {
	t.Helper()
	tbl, err := material.NewTable(2)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func patternRouteFunc() RouteFunc {
	return func(ctx context.Context, l *layout.Layout, tbl *material.Table, c1, c2 *component.Component, label string) (geom.Route, error) {
		return pattern.Route(ctx, l, tbl, c1, c2, label, lee.Elevate)
	}
}

func leeRouteFunc() RouteFunc {
	return func(ctx context.Context, l *layout.Layout, tbl *material.Table, c1, c2 *component.Component, label string) (geom.Route, error) {
		return lee.Route(ctx, l, tbl, c1, c2, label)
	}
}

// pairKey identifies a component pair by id, normalized so (a, b) and
// (b, a) collide.
type pairKey struct{ a, b int }

func keyOfIDs(x, y int) pairKey {
	if x <= y {
		return pairKey{x, y}
	}
	return pairKey{y, x}
}

// laneOffsets returns the y-offsets a given attempt number is willing to
// try, escalating to a wider lane the more times this exact pair has
// been asked to route: 0 (straight across), then 0 and 10 (a one-hop
// detour), then 0, 10, and 20. This stands in for a router that searches
// harder on each retry; it exists purely so this test's outcome can be
// hand-verified rather than run.
func laneOffsets(attempt int) []int32 {
	switch {
	case attempt <= 0:
		return []int32{0}
	case attempt == 1:
		return []int32{0, 10}
	default:
		return []int32{0, 10, 20}
	}
}

// bentRoute builds a straight route from lo to hi when dy is 0, or a
// staple-shaped detour through y = lo.Y+dy otherwise.
func bentRoute(tbl *material.Table, lo, hi geom.Point, dy int32) geom.Route {
	if dy == 0 {
		return geom.Route{Waypoints: []geom.Point{lo, hi}}
	}
	mat := lo.Mat
	mid1 := geom.NewPoint(lo.X, lo.Y+dy, mat, tbl)
	mid2 := geom.NewPoint(hi.X, lo.Y+dy, mat, tbl)
	return geom.Route{Waypoints: []geom.Point{lo, mid1, mid2, hi}}
}

// ripUpRouteFunc returns a deterministic RouteFunc that offers each pair
// an escalating set of candidate lanes (see laneOffsets) and accepts the
// first one that passes a real drc.CheckRoute. Used to force a genuine,
// DRC-driven routing failure (and the rip-up it triggers) without
// depending on the emergent behavior of the pattern or Lee routers.
func ripUpRouteFunc() RouteFunc {
	attempts := make(map[pairKey]int)
	return func(ctx context.Context, l *layout.Layout, tbl *material.Table, c1, c2 *component.Component, label string) (geom.Route, error) {
		key := keyOfIDs(c1.ID, c2.ID)
		n := attempts[key]
		attempts[key] = n + 1

		lo, hi := c1.Line()[0], c2.Line()[0]
		if lo.X > hi.X {
			lo, hi = hi, lo
		}
		for _, dy := range laneOffsets(n) {
			route := bentRoute(tbl, lo, hi, dy)
			if drc.CheckRoute(l, tbl, route, label).Clean {
				return route, nil
			}
		}
		return geom.Route{}, routeerr.ErrInfeasible
	}
}

func TestControllerConnectsTwoPinNet(t *testing.T) {
	tbl := testTable(t)
	l := layout.New(tbl)
	if _, err := l.AddRect(geom.Rect{X0: 0, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock}); err != nil {
		t.Fatalf("AddRect: %v", err)
	}
	if _, err := l.AddRect(geom.Rect{X0: 20, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock}); err != nil {
		t.Fatalf("AddRect: %v", err)
	}

	ctrl, err := New(l, tbl, "pl", "closest_first", patternRouteFunc(), leeRouteFunc())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	comps := l.Components("A")
	if len(comps) != 1 {
		t.Fatalf("expected net A to be fully merged into one component, got %d", len(comps))
	}
	if !comps[0].Connected() {
		t.Fatal("expected the merged component to be connected")
	}
	_, nSuccess := ctrl.Stats()
	if nSuccess != 1 {
		t.Fatalf("expected exactly 1 success, got %d", nSuccess)
	}
}

func TestControllerRejectsInvalidMode(t *testing.T) {
	tbl := testTable(t)
	l := layout.New(tbl)
	if _, err := New(l, tbl, "x", "closest_first", patternRouteFunc(), leeRouteFunc()); err == nil {
		t.Fatal("expected an error for an invalid route mode")
	}
}

func TestControllerConnectsThreePinNetAcrossTwoMerges(t *testing.T) {
	tbl := testTable(t)
	l := layout.New(tbl)
	coords := [3][2]int32{{0, 0}, {20, 0}, {40, 0}}
	for _, xy := range coords {
		if _, err := l.AddRect(geom.Rect{X0: xy[0], Y0: xy[1], W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock}); err != nil {
			t.Fatalf("AddRect: %v", err)
		}
	}

	ctrl, err := New(l, tbl, "pl", "pair_rule3", patternRouteFunc(), leeRouteFunc())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	comps := l.Components("A")
	if len(comps) != 1 {
		t.Fatalf("expected net A to be fully merged into one component, got %d", len(comps))
	}
	if len(comps[0].Nodes) != 3 {
		t.Fatalf("expected the merged component to carry all 3 original nodes, got %d", len(comps[0].Nodes))
	}
	_, nSuccess := ctrl.Stats()
	if nSuccess != 2 {
		t.Fatalf("expected exactly 2 successful merges, got %d", nSuccess)
	}
}

// TestControllerRipsUpEarlyRouteForNestedNets covers spec.md §8's Rip-up
// scenario: three nets (A, B, C) whose MBBs contain each other (A ⊇ B ⊇
// C) along a single shared row. net_rule3 always orders them C, B, A
// (C's MBB holds no other net's pins; B's holds C's two; A's holds both
// B's and C's), so C always takes the shared row first. B's straight run
// along that row is blocked by C's pins, so B's failure forces the first
// genuine rip-up. Since ripUpRouteFunc only ever widens a pair's own
// candidate set on its own retries (never on another pair's), B later
// settles on a lane above the row, and A's failures against C's and B's
// geometry rip both up again until A reaches a lane neither has taken.
func TestControllerRipsUpEarlyRouteForNestedNets(t *testing.T) {
	tbl := testTable(t)
	l := layout.New(tbl)
	pins := []struct {
		x     int32
		label string
	}{
		{0, "A"}, {60, "A"},
		{10, "B"}, {50, "B"},
		{20, "C"}, {40, "C"},
	}
	for _, p := range pins {
		if _, err := l.AddRect(geom.Rect{X0: p.x, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: p.label, BlockID: geom.NoBlock}); err != nil {
			t.Fatalf("AddRect %s@%d: %v", p.label, p.x, err)
		}
	}

	route := ripUpRouteFunc()
	ctrl, err := New(l, tbl, "p", "net_rule3", route, route)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, label := range []string{"A", "B", "C"} {
		comps := l.Components(label)
		if len(comps) != 1 {
			t.Fatalf("expected net %s to be fully merged, got %d components", label, len(comps))
		}
	}
	nRipups, nSuccess := ctrl.Stats()
	if nRipups < 1 {
		t.Fatalf("expected the nested nets to force at least one rip-up, got %d", nRipups)
	}
	if nSuccess != 3 {
		t.Fatalf("expected all 3 merges to eventually succeed, got %d", nSuccess)
	}
}
