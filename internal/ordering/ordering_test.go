package ordering

import (
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

func TestNetRule3OrdersByForeignPinCount(t *testing.T) {
	tbl := testTable(t)
	l := layout.New(tbl)
	// "isolated" has no foreign pins inside its MBB.
	if _, err := l.AddRect(geom.Rect{X0: 200, Y0: 200, W: 3, H: 3, Mat: material.Metal(1), Label: "isolated", BlockID: geom.NoBlock}); err != nil {
		t.Fatalf("AddRect: %v", err)
	}
	if _, err := l.AddRect(geom.Rect{X0: 100, Y0: 100, W: 3, H: 3, Mat: material.Metal(1), Label: "isolated", BlockID: geom.NoBlock}); err != nil {
		t.Fatalf("AddRect: %v", err)
	}
	// "crowded" encloses a pin from a third net inside its MBB.
	if _, err := l.AddRect(geom.Rect{X0: 0, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "crowded", BlockID: geom.NoBlock}); err != nil {
		t.Fatalf("AddRect: %v", err)
	}
	if _, err := l.AddRect(geom.Rect{X0: 20, Y0: 20, W: 3, H: 3, Mat: material.Metal(1), Label: "crowded", BlockID: geom.NoBlock}); err != nil {
		t.Fatalf("AddRect: %v", err)
	}
	if _, err := l.AddRect(geom.Rect{X0: 10, Y0: 10, W: 3, H: 3, Mat: material.Metal(1), Label: "third", BlockID: geom.NoBlock}); err != nil {
		t.Fatalf("AddRect: %v", err)
	}

	order := NetRule3(l)
	isolatedIdx, crowdedIdx := -1, -1
	for i, label := range order {
		switch label {
		case "isolated":
			isolatedIdx = i
		case "crowded":
			crowdedIdx = i
		}
	}
	if isolatedIdx == -1 || crowdedIdx == -1 {
		t.Fatalf("expected both nets in order, got %v", order)
	}
	if isolatedIdx > crowdedIdx {
		t.Fatalf("expected isolated net to sort before crowded net, got %v", order)
	}
}

func TestPairRule3MemoizesByComponentID(t *testing.T) {
	tbl := testTable(t)
	l := layout.New(tbl)
	if _, err := l.AddRect(geom.Rect{X0: 0, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock}); err != nil {
		t.Fatalf("AddRect: %v", err)
	}
	if _, err := l.AddRect(geom.Rect{X0: 10, Y0: 10, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock}); err != nil {
		t.Fatalf("AddRect: %v", err)
	}

	scorer := NewPairScorer()
	pairs := scorer.PairRule3(l)
	if len(pairs) != 1 {
		t.Fatalf("expected exactly 1 pair, got %d", len(pairs))
	}
	k := keyOf(pairs[0].C1, pairs[0].C2)
	if _, ok := scorer.memo[k]; !ok {
		t.Fatal("expected the pair's score to be memoized")
	}

	again := scorer.PairRule3(l)
	if len(again) != 1 || keyOf(again[0].C1, again[0].C2) != k {
		t.Fatalf("expected a stable re-scored pair set, got %v", again)
	}
}

func TestClosestFirstPicksSmallestManhattanDistance(t *testing.T) {
	tbl := testTable(t)
	l := layout.New(tbl)
	near, err := l.AddRect(geom.Rect{X0: 0, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock})
	if err != nil {
		t.Fatalf("AddRect: %v", err)
	}
	origin, err := l.AddRect(geom.Rect{X0: 6, Y0: 0, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock})
	if err != nil {
		t.Fatalf("AddRect: %v", err)
	}
	far, err := l.AddRect(geom.Rect{X0: 100, Y0: 100, W: 3, H: 3, Mat: material.Metal(1), Label: "A", BlockID: geom.NoBlock})
	if err != nil {
		t.Fatalf("AddRect: %v", err)
	}

	components := l.Components("A")
	pair, ok := ClosestFirst("A", components, nil)
	if !ok {
		t.Fatal("expected a pair")
	}
	got := keyOf(pair.C1, pair.C2)
	want := keyOf(near, origin)
	if got != want {
		t.Fatalf("expected the closest pair (near, origin), got ids %v (want %v)", got, want)
	}
	_ = far

	attempted := map[Key]bool{keyOf(near, origin): true}
	pair2, ok := ClosestFirst("A", components, attempted)
	if !ok {
		t.Fatal("expected a remaining pair once the closest is excluded")
	}
	if keyOf(pair2.C1, pair2.C2) == want {
		t.Fatal("expected ClosestFirst to skip the attempted pair")
	}
}
