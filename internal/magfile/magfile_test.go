package magfile

import (
	"strings"
	"testing"

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

func TestParseRejectsMissingMagicLine(t *testing.T) {
	tbl := testTable(t)
	src := "<< metal1 >>\nrect 0 0 3 3\n"
	if _, err := Parse(tbl, "bad", strings.NewReader(src)); err == nil {
		t.Fatal("expected an error for a file missing the magic line")
	}
}

func TestParseReadsRectsAndLabels(t *testing.T) {
	tbl := testTable(t)
	src := strings.Join([]string{
		"magic",
		"tech charm",
		"<< metal1 >>",
		"rect 0 0 3 3",
		"<< labels >>",
		"rlabel m1 0 0 3 3 0 net_a",
	}, "\n") + "\n"

	cell, err := Parse(tbl, "cell1", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cell.Rects) != 1 {
		t.Fatalf("expected 1 rect, got %d", len(cell.Rects))
	}
	if cell.Rects[0].Label != "net_a" {
		t.Fatalf("expected rlabel to attach to the rect, got label %q", cell.Rects[0].Label)
	}
	if cell.Rects[0].Mat != material.Metal(1) {
		t.Fatalf("expected metal1, got %v", cell.Rects[0].Mat)
	}
}

func TestParseRejectsUnknownSection(t *testing.T) {
	tbl := testTable(t)
	src := "magic\n<< bogus >>\nrect 0 0 3 3\n"
	if _, err := Parse(tbl, "bad", strings.NewReader(src)); err == nil {
		t.Fatal("expected an error for an unrecognized section tag")
	}
}

func TestParseMergesAdjacentPolyRects(t *testing.T) {
	tbl := testTable(t)
	src := strings.Join([]string{
		"magic",
		"<< poly >>",
		"rect 0 0 2 2",
		"rect 2 0 4 2",
	}, "\n") + "\n"

	cell, err := Parse(tbl, "polycell", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cell.Rects) != 1 {
		t.Fatalf("expected the two abutting poly rects to merge into 1, got %d", len(cell.Rects))
	}
	r := cell.Rects[0]
	if r.X0 != 0 || r.X1() != 4 || r.Y0 != 0 || r.Y1() != 2 {
		t.Fatalf("expected merged rect 0,0,4,2, got %d,%d,%d,%d", r.X0, r.Y0, r.X1(), r.Y1())
	}
}

func TestParseDoesNotMergeNonAbuttingRects(t *testing.T) {
	tbl := testTable(t)
	src := strings.Join([]string{
		"magic",
		"<< metal1 >>",
		"rect 0 0 3 3",
		"rect 10 0 13 3",
	}, "\n") + "\n"

	cell, err := Parse(tbl, "m1cell", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cell.Rects) != 2 {
		t.Fatalf("expected 2 separate rects (metal1 is not a merge material), got %d", len(cell.Rects))
	}
}

func TestTranslateShiftsToOrigin(t *testing.T) {
	tbl := testTable(t)
	src := strings.Join([]string{
		"magic",
		"<< metal1 >>",
		"rect 10 20 13 23",
	}, "\n") + "\n"

	cell, err := Parse(tbl, "shifted", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	Translate(cell)
	r := cell.Rects[0]
	if r.X0 != 0 || r.Y0 != 0 {
		t.Fatalf("expected translation to origin, got %d,%d", r.X0, r.Y0)
	}
}
