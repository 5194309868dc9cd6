// Package magfile parses the CHARM `.mag` cell library format: a
// line-oriented text layout describing one cell's geometry per file,
// grouped into sections by material set and optionally labeled.
//
// The line-oriented parse loop (bufio.Scanner + strings.Fields +
// strconv) is the idiomatic Go stand-in for what the teacher's own
// pkg/graph/binary.go does with a fixed magic-byte header check
// (`string(hdr.Magic[:]) != magicBytes`) before trusting the rest of a
// file — `.mag`'s first line plays the same role here.
package magfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/material"
)

// Magic is the required first line of a well-formed .mag file.
const Magic = "magic"

// sectionMaterials maps each recognized `<< tag >>` section header onto
// the material set its rect/rlabel lines may use.
var sectionMaterials = map[string][]material.Material{
	"ntransistor": {material.NDiff, material.Poly},
	"ptransistor": {material.PDiff, material.Poly},
	"polycontact": {material.Poly, material.PC, material.Metal(1)},
	"m2contact":   {material.Metal(1), material.Contact(2), material.Metal(2)},
	"m3contact":   {material.Metal(2), material.Contact(3), material.Metal(3)},
	"ndcontact":   {material.NDiff, material.NDC, material.Metal(1)},
	"pdcontact":   {material.PDiff, material.PDC, material.Metal(1)},
	"metal1":      {material.Metal(1)},
	"metal2":      {material.Metal(2)},
	"metal3":      {material.Metal(3)},
	"poly":        {material.Poly},
	"labels":      nil, // rlabel-only section, no rects of its own
}

// Cell is one parsed .mag file: a named cell with its rectangle geometry.
type Cell struct {
	Name  string
	Rects []geom.Rect
}

// Parse reads a .mag file from r. name identifies the resulting cell
// (typically the file's base name without extension).
func Parse(tbl *material.Table, name string, r io.Reader) (*Cell, error) {
	sc := bufio.NewScanner(r)
	cell := &Cell{Name: name}
	var section string
	var sectionMats []material.Material
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if lineNo == 1 {
			if line != Magic {
				return nil, fmt.Errorf("magfile: %s:%d: expected magic line %q, got %q", name, lineNo, Magic, line)
			}
			continue
		}
		if strings.HasPrefix(line, "tech ") || strings.HasPrefix(line, "timestamp ") {
			continue
		}
		if tag, ok := parseSectionTag(line); ok {
			mats, known := sectionMaterials[tag]
			if !known {
				return nil, fmt.Errorf("magfile: %s:%d: unrecognized section tag %q", name, lineNo, tag)
			}
			section, sectionMats = tag, mats
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "rect":
			rect, err := parseRect(tbl, fields, sectionMats, section)
			if err != nil {
				return nil, fmt.Errorf("magfile: %s:%d: %w", name, lineNo, err)
			}
			cell.Rects = append(cell.Rects, rect)
		case "rlabel":
			if err := applyLabel(tbl, cell, fields); err != nil {
				return nil, fmt.Errorf("magfile: %s:%d: %w", name, lineNo, err)
			}
		default:
			return nil, fmt.Errorf("magfile: %s:%d: unrecognized command %q", name, lineNo, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("magfile: %s: %w", name, err)
	}

	mergeAdjacent(tbl, cell, material.Poly)
	mergeAdjacent(tbl, cell, material.Metal(3))
	return cell, nil
}

func parseSectionTag(line string) (string, bool) {
	if !strings.HasPrefix(line, "<<") || !strings.HasSuffix(line, ">>") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "<<"), ">>")), true
}

// parseRect handles `rect x0 y0 x1 y1`, half-open on top/right. The
// rectangle always takes the first material listed for its section: a
// single-material section (metal1, poly) is unambiguous; in a
// multi-material contact section the line order is not used, so every
// `rect` line there gets that same first material (`rect` itself carries
// no material field).
func parseRect(tbl *material.Table, fields []string, sectionMats []material.Material, section string) (geom.Rect, error) {
	if len(fields) != 5 {
		return geom.Rect{}, fmt.Errorf("rect: expected 4 coordinates, got %d fields", len(fields)-1)
	}
	if len(sectionMats) == 0 {
		return geom.Rect{}, fmt.Errorf("rect: no active section (or section %q takes no rects)", section)
	}
	coords := make([]int32, 4)
	for i, f := range fields[1:] {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return geom.Rect{}, fmt.Errorf("rect: invalid coordinate %q: %w", f, err)
		}
		coords[i] = int32(v)
	}
	x0, y0, x1, y1 := coords[0], coords[1], coords[2], coords[3]
	if x1 < x0 || y1 < y0 {
		return geom.Rect{}, fmt.Errorf("rect: %d,%d,%d,%d is not a valid half-open rectangle", x0, y0, x1, y1)
	}
	mat := sectionMats[0]
	r := geom.Rect{X0: x0, Y0: y0, W: x1 - x0, H: y1 - y0, Mat: mat, BlockID: geom.NoBlock}
	if err := r.Validate(tbl); err != nil {
		return geom.Rect{}, err
	}
	return r, nil
}

// applyLabel handles `rlabel mat x0 y0 x1 y1 orient text`: attaches text
// as the label of the first already-parsed rectangle whose material and
// coordinates match exactly.
func applyLabel(tbl *material.Table, cell *Cell, fields []string) error {
	if len(fields) < 8 {
		return fmt.Errorf("rlabel: expected at least 7 fields, got %d", len(fields)-1)
	}
	matName := fields[1]
	mat, ok := lookupMaterialName(tbl, matName)
	if !ok {
		return fmt.Errorf("rlabel: unrecognized material %q", matName)
	}
	coords := make([]int32, 4)
	for i, f := range fields[2:6] {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return fmt.Errorf("rlabel: invalid coordinate %q: %w", f, err)
		}
		coords[i] = int32(v)
	}
	text := strings.Join(fields[7:], " ")
	for i := range cell.Rects {
		r := &cell.Rects[i]
		if r.Mat == mat && r.X0 == coords[0] && r.Y0 == coords[1] && r.X1() == coords[2] && r.Y1() == coords[3] {
			r.Label = text
			return nil
		}
	}
	return fmt.Errorf("rlabel: no matching rect for %s %d,%d,%d,%d", matName, coords[0], coords[1], coords[2], coords[3])
}

func lookupMaterialName(tbl *material.Table, name string) (material.Material, bool) {
	candidates := []material.Material{material.Poly, material.PC, material.NDiff, material.PDiff, material.NDC, material.PDC}
	for n := 1; n <= tbl.NumMetals(); n++ {
		candidates = append(candidates, material.Metal(n))
		if n >= 2 {
			candidates = append(candidates, material.Contact(n))
		}
	}
	for _, m := range candidates {
		if tbl.Name(m) == name {
			return m, true
		}
	}
	return material.None, false
}

// mergeAdjacent greedily merges edge-sharing rectangles of mat until no
// further merge is possible, per spec.md §6's post-parse fixpoint step
// for poly and m3.
func mergeAdjacent(tbl *material.Table, cell *Cell, mat material.Material) {
	for {
		merged := false
		for i := 0; i < len(cell.Rects) && !merged; i++ {
			if cell.Rects[i].Mat != mat {
				continue
			}
			for j := i + 1; j < len(cell.Rects); j++ {
				if cell.Rects[j].Mat != mat {
					continue
				}
				if u, ok := mergeRects(cell.Rects[i], cell.Rects[j]); ok {
					cell.Rects[i] = u
					cell.Rects = append(cell.Rects[:j], cell.Rects[j+1:]...)
					merged = true
					break
				}
			}
		}
		if !merged {
			break
		}
	}
}

// mergeRects merges a and b into their union if they share a full edge
// (same width or same height, abutting with no overlap or gap) and the
// union is itself a rectangle.
func mergeRects(a, b geom.Rect) (geom.Rect, bool) {
	if a.Mat != b.Mat {
		return geom.Rect{}, false
	}
	if a.Y0 == b.Y0 && a.H == b.H {
		if a.X1() == b.X0 {
			return geom.Rect{X0: a.X0, Y0: a.Y0, W: a.W + b.W, H: a.H, Mat: a.Mat, Label: firstLabel(a, b), BlockID: a.BlockID}, true
		}
		if b.X1() == a.X0 {
			return geom.Rect{X0: b.X0, Y0: b.Y0, W: a.W + b.W, H: a.H, Mat: a.Mat, Label: firstLabel(a, b), BlockID: a.BlockID}, true
		}
	}
	if a.X0 == b.X0 && a.W == b.W {
		if a.Y1() == b.Y0 {
			return geom.Rect{X0: a.X0, Y0: a.Y0, W: a.W, H: a.H + b.H, Mat: a.Mat, Label: firstLabel(a, b), BlockID: a.BlockID}, true
		}
		if b.Y1() == a.Y0 {
			return geom.Rect{X0: b.X0, Y0: b.Y0, W: a.W, H: a.H + b.H, Mat: a.Mat, Label: firstLabel(a, b), BlockID: a.BlockID}, true
		}
	}
	return geom.Rect{}, false
}

func firstLabel(a, b geom.Rect) string {
	if a.Label != "" {
		return a.Label
	}
	return b.Label
}

// Translate shifts every rectangle in cell so the minimum (x, y) point
// becomes (0, 0), the optional origin-translation step spec.md §6
// describes as part of the loader.
func Translate(cell *Cell) {
	if len(cell.Rects) == 0 {
		return
	}
	minX, minY := cell.Rects[0].X0, cell.Rects[0].Y0
	for _, r := range cell.Rects[1:] {
		if r.X0 < minX {
			minX = r.X0
		}
		if r.Y0 < minY {
			minY = r.Y0
		}
	}
	if minX == 0 && minY == 0 {
		return
	}
	for i := range cell.Rects {
		cell.Rects[i].X0 -= minX
		cell.Rects[i].Y0 -= minY
	}
}
