// Package placement parses the CHARM placement bundle: a trio of
// line-oriented text files describing block instances (`.nodes`), their
// net memberships and pin assignments (`.nets`), and their placed
// origins (`.pl`). The scanner idiom mirrors internal/magfile, which in
// turn is grounded on the teacher's pkg/graph/binary.go header-checked,
// line-oriented read path.
package placement

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/azybler/charm/internal/material"
)

// Block is one declared block instance from a .nodes file.
type Block struct {
	ID       string
	W, H     int32
	CellType string
	X, Y     int32 // filled in by ReadPlacements
	Placed   bool
}

// Pin is one block's membership and terminal assignment within a net,
// from a .nets file.
type Pin struct {
	BlockID string
	X, Y    int32
	Mat     material.Material
}

// Net is one `NetDegree` block from a .nets file.
type Net struct {
	Name string
	Pins []Pin
}

// Bundle is the fully parsed placement input.
type Bundle struct {
	Blocks map[string]*Block
	Nets   []Net
}

// ReadNodes parses a .nodes file: lines of the form `oNNN w h cell_type`.
func ReadNodes(r io.Reader) (map[string]*Block, error) {
	blocks := make(map[string]*Block)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("placement: nodes:%d: expected 4 fields, got %d", lineNo, len(fields))
		}
		w, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("placement: nodes:%d: invalid width %q: %w", lineNo, fields[1], err)
		}
		h, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("placement: nodes:%d: invalid height %q: %w", lineNo, fields[2], err)
		}
		id := fields[0]
		if _, dup := blocks[id]; dup {
			return nil, fmt.Errorf("placement: nodes:%d: duplicate block id %q", lineNo, id)
		}
		blocks[id] = &Block{ID: id, W: int32(w), H: int32(h), CellType: fields[3]}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("placement: nodes: %w", err)
	}
	return blocks, nil
}

// ReadNets parses a .nets file: `NetDegree _ _ net_name` header lines,
// each followed by exactly that many `oNNN _ _ x y mat` pin lines.
func ReadNets(tbl *material.Table, blocks map[string]*Block, r io.Reader) ([]Net, error) {
	var nets []Net
	sc := bufio.NewScanner(r)
	lineNo := 0
	var cur *Net
	remaining := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "NetDegree" {
			if cur != nil && remaining > 0 {
				return nil, fmt.Errorf("placement: nets:%d: net %q ended %d pins short", lineNo, cur.Name, remaining)
			}
			if len(fields) != 4 {
				return nil, fmt.Errorf("placement: nets:%d: expected 3 fields after NetDegree, got %d", lineNo, len(fields)-1)
			}
			degree, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("placement: nets:%d: invalid degree %q: %w", lineNo, fields[1], err)
			}
			nets = append(nets, Net{Name: fields[3]})
			cur = &nets[len(nets)-1]
			remaining = degree
			continue
		}
		if cur == nil || remaining == 0 {
			return nil, fmt.Errorf("placement: nets:%d: pin line outside any NetDegree block", lineNo)
		}
		if len(fields) != 6 {
			return nil, fmt.Errorf("placement: nets:%d: expected 6 fields (oNNN _ _ x y mat), got %d", lineNo, len(fields))
		}
		blockID := fields[0]
		if _, ok := blocks[blockID]; !ok {
			return nil, fmt.Errorf("placement: nets:%d: unknown block id %q", lineNo, blockID)
		}
		x, err := strconv.ParseInt(fields[3], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("placement: nets:%d: invalid x %q: %w", lineNo, fields[3], err)
		}
		y, err := strconv.ParseInt(fields[4], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("placement: nets:%d: invalid y %q: %w", lineNo, fields[4], err)
		}
		mat, ok := lookupMaterialName(tbl, fields[5])
		if !ok {
			return nil, fmt.Errorf("placement: nets:%d: unrecognized material %q", lineNo, fields[5])
		}
		cur.Pins = append(cur.Pins, Pin{BlockID: blockID, X: int32(x), Y: int32(y), Mat: mat})
		remaining--
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("placement: nets: %w", err)
	}
	if cur != nil && remaining > 0 {
		return nil, fmt.Errorf("placement: nets: net %q ended %d pins short", cur.Name, remaining)
	}
	return nets, nil
}

// ReadPlacements parses a .pl file (`oNNN x y …`), filling in the X/Y
// and Placed fields of the matching blocks. Extra trailing fields (e.g.
// an orientation token) are accepted and ignored, since spec.md §6 only
// commits to the first three.
func ReadPlacements(blocks map[string]*Block, r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return fmt.Errorf("placement: pl:%d: expected at least 3 fields, got %d", lineNo, len(fields))
		}
		id := fields[0]
		block, ok := blocks[id]
		if !ok {
			return fmt.Errorf("placement: pl:%d: unknown block id %q", lineNo, id)
		}
		x, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return fmt.Errorf("placement: pl:%d: invalid x %q: %w", lineNo, fields[1], err)
		}
		y, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			return fmt.Errorf("placement: pl:%d: invalid y %q: %w", lineNo, fields[2], err)
		}
		block.X, block.Y, block.Placed = int32(x), int32(y), true
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("placement: pl: %w", err)
	}
	return nil
}

// Read assembles a full Bundle from the three source readers. placed may
// be nil when input_mode is "explicit" (pins already carry absolute
// coordinates and no .pl placement pass is needed).
func Read(tbl *material.Table, nodes, nets, placed io.Reader) (*Bundle, error) {
	blocks, err := ReadNodes(nodes)
	if err != nil {
		return nil, err
	}
	parsedNets, err := ReadNets(tbl, blocks, nets)
	if err != nil {
		return nil, err
	}
	if placed != nil {
		if err := ReadPlacements(blocks, placed); err != nil {
			return nil, err
		}
	}
	return &Bundle{Blocks: blocks, Nets: parsedNets}, nil
}

// AbsolutePin resolves a pin's absolute coordinate: in "placed" mode the
// pin's (x, y) is an offset from its block's placed origin; in
// "explicit" mode the pin's (x, y) is already absolute and the block
// carries no placement.
func AbsolutePin(blocks map[string]*Block, p Pin, inputMode string) (x, y int32, err error) {
	block, ok := blocks[p.BlockID]
	if !ok {
		return 0, 0, fmt.Errorf("placement: pin references unknown block %q", p.BlockID)
	}
	switch inputMode {
	case "explicit":
		return p.X, p.Y, nil
	case "placed":
		if !block.Placed {
			return 0, 0, fmt.Errorf("placement: block %q has no placement in placed mode", p.BlockID)
		}
		return block.X + p.X, block.Y + p.Y, nil
	default:
		return 0, 0, fmt.Errorf("placement: unrecognized input_mode %q", inputMode)
	}
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
