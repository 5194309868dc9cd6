// Package material holds the CHARM design-rule table: the fixed enumeration
// of routing and contact materials, their widths, spacings, costs, and the
// contact stacks that bridge routing layers.
//
// The table is built once, from compiled-in defaults parameterized by the
// configured layer count, the same way the teacher's CHGraph is a single
// struct-of-arrays built once during preprocessing and then only read at
// query time.
package material

import "fmt"

// Material is a small integer tag identifying a routing or contact layer.
// Routing materials (poly, metal1..metalN) occupy even layer indices;
// contacts occupy the odd index between the two routing layers they bridge.
// Diffusion materials (ndiff/pdiff) and their contacts (ndc/pdc) are
// terminal-only: they appear in parsed cell geometry but are never routed
// through by the pattern or Lee routers, so they carry no layer-index
// arithmetic relationship to the metal stack.
type Material int8

// None is the sentinel for "no material" (e.g. an unset Point).
const None Material = -1

// Terminal-only materials, defined outside the routable stack.
const (
	NDiff Material = -10 + iota
	PDiff
	NDC
	PDC
)

// Poly is always layer 0; Metal(1) is layer 2; PolyContact (pc) is layer 1.
const (
	Poly Material = 0
	PC   Material = 1
)

// info holds the immutable per-material design-rule entry.
type info struct {
	name       string
	isContact  bool
	isRouting  bool
	layer      int // layer index in the metal/poly stack; meaningless for terminal materials
	minWidth   int32
	spacing    int32
	endOfLine  int32
	pointEdge  int32
	minArea    int64
	cost       int64 // cost per unit area, used by Route.CostEstimate
	bridgeLow  Material
	bridgeHigh Material
}

// Table is an immutable design-rule table for a configured number of metal
// layers. Metal(1) is the lowest routing metal above poly; Metal(n) is the
// topmost. A Table is built once via NewTable and never mutated afterward.
type Table struct {
	numMetals int
	entries   map[Material]info
}

// MaxMetals is the highest metal layer count this compiled-in design-rule
// table supports; internal/config validates the configured `layers`
// option against it before a run ever gets to NewTable.
const MaxMetals = 8

// NewTable builds the design-rule table for numMetals metal layers
// (1 <= numMetals <= MaxMetals). Costs, widths and spacings follow the
// end-to-end scenario in spec.md §8: min_width=3 for m1/m2, spacing=3,
// m2c width 4.
func NewTable(numMetals int) (*Table, error) {
	if numMetals < 1 || numMetals > MaxMetals {
		return nil, fmt.Errorf("material: numMetals must be in [1, %d], got %d", MaxMetals, numMetals)
	}
	t := &Table{numMetals: numMetals, entries: make(map[Material]info)}

	t.entries[Poly] = info{
		name: "poly", isRouting: true, layer: 0,
		minWidth: 2, spacing: 2, endOfLine: 1, pointEdge: 2, minArea: 12, cost: 8,
	}
	t.entries[PC] = info{
		name: "pc", isContact: true, layer: 1,
		minWidth: 2, spacing: 2, endOfLine: 1, pointEdge: 2, minArea: 4, cost: 6,
		bridgeLow: Poly, bridgeHigh: Metal(1),
	}
	for m := 1; m <= numMetals; m++ {
		mat := Metal(m)
		layer := 2 * m
		minWidth := int32(3)
		cost := int64(2 * m) // higher metals cost more per unit area
		t.entries[mat] = info{
			name: fmt.Sprintf("m%d", m), isRouting: true, layer: layer,
			minWidth: minWidth, spacing: 3, endOfLine: 1, pointEdge: 2, minArea: 18, cost: cost,
		}
		if m >= 2 {
			contact := Contact(m)
			below := Metal(m - 1)
			t.entries[contact] = info{
				name: fmt.Sprintf("m%dc", m), isContact: true, layer: layer - 1,
				minWidth: 4, spacing: 3, endOfLine: 1, pointEdge: 2, minArea: 16, cost: cost,
				bridgeLow: below, bridgeHigh: mat,
			}
		}
	}
	t.entries[NDiff] = info{name: "ndiff", layer: -1, minWidth: 3, spacing: 3, endOfLine: 1, pointEdge: 2, minArea: 9, cost: 1}
	t.entries[PDiff] = info{name: "pdiff", layer: -1, minWidth: 3, spacing: 3, endOfLine: 1, pointEdge: 2, minArea: 9, cost: 1}
	t.entries[NDC] = info{
		name: "ndc", isContact: true, layer: -1, minWidth: 3, spacing: 3, endOfLine: 1, pointEdge: 2, minArea: 9, cost: 4,
		bridgeLow: NDiff, bridgeHigh: Metal(1),
	}
	t.entries[PDC] = info{
		name: "pdc", isContact: true, layer: -1, minWidth: 3, spacing: 3, endOfLine: 1, pointEdge: 2, minArea: 9, cost: 4,
		bridgeLow: PDiff, bridgeHigh: Metal(1),
	}
	return t, nil
}

// Metal returns the material tag for metal layer n (n >= 1).
func Metal(n int) Material { return Material(10 + n) }

// Contact returns the material tag for the contact between metal(n-1) and
// metal(n) (n >= 2). m2c = Contact(2), m3c = Contact(3), and so on.
func Contact(n int) Material { return Material(-100 - n) }

func (t *Table) lookup(m Material) info {
	e, ok := t.entries[m]
	if !ok {
		panic(fmt.Sprintf("material: unknown material %d", m))
	}
	return e
}

// Valid reports whether m is a material present in this table.
func (t *Table) Valid(m Material) bool {
	_, ok := t.entries[m]
	return ok
}

// Name returns the human-readable material name, as used by the .mag
// section-tag table and by error messages.
func (t *Table) Name(m Material) string { return t.lookup(m).Name() }

func (e info) Name() string { return e.name }

// IsContact reports whether m is a contact material.
func (t *Table) IsContact(m Material) bool { return t.lookup(m).isContact }

// IsRouting reports whether m is a routing material reachable by the
// pattern and Lee routers (poly, metal1..metalN). Terminal materials
// (ndiff, pdiff, ndc, pdc) are never routing materials.
func (t *Table) IsRouting(m Material) bool { return t.lookup(m).isRouting }

// NumMetals returns the configured number of metal layers.
func (t *Table) NumMetals() int { return t.numMetals }

// TopMetal returns the highest configured metal material.
func (t *Table) TopMetal() Material { return Metal(t.numMetals) }

// MinWidth returns the minimum width/height for a rectangle of material m.
func (t *Table) MinWidth(m Material) int32 { return t.lookup(m).minWidth }

// Spacing returns the minimum clearance required between rectangles of
// material m belonging to different nets.
func (t *Table) Spacing(m Material) int32 { return t.lookup(m).spacing }

// EndOfLine returns the end-of-line bloat distance for contour checks.
func (t *Table) EndOfLine(m Material) int32 { return t.lookup(m).endOfLine }

// PointToEdge returns the minimum jog length required on material m before
// another turn, contact, or segment end.
func (t *Table) PointToEdge(m Material) int32 { return t.lookup(m).pointEdge }

// MinArea returns the minimum area a path must cover on material m before
// a layer change is permitted (non-vertical mode).
func (t *Table) MinArea(m Material) int64 { return t.lookup(m).minArea }

// Cost returns the per-unit-area routing cost of material m.
func (t *Table) Cost(m Material) int64 { return t.lookup(m).cost }

// Layer returns the total-order layer index of m within the metal/poly
// stack. Only meaningful for routing and stack-contact materials.
func (t *Table) Layer(m Material) int { return t.lookup(m).layer }

// MaterialAtLayer returns the routing or contact material occupying the
// given stack layer index, or None if no material occupies it.
func (t *Table) MaterialAtLayer(layer int) Material {
	if layer < 0 {
		return None
	}
	for m, e := range t.entries {
		if (e.isRouting || e.isContact) && e.layer == layer {
			return m
		}
	}
	return None
}

// Bridges returns the two routing materials a contact material bridges.
// Panics if m is not a contact.
func (t *Table) Bridges(m Material) (low, high Material) {
	e := t.lookup(m)
	if !e.isContact {
		panic(fmt.Sprintf("material: %s is not a contact", e.name))
	}
	return e.bridgeLow, e.bridgeHigh
}

// ContactAt returns the contact material that bridges the routing layer
// below `m` to `m` itself (e.g. ContactAt(Metal(2)) == m2c,
// ContactAt(Poly) has no contact below it and returns None). Terminal
// materials always return None.
func (t *Table) ContactAt(m Material) Material {
	e := t.lookup(m)
	if !e.isRouting {
		return None
	}
	switch m {
	case Poly:
		return None
	case Metal(1):
		return PC
	default:
		for n := 2; n <= t.numMetals; n++ {
			if Metal(n) == m {
				return Contact(n)
			}
		}
	}
	return None
}

// AdjacentMaterials returns the routing materials directly connected to m
// by exactly one contact (i.e. one layer step away).
func (t *Table) AdjacentMaterials(m Material) []Material {
	e := t.lookup(m)
	if !e.isRouting {
		return nil
	}
	var out []Material
	if c := t.ContactAt(m); c != None {
		low, _ := t.Bridges(c)
		out = append(out, low)
	}
	above := t.oneLayerAbove(m)
	if above != None {
		out = append(out, above)
	}
	return out
}

func (t *Table) oneLayerAbove(m Material) Material {
	if m == Poly {
		return Metal(1)
	}
	for n := 1; n < t.numMetals; n++ {
		if Metal(n) == m {
			return Metal(n + 1)
		}
	}
	return None
}

// LayerStep returns the absolute layer-index distance between two
// materials, used by Z-pattern candidate filtering ("within two layer
// steps of both s and d").
func (t *Table) LayerStep(a, b Material) int {
	d := t.Layer(a) - t.Layer(b)
	if d < 0 {
		d = -d
	}
	return d
}
