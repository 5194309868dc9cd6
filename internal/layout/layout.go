// Package layout implements the CHARM Layout: the single owner of every
// cell, rectangle, and per-net component in a routing problem, plus the
// spatial indices and DRC caches the routers and checker share.
//
// Ownership mirrors the teacher's Graph/CHGraph split: Layout is the one
// mutable struct-of-collections (à la the teacher's CSR arrays) that every
// other package reads and writes through; components hold back-references
// (their Nodes slice stores copies of the Rect values, not pointers into
// Layout) rather than shared ownership, the "owner + indexer" pattern
// spec.md §9 calls for.
package layout

import (
	"fmt"

	"github.com/tidwall/rtree"

	"github.com/azybler/charm/internal/component"
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/material"
)

// Cell is a placed instance of a .mag cell, contributing its rectangles
// at a translated origin.
type Cell struct {
	ID     int32
	Type   string
	X, Y   int32
}

// CacheKey identifies a check_segment call for the layout-conflict cache.
type CacheKey struct {
	A, B  geom.Point
	Label string
}

// CompSegKey identifies one (component, segment-index) pair for the
// route-conflict cache's inner map.
type CompSegKey struct {
	CompID int
	SegIdx int
}

// Layout owns all cells, all placed rectangles (indexed per
// routing/contact layer by an R-tree for fast spatial queries), every
// net's components, and the two DRC caches described in spec.md §4.5.
type Layout struct {
	Tbl *material.Table

	Cells []Cell

	trees map[material.Material]*rtree.RTreeG[*geom.Rect]
	all   []*geom.Rect

	components map[string][]*component.Component
	nextCompID int

	hasExtent          bool
	x0, x1, y0, y1 int32

	layoutCache map[CacheKey]bool
	routeCache  map[CacheKey]map[CompSegKey]bool
}

// New creates an empty Layout for the given design-rule table.
func New(tbl *material.Table) *Layout {
	return &Layout{
		Tbl:         tbl,
		trees:       make(map[material.Material]*rtree.RTreeG[*geom.Rect]),
		components:  make(map[string][]*component.Component),
		layoutCache: make(map[CacheKey]bool),
		routeCache:  make(map[CacheKey]map[CompSegKey]bool),
	}
}

func (l *Layout) treeFor(mat material.Material) *rtree.RTreeG[*geom.Rect] {
	tr, ok := l.trees[mat]
	if !ok {
		tr = &rtree.RTreeG[*geom.Rect]{}
		l.trees[mat] = tr
	}
	return tr
}

func bounds(r geom.Rect) (min, max [2]float64) {
	return [2]float64{float64(r.X0), float64(r.Y0)}, [2]float64{float64(r.X1()), float64(r.Y1())}
}

// AddCell registers a placed cell instance.
func (l *Layout) AddCell(c Cell) { l.Cells = append(l.Cells, c) }

// AddRect inserts a rectangle into the layout's spatial index. If the
// rectangle carries a label, it also becomes a brand-new one-pin
// component for that net (the per-pin component-creation lifecycle rule
// in spec.md §3).
func (l *Layout) AddRect(r geom.Rect) (*component.Component, error) {
	if err := r.Validate(l.Tbl); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	min, max := bounds(r)
	rp := &r
	l.treeFor(r.Mat).Insert(min, max, rp)
	l.all = append(l.all, rp)
	l.extendBBox(r.X0, r.Y0, r.X1(), r.Y1())

	if r.Label == "" {
		return nil, nil
	}
	id := l.nextCompID
	l.nextCompID++
	c := component.New(id, r.Label)
	if err := c.AddNode(l.Tbl, r); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	l.components[r.Label] = append(l.components[r.Label], c)
	return c, nil
}

// RemoveRect removes a previously inserted rectangle from the spatial
// index (used when ripping up router-generated geometry).
func (l *Layout) RemoveRect(r geom.Rect) {
	min, max := bounds(r)
	tr := l.treeFor(r.Mat)
	for i, p := range l.all {
		if *p == r {
			tr.Delete(min, max, p)
			l.all = append(l.all[:i], l.all[i+1:]...)
			break
		}
	}
}

func (l *Layout) extendBBox(x0, y0, x1, y1 int32) {
	if !l.hasExtent {
		l.x0, l.x1, l.y0, l.y1 = x0, x1, y0, y1
		l.hasExtent = true
		return
	}
	if x0 < l.x0 {
		l.x0 = x0
	}
	if x1 > l.x1 {
		l.x1 = x1
	}
	if y0 < l.y0 {
		l.y0 = y0
	}
	if y1 > l.y1 {
		l.y1 = y1
	}
}

// BoundingBox returns the layout's overall Manhattan bounding box.
func (l *Layout) BoundingBox() (x0, x1, y0, y1 int32, ok bool) {
	return l.x0, l.x1, l.y0, l.y1, l.hasExtent
}

// Contains reports whether (x, y) lies within the layout's bounding box —
// the Lee router's pruning rule for out-of-bounds expansion.
func (l *Layout) Contains(x, y int32) bool {
	if !l.hasExtent {
		return false
	}
	return x >= l.x0 && x <= l.x1 && y >= l.y0 && y <= l.y1
}

// QueryRect returns every rectangle of material mat whose bounds
// intersect area.
func (l *Layout) QueryRect(mat material.Material, area geom.Rect) []*geom.Rect {
	min, max := bounds(area)
	var out []*geom.Rect
	l.treeFor(mat).Search(min, max, func(_, _ [2]float64, data *geom.Rect) bool {
		if data.Overlaps(area) || data.Touches(area) {
			out = append(out, data)
		}
		return true
	})
	return out
}

// Materials returns every material that currently has at least one
// indexed rectangle.
func (l *Layout) Materials() []material.Material {
	out := make([]material.Material, 0, len(l.trees))
	for m := range l.trees {
		out = append(out, m)
	}
	return out
}

// NetLabels returns every net label with at least one component.
func (l *Layout) NetLabels() []string {
	out := make([]string, 0, len(l.components))
	for label := range l.components {
		out = append(out, label)
	}
	return out
}

// Components returns the current components of net label.
func (l *Layout) Components(label string) []*component.Component {
	return l.components[label]
}

// AllComponents returns every net's current component list.
func (l *Layout) AllComponents() map[string][]*component.Component {
	return l.components
}

// NextComponentID reserves and returns the next component id.
func (l *Layout) NextComponentID() int {
	id := l.nextCompID
	l.nextCompID++
	return id
}

// ReplaceComponents swaps `remove` for `add` in net label's component
// list, used by the controller both when accepting a merge (remove the
// two predecessors, add the merged component) and when ripping one up
// (remove the merged component, add its two predecessors back).
func (l *Layout) ReplaceComponents(label string, remove []*component.Component, add []*component.Component) {
	cur := l.components[label]
	out := make([]*component.Component, 0, len(cur)-len(remove)+len(add))
	removeSet := make(map[int]bool, len(remove))
	for _, c := range remove {
		removeSet[c.ID] = true
	}
	for _, c := range cur {
		if !removeSet[c.ID] {
			out = append(out, c)
		}
	}
	out = append(out, add...)
	l.components[label] = out
}

// GetLayoutCache looks up a memoized layout-conflict result.
func (l *Layout) GetLayoutCache(key CacheKey) (bool, bool) {
	v, ok := l.layoutCache[key]
	return v, ok
}

// SetLayoutCache stores a layout-conflict result.
func (l *Layout) SetLayoutCache(key CacheKey, v bool) {
	l.layoutCache[key] = v
}

// GetRouteCache looks up a memoized route-conflict map.
func (l *Layout) GetRouteCache(key CacheKey) (map[CompSegKey]bool, bool) {
	v, ok := l.routeCache[key]
	return v, ok
}

// SetRouteCache stores a route-conflict map.
func (l *Layout) SetRouteCache(key CacheKey, v map[CompSegKey]bool) {
	l.routeCache[key] = v
}

// InvalidateForSegments drops every cache entry keyed on one of the given
// segments' endpoints, the narrow cache shrink rip-up performs (property
// 6) instead of a full cache reset.
func (l *Layout) InvalidateForSegments(segs []geom.Segment) {
	touched := make(map[geom.Point]bool, len(segs)*2)
	for _, s := range segs {
		touched[s.A] = true
		touched[s.B] = true
	}
	for key := range l.layoutCache {
		if touched[key.A] || touched[key.B] {
			delete(l.layoutCache, key)
		}
	}
	for key := range l.routeCache {
		if touched[key.A] || touched[key.B] {
			delete(l.routeCache, key)
		}
	}
}

// ResetCaches clears both DRC caches outright — used only when the
// Layout itself is rebuilt from scratch (e.g. between independent runs),
// never as part of normal route accept/rip-up.
func (l *Layout) ResetCaches() {
	l.layoutCache = make(map[CacheKey]bool)
	l.routeCache = make(map[CacheKey]map[CompSegKey]bool)
}
