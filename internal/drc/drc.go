// Package drc implements the CHARM design-rule checker: the memoized
// predicate that accepts or rejects a candidate segment or point against
// already-placed layout geometry and other nets' in-progress routes.
//
// Its two-level cache lives on the layout.Layout instance it's given
// (spec.md §9: "never process-wide globals, so test isolation is
// preserved") — drc itself holds no package state, matching the teacher's
// discipline of keeping caches as fields on an explicit struct
// (QueryState, CHGraph) rather than behind a sync.Once or init().
package drc

import (
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/layout"
	"github.com/azybler/charm/internal/material"
)

// ComponentConflict names one (component, segment) pair in another net
// whose geometry conflicts with the candidate being checked.
type ComponentConflict struct {
	CompID int
	SegIdx int
}

// Result is the trichotomous outcome of a check: clean, a layout
// conflict (always fatal to the candidate), or a list of route conflicts
// against specific other components.
type Result struct {
	Clean          bool
	LayoutConflict bool
	RouteConflicts []ComponentConflict
}

// CheckPoint checks a single point against the layout and other nets'
// routes, as check_segment(p, p, label, point=true).
func CheckPoint(l *layout.Layout, tbl *material.Table, p geom.Point, label string) Result {
	return CheckSegment(l, tbl, p, p, label, true)
}

// CheckSegment checks a same-material candidate segment A-B against the
// layout and other nets' in-progress routes.
func CheckSegment(l *layout.Layout, tbl *material.Table, a, b geom.Point, label string, point bool) Result {
	key := layout.CacheKey{A: a, B: b, Label: label}

	layoutClean, cached := l.GetLayoutCache(key)
	if !cached {
		layoutClean = checkAgainstLayout(l, tbl, a, b, label)
		l.SetLayoutCache(key, layoutClean)
	}
	if !layoutClean {
		return Result{Clean: false, LayoutConflict: true}
	}

	routeConflicts, cached2 := l.GetRouteCache(key)
	if !cached2 {
		routeConflicts = checkAgainstRoutes(l, tbl, a, b, label, point)
		l.SetRouteCache(key, routeConflicts)
	}
	var conflicts []ComponentConflict
	for csk, bad := range routeConflicts {
		if bad {
			conflicts = append(conflicts, ComponentConflict{CompID: csk.CompID, SegIdx: csk.SegIdx})
		}
	}
	if len(conflicts) > 0 {
		return Result{Clean: false, RouteConflicts: conflicts}
	}
	return Result{Clean: true}
}

// CheckRoute checks every leg of a route in order, short-circuiting on
// the first layout conflict and accumulating route conflicts otherwise.
func CheckRoute(l *layout.Layout, tbl *material.Table, route geom.Route, label string) Result {
	wp := route.Waypoints
	if len(wp) == 0 {
		return Result{Clean: true}
	}
	first := CheckPoint(l, tbl, wp[0], label)
	if first.LayoutConflict {
		return first
	}
	all := append([]ComponentConflict{}, first.RouteConflicts...)

	for i := 0; i+1 < len(wp); i++ {
		a, b := wp[i], wp[i+1]
		var r Result
		if a.Mat == b.Mat {
			r = CheckSegment(l, tbl, a, b, label, false)
		} else {
			// Contact transition: a and b share (x, y) but differ in
			// material. Each leg's own footprint is checked as a point.
			r = CheckPoint(l, tbl, b, label)
		}
		if r.LayoutConflict {
			return r
		}
		all = append(all, r.RouteConflicts...)
	}
	if len(all) > 0 {
		return Result{Clean: false, RouteConflicts: all}
	}
	return Result{Clean: true}
}

// checkAgainstLayout intersects the contoured candidate rectangle against
// every placed rectangle on the same layer (and, for contacts, the
// layers two steps above and below), returning false the moment a
// different-net (or unlabeled obstacle) rectangle is found within it.
func checkAgainstLayout(l *layout.Layout, tbl *material.Table, a, b geom.Point, label string) bool {
	contoured := geom.ContouredRect(tbl, a, b)

	if !checkLayerClean(l, a.Mat, contoured, label) {
		return false
	}
	if tbl.IsContact(a.Mat) {
		layer := tbl.Layer(a.Mat)
		for _, d := range [2]int{-2, 2} {
			if m := tbl.MaterialAtLayer(layer + d); m != material.None {
				if !checkLayerClean(l, m, contoured, label) {
					return false
				}
			}
		}
	}
	return true
}

func checkLayerClean(l *layout.Layout, mat material.Material, area geom.Rect, label string) bool {
	for _, r := range l.QueryRect(mat, area) {
		if !area.Overlaps(*r) {
			continue // touching only, not a spacing violation by itself
		}
		if r.Label != label {
			return false
		}
	}
	return true
}

// checkAgainstRoutes evaluates the candidate against every segment of
// every net's in-progress components, per spec.md §4.5 step 3.
func checkAgainstRoutes(l *layout.Layout, tbl *material.Table, a, b geom.Point, label string, point bool) map[layout.CompSegKey]bool {
	out := make(map[layout.CompSegKey]bool)
	contoured := geom.ContouredRect(tbl, a, b)
	contactSearch := geom.SegmentRect(tbl, a, b)
	layerA := tbl.Layer(a.Mat)
	dirA := axisOf(a, b)

	for netLabel, comps := range l.AllComponents() {
		for _, c := range comps {
			for segIdx, seg := range c.Segments {
				key := layout.CompSegKey{CompID: c.ID, SegIdx: segIdx}
				segRect := geom.SegmentRect(tbl, seg.A, seg.B)
				conflict := false

				switch {
				case netLabel != label:
					layerSeg := tbl.Layer(seg.A.Mat)
					if layerA == layerSeg && contoured.Overlaps(segRect) {
						conflict = true
					}
					if tbl.IsContact(a.Mat) && tbl.IsContact(seg.A.Mat) {
						d := layerA - layerSeg
						if d < 0 {
							d = -d
						}
						if d < 3 && contactSearch.Overlaps(segRect) {
							conflict = true
						}
					}
				case !point && a.Mat == seg.A.Mat:
					segDir := axisOf(seg.A, seg.B)
					if dirA == segDir {
						gap, axisOverlap, ok := geom.PerpGap(contactSearch, segRect, dirA)
						if ok && axisOverlap > 0 && gap > 0 && gap <= tbl.Spacing(a.Mat) {
							conflict = true
						}
					}
				}
				out[key] = conflict
			}
		}
	}
	return out
}

// axisOf returns 0 for a horizontal segment (shared Y), 1 for vertical.
// Zero-length segments default to 0 — callers only use axisOf on the
// `!point` branch, which is never reached for a.X==b.X && a.Y==b.Y.
func axisOf(a, b geom.Point) int {
	if a.Y == b.Y {
		return 0
	}
	return 1
}
