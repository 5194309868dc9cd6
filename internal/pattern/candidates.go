package pattern

import (
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/material"
)

// axisSamples bounds the count of candidate positions considered along a
// projection axis — exhaustively enumerating every min_width-aligned
// lattice point between two coordinates is unnecessary to produce a
// useful non-decreasing candidate stream, so positions are sampled
// evenly, always including both endpoints.
const axisSamples = 5

func findContact(tbl *material.Table, a, b material.Material) (material.Material, bool) {
	if a == b {
		return material.None, false
	}
	for _, m := range [2]material.Material{a, b} {
		c := tbl.ContactAt(m)
		if c == material.None {
			continue
		}
		low, high := tbl.Bridges(c)
		if (low == a && high == b) || (low == b && high == a) {
			return c, true
		}
	}
	return material.None, false
}

func mergeWaypoints(a, b []geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(a)+len(b)-1)
	out = append(out, a...)
	out = append(out, b[1:]...)
	return out
}

// connectColinear builds a waypoint chain between two colinear points
// (sharing X or Y). Same material yields a direct two-waypoint segment;
// different (but contact-adjacent) materials travel on from's material
// to the to coordinate, then cross a single contact.
func connectColinear(tbl *material.Table, from, to geom.Point) []geom.Point {
	if from.X != to.X && from.Y != to.Y {
		return nil
	}
	start := geom.NewPoint(from.X, from.Y, from.Mat, tbl)
	if from.Mat == to.Mat {
		return []geom.Point{start, geom.NewPoint(to.X, to.Y, to.Mat, tbl)}
	}
	c, ok := findContact(tbl, from.Mat, to.Mat)
	if !ok {
		return nil
	}
	return []geom.Point{
		start,
		geom.NewPoint(to.X, to.Y, from.Mat, tbl),
		geom.NewPoint(to.X, to.Y, c, tbl),
		geom.NewPoint(to.X, to.Y, to.Mat, tbl),
	}
}

func axisPositions(lo, hi int32) []int32 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return []int32{lo}
	}
	n := axisSamples
	if span := int(hi-lo) + 1; span < n {
		n = span
	}
	if n < 2 {
		n = 2
	}
	out := make([]int32, 0, n)
	for i := 0; i < n; i++ {
		v := lo + int32(i)*(hi-lo)/int32(n-1)
		out = append(out, v)
	}
	return out
}

// oCandidates handles the incident case: s and d anchor the same (x, y).
func oCandidates(tbl *material.Table, s, d geom.Point) []geom.Route {
	if s.X != d.X || s.Y != d.Y {
		return nil
	}
	if s.Mat == d.Mat {
		return []geom.Route{{Waypoints: []geom.Point{geom.NewPoint(s.X, s.Y, s.Mat, tbl)}}}
	}
	c, ok := findContact(tbl, s.Mat, d.Mat)
	if !ok {
		return nil
	}
	return []geom.Route{{Waypoints: []geom.Point{
		geom.NewPoint(s.X, s.Y, s.Mat, tbl),
		geom.NewPoint(s.X, s.Y, c, tbl),
		geom.NewPoint(d.X, d.Y, d.Mat, tbl),
	}}}
}

// iCandidates handles the collinear straight case, trying the contact
// position (for different-material pairs) at up to axisSamples evenly
// spaced positions along the shared axis, s and d included.
func iCandidates(tbl *material.Table, s, d geom.Point) []geom.Route {
	if s.X == d.X && s.Y == d.Y {
		return nil // the O pattern's case
	}
	if s.X != d.X && s.Y != d.Y {
		return nil
	}
	if s.Mat == d.Mat {
		return []geom.Route{{Waypoints: []geom.Point{
			geom.NewPoint(s.X, s.Y, s.Mat, tbl),
			geom.NewPoint(d.X, d.Y, d.Mat, tbl),
		}}}
	}
	c, ok := findContact(tbl, s.Mat, d.Mat)
	if !ok {
		return nil
	}
	var positions []int32
	if s.X == d.X {
		positions = axisPositions(s.Y, d.Y)
	} else {
		positions = axisPositions(s.X, d.X)
	}
	var out []geom.Route
	for _, pos := range positions {
		var px, py int32
		if s.X == d.X {
			px, py = s.X, pos
		} else {
			px, py = pos, s.Y
		}
		wp := []geom.Point{
			geom.NewPoint(s.X, s.Y, s.Mat, tbl),
			geom.NewPoint(px, py, s.Mat, tbl),
			geom.NewPoint(px, py, c, tbl),
			geom.NewPoint(px, py, d.Mat, tbl),
			geom.NewPoint(d.X, d.Y, d.Mat, tbl),
		}
		out = append(out, geom.Route{Waypoints: wp})
	}
	return out
}

// lCandidates handles the one-bend case: two corner candidates at
// (s.x, d.y) and (d.x, s.y), each a contact sandwich when materials
// differ.
func lCandidates(tbl *material.Table, s, d geom.Point) []geom.Route {
	if s.X == d.X || s.Y == d.Y {
		return nil // collinear, the I pattern's case
	}
	corners := [2][2]int32{{s.X, d.Y}, {d.X, s.Y}}
	var out []geom.Route
	for _, corner := range corners {
		cx, cy := corner[0], corner[1]
		toCorner := connectColinear(tbl, s, geom.Point{X: cx, Y: cy, Mat: s.Mat})
		if toCorner == nil {
			continue
		}
		cornerPt := toCorner[len(toCorner)-1]
		fromCorner := connectColinear(tbl, geom.Point{X: cx, Y: cy, Mat: cornerPt.Mat}, d)
		if fromCorner == nil {
			continue
		}
		out = append(out, geom.Route{Waypoints: mergeWaypoints(toCorner, fromCorner)})
	}
	return out
}

// zCandidates enumerates first-intermediate-waypoint candidates along
// the straight projection of s toward d in x and in y, restricted to
// materials within two layer steps of both s and d (poly excluded
// unless s or d already occupies poly/pc), connecting s to the first
// waypoint directly and the first waypoint to d via an L pattern.
func zCandidates(tbl *material.Table, s, d geom.Point) []geom.Route {
	var out []geom.Route
	for _, first := range zFirstWaypoints(tbl, s, d) {
		toFirst := connectColinear(tbl, s, first)
		if toFirst == nil {
			continue
		}
		firstActual := toFirst[len(toFirst)-1]
		rest := lCandidates(tbl, geom.Point{X: firstActual.X, Y: firstActual.Y, Mat: firstActual.Mat}, d)
		if len(rest) == 0 {
			// first and d may already be collinear.
			if direct := connectColinear(tbl, firstActual, d); direct != nil {
				rest = []geom.Route{{Waypoints: direct}}
			}
		}
		for _, r := range rest {
			wp := mergeWaypoints(toFirst, r.Waypoints)
			if hasCollinearSameMaterialTriple(wp) {
				continue
			}
			out = append(out, geom.Route{Waypoints: wp})
		}
	}
	return out
}

func zFirstWaypoints(tbl *material.Table, s, d geom.Point) []geom.Point {
	var candidates []geom.Point
	for _, x := range axisPositions(s.X, d.X) {
		candidates = append(candidates, geom.Point{X: x, Y: s.Y})
	}
	for _, y := range axisPositions(s.Y, d.Y) {
		candidates = append(candidates, geom.Point{X: s.X, Y: y})
	}
	var out []geom.Point
	for _, cand := range candidates {
		for _, m := range zEligibleMaterials(tbl, s.Mat, d.Mat) {
			out = append(out, geom.Point{X: cand.X, Y: cand.Y, Mat: m, W: tbl.MinWidth(m)})
		}
	}
	return out
}

func zEligibleMaterials(tbl *material.Table, s, d material.Material) []material.Material {
	allowPoly := s == material.Poly || s == material.PC || d == material.Poly || d == material.PC
	var out []material.Material
	for n := 1; n <= tbl.NumMetals(); n++ {
		m := material.Metal(n)
		if tbl.LayerStep(m, s) <= 2 && tbl.LayerStep(m, d) <= 2 {
			out = append(out, m)
		}
	}
	if allowPoly && tbl.LayerStep(material.Poly, s) <= 2 && tbl.LayerStep(material.Poly, d) <= 2 {
		out = append(out, material.Poly)
	}
	return out
}

func hasCollinearSameMaterialTriple(wp []geom.Point) bool {
	for i := 0; i+2 < len(wp); i++ {
		a, b, c := wp[i], wp[i+1], wp[i+2]
		if a.Mat != b.Mat || b.Mat != c.Mat {
			continue
		}
		sameRow := a.Y == b.Y && b.Y == c.Y
		sameCol := a.X == b.X && b.X == c.X
		if sameRow || sameCol {
			return true
		}
	}
	return false
}

// uCandidates places the Z pattern's first waypoint outside the pair's
// minimum bounding box by a positive detour distance in one of four
// cardinal directions, for every detour amount up to maxDetour.
func uCandidates(tbl *material.Table, s, d geom.Point, maxDetour int64) []geom.Route {
	x0, x1 := s.X, d.X
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	y0, y1 := s.Y, d.Y
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	step := tbl.MinWidth(s.Mat)
	if step <= 0 {
		step = 1
	}
	var out []geom.Route
	for detour := int64(step); detour <= maxDetour; detour += int64(step) {
		dirs := [4]geom.Point{
			{X: x0 - int32(detour), Y: (y0 + y1) / 2},
			{X: x1 + int32(detour), Y: (y0 + y1) / 2},
			{X: (x0 + x1) / 2, Y: y0 - int32(detour)},
			{X: (x0 + x1) / 2, Y: y1 + int32(detour)},
		}
		for _, dir := range dirs {
			for _, m := range zEligibleMaterials(tbl, s.Mat, d.Mat) {
				first := geom.Point{X: dir.X, Y: dir.Y, Mat: m, W: tbl.MinWidth(m)}
				toFirst := connectColinear(tbl, s, first)
				if toFirst == nil {
					continue
				}
				firstActual := toFirst[len(toFirst)-1]
				rest := lCandidates(tbl, firstActual, d)
				for _, r := range rest {
					wp := mergeWaypoints(toFirst, r.Waypoints)
					if hasCollinearSameMaterialTriple(wp) {
						continue
					}
					out = append(out, geom.Route{Waypoints: wp})
				}
			}
		}
	}
	return out
}
