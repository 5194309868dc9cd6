package lee

import (
	"context"
	"fmt"

	"github.com/azybler/charm/internal/component"
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/layout"
	"github.com/azybler/charm/internal/material"
)

// Elevate raises c onto destMat before pattern generation runs, by growing
// a 5x pad at destMat centered on c's origin node and searching the grid
// in vertical mode (layer changes cost nothing; each side of the search
// may only move toward the other's layer) to connect the two. It matches
// the pattern.Elevator signature so the controller can wire it directly.
func Elevate(l *layout.Layout, tbl *material.Table, c *component.Component, destMat material.Material, label string) error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("lee: elevate: component has no origin node to elevate from")
	}
	origin := c.Nodes[0]
	padW, padH := origin.W*5, origin.H*5
	cx := origin.X0 + origin.W/2
	cy := origin.Y0 + origin.H/2
	pad := geom.Rect{
		X0: cx - padW/2, Y0: cy - padH/2,
		W: padW, H: padH, Mat: destMat, BlockID: geom.NoBlock,
	}
	if err := pad.Validate(tbl); err != nil {
		return fmt.Errorf("lee: elevate: %w", err)
	}
	if _, err := l.AddRect(pad); err != nil {
		return fmt.Errorf("lee: elevate: %w", err)
	}
	padNode := pad
	padNode.Label = label
	if err := c.AddNode(tbl, padNode); err != nil {
		return fmt.Errorf("lee: elevate: %w", err)
	}

	originPt := geom.NewPoint(cx, cy, origin.Mat, tbl)
	padPt := geom.NewPoint(cx, cy, destMat, tbl)
	route, err := run(context.Background(), l, tbl, []geom.Point{originPt}, []geom.Point{padPt}, true, label)
	if err != nil {
		return fmt.Errorf("lee: elevate: %w", err)
	}
	return applyRoute(tbl, c, route)
}

// applyRoute extends c with every leg of route: same-material legs become
// segments, contact transitions mark their endpoints on c's line directly.
func applyRoute(tbl *material.Table, c *component.Component, route geom.Route) error {
	wp := route.Waypoints
	for i := 0; i+1 < len(wp); i++ {
		a, b := wp[i], wp[i+1]
		if a.Mat == b.Mat {
			if err := c.AddSegment(tbl, geom.Segment{A: a, B: b}); err != nil {
				return err
			}
			continue
		}
		c.MarkPoint(a)
		c.MarkPoint(b)
	}
	return nil
}
