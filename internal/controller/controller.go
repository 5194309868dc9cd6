// Package controller implements the CHARM net/pair ordering and rip-up
// controller: a depth-first, backtracking driver that repeatedly asks
// internal/ordering for the next pair to try, routes it with pattern
// and/or Lee, and accepts or rips up previously accepted routes until
// every pin pair of every net is connected or the search proves
// infeasible. Its state machine (a queue, an index into it, and an undo
// stack of merge records) is grounded on the teacher's CH contraction
// loop, which likewise drives a worklist with an explicit undo path
// rather than recursion.
package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/azybler/charm/internal/component"
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/layout"
	"github.com/azybler/charm/internal/material"
	"github.com/azybler/charm/internal/ordering"
	"github.com/azybler/charm/internal/routeerr"
)

// RouteFunc matches both pattern.Route's and lee.Route's call shape. The
// caller supplies pattern.Route already curried with its Elevator (wired
// to lee.Elevate) so this package never needs to import internal/pattern
// or internal/lee directly, matching the dependency-injection shape
// pattern.Route itself uses for elevation.
type RouteFunc func(ctx context.Context, l *layout.Layout, tbl *material.Table, c1, c2 *component.Component, label string) (geom.Route, error)

// safetyMultiplier bounds the number of DFS steps as a multiple of the
// total pair target, guarding against a pair that fails identically every
// time it is retried after a full rip-up unwind. Spec.md's §4.2 state
// machine has no explicit progress witness beyond route_stack/route_queue
// to prove true combinatorial infeasibility; this is the pragmatic stand-in,
// documented in DESIGN.md.
const safetyMultiplier = 64

// record is one undo entry: the merged component replacing its two
// predecessors, and the route_index the pair held in the queue that was
// active when the merge happened.
type record struct {
	Label      string
	Merged     *component.Component
	Old1, Old2 *component.Component
	RouteIndex int
}

// Controller drives the DFS rip-up loop described in spec.md §4.2.
type Controller struct {
	l     *layout.Layout
	tbl   *material.Table
	mode  string // "pl", "p", or "l"
	order string // "net_rule3", "pair_rule3", "pair_rule3_closest", or "closest_first"

	patternRoute RouteFunc
	leeRoute     RouteFunc

	queue []ordering.Pair
	index int
	stack []record

	nRipups, nSuccess int
}

// New builds a Controller. patternRoute/leeRoute are typically
// pattern.Route (curried with its elevator) and lee.Route; passing them
// in rather than importing internal/pattern and internal/lee with a hard
// dependency keeps this package's only router-specific knowledge to the
// mode-string dispatch spec.md §4.2 names.
func New(l *layout.Layout, tbl *material.Table, mode, order string, patternRoute, leeRoute RouteFunc) (*Controller, error) {
	switch mode {
	case "pl", "p", "l":
	default:
		return nil, fmt.Errorf("controller: %w: invalid route mode %q", routeerr.ErrStructural, mode)
	}
	c := &Controller{l: l, tbl: tbl, mode: mode, order: order, patternRoute: patternRoute, leeRoute: leeRoute}
	c.regenerateQueue()
	return c, nil
}

// Stats reports the running rip-up/success counters.
func (c *Controller) Stats() (nRipups, nSuccess int) { return c.nRipups, c.nSuccess }

// Run drives the DFS to completion: every net fully connected (nil), an
// external cancellation (routeerr.ErrCancelled, safe to finalize from
// whatever state Layout currently holds), or a proof of infeasibility
// (routeerr.ErrInfeasible).
func (c *Controller) Run(ctx context.Context) error {
	target := totalPairTarget(c.l)
	limit := (target + 1) * safetyMultiplier
	for steps := 0; ; steps++ {
		select {
		case <-ctx.Done():
			return routeerr.ErrCancelled
		default:
		}
		done, err := c.step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if steps >= limit {
			return routeerr.ErrInfeasible
		}
	}
}

func totalPairTarget(l *layout.Layout) int {
	total := 0
	for _, label := range l.NetLabels() {
		if n := len(l.Components(label)); n > 1 {
			total += n - 1
		}
	}
	return total
}

// step performs one main-loop iteration of spec.md §4.2.
func (c *Controller) step(ctx context.Context) (done bool, err error) {
	if c.index >= len(c.queue) {
		return true, nil
	}
	pair := c.queue[c.index]
	route, routeErr := c.routePair(ctx, pair)
	if routeErr == nil {
		return false, c.accept(pair, route)
	}
	if errors.Is(routeErr, routeerr.ErrCancelled) {
		return false, routeErr
	}
	return false, c.fail(pair)
}

func (c *Controller) routePair(ctx context.Context, pair ordering.Pair) (geom.Route, error) {
	switch c.mode {
	case "p":
		return c.patternRoute(ctx, c.l, c.tbl, pair.C1, pair.C2, pair.Label)
	case "l":
		return c.leeRoute(ctx, c.l, c.tbl, pair.C1, pair.C2, pair.Label)
	case "pl":
		route, err := c.patternRoute(ctx, c.l, c.tbl, pair.C1, pair.C2, pair.Label)
		if err == nil {
			return route, nil
		}
		if errors.Is(err, routeerr.ErrCancelled) {
			return geom.Route{}, err
		}
		return c.leeRoute(ctx, c.l, c.tbl, pair.C1, pair.C2, pair.Label)
	default:
		return geom.Route{}, fmt.Errorf("controller: %w: invalid route mode %q", routeerr.ErrStructural, c.mode)
	}
}

// accept implements spec.md §4.2 step 3.
func (c *Controller) accept(pair ordering.Pair, route geom.Route) error {
	merged, err := component.Join(c.tbl, c.l.NextComponentID(), pair.C1, pair.C2, route)
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	c.l.ReplaceComponents(pair.Label, []*component.Component{pair.C1, pair.C2}, []*component.Component{merged})
	c.l.InvalidateForSegments(merged.Segments)
	c.stack = append(c.stack, record{Label: pair.Label, Merged: merged, Old1: pair.C1, Old2: pair.C2, RouteIndex: c.index})
	c.nSuccess++
	c.regenerateQueue()
	return nil
}

// fail implements spec.md §4.2 step 4: look ahead for another chance
// before ripping anything up. Hope remains only once pair.C1 and pair.C2
// have EACH reappeared in some later queue entry (not necessarily the same
// one) — a cumulative AND over the whole remaining queue, not an OR over a
// single later pair.
func (c *Controller) fail(pair ordering.Pair) error {
	c1Seen, c2Seen := false, false
	for i := c.index + 1; i < len(c.queue); i++ {
		p := c.queue[i]
		if involves(p, pair.C1) {
			c1Seen = true
		}
		if involves(p, pair.C2) {
			c2Seen = true
		}
		if c1Seen && c2Seen {
			c.index++
			return nil
		}
	}
	c.ripUp()
	return nil
}

func involves(p ordering.Pair, c *component.Component) bool {
	return p.C1.ID == c.ID || p.C2.ID == c.ID
}

// ripUp pops undo records until either the stack is empty or resuming
// just past the popped record's route_index would land inside the
// (stale, pre-rip-up) queue, per spec.md §4.2 step 4's popping condition.
// Once the pop loop settles, the queue is regenerated from scratch and
// the index reset to 0 — resuming at a numeric offset into a queue that
// no longer exists has no defined meaning once components have actually
// changed shape, so index 0 of the fresh queue is the only sound resume
// point (an Open Question decision, recorded in DESIGN.md).
func (c *Controller) ripUp() {
	for len(c.stack) > 0 {
		top := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		c.l.ReplaceComponents(top.Label, []*component.Component{top.Merged}, []*component.Component{top.Old1, top.Old2})
		c.l.InvalidateForSegments(top.Merged.Segments)
		c.nRipups++
		c.nSuccess--
		resumeIndex := top.RouteIndex + 1
		if len(c.stack) == 0 || resumeIndex < len(c.queue) {
			break
		}
	}
	c.regenerateQueue()
}

// regenerateQueue rebuilds route_queue from the configured ordering rule
// and resets route_index to 0.
func (c *Controller) regenerateQueue() {
	switch c.order {
	case "pair_rule3":
		c.queue = ordering.NewPairScorer().PairRule3(c.l)
	case "pair_rule3_closest":
		c.queue = ordering.PairRule3Closest(c.l)
	case "net_rule3":
		c.queue = c.queueByNetOrder(ordering.NetRule3(c.l))
	default: // "closest_first"
		c.queue = c.queueByNetOrder(c.l.NetLabels())
	}
	c.index = 0
}

// queueByNetOrder picks, per net in nets (skipping nets that are already
// down to a single component), the closest_first pair — used by net_rule3
// and closest_first; pair_rule3 and pair_rule3_closest build their queues
// directly since they queue every same-net pair, not just the closest one.
func (c *Controller) queueByNetOrder(nets []string) []ordering.Pair {
	var out []ordering.Pair
	for _, label := range nets {
		comps := c.l.Components(label)
		if len(comps) < 2 {
			continue
		}
		if pair, ok := ordering.ClosestFirst(label, comps, nil); ok {
			out = append(out, pair)
		}
	}
	return out
}
