// Package routeerr collects the sentinel errors shared by the pattern
// router, the Lee router, and the controller, mirroring the teacher's
// routing package (ErrNoRoute, ErrPointTooFar) declaring its sentinels in
// one place so every caller can errors.Is against the same values.
package routeerr

import "errors"

var (
	// ErrInfeasible means a router exhausted every candidate it knows how
	// to generate without finding one that passes DRC.
	ErrInfeasible = errors.New("routeerr: no feasible route found")

	// ErrBudgetExhausted means a router hit its candidate-count or
	// wall-clock budget before finding a feasible route.
	ErrBudgetExhausted = errors.New("routeerr: candidate budget exhausted")

	// ErrCancelled means the caller's context was cancelled mid-search.
	ErrCancelled = errors.New("routeerr: cancelled")

	// ErrStructural means the input itself is malformed (e.g. an invalid
	// route_modes string), not a routing-search failure.
	ErrStructural = errors.New("routeerr: structural violation")
)
