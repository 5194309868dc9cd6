package pattern

import "github.com/azybler/charm/internal/geom"

// heapEntry is one pending candidate route, ordered by (cost, seq) so
// equal-cost candidates are returned in the order they were produced
// (property: FIFO among equal-cost routes, spec.md §8).
type heapEntry struct {
	route geom.Route
	cost  int64
	seq   int64
}

func (a heapEntry) less(b heapEntry) bool {
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	return a.seq < b.seq
}

// candidateHeap is a hand-rolled concrete binary min-heap, matching the
// teacher's routing.MinHeap and ch.witnessHeap: a plain []heapEntry with
// manual sift-up/sift-down rather than container/heap's interface
// dispatch, avoiding per-push boxing.
type candidateHeap []heapEntry

func (g *Generator) heapPush(e heapEntry) {
	g.heap = append(g.heap, e)
	i := len(g.heap) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !g.heap[i].less(g.heap[parent]) {
			break
		}
		g.heap[i], g.heap[parent] = g.heap[parent], g.heap[i]
		i = parent
	}
}

func (g *Generator) heapPop() heapEntry {
	top := g.heap[0]
	n := len(g.heap) - 1
	g.heap[0] = g.heap[n]
	g.heap = g.heap[:n]
	i := 0
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && g.heap[left].less(g.heap[smallest]) {
			smallest = left
		}
		if right < n && g.heap[right].less(g.heap[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		g.heap[i], g.heap[smallest] = g.heap[smallest], g.heap[i]
		i = smallest
	}
	return top
}
