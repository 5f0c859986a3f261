// Package dag orders string-keyed dependency graphs deterministically.
//
// Ordering is Kahn's algorithm with a min-heap ready queue, so ties are
// always broken by key order and the same graph yields the same order on
// every run. When no complete order exists a single stable witness cycle is
// extracted for error reporting.
package dag

import (
	"container/heap"
	"fmt"
	"slices"
	"strings"
)

// CycleError reports a dependency cycle. Path starts and ends with the same
// key and lists edges in producer to consumer direction.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Graph is an immutable dependency graph over string keys.
type Graph struct {
	keys     []string
	index    map[string]int
	outgoing [][]int
	indeg    []int
}

// New builds a graph over keys. deps returns the producers a key depends on;
// producers that are not themselves keys are ignored, and duplicate edges
// count once.
func New(keys []string, deps func(string) []string) *Graph {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	g := &Graph{
		keys:     sorted,
		index:    make(map[string]int, len(sorted)),
		outgoing: make([][]int, len(sorted)),
		indeg:    make([]int, len(sorted)),
	}
	for i, k := range sorted {
		g.index[k] = i
	}

	for consumer, k := range sorted {
		seen := make(map[int]bool)
		for _, p := range deps(k) {
			producer, ok := g.index[p]
			if !ok || seen[producer] {
				continue
			}
			seen[producer] = true
			g.outgoing[producer] = append(g.outgoing[producer], consumer)
			g.indeg[consumer]++
		}
	}
	for i := range g.outgoing {
		slices.Sort(g.outgoing[i])
	}
	return g
}

// Len returns the number of keys.
func (g *Graph) Len() int {
	return len(g.keys)
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Order returns every key with producers before consumers. Among keys that
// are ready at the same time, the smallest key comes first. A graph with a
// cycle returns *CycleError.
func (g *Graph) Order() ([]string, error) {
	indeg := slices.Clone(g.indeg)

	ready := &intMinHeap{}
	for i, d := range indeg {
		if d == 0 {
			*ready = append(*ready, i)
		}
	}
	heap.Init(ready)

	out := make([]string, 0, len(g.keys))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, g.keys[n])
		for _, m := range g.outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	if len(out) == len(g.keys) {
		return out, nil
	}
	return nil, &CycleError{Path: g.findCycle()}
}

// findCycle walks canonical indices depth first and returns the first back
// edge it meets as a closed path.
func (g *Graph) findCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(g.keys))
	parent := make([]int, len(g.keys))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.outgoing[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// back edge u -> v closes v ... u -> v
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range g.keys {
		if color[i] == white && dfs(i) {
			break
		}
	}

	out := make([]string, len(cycle))
	for i, idx := range cycle {
		out[len(cycle)-1-i] = g.keys[idx]
	}
	return out
}
