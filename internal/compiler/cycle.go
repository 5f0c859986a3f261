package compiler

import (
	"slices"

	"github.com/slayyden/Graphite/internal/graph"
)

// compositionGraph maps a network to the bodies its composite nodes
// instantiate.
type compositionGraph map[graph.NetworkID][]graph.NetworkID

// buildCompositionGraph collects every network reachable from roots through
// composite bodies. Bodies that do not exist in the arena are skipped; they
// are reported by validation or by the flattener.
func buildCompositionGraph(doc *graph.Document, roots ...graph.NetworkID) compositionGraph {
	g := make(compositionGraph)
	work := slices.Clone(roots)
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		if _, done := g[id]; done {
			continue
		}
		net := doc.Network(id)
		if net == nil {
			continue
		}
		g[id] = []graph.NetworkID{}
		for _, nid := range net.SortedIDs() {
			node := net.Nodes[nid]
			if !node.IsComposite() || doc.Network(node.Body) == nil {
				continue
			}
			if !slices.Contains(g[id], node.Body) {
				g[id] = append(g[id], node.Body)
			}
			work = append(work, node.Body)
		}
		slices.Sort(g[id])
	}
	return g
}

// checkComposition reports the first cyclic composition reachable from
// roots, or nil. A network counts as cyclic when it is part of a strongly
// connected component of size > 1 or instantiates itself.
func checkComposition(doc *graph.Document, roots ...graph.NetworkID) *CompileError {
	g := buildCompositionGraph(doc, roots...)
	sccs := tarjanSCC(g)

	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], g)) {
			path := reconstructCyclePath(scc, g)
			names := make([]string, len(path))
			for i, id := range path {
				names[i] = doc.NetworkName(id)
			}
			return newCyclicComposition(names)
		}
	}
	return nil
}

// composedBodies returns the bodies instantiated by the given nodes of net,
// sorted and without duplicates.
func composedBodies(net *graph.Network, nodes map[graph.NodeID]bool) []graph.NetworkID {
	var bodies []graph.NetworkID
	for id := range nodes {
		if node := net.Nodes[id]; node != nil && node.IsComposite() {
			bodies = append(bodies, node.Body)
		}
	}
	slices.Sort(bodies)
	return slices.Compact(bodies)
}

func hasSelfLoop(node graph.NetworkID, g compositionGraph) bool {
	return slices.Contains(g[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in ascending order and each SCC is returned sorted, so
// the result is deterministic.
func tarjanSCC(g compositionGraph) [][]graph.NetworkID {
	var (
		index   = 0
		stack   []graph.NetworkID
		indices = make(map[graph.NetworkID]int)
		lowlink = make(map[graph.NetworkID]int)
		onStack = make(map[graph.NetworkID]bool)
		sccs    [][]graph.NetworkID
	)

	var strongConnect func(graph.NetworkID)
	strongConnect = func(v graph.NetworkID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []graph.NetworkID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]graph.NetworkID, 0, len(g))
	for n := range g {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}

	return sccs
}

// reconstructCyclePath returns the shortest cycle through the smallest
// member of the SCC, found breadth first along edges inside the SCC.
func reconstructCyclePath(scc []graph.NetworkID, g compositionGraph) []graph.NetworkID {
	if len(scc) == 0 {
		return nil
	}
	start := scc[0]

	inSCC := make(map[graph.NetworkID]bool, len(scc))
	for _, n := range scc {
		inSCC[n] = true
	}

	parent := make(map[graph.NetworkID]graph.NetworkID)
	queue := []graph.NetworkID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, w := range g[cur] {
			if !inSCC[w] {
				continue
			}
			if w == start {
				path := []graph.NetworkID{start}
				for n := cur; n != start; n = parent[n] {
					path = append(path, n)
				}
				path = append(path, start)
				slices.Reverse(path)
				return path
			}
			if _, seen := parent[w]; !seen {
				parent[w] = cur
				queue = append(queue, w)
			}
		}
	}
	return []graph.NetworkID{start, start}
}
