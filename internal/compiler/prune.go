package compiler

// Prune deletes every node not reachable from a declared output along node
// inputs and returns the number of nodes removed.
func Prune(flat *FlatNetwork) int {
	roots := make([]string, len(flat.Outputs))
	for i, out := range flat.Outputs {
		roots[i] = out.Node
	}
	live := flat.reachable(roots...)

	removed := 0
	for key := range flat.Nodes {
		if !live[key] {
			delete(flat.Nodes, key)
			removed++
		}
	}
	return removed
}
