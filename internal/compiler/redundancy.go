package compiler

// consumer addresses one input slot of a flat node.
type consumer struct {
	node *FlatNode
	slot int
}

// EliminateRedundant removes pass-through nodes, rewiring every consumer and
// output that referenced one to the pass-through's own producer. It repeats
// until nothing changes and returns the number of nodes removed.
//
// Two kinds of pass-through stay in place: one that feeds itself, which is
// left for identity assignment to report as a cycle, and one named by an
// output while forwarding a literal or external input, since outputs must
// name a node.
func EliminateRedundant(flat *FlatNetwork) int {
	removed := 0
	for {
		n := eliminatePass(flat)
		if n == 0 {
			return removed
		}
		removed += n
	}
}

func eliminatePass(flat *FlatNetwork) int {
	consumers := make(map[string][]consumer)
	for _, key := range flat.SortedKeys() {
		node := flat.Nodes[key]
		for i, in := range node.Inputs {
			if in.Kind == RefNode {
				consumers[in.Node] = append(consumers[in.Node], consumer{node: node, slot: i})
			}
		}
	}

	removed := 0
	for _, key := range flat.SortedKeys() {
		node, ok := flat.Nodes[key]
		if !ok || !node.IsPassThrough() {
			continue
		}
		src := node.Inputs[0]
		if src.Kind == RefNode && src.Node == key {
			continue
		}
		if !retargetOutputs(flat, key, src) {
			continue
		}

		for _, c := range consumers[key] {
			c.node.Inputs[c.slot] = src
			if src.Kind == RefNode {
				consumers[src.Node] = append(consumers[src.Node], c)
			}
		}
		delete(consumers, key)
		delete(flat.Nodes, key)
		removed++
	}
	return removed
}

// retargetOutputs points outputs naming key at src. It reports false, and
// changes nothing, when an output names key but src is not a node.
func retargetOutputs(flat *FlatNetwork, key string, src Ref) bool {
	named := false
	for _, out := range flat.Outputs {
		if out.Node == key {
			named = true
			break
		}
	}
	if !named {
		return true
	}
	if src.Kind != RefNode {
		return false
	}
	for i := range flat.Outputs {
		if flat.Outputs[i].Node == key {
			flat.Outputs[i].Node = src.Node
		}
	}
	return true
}
