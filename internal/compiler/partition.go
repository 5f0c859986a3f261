package compiler

import "iter"

// Partition yields one graph per declared output, in declaration order.
// Each holds a private copy of exactly the nodes reachable from its output,
// so a node shared by two outputs appears in both. A partition is built only
// when the consumer pulls it.
func Partition(flat *FlatNetwork) iter.Seq[*FlatNetwork] {
	return func(yield func(*FlatNetwork) bool) {
		for _, out := range flat.Outputs {
			part := newFlatNetwork()
			part.Outputs = []FlatOutput{out}
			for key := range flat.reachable(out.Node) {
				part.Nodes[key] = flat.Nodes[key].clone()
			}
			if !yield(part) {
				return
			}
		}
	}
}
