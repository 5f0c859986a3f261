package proto

import (
	"fmt"
	"strings"

	"github.com/slayyden/Graphite/internal/ir"
)

// Outline renders the network without identities, so two compilations can
// be compared by shape in golden files. Nodes are numbered in post-order
// from the root:
//
//	output color
//	#0 const(0.5)
//	#1 mix(#0, $0, _)
//
// "#k" refers to node k, "$n" to slot n of the execution input and "_" to
// an empty optional slot.
func (n *Network) Outline() string {
	var b strings.Builder
	fmt.Fprintf(&b, "output %s\n", n.Output)

	numbers := make(map[ID]int)
	visiting := make(map[ID]bool)
	var visit func(id ID)
	visit = func(id ID) {
		node := n.Nodes[id]
		if node == nil || visiting[id] {
			return
		}
		if _, done := numbers[id]; done {
			return
		}
		visiting[id] = true
		for _, in := range node.Inputs {
			if in.Kind == InputNode {
				visit(in.Node)
			}
		}
		delete(visiting, id)

		k := len(numbers)
		numbers[id] = k
		args := make([]string, len(node.Inputs))
		for i, in := range node.Inputs {
			args[i] = outlineInput(in, numbers)
		}
		fmt.Fprintf(&b, "#%d %s(%s)\n", k, node.Op, strings.Join(args, ", "))
	}
	visit(n.Root)
	return b.String()
}

func outlineInput(in Input, numbers map[ID]int) string {
	switch in.Kind {
	case InputNode:
		if k, ok := numbers[in.Node]; ok {
			return fmt.Sprintf("#%d", k)
		}
		return "?" + in.Node.Short()
	case InputValue:
		data, err := ir.MarshalCanonical(in.Value)
		if err != nil {
			return "!" + ir.TypeName(in.Value)
		}
		return string(data)
	case InputExternal:
		return fmt.Sprintf("$%d", in.Slot)
	default:
		return "_"
	}
}
