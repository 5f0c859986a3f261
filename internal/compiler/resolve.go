package compiler

import (
	"fmt"

	"github.com/slayyden/Graphite/internal/ir"
	"github.com/slayyden/Graphite/internal/proto"
)

// ResolvedInput is a concrete input: a producer still keyed by flat path, a
// literal, an external slot, or nothing.
type ResolvedInput struct {
	Kind  proto.InputKind
	Node  string
	Value ir.IRValue
	Slot  int
}

// ResolvedNode is a flat node whose inputs are all concrete.
type ResolvedNode struct {
	Key    string
	Op     string
	Inputs []ResolvedInput
}

// Resolved is one partition after input resolution.
type Resolved struct {
	Output string
	Root   string
	Nodes  map[string]*ResolvedNode
}

// Resolve turns every input of a single-output partition into a concrete
// reference. Unwired slots take their default, become empty when optional,
// and otherwise fail with MISSING_INPUT, as does a composite left with an
// unbound required input its body never reads. A reference to a node
// outside the partition fails with DANGLING_REFERENCE. Nodes are checked in
// key order and slots in order, so the reported error is deterministic.
func Resolve(part *FlatNetwork) (*Resolved, error) {
	if len(part.Outputs) != 1 {
		return nil, &CompileError{
			Code:    ErrCodeInvalidGraph,
			Message: fmt.Sprintf("partition must have exactly one output, has %d", len(part.Outputs)),
			Slot:    -1,
		}
	}
	out := part.Outputs[0]
	if _, ok := part.Nodes[out.Node]; !ok {
		return nil, &CompileError{
			Code:    ErrCodeDanglingReference,
			Message: fmt.Sprintf("output %s references missing node %s", out.Name, out.Node),
			Output:  out.Name,
			Slot:    -1,
		}
	}

	res := &Resolved{
		Output: out.Name,
		Root:   out.Node,
		Nodes:  make(map[string]*ResolvedNode, len(part.Nodes)),
	}
	for _, key := range part.SortedKeys() {
		node := part.Nodes[key]
		if len(node.Unbound) > 0 {
			return nil, newMissingInput(out.Name, key, node.Op, node.Unbound[0])
		}
		rn := &ResolvedNode{Key: key, Op: node.Op, Inputs: make([]ResolvedInput, len(node.Inputs))}
		for slot, ref := range node.Inputs {
			in, err := resolveRef(part, out.Name, node, slot, ref)
			if err != nil {
				return nil, err
			}
			rn.Inputs[slot] = in
		}
		res.Nodes[key] = rn
	}
	return res, nil
}

func resolveRef(part *FlatNetwork, output string, node *FlatNode, slot int, ref Ref) (ResolvedInput, error) {
	switch ref.Kind {
	case RefNode:
		if _, ok := part.Nodes[ref.Node]; !ok {
			return ResolvedInput{}, newDanglingReference(output, node.Key, slot, ref.Node)
		}
		return ResolvedInput{Kind: proto.InputNode, Node: ref.Node}, nil
	case RefValue:
		return ResolvedInput{Kind: proto.InputValue, Value: ref.Value}, nil
	case RefExternal:
		return ResolvedInput{Kind: proto.InputExternal, Slot: ref.Slot}, nil
	default:
		switch {
		case ref.Value != nil:
			return ResolvedInput{Kind: proto.InputValue, Value: ref.Value}, nil
		case ref.Optional:
			return ResolvedInput{Kind: proto.InputNone}, nil
		default:
			return ResolvedInput{}, newMissingInput(output, node.Key, node.Op, slot)
		}
	}
}
