package compiler

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/slayyden/Graphite/internal/ir"
)

// RefKind selects how a flat input is produced.
type RefKind uint8

const (
	// RefUnwired is a slot with no wiring; Value may hold a default.
	RefUnwired RefKind = iota
	// RefValue is the literal held in Value.
	RefValue
	// RefNode is the output of the flat node keyed Node.
	RefNode
	// RefExternal is slot Slot of the execution input.
	RefExternal
)

// Ref is an input of a flattened node. Parameter references no longer exist
// at this level: they have been replaced by whatever the caller wired in.
type Ref struct {
	Kind     RefKind
	Node     string
	Value    ir.IRValue
	Slot     int
	Optional bool
}

// FlatNode is a primitive node after inlining. Key is the node's path
// through composite nesting, e.g. "4/7".
type FlatNode struct {
	Key    string
	Op     string
	Inputs []Ref
	// Unbound lists required inputs of the composite this pass-through
	// replaced that were left unwired and are read by no body node.
	Unbound []int
}

// IsPassThrough reports whether the node only forwards one wired input.
func (n *FlatNode) IsPassThrough() bool {
	return n.Op == identityOp && len(n.Inputs) == 1 && n.Inputs[0].Kind != RefUnwired && len(n.Unbound) == 0
}

func (n *FlatNode) clone() *FlatNode {
	c := *n
	c.Inputs = slices.Clone(n.Inputs)
	c.Unbound = slices.Clone(n.Unbound)
	return &c
}

// FlatOutput is a declared output of the flattened graph.
type FlatOutput struct {
	Name string
	Node string
}

// FlatNetwork is a single-level graph keyed by flat path.
type FlatNetwork struct {
	Nodes   map[string]*FlatNode
	Outputs []FlatOutput
}

func newFlatNetwork() *FlatNetwork {
	return &FlatNetwork{Nodes: make(map[string]*FlatNode)}
}

// Len returns the number of nodes.
func (f *FlatNetwork) Len() int {
	return len(f.Nodes)
}

// SortedKeys returns node keys in ascending order.
func (f *FlatNetwork) SortedKeys() []string {
	return slices.Sorted(maps.Keys(f.Nodes))
}

// Clone returns a deep copy.
func (f *FlatNetwork) Clone() *FlatNetwork {
	c := &FlatNetwork{
		Nodes:   make(map[string]*FlatNode, len(f.Nodes)),
		Outputs: slices.Clone(f.Outputs),
	}
	for k, n := range f.Nodes {
		c.Nodes[k] = n.clone()
	}
	return c
}

// reachable returns the keys reachable from roots along node inputs. Inputs
// naming absent nodes are ignored.
func (f *FlatNetwork) reachable(roots ...string) map[string]bool {
	seen := make(map[string]bool)
	work := slices.Clone(roots)
	for len(work) > 0 {
		key := work[len(work)-1]
		work = work[:len(work)-1]
		node, ok := f.Nodes[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		for _, in := range node.Inputs {
			if in.Kind == RefNode && !seen[in.Node] {
				work = append(work, in.Node)
			}
		}
	}
	return seen
}

// Dump renders the network one node per line in key order, followed by the
// outputs. It is stable and meant for debugging and golden files.
func (f *FlatNetwork) Dump() string {
	var b strings.Builder
	for _, key := range f.SortedKeys() {
		n := f.Nodes[key]
		args := make([]string, len(n.Inputs))
		for i, in := range n.Inputs {
			args[i] = dumpRef(in)
		}
		fmt.Fprintf(&b, "%s %s(%s)\n", key, n.Op, strings.Join(args, ", "))
	}
	for _, out := range f.Outputs {
		fmt.Fprintf(&b, "output %s -> %s\n", out.Name, out.Node)
	}
	return b.String()
}

func dumpRef(r Ref) string {
	switch r.Kind {
	case RefNode:
		return "@" + r.Node
	case RefValue:
		return dumpLiteral(r.Value)
	case RefExternal:
		return fmt.Sprintf("$%d", r.Slot)
	default:
		switch {
		case r.Value != nil:
			return "_=" + dumpLiteral(r.Value)
		case r.Optional:
			return "_?"
		default:
			return "_"
		}
	}
}

func dumpLiteral(v ir.IRValue) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "!" + ir.TypeName(v)
	}
	return string(data)
}
