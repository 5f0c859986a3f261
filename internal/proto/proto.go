// Package proto defines the compiled, flat, execution-ready graph.
//
// A proto Network has no nesting and no author-time addressing. Every node
// is keyed by a content-derived identity and every input is either another
// node's identity, an embedded literal, a slot of the execution input, or an
// explicitly empty optional slot.
package proto

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/slayyden/Graphite/internal/ir"
)

// ID is a stable content-derived node identity (hex SHA-256).
type ID string

// Short returns the first 12 characters of the identity for display.
func (id ID) Short() string {
	if len(id) <= 12 {
		return string(id)
	}
	return string(id[:12])
}

// InputKind selects how a resolved input is produced.
type InputKind uint8

const (
	// InputNone is an optional slot left unwired.
	InputNone InputKind = iota
	// InputNode is the result of the node identified by Node.
	InputNode
	// InputValue is the literal held in Value.
	InputValue
	// InputExternal is slot Slot of the execution input.
	InputExternal
)

func (k InputKind) String() string {
	switch k {
	case InputNone:
		return "none"
	case InputNode:
		return "node"
	case InputValue:
		return "value"
	case InputExternal:
		return "external"
	default:
		return fmt.Sprintf("InputKind(%d)", k)
	}
}

// Input is one fully resolved input of a compiled node.
type Input struct {
	Kind  InputKind
	Node  ID
	Value ir.IRValue
	Slot  int
}

// FromNode returns an input produced by another node.
func FromNode(id ID) Input { return Input{Kind: InputNode, Node: id} }

// Literal returns an input holding a constant.
func Literal(v ir.IRValue) Input { return Input{Kind: InputValue, Value: v} }

// External returns an input read from the execution input.
func External(slot int) Input { return Input{Kind: InputExternal, Slot: slot} }

// None returns an empty optional input.
func None() Input { return Input{Kind: InputNone} }

// Encode returns the canonical IR form of the input. It is the form hashed
// into node identities and the form written by MarshalJSON.
func (in Input) Encode() ir.IRValue {
	switch in.Kind {
	case InputNode:
		return ir.IRObject{"node": ir.IRString(in.Node)}
	case InputValue:
		return ir.IRObject{"value": in.Value}
	case InputExternal:
		return ir.IRObject{"external": ir.IRInt(in.Slot)}
	default:
		return ir.IRObject{"none": ir.IRBool(true)}
	}
}

// MarshalJSON encodes the input as a single-key object.
func (in Input) MarshalJSON() ([]byte, error) {
	return ir.MarshalCanonical(in.Encode())
}

// UnmarshalJSON decodes the single-key object written by MarshalJSON.
func (in *Input) UnmarshalJSON(data []byte) error {
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	dec, err := DecodeInput(v)
	if err != nil {
		return err
	}
	*in = dec
	return nil
}

// DecodeInput is the inverse of Input.Encode.
func DecodeInput(v ir.IRValue) (Input, error) {
	obj, ok := v.(ir.IRObject)
	if !ok || len(obj) != 1 {
		return Input{}, fmt.Errorf("input must be an object with exactly one key, got %s", ir.TypeName(v))
	}
	for key, val := range obj {
		switch key {
		case "node":
			s, ok := val.(ir.IRString)
			if !ok {
				return Input{}, fmt.Errorf("input.node must be a string, got %s", ir.TypeName(val))
			}
			return FromNode(ID(s)), nil
		case "value":
			return Literal(val), nil
		case "external":
			n, ok := val.(ir.IRInt)
			if !ok || n < 0 {
				return Input{}, fmt.Errorf("input.external must be a non-negative int")
			}
			return External(int(n)), nil
		case "none":
			return None(), nil
		default:
			return Input{}, fmt.Errorf("unknown input kind %q", key)
		}
	}
	return Input{}, fmt.Errorf("empty input")
}

// Node is a compiled operation.
type Node struct {
	ID     ID      `json:"id"`
	Op     string  `json:"op"`
	Inputs []Input `json:"inputs"`
}

// Network is one compiled output: a flat DAG rooted at the node that
// produces the output value.
type Network struct {
	Output string
	Root   ID
	Nodes  map[ID]*Node
}

// NewNetwork creates an empty network for the named output.
func NewNetwork(output string) *Network {
	return &Network{Output: output, Nodes: make(map[ID]*Node)}
}

// Add inserts a node. Nodes are content addressed, so re-adding an
// identical node is a no-op.
func (n *Network) Add(node *Node) {
	n.Nodes[node.ID] = node
}

// Node returns the node with the given identity, or nil.
func (n *Network) Node(id ID) *Node {
	return n.Nodes[id]
}

// Len returns the number of nodes.
func (n *Network) Len() int {
	return len(n.Nodes)
}

// SortedIDs returns every node identity in ascending order.
func (n *Network) SortedIDs() []ID {
	return slices.Sorted(maps.Keys(n.Nodes))
}

// Digest returns a digest over the output name, the root and the full node
// set. Equal digests mean equal networks.
func (n *Network) Digest() (string, error) {
	ids := n.SortedIDs()
	nodes := make([]string, len(ids))
	for i, id := range ids {
		nodes[i] = string(id)
	}
	return ir.NetworkDigest(n.Output, string(n.Root), nodes)
}

type networkJSON struct {
	Output string  `json:"output"`
	Root   ID      `json:"root"`
	Nodes  []*Node `json:"nodes"`
}

// MarshalJSON writes nodes as a list in topological order, falling back to
// identity order when the network is not a DAG.
func (n *Network) MarshalJSON() ([]byte, error) {
	order, err := n.TopologicalOrder()
	if err != nil {
		order = n.SortedIDs()
	}
	out := networkJSON{Output: n.Output, Root: n.Root, Nodes: make([]*Node, len(order))}
	for i, id := range order {
		out.Nodes[i] = n.Nodes[id]
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (n *Network) UnmarshalJSON(data []byte) error {
	var in networkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	n.Output = in.Output
	n.Root = in.Root
	n.Nodes = make(map[ID]*Node, len(in.Nodes))
	for _, node := range in.Nodes {
		if node == nil {
			return fmt.Errorf("network %q: null node", in.Output)
		}
		n.Nodes[node.ID] = node
	}
	return nil
}
