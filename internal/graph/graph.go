package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/slayyden/Graphite/internal/ir"
)

// IdentityOp is the operation of a pass-through node: it forwards its single
// input unchanged.
const IdentityOp = "identity"

// NodeID identifies a node within one network.
type NodeID uint64

// NetworkID indexes a network in a Document arena. The zero value means
// "no network".
type NetworkID int

// NoNetwork is the NetworkID of a node without a body.
const NoNetwork NetworkID = 0

// InputKind selects how an input slot is satisfied.
type InputKind uint8

const (
	// InputUnwired is a slot with no wiring. Value optionally holds a default.
	InputUnwired InputKind = iota
	// InputValue is a literal constant held in Value.
	InputValue
	// InputNode references the output of node Node in the same network.
	InputNode
	// InputParam references slot Param of the enclosing network's parameters.
	InputParam
)

func (k InputKind) String() string {
	switch k {
	case InputUnwired:
		return "unwired"
	case InputValue:
		return "value"
	case InputNode:
		return "node"
	case InputParam:
		return "param"
	default:
		return fmt.Sprintf("InputKind(%d)", k)
	}
}

// Input is one input slot of a node.
type Input struct {
	Kind InputKind
	// Value is the literal for InputValue, or the default for InputUnwired.
	Value ir.IRValue
	Node  NodeID
	Param int
	// Optional marks an unwired slot that may stay empty.
	Optional bool
}

// Literal returns an input holding a constant.
func Literal(v ir.IRValue) Input {
	return Input{Kind: InputValue, Value: v}
}

// FromNode returns an input wired to another node of the same network.
func FromNode(id NodeID) Input {
	return Input{Kind: InputNode, Node: id}
}

// FromParam returns an input wired to a parameter of the enclosing network.
func FromParam(slot int) Input {
	return Input{Kind: InputParam, Param: slot}
}

// Unwired returns a required slot with no wiring.
func Unwired() Input {
	return Input{Kind: InputUnwired}
}

// Optional returns an unwired slot that may stay empty.
func Optional() Input {
	return Input{Kind: InputUnwired, Optional: true}
}

// WithDefault returns an unwired slot that falls back to v.
func WithDefault(v ir.IRValue) Input {
	return Input{Kind: InputUnwired, Value: v}
}

// Node is a single operation in a network.
type Node struct {
	ID     NodeID
	Op     string
	Inputs []Input
	// Body is the network inlined in place of this node, NoNetwork for a
	// primitive node.
	Body NetworkID
}

// IsComposite reports whether the node has a nested body.
func (n *Node) IsComposite() bool {
	return n.Body != NoNetwork
}

// Clone returns a deep copy of the node. Literal values are immutable and
// shared.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Inputs = slices.Clone(n.Inputs)
	return &c
}

// Output names a node whose result the network exposes.
type Output struct {
	Name string
	Node NodeID
}

// Network is one level of the author graph.
type Network struct {
	Name string
	// Params is the number of parameter slots the network accepts. For a
	// composite body they are bound to the composite node's inputs; for the
	// root network they are supplied by the executor at run time.
	Params  int
	Nodes   map[NodeID]*Node
	Outputs []Output
}

// NewNetwork creates an empty network.
func NewNetwork(name string, params int) *Network {
	return &Network{
		Name:   name,
		Params: params,
		Nodes:  make(map[NodeID]*Node),
	}
}

// Add inserts a node, replacing any node with the same ID.
func (n *Network) Add(node *Node) *Network {
	n.Nodes[node.ID] = node
	return n
}

// AddOutput declares a named output.
func (n *Network) AddOutput(name string, id NodeID) *Network {
	n.Outputs = append(n.Outputs, Output{Name: name, Node: id})
	return n
}

// SortedIDs returns node identifiers in ascending order.
func (n *Network) SortedIDs() []NodeID {
	return slices.Sorted(maps.Keys(n.Nodes))
}

// Clone returns a deep copy of the network.
func (n *Network) Clone() *Network {
	c := &Network{
		Name:    n.Name,
		Params:  n.Params,
		Nodes:   make(map[NodeID]*Node, len(n.Nodes)),
		Outputs: slices.Clone(n.Outputs),
	}
	for id, node := range n.Nodes {
		c.Nodes[id] = node.Clone()
	}
	return c
}

// Document is an arena of networks plus the identity of the root network.
type Document struct {
	networks []*Network
	Root     NetworkID
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// AddNetwork appends a network to the arena and returns its identifier.
// The first network added becomes the root unless Root is set explicitly.
func (d *Document) AddNetwork(n *Network) NetworkID {
	d.networks = append(d.networks, n)
	id := NetworkID(len(d.networks))
	if d.Root == NoNetwork {
		d.Root = id
	}
	return id
}

// Network returns the network with the given identifier, or nil.
func (d *Document) Network(id NetworkID) *Network {
	if id <= NoNetwork || int(id) > len(d.networks) {
		return nil
	}
	return d.networks[id-1]
}

// RootNetwork returns the root network, or nil when none is set.
func (d *Document) RootNetwork() *Network {
	return d.Network(d.Root)
}

// Lookup returns the identifier of the first network with the given name.
func (d *Document) Lookup(name string) (NetworkID, bool) {
	for i, n := range d.networks {
		if n.Name == name {
			return NetworkID(i + 1), true
		}
	}
	return NoNetwork, false
}

// NetworkIDs returns every arena identifier in ascending order.
func (d *Document) NetworkIDs() []NetworkID {
	ids := make([]NetworkID, len(d.networks))
	for i := range d.networks {
		ids[i] = NetworkID(i + 1)
	}
	return ids
}

// Len returns the number of networks in the arena.
func (d *Document) Len() int {
	return len(d.networks)
}

// Clone returns a deep copy of the document. The compiler works on a clone
// so callers keep ownership of what they pass in.
func (d *Document) Clone() *Document {
	c := &Document{
		networks: make([]*Network, len(d.networks)),
		Root:     d.Root,
	}
	for i, n := range d.networks {
		c.networks[i] = n.Clone()
	}
	return c
}

// NetworkName returns a printable name for a network identifier.
func (d *Document) NetworkName(id NetworkID) string {
	if n := d.Network(id); n != nil && n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("#%d", id)
}
