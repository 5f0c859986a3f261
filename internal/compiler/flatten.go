package compiler

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/slayyden/Graphite/internal/graph"
)

const identityOp = graph.IdentityOp

// frame is one network instance waiting to be inlined.
type frame struct {
	net    *graph.Network
	prefix graph.Path
	// bindings are the caller's inputs, already in flat terms. nil for the
	// root network, whose parameters are external.
	bindings []Ref
	root     bool
	// only restricts the frame to a subset of node ids; nil means all.
	only map[graph.NodeID]bool
}

// Flatten inlines every composite node of the document's root network and
// returns a single-level graph carrying the root network's outputs.
//
// Each composite node is kept under its own key as a pass-through whose
// single input is the body's designated output, and the body's nodes are
// inlined under the composite's path. Composition cycles are reported as
// CYCLIC_COMPOSITION before any node is produced.
func Flatten(doc *graph.Document) (*FlatNetwork, error) {
	root, err := rootNetwork(doc)
	if err != nil {
		return nil, err
	}
	if cerr := checkComposition(doc, doc.Root); cerr != nil {
		return nil, cerr
	}
	return flattenNodes(doc, root, nil, root.Outputs)
}

// flattenNodes inlines the given root-network nodes, or all of them when
// only is nil, and exposes outputs.
func flattenNodes(doc *graph.Document, root *graph.Network, only map[graph.NodeID]bool, outputs []graph.Output) (*FlatNetwork, error) {
	flat := newFlatNetwork()
	if err := expand(doc, flat, frame{net: root, root: true, only: only}); err != nil {
		return nil, err
	}
	for _, out := range outputs {
		flat.Outputs = append(flat.Outputs, FlatOutput{
			Name: out.Name,
			Node: graph.Path{out.Node}.String(),
		})
	}
	return flat, nil
}

// FlattenNode expands only the subtree rooted at node id of the root
// network: the node and everything it transitively reads from. The result
// exposes the root network's outputs that point at id, or a single output
// named after the node when none does.
func FlattenNode(doc *graph.Document, id graph.NodeID) (*FlatNetwork, error) {
	root, err := rootNetwork(doc)
	if err != nil {
		return nil, err
	}
	if _, ok := root.Nodes[id]; !ok {
		return nil, &CompileError{
			Code:    ErrCodeDanglingReference,
			Message: fmt.Sprintf("node %d does not exist in network %s", id, doc.NetworkName(doc.Root)),
			Slot:    -1,
		}
	}
	if cerr := checkComposition(doc, doc.Root); cerr != nil {
		return nil, cerr
	}

	only := subtree(root, id)
	flat := newFlatNetwork()
	if err := expand(doc, flat, frame{net: root, root: true, only: only}); err != nil {
		return nil, err
	}

	key := graph.Path{id}.String()
	for _, out := range root.Outputs {
		if out.Node == id {
			flat.Outputs = append(flat.Outputs, FlatOutput{Name: out.Name, Node: key})
		}
	}
	if len(flat.Outputs) == 0 {
		flat.Outputs = []FlatOutput{{Name: strconv.FormatUint(uint64(id), 10), Node: key}}
	}
	return flat, nil
}

// FlattenPath is FlattenNode for a node addressed through composite
// nesting. For a nested path the result keeps only the node at path and
// what it transitively reads, under a single output named after the path.
func FlattenPath(doc *graph.Document, path graph.Path) (*FlatNetwork, error) {
	if len(path) == 0 {
		return nil, &CompileError{Code: ErrCodeInvalidGraph, Message: "empty node path", Slot: -1}
	}
	flat, err := FlattenNode(doc, path[0])
	if err != nil || len(path) == 1 {
		return flat, err
	}

	key := path.String()
	if _, ok := flat.Nodes[key]; !ok {
		return nil, &CompileError{
			Code:    ErrCodeDanglingReference,
			Message: fmt.Sprintf("node %s does not exist after flattening", key),
			Slot:    -1,
		}
	}
	sub := newFlatNetwork()
	sub.Outputs = []FlatOutput{{Name: key, Node: key}}
	for k := range flat.reachable(key) {
		sub.Nodes[k] = flat.Nodes[k]
	}
	return sub, nil
}

func rootNetwork(doc *graph.Document) (*graph.Network, error) {
	if doc == nil {
		return nil, &CompileError{Code: ErrCodeInvalidGraph, Message: "nil document", Slot: -1}
	}
	root := doc.RootNetwork()
	if root == nil {
		return nil, &CompileError{
			Code:    ErrCodeInvalidGraph,
			Message: fmt.Sprintf("root network %d does not exist", doc.Root),
			Slot:    -1,
		}
	}
	return root, nil
}

// subtree returns id and every node of net it reads from.
func subtree(net *graph.Network, id graph.NodeID) map[graph.NodeID]bool {
	seen := make(map[graph.NodeID]bool)
	work := []graph.NodeID{id}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		node, ok := net.Nodes[cur]
		if !ok || seen[cur] {
			continue
		}
		seen[cur] = true
		if node == nil {
			continue
		}
		for _, in := range node.Inputs {
			if in.Kind == graph.InputNode {
				work = append(work, in.Node)
			}
		}
	}
	return seen
}

// expand inlines start and every body below it using an explicit stack, so
// nesting depth is bounded by memory rather than the call stack.
func expand(doc *graph.Document, flat *FlatNetwork, start frame) error {
	stack := []frame{start}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ids := f.net.SortedIDs()
		// Push bodies in reverse so the lowest id is expanded first.
		var pending []frame
		for _, id := range ids {
			if f.only != nil && !f.only[id] {
				continue
			}
			node := f.net.Nodes[id]
			path := f.prefix.Child(id)
			key := path.String()

			inputs := make([]Ref, len(node.Inputs))
			for i, in := range node.Inputs {
				inputs[i] = f.translate(in)
			}

			if !node.IsComposite() {
				flat.Nodes[key] = &FlatNode{Key: key, Op: node.Op, Inputs: inputs}
				continue
			}

			body := doc.Network(node.Body)
			if body == nil {
				return &CompileError{
					Code:    ErrCodeInvalidGraph,
					Message: fmt.Sprintf("composite body %d does not exist", node.Body),
					Node:    key,
					Op:      node.Op,
					Slot:    -1,
				}
			}

			pass := Ref{Kind: RefUnwired}
			if len(body.Outputs) > 0 {
				pass = Ref{Kind: RefNode, Node: path.Child(body.Outputs[0].Node).String()}
			}
			flat.Nodes[key] = &FlatNode{
				Key:     key,
				Op:      identityOp,
				Inputs:  []Ref{pass},
				Unbound: unboundSlots(body, inputs),
			}
			pending = append(pending, frame{net: body, prefix: path, bindings: inputs})
		}
		slices.Reverse(pending)
		stack = append(stack, pending...)
	}
	return nil
}

// translate rewrites an author input into flat terms for this frame.
func (f *frame) translate(in graph.Input) Ref {
	switch in.Kind {
	case graph.InputValue:
		return Ref{Kind: RefValue, Value: in.Value}
	case graph.InputNode:
		return Ref{Kind: RefNode, Node: f.prefix.Child(in.Node).String()}
	case graph.InputParam:
		if f.root {
			return Ref{Kind: RefExternal, Slot: in.Param}
		}
		if in.Param >= 0 && in.Param < len(f.bindings) {
			return f.bindings[in.Param]
		}
		// Nothing bound: the slot surfaces as a missing input.
		return Ref{Kind: RefUnwired}
	default:
		return Ref{Kind: RefUnwired, Value: in.Value, Optional: in.Optional}
	}
}

// unboundSlots returns the required composite inputs that are left unwired
// and that no node of body reads. Slots the body does read fail at the
// reading node instead.
func unboundSlots(body *graph.Network, bindings []Ref) []int {
	var slots []int
	for slot, ref := range bindings {
		if ref.Kind != RefUnwired || ref.Value != nil || ref.Optional {
			continue
		}
		if !readsParam(body, slot) {
			slots = append(slots, slot)
		}
	}
	return slots
}

func readsParam(net *graph.Network, slot int) bool {
	for _, node := range net.Nodes {
		if node == nil {
			continue
		}
		for _, in := range node.Inputs {
			if in.Kind == graph.InputParam && in.Param == slot {
				return true
			}
		}
	}
	return false
}
