package proto

import (
	"errors"
	"fmt"
	"slices"

	"github.com/slayyden/Graphite/internal/dag"
)

var (
	// ErrMissingRoot is returned when the root identity names no node.
	ErrMissingRoot = errors.New("root node missing")
	// ErrDanglingProducer is returned when an input names no node.
	ErrDanglingProducer = errors.New("dangling producer")
	// ErrKeyMismatch is returned when a node is stored under a foreign key.
	ErrKeyMismatch = errors.New("node stored under wrong identity")
)

// Validate checks the structural invariants of a compiled network: the root
// exists, every producer exists, and the graph is acyclic.
func (n *Network) Validate() error {
	if _, ok := n.Nodes[n.Root]; !ok {
		return fmt.Errorf("network %q: %w: %s", n.Output, ErrMissingRoot, n.Root.Short())
	}
	for _, id := range n.SortedIDs() {
		node := n.Nodes[id]
		if node.ID != id {
			return fmt.Errorf("network %q: %w: %s holds %s", n.Output, ErrKeyMismatch, id.Short(), node.ID.Short())
		}
		for slot, in := range node.Inputs {
			if in.Kind != InputNode {
				continue
			}
			if _, ok := n.Nodes[in.Node]; !ok {
				return fmt.Errorf("network %q: node %s input %d: %w: %s",
					n.Output, id.Short(), slot, ErrDanglingProducer, in.Node.Short())
			}
		}
	}
	if _, err := n.TopologicalOrder(); err != nil {
		return fmt.Errorf("network %q: %w", n.Output, err)
	}
	return nil
}

// producers returns the distinct node identities a node reads from.
func (node *Node) producers() []ID {
	var out []ID
	for _, in := range node.Inputs {
		if in.Kind == InputNode && !slices.Contains(out, in.Node) {
			out = append(out, in.Node)
		}
	}
	return out
}

// TopologicalOrder returns node identities with producers first, ties broken
// by identity. A cycle returns *dag.CycleError.
func (n *Network) TopologicalOrder() ([]ID, error) {
	keys := make([]string, 0, len(n.Nodes))
	for id := range n.Nodes {
		keys = append(keys, string(id))
	}
	g := dag.New(keys, func(k string) []string {
		var deps []string
		for _, p := range n.Nodes[ID(k)].producers() {
			deps = append(deps, string(p))
		}
		return deps
	})
	order, err := g.Order()
	if err != nil {
		return nil, err
	}
	ids := make([]ID, len(order))
	for i, k := range order {
		ids[i] = ID(k)
	}
	return ids, nil
}

// Producers returns the transitive producers of id, excluding id itself
// unless it lies on a cycle. The result is sorted.
func (n *Network) Producers(id ID) []ID {
	seen := make(map[ID]bool)
	var work []ID
	if node := n.Nodes[id]; node != nil {
		work = append(work, node.producers()...)
	}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if node := n.Nodes[cur]; node != nil {
			work = append(work, node.producers()...)
		}
	}
	out := make([]ID, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
