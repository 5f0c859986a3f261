package compiler

import (
	"errors"

	"github.com/slayyden/Graphite/internal/dag"
	"github.com/slayyden/Graphite/internal/ir"
	"github.com/slayyden/Graphite/internal/proto"
)

// AssignIdentities folds a resolved partition in dependency order, giving
// each node an identity hashed from its operation and its inputs, where a
// producer contributes its own already computed identity. Flat keys never
// enter the hash, so renaming author nodes leaves identities unchanged and
// structurally identical nodes collapse into one.
//
// The key to identity map lives only for this call.
func AssignIdentities(res *Resolved) (*proto.Network, error) {
	keys := make([]string, 0, len(res.Nodes))
	for k := range res.Nodes {
		keys = append(keys, k)
	}
	g := dag.New(keys, func(k string) []string {
		var deps []string
		for _, in := range res.Nodes[k].Inputs {
			if in.Kind == proto.InputNode {
				deps = append(deps, in.Node)
			}
		}
		return deps
	})

	order, err := g.Order()
	if err != nil {
		var cerr *dag.CycleError
		if errors.As(err, &cerr) {
			return nil, newCycleDetected(res.Output, cerr.Path)
		}
		return nil, err
	}

	ids := make(map[string]proto.ID, len(order))
	net := proto.NewNetwork(res.Output)
	for _, key := range order {
		rn := res.Nodes[key]
		inputs := make([]proto.Input, len(rn.Inputs))
		encoded := make(ir.IRArray, len(rn.Inputs))
		for i, in := range rn.Inputs {
			switch in.Kind {
			case proto.InputNode:
				inputs[i] = proto.FromNode(ids[in.Node])
			case proto.InputValue:
				inputs[i] = proto.Literal(in.Value)
			case proto.InputExternal:
				inputs[i] = proto.External(in.Slot)
			default:
				inputs[i] = proto.None()
			}
			encoded[i] = inputs[i].Encode()
		}

		id, err := ir.NodeIdentity(rn.Op, encoded)
		if err != nil {
			return nil, &CompileError{
				Code:    ErrCodeInvalidGraph,
				Message: "cannot hash node",
				Output:  res.Output,
				Node:    key,
				Op:      rn.Op,
				Slot:    -1,
				Err:     err,
			}
		}
		ids[key] = proto.ID(id)
		net.Add(&proto.Node{ID: proto.ID(id), Op: rn.Op, Inputs: inputs})
	}

	net.Root = ids[res.Root]
	return net, nil
}
