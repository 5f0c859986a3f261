package testutil

import (
	"github.com/slayyden/Graphite/internal/graph"
	"github.com/slayyden/Graphite/internal/ir"
)

// Prim returns a primitive node.
func Prim(id graph.NodeID, op string, inputs ...graph.Input) *graph.Node {
	return &graph.Node{ID: id, Op: op, Inputs: inputs}
}

// Comp returns a composite node instantiating body.
func Comp(id graph.NodeID, body graph.NetworkID, inputs ...graph.Input) *graph.Node {
	return &graph.Node{ID: id, Op: "group", Inputs: inputs, Body: body}
}

// Net builds a network from nodes.
func Net(name string, params int, nodes ...*graph.Node) *graph.Network {
	n := graph.NewNetwork(name, params)
	for _, node := range nodes {
		n.Add(node)
	}
	return n
}

// ChainWithDeadNode returns A -> B -> C with C as output "out", plus a node
// D that nothing reads.
//
//	1 const(1.0)  2 scale(@1)  3 blend(@2)  4 noise(7)
func ChainWithDeadNode() *graph.Document {
	doc := graph.NewDocument()
	main := Net("main", 0,
		Prim(1, "const", graph.Literal(ir.IRFloat(1))),
		Prim(2, "scale", graph.FromNode(1)),
		Prim(3, "blend", graph.FromNode(2)),
		Prim(4, "noise", graph.Literal(ir.IRInt(7))),
	)
	main.AddOutput("out", 3)
	doc.AddNetwork(main)
	return doc
}

// CompositeChain returns a body G wrapping X -> Y, instantiated twice and
// wired $0 -> G1 -> G2 -> output "out".
func CompositeChain() *graph.Document {
	doc := graph.NewDocument()
	main := graph.NewNetwork("main", 1)
	mainID := doc.AddNetwork(main)

	body := Net("G", 1,
		Prim(1, "blur", graph.FromParam(0)),
		Prim(2, "sharpen", graph.FromNode(1)),
	)
	body.AddOutput("out", 2)
	bodyID := doc.AddNetwork(body)

	main.Add(Comp(1, bodyID, graph.FromParam(0)))
	main.Add(Comp(2, bodyID, graph.FromNode(1)))
	main.AddOutput("out", 2)
	doc.Root = mainID
	return doc
}

// SelfInstantiating returns a root whose composite node instantiates a
// body that instantiates itself.
func SelfInstantiating() *graph.Document {
	doc := graph.NewDocument()
	main := graph.NewNetwork("main", 0)
	doc.AddNetwork(main)

	loop := graph.NewNetwork("loop", 0)
	loopID := doc.AddNetwork(loop)
	loop.Add(Comp(1, loopID))
	loop.AddOutput("out", 1)

	main.Add(Comp(1, loopID))
	main.AddOutput("out", 1)
	return doc
}

// MissingInput returns a graph whose output node "mix" (id 2) leaves its
// second input unwired.
func MissingInput() *graph.Document {
	doc := graph.NewDocument()
	main := Net("main", 0,
		Prim(1, "const", graph.Literal(ir.IRFloat(0.5))),
		Prim(2, "mix", graph.FromNode(1), graph.Unwired()),
	)
	main.AddOutput("out", 2)
	doc.AddNetwork(main)
	return doc
}

// TwoOutputs returns a graph whose outputs "color" and "alpha" share the
// node "src" (id 1).
func TwoOutputs() *graph.Document {
	doc := graph.NewDocument()
	main := Net("main", 1,
		Prim(1, "src", graph.FromParam(0)),
		Prim(2, "tint", graph.FromNode(1), graph.Literal(ir.IRString("red"))),
		Prim(3, "alpha", graph.FromNode(1)),
	)
	main.AddOutput("color", 2)
	main.AddOutput("alpha", 3)
	doc.AddNetwork(main)
	return doc
}

// Renumber returns a copy of doc with every node id in every network
// replaced by f(id), wiring and outputs rewritten to match. f must be
// injective.
func Renumber(doc *graph.Document, f func(graph.NodeID) graph.NodeID) *graph.Document {
	out := doc.Clone()
	for _, id := range out.NetworkIDs() {
		net := out.Network(id)
		nodes := make(map[graph.NodeID]*graph.Node, len(net.Nodes))
		for _, node := range net.Nodes {
			node.ID = f(node.ID)
			for i, in := range node.Inputs {
				if in.Kind == graph.InputNode {
					node.Inputs[i].Node = f(in.Node)
				}
			}
			nodes[node.ID] = node
		}
		net.Nodes = nodes
		for i := range net.Outputs {
			net.Outputs[i].Node = f(net.Outputs[i].Node)
		}
	}
	return out
}
