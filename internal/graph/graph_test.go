package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slayyden/Graphite/internal/ir"
)

func TestDocumentArena(t *testing.T) {
	doc := NewDocument()
	main := doc.AddNetwork(NewNetwork("main", 0))
	body := doc.AddNetwork(NewNetwork("body", 1))

	assert.Equal(t, NetworkID(1), main)
	assert.Equal(t, NetworkID(2), body)
	assert.Equal(t, main, doc.Root, "first network becomes the root")
	assert.Equal(t, 2, doc.Len())
	assert.Equal(t, "body", doc.Network(body).Name)
	assert.Nil(t, doc.Network(NoNetwork))
	assert.Nil(t, doc.Network(3))

	id, ok := doc.Lookup("body")
	require.True(t, ok)
	assert.Equal(t, body, id)

	_, ok = doc.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []NetworkID{1, 2}, doc.NetworkIDs())
	assert.Equal(t, "#9", doc.NetworkName(9))
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := NewDocument()
	net := NewNetwork("main", 0)
	net.Add(&Node{ID: 1, Op: "const", Inputs: []Input{Literal(ir.IRInt(1))}})
	net.AddOutput("out", 1)
	doc.AddNetwork(net)

	clone := doc.Clone()
	clone.RootNetwork().Nodes[1].Inputs[0] = Literal(ir.IRInt(2))
	clone.RootNetwork().Nodes[1].Op = "changed"
	clone.RootNetwork().Outputs[0].Name = "renamed"
	clone.RootNetwork().Add(&Node{ID: 2, Op: "extra"})

	orig := doc.RootNetwork()
	assert.Equal(t, ir.IRInt(1), orig.Nodes[1].Inputs[0].Value)
	assert.Equal(t, "const", orig.Nodes[1].Op)
	assert.Equal(t, "out", orig.Outputs[0].Name)
	assert.Len(t, orig.Nodes, 1)
}

func TestNetworkSortedIDs(t *testing.T) {
	net := NewNetwork("n", 0)
	for _, id := range []NodeID{10, 2, 7} {
		net.Add(&Node{ID: id, Op: "x"})
	}
	assert.Equal(t, []NodeID{2, 7, 10}, net.SortedIDs())
}

func TestInputConstructors(t *testing.T) {
	assert.Equal(t, InputValue, Literal(ir.IRBool(true)).Kind)
	assert.Equal(t, Input{Kind: InputNode, Node: 4}, FromNode(4))
	assert.Equal(t, Input{Kind: InputParam, Param: 1}, FromParam(1))
	assert.Equal(t, Input{Kind: InputUnwired}, Unwired())
	assert.True(t, Optional().Optional)
	assert.Equal(t, ir.IRFloat(0.5), WithDefault(ir.IRFloat(0.5)).Value)
	assert.Equal(t, "param", InputParam.String())
	assert.Equal(t, "InputKind(9)", InputKind(9).String())
}

func TestNodeIsComposite(t *testing.T) {
	assert.False(t, (&Node{ID: 1, Op: "x"}).IsComposite())
	assert.True(t, (&Node{ID: 1, Body: 2}).IsComposite())
}

func TestPath(t *testing.T) {
	p := Path{4}
	child := p.Child(2).Child(7)

	assert.Equal(t, "4", p.String(), "Child must not modify the receiver")
	assert.Equal(t, "4/2/7", child.String())
	assert.Equal(t, "", Path{}.String())

	parsed, err := ParsePath("4/2/7")
	require.NoError(t, err)
	assert.Equal(t, child, parsed)

	empty, err := ParsePath("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParsePath("4/x")
	assert.Error(t, err)
}
