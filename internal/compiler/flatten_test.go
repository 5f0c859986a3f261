package compiler

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slayyden/Graphite/internal/graph"
	"github.com/slayyden/Graphite/internal/ir"
	"github.com/slayyden/Graphite/internal/testutil"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestFlattenCompositeChainGolden(t *testing.T) {
	flat, err := Flatten(testutil.CompositeChain())
	require.NoError(t, err)

	newGolden(t).Assert(t, "composite_chain_flat", []byte(flat.Dump()))
}

func TestFlattenPrefixesInlinedNodes(t *testing.T) {
	flat, err := Flatten(testutil.CompositeChain())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "1/1", "1/2", "2", "2/1", "2/2"}, flat.SortedKeys())
	assert.Equal(t, []FlatOutput{{Name: "out", Node: "2"}}, flat.Outputs)
}

func TestFlattenRewritesParameters(t *testing.T) {
	flat, err := Flatten(testutil.CompositeChain())
	require.NoError(t, err)

	// Root parameter 0 becomes an external slot; the second instance reads
	// the first composite node.
	assert.Equal(t, Ref{Kind: RefExternal, Slot: 0}, flat.Nodes["1/1"].Inputs[0])
	assert.Equal(t, Ref{Kind: RefNode, Node: "1"}, flat.Nodes["2/1"].Inputs[0])
}

func TestFlattenReplacesCompositeWithPassThrough(t *testing.T) {
	flat, err := Flatten(testutil.CompositeChain())
	require.NoError(t, err)

	node := flat.Nodes["2"]
	require.NotNil(t, node)
	assert.Equal(t, graph.IdentityOp, node.Op)
	assert.Equal(t, []Ref{{Kind: RefNode, Node: "2/2"}}, node.Inputs)
	assert.True(t, node.IsPassThrough())
}

func TestFlattenNestedComposites(t *testing.T) {
	doc := graph.NewDocument()
	root := testutil.Net("main", 1)
	rootID := doc.AddNetwork(root)

	inner := testutil.Net("inner", 1, testutil.Prim(1, "neg", graph.FromParam(0)))
	inner.AddOutput("out", 1)
	innerID := doc.AddNetwork(inner)

	outer := testutil.Net("outer", 1,
		testutil.Comp(1, innerID, graph.FromParam(0)),
		testutil.Prim(2, "abs", graph.FromNode(1)),
	)
	outer.AddOutput("out", 2)
	outerID := doc.AddNetwork(outer)

	root.Add(testutil.Comp(5, outerID, graph.FromParam(0)))
	root.AddOutput("result", 5)
	doc.Root = rootID

	flat, err := Flatten(doc)
	require.NoError(t, err)
	assert.Equal(t, "5 identity(@5/2)\n"+
		"5/1 identity(@5/1/1)\n"+
		"5/1/1 neg($0)\n"+
		"5/2 abs(@5/1)\n"+
		"output result -> 5\n", flat.Dump())
}

func TestFlattenDefaultsAndOptionalThroughBindings(t *testing.T) {
	doc := graph.NewDocument()
	root := testutil.Net("main", 0)
	doc.AddNetwork(root)

	body := testutil.Net("body", 2, testutil.Prim(1, "mix", graph.FromParam(0), graph.FromParam(1)))
	body.AddOutput("out", 1)
	bodyID := doc.AddNetwork(body)

	root.Add(testutil.Comp(1, bodyID, graph.WithDefault(ir.IRInt(3)), graph.Optional()))
	root.AddOutput("out", 1)

	flat, err := Flatten(doc)
	require.NoError(t, err)
	assert.Equal(t, []Ref{
		{Kind: RefUnwired, Value: ir.IRInt(3)},
		{Kind: RefUnwired, Optional: true},
	}, flat.Nodes["1/1"].Inputs)
}

func TestFlattenDeepNestingUsesExplicitStack(t *testing.T) {
	const depth = 200

	doc := graph.NewDocument()
	root := testutil.Net("main", 1)
	rootID := doc.AddNetwork(root)

	ids := make([]graph.NetworkID, depth)
	nets := make([]*graph.Network, depth)
	for i := range depth {
		nets[i] = testutil.Net(fmt.Sprintf("level%03d", i), 1)
		ids[i] = doc.AddNetwork(nets[i])
	}
	for i := range depth {
		if i == depth-1 {
			nets[i].Add(testutil.Prim(1, "leaf", graph.FromParam(0)))
		} else {
			nets[i].Add(testutil.Comp(1, ids[i+1], graph.FromParam(0)))
		}
		nets[i].AddOutput("out", 1)
	}
	root.Add(testutil.Comp(1, ids[0], graph.FromParam(0)))
	root.AddOutput("out", 1)
	doc.Root = rootID

	flat, err := Flatten(doc)
	require.NoError(t, err)
	assert.Equal(t, depth+1, flat.Len())

	assert.Equal(t, depth, EliminateRedundant(flat))
	require.Equal(t, 1, flat.Len())
	for _, node := range flat.Nodes {
		assert.Equal(t, "leaf", node.Op)
		assert.Equal(t, []Ref{{Kind: RefExternal, Slot: 0}}, node.Inputs)
	}
}

func TestFlattenCyclicComposition(t *testing.T) {
	flat, err := Flatten(testutil.SelfInstantiating())
	require.Error(t, err)
	assert.Nil(t, flat, "no flattening output on cyclic composition")

	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrCodeCyclicComposition, cerr.Code)
	assert.Equal(t, []string{"loop", "loop"}, cerr.Path)
	assert.ErrorIs(t, err, ErrCyclicComposition)
}

func TestFlattenMutualComposition(t *testing.T) {
	doc := graph.NewDocument()
	root := testutil.Net("main", 0)
	doc.AddNetwork(root)
	a := testutil.Net("a", 0)
	aID := doc.AddNetwork(a)
	b := testutil.Net("b", 0)
	bID := doc.AddNetwork(b)

	a.Add(testutil.Comp(1, bID))
	a.AddOutput("out", 1)
	b.Add(testutil.Comp(1, aID))
	b.AddOutput("out", 1)
	root.Add(testutil.Comp(1, aID))
	root.AddOutput("out", 1)

	_, err := Flatten(doc)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"a", "b", "a"}, cerr.Path)
}

func TestFlattenUnreachableCycleIsIgnored(t *testing.T) {
	doc := testutil.ChainWithDeadNode()
	loop := testutil.Net("loop", 0)
	loopID := doc.AddNetwork(loop)
	loop.Add(testutil.Comp(1, loopID))
	loop.AddOutput("out", 1)

	_, err := Flatten(doc)
	assert.NoError(t, err, "only compositions reachable from the root are checked")
}

func TestFlattenMissingBody(t *testing.T) {
	doc := graph.NewDocument()
	root := testutil.Net("main", 0, testutil.Comp(1, 42))
	root.AddOutput("out", 1)
	doc.AddNetwork(root)

	_, err := Flatten(doc)
	assert.Equal(t, ErrCodeInvalidGraph, CodeOf(err))
}

func TestFlattenNoRoot(t *testing.T) {
	_, err := Flatten(graph.NewDocument())
	assert.ErrorIs(t, err, ErrInvalidGraph)

	_, err = Flatten(nil)
	assert.ErrorIs(t, err, ErrInvalidGraph)
}

func TestFlattenNodeExpandsOnlySubtree(t *testing.T) {
	flat, err := FlattenNode(testutil.ChainWithDeadNode(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, flat.SortedKeys())
	assert.Equal(t, []FlatOutput{{Name: "2", Node: "2"}}, flat.Outputs)

	flat, err = FlattenNode(testutil.ChainWithDeadNode(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, flat.SortedKeys())
	assert.Equal(t, []FlatOutput{{Name: "out", Node: "3"}}, flat.Outputs)
}

func TestFlattenNodeExpandsComposites(t *testing.T) {
	flat, err := FlattenNode(testutil.CompositeChain(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1/1", "1/2"}, flat.SortedKeys())
}

func TestFlattenNodeUnknownNode(t *testing.T) {
	_, err := FlattenNode(testutil.ChainWithDeadNode(), 99)
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestFlattenPath(t *testing.T) {
	flat, err := FlattenPath(testutil.CompositeChain(), graph.Path{2, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1/1", "1/2", "2/1"}, flat.SortedKeys())
	assert.Equal(t, []FlatOutput{{Name: "2/1", Node: "2/1"}}, flat.Outputs)

	flat, err = FlattenPath(testutil.CompositeChain(), graph.Path{1})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1/1", "1/2"}, flat.SortedKeys())

	_, err = FlattenPath(testutil.CompositeChain(), graph.Path{2, 9})
	assert.ErrorIs(t, err, ErrDanglingReference)

	_, err = FlattenPath(testutil.CompositeChain(), graph.Path{})
	assert.ErrorIs(t, err, ErrInvalidGraph)
}

func TestFlattenDoesNotMutateDocument(t *testing.T) {
	doc := testutil.CompositeChain()
	before := doc.Clone()

	_, err := Flatten(doc)
	require.NoError(t, err)
	assert.Equal(t, before, doc)
}
