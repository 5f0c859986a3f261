package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slayyden/Graphite/internal/graph"
	"github.com/slayyden/Graphite/internal/testutil"
)

// mutualRecursion builds main -> A -> B -> A, with C a harmless leaf body
// of B.
func mutualRecursion() *graph.Document {
	doc := graph.NewDocument()
	main := graph.NewNetwork("main", 0)
	doc.AddNetwork(main)
	a := graph.NewNetwork("A", 0)
	aID := doc.AddNetwork(a)
	b := graph.NewNetwork("B", 0)
	bID := doc.AddNetwork(b)
	c := testutil.Net("C", 0, testutil.Prim(1, "noise"))
	c.AddOutput("out", 1)
	cID := doc.AddNetwork(c)

	main.Add(testutil.Comp(1, aID)).AddOutput("out", 1)
	a.Add(testutil.Comp(1, bID)).AddOutput("out", 1)
	b.Add(testutil.Comp(1, cID)).Add(testutil.Comp(2, aID)).AddOutput("out", 2)
	return doc
}

func TestCheckCompositionMutualRecursion(t *testing.T) {
	doc := mutualRecursion()

	cerr := checkComposition(doc, doc.Root)
	require.NotNil(t, cerr)
	assert.Equal(t, ErrCodeCyclicComposition, cerr.Code)
	assert.Equal(t, []string{"A", "B", "A"}, cerr.Path)
	assert.Contains(t, cerr.Error(), "A -> B -> A")
}

func TestCheckCompositionAcyclic(t *testing.T) {
	doc := testutil.CompositeChain()
	assert.Nil(t, checkComposition(doc, doc.Root))
}

func TestCheckCompositionOnlyFollowsReachableBodies(t *testing.T) {
	doc := mutualRecursion()
	// C is a leaf, so starting there never meets the A/B cycle.
	cID, ok := doc.Lookup("C")
	require.True(t, ok)
	assert.Nil(t, checkComposition(doc, cID))
}

func TestBuildCompositionGraphSkipsMissingBodies(t *testing.T) {
	doc := graph.NewDocument()
	main := testutil.Net("main", 0, testutil.Comp(1, 9))
	main.AddOutput("out", 1)
	doc.AddNetwork(main)

	g := buildCompositionGraph(doc, doc.Root)
	assert.Equal(t, compositionGraph{1: {}}, g)
}

func TestTarjanSCC(t *testing.T) {
	g := compositionGraph{
		1: {2},
		2: {3},
		3: {2, 4},
		4: {},
	}
	sccs := tarjanSCC(g)

	var multi [][]graph.NetworkID
	for _, scc := range sccs {
		if len(scc) > 1 {
			multi = append(multi, scc)
		}
	}
	assert.Equal(t, [][]graph.NetworkID{{2, 3}}, multi)
	assert.Len(t, sccs, 3)
}
