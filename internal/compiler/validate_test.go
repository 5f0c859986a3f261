package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slayyden/Graphite/internal/graph"
	"github.com/slayyden/Graphite/internal/testutil"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateFixturesAreValid(t *testing.T) {
	for name, doc := range map[string]*graph.Document{
		"chain":     testutil.ChainWithDeadNode(),
		"composite": testutil.CompositeChain(),
		"missing":   testutil.MissingInput(),
		"self":      testutil.SelfInstantiating(),
		"two":       testutil.TwoOutputs(),
	} {
		assert.Empty(t, Validate(doc), name)
	}
}

func TestValidateNoRoot(t *testing.T) {
	assert.Equal(t, []string{ErrNoRootNetwork}, codes(Validate(graph.NewDocument())))
}

func TestValidateEmptyOp(t *testing.T) {
	doc := graph.NewDocument()
	doc.AddNetwork(testutil.Net("main", 0, testutil.Prim(1, "  ")))

	errs := Validate(doc)
	assert.Equal(t, []string{ErrEmptyOp}, codes(errs))
	assert.Equal(t, "networks.main.nodes.1.op", errs[0].Field)
}

func TestValidateUnknownBody(t *testing.T) {
	doc := graph.NewDocument()
	doc.AddNetwork(testutil.Net("main", 0, testutil.Comp(1, 9)))

	assert.Equal(t, []string{ErrUnknownBody}, codes(Validate(doc)))
}

func TestValidateNodeKeyMismatch(t *testing.T) {
	doc := graph.NewDocument()
	net := testutil.Net("main", 0)
	net.Nodes[1] = &graph.Node{ID: 2, Op: "x"}
	net.Nodes[3] = nil
	doc.AddNetwork(net)

	assert.Equal(t, []string{ErrNodeKeyMismatch, ErrNodeKeyMismatch}, codes(Validate(doc)))
}

func TestValidateParamOutOfRange(t *testing.T) {
	doc := graph.NewDocument()
	doc.AddNetwork(testutil.Net("main", 1,
		testutil.Prim(1, "a", graph.FromParam(0)),
		testutil.Prim(2, "b", graph.FromParam(1)),
		testutil.Prim(3, "c", graph.FromParam(-1)),
	))

	errs := Validate(doc)
	assert.Equal(t, []string{ErrParamOutOfRange, ErrParamOutOfRange}, codes(errs))
	assert.Equal(t, "networks.main.nodes.2.inputs[0]", errs[0].Field)
}

func TestValidateOutputs(t *testing.T) {
	doc := graph.NewDocument()
	net := testutil.Net("main", 0, testutil.Prim(1, "a"))
	net.AddOutput("x", 1)
	net.AddOutput("x", 1)
	net.AddOutput("", 1)
	net.AddOutput("y", 5)
	doc.AddNetwork(net)

	assert.Equal(t, []string{ErrDuplicateOutput, ErrEmptyOutputName, ErrUnknownOutputNode}, codes(Validate(doc)))
}

func TestValidateCompositeBody(t *testing.T) {
	doc := graph.NewDocument()
	main := testutil.Net("main", 0)
	doc.AddNetwork(main)
	body := testutil.Net("body", 2, testutil.Prim(1, "x"))
	bodyID := doc.AddNetwork(body)
	main.Add(testutil.Comp(1, bodyID, graph.Unwired()))

	errs := Validate(doc)
	assert.Equal(t, []string{ErrBodyNoOutputs, ErrBindingArity}, codes(errs))
	assert.Contains(t, errs[1].Message, "1 inputs, body body takes 2")
}

func TestValidateCollectsAcrossNetworks(t *testing.T) {
	doc := graph.NewDocument()
	doc.AddNetwork(testutil.Net("a", 0, testutil.Prim(1, "")))
	doc.AddNetwork(testutil.Net("b", 0, testutil.Prim(1, "")))

	errs := Validate(doc)
	assert.Len(t, errs, 2)
	assert.Equal(t, "networks.a.nodes.1.op", errs[0].Field)
	assert.Equal(t, "networks.b.nodes.1.op", errs[1].Field)
}

func TestValidationErrorString(t *testing.T) {
	err := ValidationError{Field: "networks.main", Message: "bad", Code: ErrEmptyOp}
	assert.Equal(t, "[E201] networks.main: bad", err.Error())
}
