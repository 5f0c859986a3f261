package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/two_outputs.yaml")
	require.NoError(t, err)

	assert.Equal(t, "two_outputs", s.Name)
	assert.Equal(t, filepath.Join("testdata", "graphs", "two_outputs.yaml"), s.Graph)
	require.Len(t, s.Outputs, 2)
	assert.Equal(t, "color", s.Outputs[0].Name)
	require.NotNil(t, s.Outputs[0].Nodes)
	assert.Equal(t, 2, *s.Outputs[0].Nodes)
	require.Len(t, s.Assertions, 2)
	assert.Equal(t, AssertSharedNodes, s.Assertions[0].Type)
	assert.Equal(t, 1, s.Assertions[0].Count)
}

func TestLoadScenarios_Sorted(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"chain_dead_node",
		"composite_chain",
		"missing_input",
		"self_instantiating",
		"two_outputs",
		"unwired_defaults",
	}, names)
}

func TestLoadScenario_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "g.yaml", "networks: {}\n")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", "name: a\ndescription: d\ngraph: g.yaml\nerror: X\nexpect: 1\n", "field expect not found"},
		{"missing name", "description: d\ngraph: g.yaml\nerror: X\n", "name is required"},
		{"missing description", "name: a\ngraph: g.yaml\nerror: X\n", "description is required"},
		{"missing graph", "name: a\ndescription: d\nerror: X\n", "graph is required"},
		{"graph not found", "name: a\ndescription: d\ngraph: nope.yaml\nerror: X\n", "graph file not found"},
		{"nothing expected", "name: a\ndescription: d\ngraph: g.yaml\n", "either error or outputs"},
		{"duplicate output", "name: a\ndescription: d\ngraph: g.yaml\noutputs: [{name: o}, {name: o}]\n", "duplicate output"},
		{"error with nodes", "name: a\ndescription: d\ngraph: g.yaml\noutputs: [{name: o, error: X, nodes: 1}]\n", "error excludes"},
		{"zero nodes", "name: a\ndescription: d\ngraph: g.yaml\noutputs: [{name: o, nodes: 0}]\n", "nodes must be positive"},
		{"unknown assertion", "name: a\ndescription: d\ngraph: g.yaml\nerror: X\nassertions: [{type: bogus}]\n", "unknown assertion type"},
		{"ops without output", "name: a\ndescription: d\ngraph: g.yaml\nerror: X\nassertions: [{type: ops_absent, ops: [x]}]\n", "output is required"},
		{"shared with one output", "name: a\ndescription: d\ngraph: g.yaml\nerror: X\nassertions: [{type: shared_nodes, outputs: [o]}]\n", "at least two outputs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, dir, "s.yaml", tt.body)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarios_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: [\n")
	writeScenario(t, dir, "notes.txt", "ignored")

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestLoadScenarios_MissingDir(t *testing.T) {
	_, err := LoadScenarios(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
