package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

func runTestCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeScenarioDir creates a scenarios directory holding one scenario for
// testdata/chain.yaml.
func writeScenarioDir(t *testing.T, nodes int) string {
	t.Helper()
	graph, err := filepath.Abs("testdata/chain.yaml")
	require.NoError(t, err)

	dir := t.TempDir()
	body := fmt.Sprintf(`name: chain
description: chain with a dead node
graph: %s
outputs:
  - name: out
    nodes: %d
`, graph, nodes)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chain.yaml"), []byte(body), 0o644))
	return dir
}

func TestRunHarnessScenarios(t *testing.T) {
	out, err := runTestCmd(t, "text", harnessScenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ composite_chain")
	assert.Contains(t, out, "✓ self_instantiating")
	assert.Contains(t, out, "Test Summary: 6 passed, 0 failed, 6 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestRunHarnessScenariosJSON(t *testing.T) {
	out, err := runTestCmd(t, "json", harnessScenarios, "--filter", "two_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "two_outputs", resp.Data.Scenarios[0].Name)
	assert.Equal(t, "two_outputs-0001", resp.Data.Scenarios[0].CompilationID)
}

func TestParallelRunKeepsOrder(t *testing.T) {
	decode := func(out string) TestResult {
		var resp struct {
			Data TestResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data
	}

	serial, err := runTestCmd(t, "json", harnessScenarios)
	require.NoError(t, err)
	parallel, err := runTestCmd(t, "json", harnessScenarios, "--parallel", "4")
	require.NoError(t, err)

	if diff := cmp.Diff(decode(serial), decode(parallel)); diff != "" {
		t.Errorf("parallel run differs from serial run (-serial +parallel):\n%s", diff)
	}
}

func TestRunFailingScenario(t *testing.T) {
	dir := writeScenarioDir(t, 4)

	out, err := runTestCmd(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ chain")
	assert.Contains(t, out, "Expected: 4 nodes")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestGoldenUpdateAndCompare(t *testing.T) {
	dir := writeScenarioDir(t, 3)

	out, err := runTestCmd(t, "text", dir, "--update")
	require.NoError(t, err, out)

	golden, err := os.ReadFile(goldenFilePath(dir, "chain"))
	require.NoError(t, err)
	assert.Equal(t, "scenario chain\noutput out\n#0 const(1.0)\n#1 scale(#0)\n#2 blend(#1)\n", string(golden))

	_, err = runTestCmd(t, "text", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenFilePath(dir, "chain"), []byte("scenario chain\n"), 0o644))
	out, err = runTestCmd(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestRunTestsNoScenarios(t *testing.T) {
	out, err := runTestCmd(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	out, err = runTestCmd(t, "text", harnessScenarios, "--filter", "nothing_*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestRunTestsCommandErrors(t *testing.T) {
	_, err := runTestCmd(t, "text", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = runTestCmd(t, "text", harnessScenarios, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = runTestCmd(t, "text", harnessScenarios, "--parallel", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: x\n"), 0o644))
	_, err = runTestCmd(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
