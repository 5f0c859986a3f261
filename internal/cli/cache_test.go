package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slayyden/Graphite/internal/store"
)

// compileIntoCache compiles a graph into a fresh cache and returns the
// cache path and the compile report.
func compileIntoCache(t *testing.T, graph string) (string, CompileReport) {
	t.Helper()
	cache := filepath.Join(t.TempDir(), "cache.db")
	stdout, _, err := execute(t, "--cache", cache, "--format", "json", "compile", graph)
	require.NoError(t, err)
	_, report := compileReportJSON(t, []byte(stdout))
	return cache, report
}

func TestCacheList(t *testing.T) {
	cache, report := compileIntoCache(t, "testdata/two_outputs.yaml")
	require.NotEmpty(t, report.CompilationID)

	stdout, _, err := execute(t, "--cache", cache, "--format", "json", "cache", "list")
	require.NoError(t, err)

	var resp struct {
		Status string              `json:"status"`
		Data   []store.NetworkInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "color", resp.Data[0].Output)
	assert.Equal(t, report.Outputs[0].Root, resp.Data[0].Root)
	assert.Equal(t, "alpha", resp.Data[1].Output)
	assert.Equal(t, 2, resp.Data[1].NodeCount)

	stdout, _, err = execute(t, "--cache", cache, "cache", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 cached network(s)")
	assert.Contains(t, stdout, report.Outputs[1].Root.Short())
}

func TestCacheListEmpty(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "cache.db")
	stdout, _, err := execute(t, "--cache", cache, "cache", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cache is empty.")
}

func TestCacheShow(t *testing.T) {
	cache, report := compileIntoCache(t, "testdata/composite.yaml")
	root := report.Outputs[0].Root

	stdout, _, err := execute(t, "--cache", cache, "cache", "show", string(root))
	require.NoError(t, err)
	assert.Contains(t, stdout, "root    "+string(root))
	assert.Contains(t, stdout, "nodes   4")
	assert.Contains(t, stdout, "output out\n#0 blur($0)\n#1 sharpen(#0)\n#2 blur(#1)\n#3 sharpen(#2)\n")

	stdout, _, err = execute(t, "--cache", cache, "--format", "json", "cache", "show", string(root))
	require.NoError(t, err)
	var resp struct {
		Data CachedNetwork `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, root, resp.Data.Root)
	assert.Equal(t, report.Outputs[0].Digest, resp.Data.Digest)
	require.NotNil(t, resp.Data.Network)
	assert.Equal(t, report.Outputs[0].Network.Nodes, resp.Data.Network.Nodes)
}

func TestCacheShowMissing(t *testing.T) {
	cache, _ := compileIntoCache(t, "testdata/chain.yaml")

	stdout, _, err := execute(t, "--cache", cache, "cache", "show", "deadbeef")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "is not cached")
}

func TestCacheRequiresPath(t *testing.T) {
	_, _, err := execute(t, "cache", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no cache configured")
}
