package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slayyden/Graphite/internal/compiler"
	"github.com/slayyden/Graphite/internal/graph"
	"github.com/slayyden/Graphite/internal/proto"
	"github.com/slayyden/Graphite/internal/testutil"
)

// createTestStore opens a store in a temp dir with a deterministic clock
// and sequential compilation IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path,
		WithClock(testutil.NewClock()),
		WithIDGenerator(testutil.NewSequentialIDs("")),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// compileAll compiles a fixture document, failing the test on error.
func compileAll(t *testing.T, doc *graph.Document) []*proto.Network {
	t.Helper()
	nets, err := compiler.New().CompileAll(doc)
	require.NoError(t, err)
	return nets
}
