package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates compilation IDs "<prefix>-0001", "<prefix>-0002",
// ... so logged compilations are predictable in tests and golden output.
// It satisfies store.IDGenerator.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs returns a generator. An empty prefix means "compilation".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "compilation"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
