package store

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// clock is the default logical clock. Every write is stamped with a
// strictly increasing seq so listings never depend on wall time.
type clock struct {
	seq atomic.Int64
}

// newClockAt creates a clock that resumes after start.
func newClockAt(start int64) *clock {
	c := &clock{}
	c.seq.Store(start)
	return c
}

func (c *clock) Next() int64 {
	return c.seq.Add(1)
}

// UUIDv7Generator generates time-sortable compilation IDs.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
