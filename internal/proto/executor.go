package proto

import (
	"context"
	"sync"

	"github.com/slayyden/Graphite/internal/ir"
)

// Executor runs one compiled network. The compiler hands networks to an
// executor and never observes or cancels the returned Future; how and when
// it completes is up to the executor.
type Executor interface {
	Execute(ctx context.Context, input ir.IRValue) *Future
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, input ir.IRValue) *Future

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, input ir.IRValue) *Future {
	return f(ctx, input)
}

// Future is a deferred execution result. It completes exactly once with a
// value or an error.
type Future struct {
	done  chan struct{}
	once  sync.Once
	value ir.IRValue
	err   error
}

// NewFuture returns a pending future and the function that completes it.
// Calls to resolve after the first are ignored.
func NewFuture() (*Future, func(ir.IRValue, error)) {
	f := &Future{done: make(chan struct{})}
	return f, f.resolve
}

// Resolved returns an already completed future.
func Resolved(v ir.IRValue, err error) *Future {
	f, resolve := NewFuture()
	resolve(v, err)
	return f
}

func (f *Future) resolve(v ir.IRValue, err error) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx is done. Giving up on ctx
// does not cancel the execution.
func (f *Future) Wait(ctx context.Context) (ir.IRValue, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
