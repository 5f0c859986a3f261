// Package compiler turns an author graph into executable proto networks.
//
// The pipeline runs in a fixed order and never re-enters an earlier stage:
//
//	Flatten -> EliminateRedundant -> Prune -> Partition
//	  -> per output: Resolve -> AssignIdentities
//
// Each stage is exported so callers and tests can run it in isolation.
package compiler

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/slayyden/Graphite/internal/graph"
	"github.com/slayyden/Graphite/internal/proto"
)

// Compiler runs the pipeline. It holds no per-compilation state, so one
// Compiler may serve concurrent calls on different documents.
type Compiler struct {
	logger   *zap.Logger
	validate bool
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for per-stage debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithValidation enables or disables structural validation before
// flattening. It is enabled by default.
func WithValidation(enabled bool) Option {
	return func(c *Compiler) {
		c.validate = enabled
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger:   zap.NewNop(),
		validate: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCompiler = New()

// Compile compiles doc with a default Compiler.
func Compile(doc *graph.Document) iter.Seq2[*proto.Network, error] {
	return defaultCompiler.Compile(doc)
}

// CompileSingle compiles doc with a default Compiler.
func CompileSingle(doc *graph.Document) (*proto.Network, error) {
	return defaultCompiler.CompileSingle(doc)
}

// Compile yields one proto network per declared output of the root network,
// in declaration order. Work happens as the sequence is pulled.
//
// Each output is checked on its own before flattening: structural
// validation and the composition cycle check cover only the nodes and
// bodies that output reaches. A failure there, or in the output's
// partition, is yielded in that output's place and the remaining outputs
// are still compiled. Only a document without a root network fails as a
// whole.
//
// The document is cloned up front, so the caller keeps ownership of doc.
func (c *Compiler) Compile(doc *graph.Document) iter.Seq2[*proto.Network, error] {
	return func(yield func(*proto.Network, error) bool) {
		if doc == nil {
			yield(nil, &CompileError{Code: ErrCodeInvalidGraph, Message: "nil document", Slot: -1})
			return
		}
		doc = doc.Clone()

		root := doc.RootNetwork()
		if root == nil {
			if c.validate {
				yield(nil, c.invalid("", Validate(doc)))
				return
			}
			_, err := rootNetwork(doc)
			yield(nil, err)
			return
		}

		failed := make([]error, len(root.Outputs))
		live := make(map[graph.NodeID]bool)
		var outputs []graph.Output
		for i, out := range root.Outputs {
			reach, err := c.checkOutput(doc, i)
			if err != nil {
				c.logger.Debug("output rejected", zap.String("output", out.Name), zap.Error(err))
				failed[i] = err
				continue
			}
			maps.Copy(live, reach)
			outputs = append(outputs, out)
		}

		flat, err := flattenNodes(doc, root, live, outputs)
		if err != nil {
			c.logger.Debug("flatten failed", zap.Error(err))
			yield(nil, err)
			return
		}
		c.logger.Debug("flattened",
			zap.Int("nodes", flat.Len()),
			zap.Int("outputs", len(flat.Outputs)))

		removed := EliminateRedundant(flat)
		c.logger.Debug("eliminated pass-through nodes",
			zap.Int("removed", removed),
			zap.Int("nodes", flat.Len()))

		pruned := Prune(flat)
		c.logger.Debug("pruned unreachable nodes",
			zap.Int("removed", pruned),
			zap.Int("nodes", flat.Len()))

		next, stop := iter.Pull(Partition(flat))
		defer stop()
		for _, ferr := range failed {
			if ferr != nil {
				if !yield(nil, ferr) {
					return
				}
				continue
			}
			part, ok := next()
			if !ok {
				return
			}
			net, err := c.compilePartition(part)
			if !yield(net, err) {
				return
			}
		}
	}
}

// checkOutput returns the root-network nodes that output index reaches, or
// the error that keeps it from compiling.
func (c *Compiler) checkOutput(doc *graph.Document, index int) (map[graph.NodeID]bool, error) {
	root := doc.RootNetwork()
	out := root.Outputs[index]
	reach := subtree(root, out.Node)
	bodies := composedBodies(root, reach)

	if c.validate {
		nets := slices.Sorted(maps.Keys(buildCompositionGraph(doc, bodies...)))
		if verrs := validateOutput(doc, index, reach, nets); len(verrs) > 0 {
			return nil, c.invalid(out.Name, verrs)
		}
	}
	if cerr := checkComposition(doc, bodies...); cerr != nil {
		cerr.Output = out.Name
		return nil, cerr
	}
	return reach, nil
}

func (c *Compiler) compilePartition(part *FlatNetwork) (*proto.Network, error) {
	output := part.Outputs[0].Name
	log := c.logger.With(zap.String("output", output))
	log.Debug("partition", zap.Int("nodes", part.Len()))

	res, err := Resolve(part)
	if err != nil {
		log.Debug("resolve failed", zap.Error(err))
		return nil, err
	}

	net, err := AssignIdentities(res)
	if err != nil {
		log.Debug("identity assignment failed", zap.Error(err))
		return nil, err
	}

	if err := net.Validate(); err != nil {
		return nil, &CompileError{
			Code:    ErrCodeInvalidGraph,
			Message: "compiled network is invalid",
			Output:  output,
			Slot:    -1,
			Err:     err,
		}
	}
	log.Debug("compiled",
		zap.String("root", net.Root.Short()),
		zap.Int("nodes", net.Len()))
	return net, nil
}

// invalid wraps validation errors as INVALID_GRAPH for output, or for the
// whole document when output is empty.
func (c *Compiler) invalid(output string, verrs []ValidationError) error {
	var combined error
	for _, v := range verrs {
		combined = multierr.Append(combined, v)
	}
	c.logger.Debug("validation failed", zap.String("output", output), zap.Int("errors", len(verrs)))
	return &CompileError{
		Code:    ErrCodeInvalidGraph,
		Message: fmt.Sprintf("%d validation error(s)", len(verrs)),
		Output:  output,
		Slot:    -1,
		Err:     combined,
	}
}

// CompileSingle compiles a document that declares exactly one output. Any
// other output count fails with MULTIPLE_OUTPUTS_UNSUPPORTED. A stage
// failure, or an empty result, fails with COMPILATION_FAILED wrapping the
// first underlying error.
func (c *Compiler) CompileSingle(doc *graph.Document) (*proto.Network, error) {
	if doc != nil {
		if root := doc.RootNetwork(); root != nil && len(root.Outputs) != 1 {
			return nil, &CompileError{
				Code:    ErrCodeMultipleOutputs,
				Message: fmt.Sprintf("expected exactly one output, found %d; use Compile", len(root.Outputs)),
				Slot:    -1,
			}
		}
	}

	for net, err := range c.Compile(doc) {
		if err != nil {
			return nil, &CompileError{
				Code:    ErrCodeCompilationFailed,
				Message: "compilation failed",
				Slot:    -1,
				Err:     err,
			}
		}
		return net, nil
	}
	return nil, &CompileError{
		Code:    ErrCodeCompilationFailed,
		Message: "no network produced",
		Slot:    -1,
	}
}

// CompileAll drains Compile, returning every network that compiled and all
// errors combined.
func (c *Compiler) CompileAll(doc *graph.Document) ([]*proto.Network, error) {
	var (
		nets []*proto.Network
		errs error
	)
	for net, err := range c.Compile(doc) {
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		nets = append(nets, net)
	}
	return nets, errs
}
