package harness

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/slayyden/Graphite/internal/compiler"
	"github.com/slayyden/Graphite/internal/graph"
	"github.com/slayyden/Graphite/internal/loader"
	"github.com/slayyden/Graphite/internal/proto"
	"github.com/slayyden/Graphite/internal/store"
	"github.com/slayyden/Graphite/internal/testutil"
)

// Harness runs scenarios against a compiler and an in-memory cache with a
// deterministic clock and compilation IDs.
type Harness struct {
	store    *store.Store
	compiler *compiler.Compiler
	logger   *zap.Logger
}

// Option configures a run.
type Option func(*config)

type config struct {
	logger *zap.Logger
}

// WithLogger sets the logger for the run and for the compiler under test.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// compiled pairs the per-output results of one compilation with the
// networks that succeeded, keyed by output name.
type compiled struct {
	outputs   []OutputResult
	errorCode string
	// codes holds the code of every error yielded, in order.
	codes []string
	nets  map[string]*proto.Network
	order []*proto.Network
}

// Run loads the scenario's graph and runs it.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	doc, err := loader.LoadFile(scenario.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	return RunDocument(scenario, doc, opts...)
}

// RunDocument runs a scenario against an already built document. The
// scenario's Graph field is ignored.
//
// Execution flow:
// 1. Open a fresh in-memory cache
// 2. Compile every output and collect per-output results
// 3. Run the built-in checks (determinism, validity, renumbering, cache)
// 4. Evaluate expectations and assertions
func RunDocument(scenario *Scenario, doc *graph.Document, opts ...Option) (*Result, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(":memory:",
		store.WithClock(testutil.NewClock()),
		store.WithIDGenerator(testutil.NewSequentialIDs(scenario.Name)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		compiler: compiler.New(compiler.WithLogger(cfg.logger)),
		logger:   cfg.logger.With(zap.String("scenario", scenario.Name)),
	}

	ctx := context.Background()
	result := NewResult()

	first := h.compile(doc)
	result.Outputs = first.outputs
	result.ErrorCode = first.errorCode
	h.logger.Info("scenario compiled",
		zap.Int("outputs", len(first.outputs)),
		zap.String("error_code", first.errorCode))

	for _, msg := range h.checkDeterminism(doc, first) {
		result.AddError(msg)
	}
	for _, msg := range checkValidity(first) {
		result.AddError(msg)
	}
	for _, msg := range h.checkRenumbering(doc, first) {
		result.AddError(msg)
	}
	id, msgs, err := h.checkCache(ctx, scenario, first)
	if err != nil {
		return nil, err
	}
	result.CompilationID = id
	for _, msg := range msgs {
		result.AddError(msg)
	}

	for _, msg := range EvaluateExpectations(scenario, result) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(first.nets, scenario.Assertions) {
		result.AddError(msg)
	}

	if !result.Pass {
		h.logger.Warn("scenario failed", zap.Strings("errors", result.Errors))
	}
	return result, nil
}

// compile drains the compiler over doc.
func (h *Harness) compile(doc *graph.Document) compiled {
	c := compiled{nets: make(map[string]*proto.Network)}
	for net, err := range h.compiler.Compile(doc) {
		if err != nil {
			c.codes = append(c.codes, string(compiler.CodeOf(err)))
			var cerr *compiler.CompileError
			if errors.As(err, &cerr) && cerr.Output != "" {
				c.outputs = append(c.outputs, OutputResult{
					Name:      cerr.Output,
					ErrorCode: string(cerr.Code),
					Error:     err.Error(),
				})
				continue
			}
			if c.errorCode == "" {
				c.errorCode = string(compiler.CodeOf(err))
			}
			continue
		}

		ops := make([]string, 0, net.Len())
		for _, id := range net.SortedIDs() {
			ops = append(ops, net.Nodes[id].Op)
		}
		slices.Sort(ops)

		out := OutputResult{
			Name:    net.Output,
			Root:    string(net.Root),
			Nodes:   net.Len(),
			Ops:     ops,
			Outline: net.Outline(),
		}
		if root := net.Node(net.Root); root != nil {
			out.RootOp = root.Op
		}
		c.outputs = append(c.outputs, out)
		c.nets[net.Output] = net
		c.order = append(c.order, net)
	}
	return c
}

// checkDeterminism compiles doc again in one batch and requires the same
// networks and the same error codes.
func (h *Harness) checkDeterminism(doc *graph.Document, first compiled) []string {
	nets, err := h.compiler.CompileAll(doc)
	var codes []string
	for _, e := range multierr.Errors(err) {
		codes = append(codes, string(compiler.CodeOf(e)))
	}
	if !reflect.DeepEqual(first.order, nets) || !slices.Equal(first.codes, codes) {
		return []string{"determinism: compiling twice produced different results"}
	}
	return nil
}

func checkValidity(c compiled) []string {
	var errs []string
	for _, net := range c.order {
		if err := net.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("validity: output %q: %v", net.Output, err))
		}
	}
	return errs
}

// checkRenumbering requires identities and error codes to survive a
// renaming of every author node.
func (h *Harness) checkRenumbering(doc *graph.Document, first compiled) []string {
	renamed := h.compile(testutil.Renumber(doc, func(id graph.NodeID) graph.NodeID {
		return id*7 + 11
	}))

	var errs []string
	if renamed.errorCode != first.errorCode {
		errs = append(errs, fmt.Sprintf("renumbering: error code %q became %q", first.errorCode, renamed.errorCode))
	}
	if len(renamed.outputs) != len(first.outputs) {
		return append(errs, fmt.Sprintf("renumbering: %d outputs became %d", len(first.outputs), len(renamed.outputs)))
	}
	for i, want := range first.outputs {
		got := renamed.outputs[i]
		if got.Root != want.Root || got.ErrorCode != want.ErrorCode {
			errs = append(errs, fmt.Sprintf("renumbering: output %q changed identity", want.Name))
		}
	}
	return errs
}

// checkCache writes every network to the store, reads it back, and logs
// the compilation. Returns the compilation ID.
func (h *Harness) checkCache(ctx context.Context, scenario *Scenario, c compiled) (string, []string, error) {
	var errs []string
	for _, net := range c.order {
		if _, err := h.store.WriteNetwork(ctx, net); err != nil {
			return "", nil, fmt.Errorf("cache output %q: %w", net.Output, err)
		}
		back, err := h.store.ReadNetwork(ctx, net.Root)
		if err != nil {
			return "", nil, fmt.Errorf("read cached output %q: %w", net.Output, err)
		}
		// The cache keys on root identity, so a second output sharing the
		// root reads back under the first output's name.
		if back.Root != net.Root || !reflect.DeepEqual(back.Nodes, net.Nodes) {
			errs = append(errs, fmt.Sprintf("cache: output %q changed in round trip", net.Output))
		}
	}

	rec := store.Compilation{Source: scenario.Graph}
	for _, out := range c.outputs {
		rec.Outputs = append(rec.Outputs, store.CompiledOutput{
			Output:    out.Name,
			Root:      proto.ID(out.Root),
			ErrorCode: out.ErrorCode,
			Error:     out.Error,
		})
	}
	rec, err := h.store.RecordCompilation(ctx, rec)
	if err != nil {
		return "", nil, fmt.Errorf("record compilation: %w", err)
	}
	return rec.ID, errs, nil
}
