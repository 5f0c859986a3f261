package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slayyden/Graphite/internal/compiler"
	"github.com/slayyden/Graphite/internal/graph"
	"github.com/slayyden/Graphite/internal/proto"
	"github.com/slayyden/Graphite/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Single bool   // require exactly one declared output
}

// OutputReport is what one declared output compiled to.
type OutputReport struct {
	Name      string         `json:"name"`
	Root      proto.ID       `json:"root,omitempty"`
	Digest    string         `json:"digest,omitempty"`
	Nodes     int            `json:"nodes"`
	Cached    bool           `json:"cached,omitempty"`
	Network   *proto.Network `json:"network,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
	Error     string         `json:"error,omitempty"`
	// Cycle is the witness of a composition or dataflow cycle.
	Cycle []string `json:"cycle,omitempty"`
	// Details lists the structural problems behind INVALID_GRAPH.
	Details []compiler.ValidationError `json:"details,omitempty"`
}

// Failed reports whether the output produced no network.
func (o OutputReport) Failed() bool {
	return o.Network == nil
}

// CompileReport holds every output of one compilation.
type CompileReport struct {
	Source        string         `json:"source"`
	CompilationID string         `json:"compilation_id,omitempty"`
	Outputs       []OutputReport `json:"outputs"`
}

// Failures returns the number of outputs that did not compile.
func (r *CompileReport) Failures() int {
	n := 0
	for _, out := range r.Outputs {
		if out.Failed() {
			n++
		}
	}
	return n
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <graph>",
		Short: "Compile an author graph to proto networks",
		Long: `Compile an author graph to one proto network per declared output.

The graph is a YAML, CUE, JSON or HCL file, or a directory holding one CUE
package. Composite nodes are inlined, pass-through nodes removed, and
unreachable nodes pruned before every output is resolved and given
content-derived node identities.

With --cache, compiled networks are stored in a SQLite cache keyed by
root identity and the compilation is logged.

Exit codes:
  0 - Every output compiled
  1 - One or more outputs, or the whole document, failed to compile
  2 - Command error (unreadable graph, cache failure, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled networks as JSON to this file")
	cmd.Flags().BoolVar(&opts.Single, "single", false, "fail unless the graph declares exactly one output")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger().With(zap.String("source", path))

	doc, err := loadGraph(formatter, path)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Loaded %d network(s) from %s", doc.Len(), path)

	c := compiler.New(compiler.WithLogger(logger))
	report, docErr := compileReport(c, doc, path, opts.Single)
	if docErr != nil {
		code, message := describeError(docErr)
		logger.Info("compilation failed", zap.String("code", code))
		var details any
		if v := validationDetails(docErr); len(v) > 0 {
			details = v
		}
		_ = formatter.Error(code, message, details)
		return WrapExitError(ExitFailure, "compilation failed", docErr)
	}

	if opts.Cache != "" {
		if err := cacheReport(ctx, opts.RootOptions, report); err != nil {
			_ = formatter.Error(ErrCodeCache, err.Error(), nil)
			return err
		}
		formatter.VerboseLog("Logged compilation %s in %s", report.CompilationID, opts.Cache)
	}

	if opts.Output != "" {
		if err := writeReport(report, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	logger.Info("compiled",
		zap.Int("outputs", len(report.Outputs)),
		zap.Int("failed", report.Failures()))
	return outputCompileReport(formatter, report, opts.Output)
}

// compileReport drains the compiler. A document-level failure is returned
// as the error; per-output failures are recorded in the report.
func compileReport(c *compiler.Compiler, doc *graph.Document, source string, single bool) (*CompileReport, error) {
	report := &CompileReport{Source: source, Outputs: []OutputReport{}}

	if single {
		net, err := c.CompileSingle(doc)
		if err != nil {
			return nil, err
		}
		out, err := newOutputReport(net)
		if err != nil {
			return nil, err
		}
		report.Outputs = append(report.Outputs, out)
		return report, nil
	}

	for net, err := range c.Compile(doc) {
		if err != nil {
			var compileErr *compiler.CompileError
			if errors.As(err, &compileErr) && compileErr.Output != "" {
				out := OutputReport{
					Name:      compileErr.Output,
					ErrorCode: string(compileErr.Code),
					Error:     err.Error(),
					Details:   validationDetails(err),
				}
				if compiler.IsCycleError(err) {
					out.Cycle = compileErr.Path
				}
				report.Outputs = append(report.Outputs, out)
				continue
			}
			return nil, err
		}
		out, err := newOutputReport(net)
		if err != nil {
			return nil, err
		}
		report.Outputs = append(report.Outputs, out)
	}
	return report, nil
}

func newOutputReport(net *proto.Network) (OutputReport, error) {
	digest, err := net.Digest()
	if err != nil {
		return OutputReport{}, fmt.Errorf("digest of output %q: %w", net.Output, err)
	}
	return OutputReport{
		Name:    net.Output,
		Root:    net.Root,
		Digest:  digest,
		Nodes:   net.Len(),
		Network: net,
	}, nil
}

// cacheReport stores every compiled network and logs the compilation.
func cacheReport(ctx context.Context, opts *RootOptions, report *CompileReport) error {
	st, err := openCache(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	rec := store.Compilation{Source: report.Source}
	for i := range report.Outputs {
		out := &report.Outputs[i]
		if !out.Failed() {
			inserted, err := st.WriteNetwork(ctx, out.Network)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("caching output %q", out.Name), err)
			}
			out.Cached = inserted
		}
		rec.Outputs = append(rec.Outputs, store.CompiledOutput{
			Output:    out.Name,
			Root:      out.Root,
			ErrorCode: out.ErrorCode,
			Error:     out.Error,
		})
	}

	rec, err = st.RecordCompilation(ctx, rec)
	if err != nil {
		return WrapExitError(ExitCommandError, "logging compilation", err)
	}
	report.CompilationID = rec.ID
	return nil
}

// outputCompileReport writes the report and maps output failures to
// ExitFailure.
func outputCompileReport(formatter *OutputFormatter, report *CompileReport, outputFile string) error {
	failed := report.Failures()

	if formatter.Format == "json" {
		if failed > 0 {
			first := firstFailure(report)
			_ = formatter.Failure(first.ErrorCode,
				fmt.Sprintf("%d of %d output(s) failed", failed, len(report.Outputs)), report)
			return NewExitError(ExitFailure, fmt.Sprintf("%d output(s) failed", failed))
		}
		return formatter.Success(report)
	}

	w := formatter.Writer
	if failed > 0 {
		fmt.Fprintf(w, "✗ Compiled %d of %d output(s) from %s\n\n",
			len(report.Outputs)-failed, len(report.Outputs), report.Source)
	} else {
		fmt.Fprintf(w, "✓ Compiled %d output(s) from %s\n\n", len(report.Outputs), report.Source)
	}

	for _, out := range report.Outputs {
		if out.Failed() {
			fmt.Fprintf(w, "  %s: %s\n", out.Name, out.Error)
			if formatter.Verbose {
				for _, d := range out.Details {
					fmt.Fprintf(w, "    %s\n", d.Error())
				}
			}
			continue
		}
		cached := ""
		if out.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(w, "  %s: %d node(s), root %s%s\n", out.Name, out.Nodes, out.Root.Short(), cached)
		if formatter.Verbose {
			fmt.Fprintln(w)
			fmt.Fprint(w, out.Network.Outline())
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)

	if report.CompilationID != "" {
		fmt.Fprintf(w, "Logged compilation %s\n", report.CompilationID)
	}
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote proto networks to %s\n", outputFile)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d output(s) failed", failed))
	}
	return nil
}

func firstFailure(report *CompileReport) OutputReport {
	for _, out := range report.Outputs {
		if out.Failed() {
			return out
		}
	}
	return OutputReport{}
}

// writeReport writes the compiled networks to a file as indented JSON.
func writeReport(report *CompileReport, filename string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling networks: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
