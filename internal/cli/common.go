package cli

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/slayyden/Graphite/internal/compiler"
	"github.com/slayyden/Graphite/internal/graph"
	"github.com/slayyden/Graphite/internal/loader"
	"github.com/slayyden/Graphite/internal/store"
)

// loadGraph reads an author graph file or CUE package directory. Loader
// failures are written through the formatter and returned as command
// errors.
func loadGraph(f *OutputFormatter, path string) (*graph.Document, error) {
	doc, err := loader.LoadFile(path)
	if err == nil {
		return doc, nil
	}

	errs := multierr.Errors(err)
	code, message := describeError(errs[0])
	var details any
	if len(errs) > 1 {
		all := make([]string, len(errs))
		for i, e := range errs {
			all[i] = e.Error()
		}
		details = all
	}
	_ = f.Error(code, message, details)
	return nil, WrapExitError(ExitCommandError, "loading "+path, err)
}

// describeError extracts an error code and message from a loader, compiler
// or plain error.
func describeError(err error) (string, string) {
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Error()
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return string(compileErr.Code), err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// validationDetails lists the structural problems behind an INVALID_GRAPH
// error, or nil.
func validationDetails(err error) []compiler.ValidationError {
	var compileErr *compiler.CompileError
	if !errors.As(err, &compileErr) || compileErr.Err == nil {
		return nil
	}
	var out []compiler.ValidationError
	for _, e := range multierr.Errors(compileErr.Err) {
		var v compiler.ValidationError
		if errors.As(e, &v) {
			out = append(out, v)
		}
	}
	return out
}

// openCache opens the network cache named by --cache.
func openCache(opts *RootOptions) (*store.Store, error) {
	if opts.Cache == "" {
		return nil, NewExitError(ExitCommandError, "no cache configured: set --cache or "+EnvPrefix+"_CACHE")
	}
	st, err := store.Open(opts.Cache)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening cache", err)
	}
	return st, nil
}
