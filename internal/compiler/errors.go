package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeCyclicComposition indicates a composite node whose body
	// instantiates itself, directly or transitively.
	ErrCodeCyclicComposition ErrorCode = "CYCLIC_COMPOSITION"

	// ErrCodeCycleDetected indicates the flattened graph of one output is
	// not a DAG.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"

	// ErrCodeMissingInput indicates a required input slot with no wiring
	// and no default.
	ErrCodeMissingInput ErrorCode = "MISSING_INPUT"

	// ErrCodeDanglingReference indicates an input naming a node that does
	// not exist.
	ErrCodeDanglingReference ErrorCode = "DANGLING_REFERENCE"

	// ErrCodeMultipleOutputs indicates CompileSingle on a graph that does
	// not declare exactly one output.
	ErrCodeMultipleOutputs ErrorCode = "MULTIPLE_OUTPUTS_UNSUPPORTED"

	// ErrCodeCompilationFailed wraps the first stage error seen by
	// CompileSingle.
	ErrCodeCompilationFailed ErrorCode = "COMPILATION_FAILED"

	// ErrCodeInvalidGraph indicates structural validation failures.
	ErrCodeInvalidGraph ErrorCode = "INVALID_GRAPH"
)

// Sentinels for errors.Is. A *CompileError matches the sentinel that
// carries the same code.
var (
	ErrCyclicComposition = &CompileError{Code: ErrCodeCyclicComposition}
	ErrCycleDetected     = &CompileError{Code: ErrCodeCycleDetected}
	ErrMissingInput      = &CompileError{Code: ErrCodeMissingInput}
	ErrDanglingReference = &CompileError{Code: ErrCodeDanglingReference}
	ErrMultipleOutputs   = &CompileError{Code: ErrCodeMultipleOutputs}
	ErrCompilationFailed = &CompileError{Code: ErrCodeCompilationFailed}
	ErrInvalidGraph      = &CompileError{Code: ErrCodeInvalidGraph}
)

// CompileError is returned by every compilation stage.
type CompileError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Output names the declared output being compiled, if any.
	Output string

	// Node is the flat key of the affected node ("4/7"), if any.
	Node string

	// Op is the affected node's operation, if any.
	Op string

	// Slot is the affected input slot, or -1.
	Slot int

	// Path is a cycle witness: network names for CYCLIC_COMPOSITION, flat
	// node keys for CYCLE_DETECTED.
	Path []string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	var ctx []string
	if e.Output != "" {
		ctx = append(ctx, "output="+e.Output)
	}
	if e.Node != "" {
		ctx = append(ctx, "node="+e.Node)
	}
	if e.Op != "" {
		ctx = append(ctx, "op="+e.Op)
	}
	if e.Slot >= 0 && e.Node != "" {
		ctx = append(ctx, fmt.Sprintf("slot=%d", e.Slot))
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Is matches any *CompileError with the same code.
func (e *CompileError) Is(target error) bool {
	t, ok := target.(*CompileError)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the outermost *CompileError in err's chain, or
// "" when there is none.
func CodeOf(err error) ErrorCode {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCycleError reports whether err is a composition or dataflow cycle.
func IsCycleError(err error) bool {
	return errors.Is(err, ErrCyclicComposition) || errors.Is(err, ErrCycleDetected)
}

func newCyclicComposition(path []string) *CompileError {
	return &CompileError{
		Code:    ErrCodeCyclicComposition,
		Message: "composite network instantiates itself: " + strings.Join(path, " -> "),
		Slot:    -1,
		Path:    path,
	}
}

func newCycleDetected(output string, path []string) *CompileError {
	return &CompileError{
		Code:    ErrCodeCycleDetected,
		Message: "dataflow cycle: " + strings.Join(path, " -> "),
		Output:  output,
		Slot:    -1,
		Path:    path,
	}
}

func newMissingInput(output, node, op string, slot int) *CompileError {
	return &CompileError{
		Code:    ErrCodeMissingInput,
		Message: fmt.Sprintf("required input %d of %s is not wired", slot, node),
		Output:  output,
		Node:    node,
		Op:      op,
		Slot:    slot,
	}
}

func newDanglingReference(output, node string, slot int, missing string) *CompileError {
	return &CompileError{
		Code:    ErrCodeDanglingReference,
		Message: fmt.Sprintf("input %d of %s references missing node %s", slot, node, missing),
		Output:  output,
		Node:    node,
		Slot:    slot,
	}
}
