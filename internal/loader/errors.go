package loader

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes reported by the loader.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No graph files found
	ErrCodeParseFailed = "E004" // YAML/CUE syntax or decode error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build or evaluation failed
	ErrCodeFormat      = "E008" // Unsupported file extension

	ErrCodeSchema      = "E010" // Document shape is wrong
	ErrCodeUnknownRoot = "E011" // Root network missing or ambiguous
	ErrCodeUnknownBody = "E012" // Composite body names no network
	ErrCodeInput       = "E013" // Malformed input slot
)

// LoadError is a loader failure, positioned when it came from CUE.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code string, pos token.Pos, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// fromCUE converts the first CUE error into a positioned LoadError.
func fromCUE(code string, err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
