package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetExitCode(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"nil", nil, ExitSuccess, ""},
		{"plain error", errors.New("plain"), ExitFailure, "plain"},
		{"command error", NewExitError(ExitCommandError, "bad path"), ExitCommandError, "bad path"},
		{"wrapped", fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "compile", cause)), ExitFailure, "outer: compile: cause"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetExitCode(tt.err))
			if tt.err != nil {
				assert.Equal(t, tt.msg, tt.err.Error())
			}
		})
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "writing output file", cause)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, NewExitError(ExitFailure, "x").Unwrap())
}
