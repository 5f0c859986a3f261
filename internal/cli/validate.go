package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slayyden/Graphite/internal/compiler"
	"github.com/slayyden/Graphite/internal/graph"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Networks int                        `json:"networks"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// Composition problems found by the flattener are reported with this
// field so they sit beside the structural errors.
const compositionField = "composition"

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <graph>",
		Short: "Validate an author graph without compiling it",
		Long: `Validate an author graph without resolving or hashing any output.

Performs schema decoding, structural checks on every network (operations,
composite bodies, parameter ranges, outputs, binding arity) and the
composition cycle check. Faster than compile for development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	doc, err := loadGraph(formatter, path)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Loaded %d network(s) from %s", doc.Len(), path)

	result := validateDocument(doc)
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateDocument collects structural errors. The composition check only
// runs on a structurally valid document.
func validateDocument(doc *graph.Document) ValidationResult {
	result := ValidationResult{Networks: doc.Len(), Errors: compiler.Validate(doc)}
	if len(result.Errors) == 0 {
		if _, err := compiler.Flatten(doc); err != nil {
			result.Errors = append(result.Errors, compiler.ValidationError{
				Field:   compositionField,
				Message: err.Error(),
				Code:    string(compiler.CodeOf(err)),
			})
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// outputValidateSuccess outputs successful validation.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Graph is valid (%d network(s))\n", result.Networks)
	return nil
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	message := fmt.Sprintf("validation failed with %d error(s)", len(result.Errors))

	if formatter.Format == "json" {
		_ = formatter.Failure(result.Errors[0].Code, message, result)
		return NewExitError(ExitFailure, message)
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s\n", e.Error())
	}
	fmt.Fprintln(formatter.Writer)

	return NewExitError(ExitFailure, message)
}
