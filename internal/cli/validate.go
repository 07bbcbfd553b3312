package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ValidationResult holds script validation results.
type ValidationResult struct {
	Valid  bool          `json:"valid"`
	Errors []ScriptIssue `json:"errors,omitempty"`
}

// ScriptIssue is one schema violation in a script file.
type ScriptIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <script.yaml>",
		Short: "Validate an edit script without applying it",
		Long: `Check an edit script against the embedded schema: known command types,
required fields per command, volume and time ranges. Nothing is applied
and no database is touched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScriptValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runScriptValidate(opts *RootOptions, scriptPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(scriptPath)
	if err != nil {
		_ = formatter.Error(ErrCodeScriptNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}

	errs := ValidateScript(scriptPath, data)
	if len(errs) == 0 {
		// The schema cannot see YAML keys it does not know about; the strict
		// decoder catches those.
		if _, err := decodeScript(data); err != nil {
			errs = []error{&ScriptError{Code: ErrCodeScriptParse, Message: err.Error()}}
		}
	}
	if len(errs) > 0 {
		return outputScriptErrors(formatter, errs)
	}

	formatter.Textf("✓ Script valid")
	return formatter.JSON(ValidationResult{Valid: true})
}

// outputScriptErrors renders schema violations and returns the
// validation-failure exit code.
func outputScriptErrors(formatter *OutputFormatter, errs []error) error {
	issues := make([]ScriptIssue, 0, len(errs))
	for _, err := range errs {
		var se *ScriptError
		if errors.As(err, &se) {
			issue := ScriptIssue{Code: se.Code, Message: se.Message}
			if se.Pos.IsValid() {
				issue.Line = se.Pos.Line()
			}
			issues = append(issues, issue)
			continue
		}
		issues = append(issues, ScriptIssue{Code: ErrCodeScriptSchema, Message: err.Error()})
	}

	if formatter.Format == "json" {
		if err := formatter.Error(issues[0].Code, issues[0].Message, ValidationResult{Valid: false, Errors: issues}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	formatter.Textf("✗ Validation failed")
	for _, issue := range issues {
		if issue.Line > 0 {
			formatter.Textf("  line %d: %s: %s", issue.Line, issue.Code, issue.Message)
			continue
		}
		formatter.Textf("  %s: %s", issue.Code, issue.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
