package harness

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/haldane/cutroom/internal/engine"
)

// AssertionError is returned when a scenario expectation fails.
type AssertionError struct {
	Scenario string
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario %s: expectation failed on %s\n", e.Scenario, e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// Verify checks a result against the scenario's expectation clause.
func Verify(scenario *Scenario, result *Result) error {
	want := scenario.Expect

	if result.Outcome != want.Outcome {
		actual := result.Outcome
		if result.Err != nil {
			actual = fmt.Sprintf("%s (%v)", result.Outcome, result.Err)
		}
		return &AssertionError{
			Scenario: scenario.Name,
			Field:    "outcome",
			Expected: want.Outcome,
			Actual:   actual,
		}
	}

	if want.Outcome == OutcomeError {
		if code := errorCode(result.Err); code != want.Error {
			return &AssertionError{
				Scenario: scenario.Name,
				Field:    "error",
				Expected: want.Error,
				Actual:   code,
			}
		}
	}

	if want.Version != nil && result.Version != *want.Version {
		return &AssertionError{
			Scenario: scenario.Name,
			Field:    "version",
			Expected: fmt.Sprintf("%d", *want.Version),
			Actual:   fmt.Sprintf("%d", result.Version),
		}
	}

	if want.ChangedClipIDs != nil && !reflect.DeepEqual(result.ChangedClipIDs, want.ChangedClipIDs) {
		return &AssertionError{
			Scenario: scenario.Name,
			Field:    "changedClipIds",
			Expected: fmt.Sprintf("%v", want.ChangedClipIDs),
			Actual:   fmt.Sprintf("%v", result.ChangedClipIDs),
		}
	}

	if want.DurationMs != nil && result.Doc.DurationMs != *want.DurationMs {
		return &AssertionError{
			Scenario: scenario.Name,
			Field:    "durationMs",
			Expected: fmt.Sprintf("%d", *want.DurationMs),
			Actual:   fmt.Sprintf("%d", result.Doc.DurationMs),
		}
	}

	return nil
}

// errorCode maps a batch failure to the code string scenarios use.
func errorCode(err error) string {
	var be *engine.BatchError
	if errors.As(err, &be) {
		return string(be.Code)
	}
	if engine.IsConflict(err) {
		return "CONFLICT"
	}
	if err == nil {
		return ""
	}
	return "UNKNOWN"
}
