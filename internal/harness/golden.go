package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/haldane/cutroom/internal/timeline"
)

// RunWithGolden executes a scenario, verifies its expectation clause, and
// compares the final document against a golden file in canonical JSON.
// The golden file is stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if err := Verify(scenario, result); err != nil {
		return err
	}

	data, err := timeline.MarshalCanonical(result.Doc)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
