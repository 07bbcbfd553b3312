package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios. Scenarios
// with a golden file additionally compare the final document snapshot.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenarios found")

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "scenario name must match its file name")

			golden := filepath.Join("testdata", "golden", name+".golden")
			if _, err := os.Stat(golden); err == nil {
				require.NoError(t, RunWithGolden(t, scenario))
				return
			}

			result, err := Run(scenario)
			require.NoError(t, err)
			require.NoError(t, Verify(scenario, result))
		})
	}
}

func TestRun_SplitOutcome(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "split_reconstructs_span.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, result.Outcome)

	_, first := result.Doc.Clip("c1")
	_, second := result.Doc.Clip("clip-1")
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.EndMs, second.StartMs)
	assert.Equal(t, int64(0), first.StartMs)
	assert.Equal(t, int64(4000), second.EndMs)
	assert.Equal(t, int64(500), first.SourceStartMs)
	assert.Equal(t, int64(3000), second.SourceStartMs)
}

func TestRun_RejectedBatchLeavesHeadUntouched(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "reject_unknown_clip.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Equal(t, OutcomeError, result.Outcome)

	// The first (legal) trim must not have leaked into the head.
	_, clip := result.Doc.Clip("c1")
	require.NotNil(t, clip)
	assert.Equal(t, int64(4000), clip.EndMs)
}

func TestVerify_Mismatch(t *testing.T) {
	scenario := &Scenario{
		Name:   "mismatch",
		Expect: Expectation{Outcome: OutcomeApplied},
	}
	result := &Result{Outcome: OutcomeNoChange}

	err := Verify(scenario, result)
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "outcome", ae.Field)
	assert.Contains(t, ae.Error(), "Expected: applied")
}
