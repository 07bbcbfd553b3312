package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldane/cutroom/internal/timeline"
)

// runCLI executes the root command with the given args, capturing output.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errBuf.String(), err
}

// decodeOK unpacks the data half of a JSON-mode success envelope.
func decodeOK(t *testing.T, stdout string) map[string]any {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data should be an object")
	return data
}

func TestCLI_RequiresDatabase(t *testing.T) {
	t.Setenv("CUTROOM_DB", "")
	_, _, err := runCLI(t, "init", "proj-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no database configured")
}

// TestCLI_EndToEnd walks the whole surface against one database: create a
// timeline, seed an asset, apply a script, inspect head and history.
func TestCLI_EndToEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cutroom.db")

	// init
	out, _, err := runCLI(t, "--db", dbPath, "--format", "json", "init", "proj-1", "--fps", "30")
	require.NoError(t, err)
	data := decodeOK(t, out)
	timelineID, _ := data["timelineId"].(string)
	require.NotEmpty(t, timelineID)
	assert.Equal(t, float64(1), data["version"])

	// The seed document names its tracks with fresh ids; fish the video
	// track's id out of show so the script can target it.
	out, _, err = runCLI(t, "--db", dbPath, "--format", "json", "show", timelineID)
	require.NoError(t, err)
	data = decodeOK(t, out)
	docJSON, err := json.Marshal(data["document"])
	require.NoError(t, err)
	doc, err := timeline.UnmarshalDocument(docJSON)
	require.NoError(t, err)
	require.NotEmpty(t, doc.Tracks)
	require.Equal(t, timeline.KindVideo, doc.Tracks[0].Kind)
	videoTrack := doc.Tracks[0].ID

	// asset add
	_, _, err = runCLI(t, "--db", dbPath, "asset", "add", "proj-1", "a1", "--status", "uploaded")
	require.NoError(t, err)

	// apply
	script := `
name: opening-shot
createdBy: agent-1
commands:
  - type: addClip
    trackId: ` + videoTrack + `
    assetId: a1
    durationMs: 4000
`
	scriptPath := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o644))

	out, _, err = runCLI(t, "--db", dbPath, "--format", "json", "apply", scriptPath, "--timeline", timelineID)
	require.NoError(t, err)
	data = decodeOK(t, out)
	assert.Equal(t, "applied", data["outcome"])
	assert.Equal(t, float64(2), data["version"])
	changed, _ := data["changedClipIds"].([]any)
	require.Len(t, changed, 1)

	// show head: the clip landed
	out, _, err = runCLI(t, "--db", dbPath, "--format", "json", "show", timelineID)
	require.NoError(t, err)
	data = decodeOK(t, out)
	assert.Equal(t, float64(2), data["version"])
	docJSON, err = json.Marshal(data["document"])
	require.NoError(t, err)
	doc, err = timeline.UnmarshalDocument(docJSON)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.ClipCount())
	assert.Equal(t, int64(4000), doc.DurationMs)

	// show --version 1: the seed is still addressable
	out, _, err = runCLI(t, "--db", dbPath, "--format", "json", "show", timelineID, "--version", "1")
	require.NoError(t, err)
	data = decodeOK(t, out)
	assert.Equal(t, float64(1), data["version"])

	// history: two versions, oldest first
	out, _, err = runCLI(t, "--db", dbPath, "--format", "json", "history", timelineID)
	require.NoError(t, err)
	data = decodeOK(t, out)
	versions, _ := data["versions"].([]any)
	require.Len(t, versions, 2)
	first, _ := versions[0].(map[string]any)
	second, _ := versions[1].(map[string]any)
	assert.Equal(t, "system", first["source"])
	assert.Equal(t, "ai", second["source"])
}

func TestCLI_ApplyRejectedBatch(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cutroom.db")

	out, _, err := runCLI(t, "--db", dbPath, "--format", "json", "init", "proj-1")
	require.NoError(t, err)
	timelineID, _ := decodeOK(t, out)["timelineId"].(string)
	require.NotEmpty(t, timelineID)

	script := `
name: bad
createdBy: agent-1
commands:
  - type: removeClip
    clipId: ghost
`
	scriptPath := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o644))

	out, _, err = runCLI(t, "--db", dbPath, "--format", "json", "apply", scriptPath, "--timeline", timelineID)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "COMMAND_REJECTED", resp.Error.Code)

	// Nothing persisted: head is still version 1.
	out, _, err = runCLI(t, "--db", dbPath, "--format", "json", "show", timelineID)
	require.NoError(t, err)
	assert.Equal(t, float64(1), decodeOK(t, out)["version"])
}

func TestCLI_ApplyInvalidScript(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cutroom.db")
	scriptPath := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(scriptPath, []byte(`
name: bad
createdBy: agent-1
commands:
  - type: teleportClip
    clipId: c1
`), 0o644))

	_, _, err := runCLI(t, "--db", dbPath, "apply", scriptPath, "--timeline", "whatever")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCLI_ValidateScript(t *testing.T) {
	good := filepath.Join(t.TempDir(), "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
name: ok
createdBy: agent-1
commands:
  - type: removeClip
    clipId: c1
`), 0o644))

	out, _, err := runCLI(t, "--format", "json", "validate", good)
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
name: bad
createdBy: agent-1
commands:
  - type: setVolume
    clipId: c1
    volume: 9
`), 0o644))

	out, _, err = runCLI(t, "--format", "json", "validate", bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
}

func TestCLI_ValidateCatchesUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: typo
createdBy: agent-1
comands: []
`), 0o644))

	_, _, err := runCLI(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
