package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/haldane/cutroom/internal/assets"
	"github.com/haldane/cutroom/internal/engine"
	"github.com/haldane/cutroom/internal/timeline"
)

// Scenario defines a conformance test scenario: an initial document, one
// command batch, and the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario; it doubles as the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// FPS of the timeline under test.
	FPS int `yaml:"fps"`

	// ClipIDs feeds the fixed id generator, in the order the engine will
	// request fresh ids. Scenarios whose commands create no clips omit it.
	ClipIDs []string `yaml:"clipIds,omitempty"`

	// Assets seeds the project's asset registry before the run.
	Assets []AssetSeed `yaml:"assets,omitempty"`

	// Document is the initial timeline content, saved as a manual version
	// on top of the provisioning seed before the batch runs.
	Document DocumentSpec `yaml:"document"`

	// Commands is the batch applied through the agent write path.
	Commands []engine.Command `yaml:"commands"`

	// Expect describes the required outcome.
	Expect Expectation `yaml:"expect"`
}

// AssetSeed registers one asset before the run. Status defaults to
// uploaded.
type AssetSeed struct {
	ID     string `yaml:"id"`
	Status string `yaml:"status,omitempty"`
}

// DocumentSpec is the YAML shape of the initial document.
type DocumentSpec struct {
	DurationMs int64       `yaml:"durationMs"`
	Tracks     []TrackSpec `yaml:"tracks"`
}

// TrackSpec is the YAML shape of one track.
type TrackSpec struct {
	ID    string     `yaml:"id"`
	Kind  string     `yaml:"kind"`
	Name  string     `yaml:"name"`
	Clips []ClipSpec `yaml:"clips,omitempty"`
}

// ClipSpec is the YAML shape of one clip. The clip type follows the
// owning track's kind; media clips default to volume 1.
type ClipSpec struct {
	ID            string   `yaml:"id"`
	AssetID       string   `yaml:"assetId,omitempty"`
	StartMs       int64    `yaml:"startMs"`
	EndMs         int64    `yaml:"endMs"`
	SourceStartMs int64    `yaml:"sourceStartMs,omitempty"`
	Volume        *float64 `yaml:"volume,omitempty"`
	Text          string   `yaml:"text,omitempty"`
}

// Expectation describes the required batch outcome.
type Expectation struct {
	// Outcome is one of applied, no_change, error.
	Outcome string `yaml:"outcome"`

	// Error is the expected error code when Outcome is error, e.g.
	// COMMAND_REJECTED or CONFLICT.
	Error string `yaml:"error,omitempty"`

	// Version is the expected committed version when Outcome is applied.
	Version *int64 `yaml:"version,omitempty"`

	// ChangedClipIDs is the exact expected changedClipIds list.
	ChangedClipIDs []string `yaml:"changedClipIds,omitempty"`

	// DurationMs is the expected final document duration.
	DurationMs *int64 `yaml:"durationMs,omitempty"`
}

// Outcome constants for Expectation.Outcome.
const (
	OutcomeApplied  = "applied"
	OutcomeNoChange = "no_change"
	OutcomeError    = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.FPS <= 0 {
		return fmt.Errorf("fps must be positive")
	}
	if len(s.Document.Tracks) == 0 {
		return fmt.Errorf("document.tracks is required and must be non-empty")
	}

	for i, tr := range s.Document.Tracks {
		if tr.ID == "" {
			return fmt.Errorf("document.tracks[%d]: id is required", i)
		}
		if !timeline.ValidKinds[timeline.Kind(tr.Kind)] {
			return fmt.Errorf("document.tracks[%d]: unknown kind %q", i, tr.Kind)
		}
	}

	for i, a := range s.Assets {
		if a.ID == "" {
			return fmt.Errorf("assets[%d]: id is required", i)
		}
		if a.Status != "" && !assets.ValidStatuses[assets.Status(a.Status)] {
			return fmt.Errorf("assets[%d]: unknown status %q", i, a.Status)
		}
	}

	for i, cmd := range s.Commands {
		if !engine.ValidCommandTypes[cmd.Type] {
			return fmt.Errorf("commands[%d]: unknown type %q", i, cmd.Type)
		}
	}

	switch s.Expect.Outcome {
	case OutcomeApplied, OutcomeNoChange:
		if s.Expect.Error != "" {
			return fmt.Errorf("expect.error is only valid with outcome error")
		}
	case OutcomeError:
		if s.Expect.Error == "" {
			return fmt.Errorf("expect.error is required for outcome error")
		}
	default:
		return fmt.Errorf("expect.outcome must be applied, no_change or error")
	}

	return nil
}

// buildDocument converts the YAML document spec into a timeline document.
func (s *Scenario) buildDocument() *timeline.Document {
	doc := &timeline.Document{
		SchemaVersion: timeline.SchemaVersion,
		FPS:           s.FPS,
		DurationMs:    s.Document.DurationMs,
		Tracks:        make([]timeline.Track, 0, len(s.Document.Tracks)),
	}
	for _, tr := range s.Document.Tracks {
		kind := timeline.Kind(tr.Kind)
		track := timeline.Track{
			ID:    tr.ID,
			Kind:  kind,
			Name:  tr.Name,
			Clips: make([]timeline.Clip, 0, len(tr.Clips)),
		}
		for _, c := range tr.Clips {
			clip := timeline.Clip{
				ID:            c.ID,
				Type:          kind,
				TrackID:       tr.ID,
				StartMs:       c.StartMs,
				EndMs:         c.EndMs,
				SourceStartMs: c.SourceStartMs,
			}
			if kind == timeline.KindSubtitle {
				text := c.Text
				clip.Text = &text
			} else {
				assetID := c.AssetID
				clip.AssetID = &assetID
				clip.Volume = timeline.DefaultVolume
				if c.Volume != nil {
					clip.Volume = *c.Volume
				}
			}
			track.Clips = append(track.Clips, clip)
		}
		doc.Tracks = append(doc.Tracks, track)
	}
	return doc
}
