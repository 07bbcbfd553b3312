package engine

import "github.com/haldane/cutroom/internal/timeline"

// CommandType identifies an edit intent.
type CommandType string

const (
	CmdAddClip     CommandType = "addClip"
	CmdTrimClip    CommandType = "trimClip"
	CmdSplitClip   CommandType = "splitClip"
	CmdMoveClip    CommandType = "moveClip"
	CmdSetVolume   CommandType = "setVolume"
	CmdAddSubtitle CommandType = "addSubtitle"
	CmdRemoveClip  CommandType = "removeClip"
)

// ValidCommandTypes defines the supported command types.
var ValidCommandTypes = map[CommandType]bool{
	CmdAddClip:     true,
	CmdTrimClip:    true,
	CmdSplitClip:   true,
	CmdMoveClip:    true,
	CmdSetVolume:   true,
	CmdAddSubtitle: true,
	CmdRemoveClip:  true,
}

// Command is one high-level edit intent. It is a tagged union: Type selects
// the operation and determines which fields are read. Optional numeric
// fields are pointers so "omitted" and "zero" stay distinguishable —
// trimClip(startMs: 0) and trimClip without startMs mean different things.
//
// Commands arrive from AI tool calls (JSON) and from edit scripts (YAML),
// hence the dual tags.
type Command struct {
	Type CommandType `json:"type" yaml:"type"`

	// Target references.
	TrackID string `json:"trackId,omitempty" yaml:"trackId,omitempty"`
	ClipID  string `json:"clipId,omitempty" yaml:"clipId,omitempty"`

	// addClip fields. ID optionally pins the new clip's id; when empty a
	// fresh id is generated.
	ID            string `json:"id,omitempty" yaml:"id,omitempty"`
	AssetID       string `json:"assetId,omitempty" yaml:"assetId,omitempty"`
	DurationMs    *int64 `json:"durationMs,omitempty" yaml:"durationMs,omitempty"`
	SourceStartMs *int64 `json:"sourceStartMs,omitempty" yaml:"sourceStartMs,omitempty"`

	// Bounds, used by addClip/trimClip/moveClip/addSubtitle.
	StartMs *int64 `json:"startMs,omitempty" yaml:"startMs,omitempty"`
	EndMs   *int64 `json:"endMs,omitempty" yaml:"endMs,omitempty"`

	// splitClip split point.
	AtMs *int64 `json:"atMs,omitempty" yaml:"atMs,omitempty"`

	// addClip/setVolume volume.
	Volume *float64 `json:"volume,omitempty" yaml:"volume,omitempty"`

	// addSubtitle text.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Outcome is the result of applying one command. When Changed is false the
// command could not legally apply and Doc is the input document, untouched.
// When Changed is true, Doc is a fresh document (the input is never
// mutated) and ClipIDs lists the clips the command touched: the inserted
// clip for addClip/addSubtitle, both halves for splitClip, the edited clip
// otherwise.
type Outcome struct {
	Doc     *timeline.Document
	Changed bool
	ClipIDs []string
}

func unchanged(doc *timeline.Document) Outcome {
	return Outcome{Doc: doc, Changed: false}
}

func changed(doc *timeline.Document, clipIDs ...string) Outcome {
	return Outcome{Doc: doc, Changed: true, ClipIDs: clipIDs}
}
