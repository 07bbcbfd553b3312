package timeline

import "time"

// SchemaVersion is the document schema version written into every document.
const SchemaVersion = 1

// Editing limits shared by the command engine and validation.
const (
	// MinClipDurationMs is the floor for any clip span. Trims and splits
	// never produce a clip shorter than this.
	MinClipDurationMs = 100

	// MinVolume and MaxVolume bound the volume of video/audio clips.
	MinVolume = 0.0
	MaxVolume = 2.0

	// DefaultVolume is used when addClip omits a volume.
	DefaultVolume = 1.0

	// MaxSubtitleRunes caps subtitle text length, counted in runes after
	// NFC normalization.
	MaxSubtitleRunes = 500
)

// Kind is the type of a track and, equally, of the clips it may hold.
// A track's kind is fixed at creation and never changes.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindSubtitle Kind = "subtitle"
)

// ValidKinds defines the allowed track/clip kinds.
var ValidKinds = map[Kind]bool{
	KindVideo:    true,
	KindAudio:    true,
	KindSubtitle: true,
}

// Source records which actor produced a version. It is audit metadata only
// and has no effect on conflict semantics.
type Source string

const (
	SourceSystem   Source = "system"
	SourceAutosave Source = "autosave"
	SourceManual   Source = "manual"
	SourceAI       Source = "ai"
)

// ValidSources defines the allowed version sources.
var ValidSources = map[Source]bool{
	SourceSystem:   true,
	SourceAutosave: true,
	SourceManual:   true,
	SourceAI:       true,
}

// Timeline is the mutable head record for one project's timeline. It owns
// the latestVersion pointer; the version rows themselves are append-only.
type Timeline struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"projectId"`
	LatestVersion int64     `json:"latestVersion"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Version is one immutable, fully self-contained snapshot of a timeline
// document. Once written it is never mutated or deleted.
type Version struct {
	TimelineID string    `json:"timelineId"`
	Version    int64     `json:"version"`
	Source     Source    `json:"source"`
	CreatedBy  string    `json:"createdBy"`
	Data       *Document `json:"data"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Document is the timeline payload inside a version.
type Document struct {
	SchemaVersion int     `json:"schemaVersion"`
	FPS           int     `json:"fps"`
	DurationMs    int64   `json:"durationMs"`
	Tracks        []Track `json:"tracks"`
}

// Track is a typed lane containing clips of matching kind. Track order is
// semantically irrelevant but stable for display.
type Track struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Name  string `json:"name"`
	Clips []Clip `json:"clips"`
}

// Clip is a placed, bounded interval of media or subtitle content.
// AssetID and Text are pointers because exactly one of them is null
// depending on the clip type: subtitles carry text and no asset,
// video/audio clips carry an asset and no text.
type Clip struct {
	ID            string  `json:"id"`
	Type          Kind    `json:"type"`
	TrackID       string  `json:"trackId"`
	AssetID       *string `json:"assetId"`
	StartMs       int64   `json:"startMs"`
	EndMs         int64   `json:"endMs"`
	SourceStartMs int64   `json:"sourceStartMs"`
	Volume        float64 `json:"volume"`
	Text          *string `json:"text"`
}

// DurationMs returns the clip's span length.
func (c *Clip) DurationMs() int64 {
	return c.EndMs - c.StartMs
}

// Track returns the track with the given id, or nil.
func (d *Document) Track(id string) *Track {
	for i := range d.Tracks {
		if d.Tracks[i].ID == id {
			return &d.Tracks[i]
		}
	}
	return nil
}

// Clip returns the clip with the given id together with its owning track,
// or (nil, nil) when the id is not present anywhere in the document.
func (d *Document) Clip(id string) (*Track, *Clip) {
	for i := range d.Tracks {
		t := &d.Tracks[i]
		for j := range t.Clips {
			if t.Clips[j].ID == id {
				return t, &t.Clips[j]
			}
		}
	}
	return nil, nil
}

// HasClip reports whether any clip in the document has the given id.
func (d *Document) HasClip(id string) bool {
	_, c := d.Clip(id)
	return c != nil
}

// ClipCount returns the total number of clips across all tracks.
func (d *Document) ClipCount() int {
	n := 0
	for i := range d.Tracks {
		n += len(d.Tracks[i].Clips)
	}
	return n
}

// Clone returns a deep copy of the document. The copy shares nothing with
// the original; editing code mutates clones, never persisted documents.
func (d *Document) Clone() *Document {
	out := &Document{
		SchemaVersion: d.SchemaVersion,
		FPS:           d.FPS,
		DurationMs:    d.DurationMs,
	}
	if d.Tracks != nil {
		out.Tracks = make([]Track, len(d.Tracks))
		for i := range d.Tracks {
			out.Tracks[i] = d.Tracks[i]
			src := d.Tracks[i].Clips
			if src == nil {
				continue
			}
			clips := make([]Clip, len(src))
			for j := range src {
				clips[j] = src[j]
				if src[j].AssetID != nil {
					v := *src[j].AssetID
					clips[j].AssetID = &v
				}
				if src[j].Text != nil {
					v := *src[j].Text
					clips[j].Text = &v
				}
			}
			out.Tracks[i].Clips = clips
		}
	}
	return out
}
