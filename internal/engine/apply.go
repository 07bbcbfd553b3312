package engine

import (
	"unicode/utf8"

	"github.com/haldane/cutroom/internal/timeline"
)

// Engine applies edit commands to timeline documents. Zero-configuration
// construction via New(); tests inject a fixed id generator for
// deterministic output.
type Engine struct {
	ids ClipIDGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the clip-id generator.
// Use NewFixedIDGenerator in tests for deterministic clip ids.
func WithIDGenerator(g ClipIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// New creates an Engine. Defaults to UUIDv7 clip ids.
func New(opts ...Option) *Engine {
	e := &Engine{ids: UUIDGenerator{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply maps (document, command) to a new document. Pure: the input is
// never mutated, and an illegal command returns the input unchanged rather
// than raising. Given a well-formed input, the result is always
// well-formed.
func (e *Engine) Apply(doc *timeline.Document, cmd Command) Outcome {
	if doc == nil {
		return unchanged(doc)
	}
	switch cmd.Type {
	case CmdAddClip:
		return e.applyAddClip(doc, cmd)
	case CmdTrimClip:
		return e.applyTrimClip(doc, cmd)
	case CmdSplitClip:
		return e.applySplitClip(doc, cmd)
	case CmdMoveClip:
		return e.applyMoveClip(doc, cmd)
	case CmdSetVolume:
		return e.applySetVolume(doc, cmd)
	case CmdAddSubtitle:
		return e.applyAddSubtitle(doc, cmd)
	case CmdRemoveClip:
		return e.applyRemoveClip(doc, cmd)
	default:
		return unchanged(doc)
	}
}

// applyAddClip appends a media clip to a video or audio track. When startMs
// is omitted the clip lands immediately after the rightmost clip end on the
// target track.
func (e *Engine) applyAddClip(doc *timeline.Document, cmd Command) Outcome {
	track := doc.Track(cmd.TrackID)
	if track == nil || track.Kind == timeline.KindSubtitle {
		return unchanged(doc)
	}
	if cmd.AssetID == "" {
		return unchanged(doc)
	}

	id := cmd.ID
	if id == "" {
		id = e.ids.NewClipID()
	} else if doc.HasClip(id) {
		// Honoring the caller's id would break document-wide uniqueness.
		return unchanged(doc)
	}

	duration := int64(0)
	if cmd.DurationMs != nil {
		duration = *cmd.DurationMs
	}
	if duration < timeline.MinClipDurationMs {
		duration = timeline.MinClipDurationMs
	}

	var start int64
	if cmd.StartMs != nil {
		start = maxInt64(0, *cmd.StartMs)
	} else {
		for i := range track.Clips {
			if track.Clips[i].EndMs > start {
				start = track.Clips[i].EndMs
			}
		}
	}

	sourceStart := int64(0)
	if cmd.SourceStartMs != nil {
		sourceStart = maxInt64(0, *cmd.SourceStartMs)
	}

	volume := timeline.DefaultVolume
	if cmd.Volume != nil {
		volume = clampFloat(*cmd.Volume, timeline.MinVolume, timeline.MaxVolume)
	}

	assetID := cmd.AssetID
	out := doc.Clone()
	outTrack := out.Track(track.ID)
	outTrack.Clips = append(outTrack.Clips, timeline.Clip{
		ID:            id,
		Type:          track.Kind,
		TrackID:       track.ID,
		AssetID:       &assetID,
		StartMs:       start,
		EndMs:         start + duration,
		SourceStartMs: sourceStart,
		Volume:        volume,
	})
	renormalize(out)
	return changed(out, id)
}

// applyTrimClip adjusts one or both clip bounds. A single-bound trim that
// would fall under the 100ms floor is repaired by adjusting the bound the
// caller did not specify; a double-bound trim that violates the floor is
// rejected.
func (e *Engine) applyTrimClip(doc *timeline.Document, cmd Command) Outcome {
	if cmd.StartMs == nil && cmd.EndMs == nil {
		return unchanged(doc)
	}
	_, clip := doc.Clip(cmd.ClipID)
	if clip == nil {
		return unchanged(doc)
	}

	newStart := clip.StartMs
	newEnd := clip.EndMs
	if cmd.StartMs != nil {
		newStart = clampInt64(*cmd.StartMs, 0, doc.DurationMs)
	}
	if cmd.EndMs != nil {
		newEnd = clampInt64(*cmd.EndMs, 0, doc.DurationMs)
	}

	if newEnd-newStart < timeline.MinClipDurationMs {
		switch {
		case cmd.StartMs != nil && cmd.EndMs != nil:
			return unchanged(doc)
		case cmd.EndMs == nil:
			// Head trim: push the unspecified end later. Renormalization
			// raises the document duration if this runs past it.
			newEnd = newStart + timeline.MinClipDurationMs
		default:
			// Tail trim: pull the unspecified start earlier, floored at 0.
			newStart = newEnd - timeline.MinClipDurationMs
			if newStart < 0 {
				return unchanged(doc)
			}
		}
	}

	out := doc.Clone()
	_, outClip := out.Clip(cmd.ClipID)
	if delta := newStart - outClip.StartMs; delta != 0 && outClip.Type != timeline.KindSubtitle {
		// Trimming the head consumes source material; releasing it exposes
		// earlier material, never before the source origin.
		outClip.SourceStartMs = maxInt64(0, outClip.SourceStartMs+delta)
	}
	outClip.StartMs = newStart
	outClip.EndMs = newEnd
	renormalize(out)
	return changed(out, outClip.ID)
}

// applySplitClip cuts a clip in two at a point clamped to keep both halves
// at or above the floor. The first half keeps the original id.
func (e *Engine) applySplitClip(doc *timeline.Document, cmd Command) Outcome {
	if cmd.AtMs == nil {
		return unchanged(doc)
	}
	_, clip := doc.Clip(cmd.ClipID)
	if clip == nil {
		return unchanged(doc)
	}

	lo := clip.StartMs + timeline.MinClipDurationMs
	hi := clip.EndMs - timeline.MinClipDurationMs
	if lo > hi {
		// Clip shorter than two floors; no legal split point exists.
		return unchanged(doc)
	}
	at := clampInt64(*cmd.AtMs, lo, hi)

	out := doc.Clone()
	outTrack, outClip := out.Clip(cmd.ClipID)

	second := *outClip
	second.ID = e.ids.NewClipID()
	second.StartMs = at
	if second.AssetID != nil {
		v := *second.AssetID
		second.AssetID = &v
	}
	if second.Text != nil {
		v := *second.Text
		second.Text = &v
	}
	if second.Type != timeline.KindSubtitle {
		second.SourceStartMs += at - outClip.StartMs
	}
	outClip.EndMs = at

	outTrack.Clips = append(outTrack.Clips, second)
	renormalize(out)
	return changed(out, outClip.ID, second.ID)
}

// applyMoveClip relocates a clip to another track of the same kind,
// preserving its duration.
func (e *Engine) applyMoveClip(doc *timeline.Document, cmd Command) Outcome {
	if cmd.StartMs == nil {
		return unchanged(doc)
	}
	_, clip := doc.Clip(cmd.ClipID)
	target := doc.Track(cmd.TrackID)
	if clip == nil || target == nil || clip.Type != target.Kind {
		return unchanged(doc)
	}

	duration := clip.DurationMs()
	newStart := maxInt64(0, *cmd.StartMs)

	out := doc.Clone()
	moved := removeClipByID(out, cmd.ClipID)
	moved.TrackID = target.ID
	moved.StartMs = newStart
	moved.EndMs = newStart + duration

	outTarget := out.Track(target.ID)
	outTarget.Clips = append(outTarget.Clips, moved)
	renormalize(out)
	return changed(out, moved.ID)
}

// applySetVolume clamps and sets the volume of a media clip. Subtitles have
// no volume.
func (e *Engine) applySetVolume(doc *timeline.Document, cmd Command) Outcome {
	if cmd.Volume == nil {
		return unchanged(doc)
	}
	_, clip := doc.Clip(cmd.ClipID)
	if clip == nil || clip.Type == timeline.KindSubtitle {
		return unchanged(doc)
	}

	out := doc.Clone()
	_, outClip := out.Clip(cmd.ClipID)
	outClip.Volume = clampFloat(*cmd.Volume, timeline.MinVolume, timeline.MaxVolume)
	renormalize(out)
	return changed(out, outClip.ID)
}

// applyAddSubtitle places a text clip on a subtitle track. Bounds are
// clamped into the current document duration, so an empty (zero-length)
// document cannot take subtitles yet.
func (e *Engine) applyAddSubtitle(doc *timeline.Document, cmd Command) Outcome {
	track := doc.Track(cmd.TrackID)
	if track == nil || track.Kind != timeline.KindSubtitle {
		return unchanged(doc)
	}
	if cmd.StartMs == nil || cmd.EndMs == nil {
		return unchanged(doc)
	}

	text := timeline.NormalizeText(cmd.Text)
	if text == "" || utf8.RuneCountInString(text) > timeline.MaxSubtitleRunes {
		return unchanged(doc)
	}

	start := clampInt64(*cmd.StartMs, 0, doc.DurationMs)
	end := clampInt64(*cmd.EndMs, 0, doc.DurationMs)
	if end <= start {
		return unchanged(doc)
	}

	id := e.ids.NewClipID()
	out := doc.Clone()
	outTrack := out.Track(track.ID)
	outTrack.Clips = append(outTrack.Clips, timeline.Clip{
		ID:      id,
		Type:    timeline.KindSubtitle,
		TrackID: track.ID,
		StartMs: start,
		EndMs:   end,
		Text:    &text,
	})
	renormalize(out)
	return changed(out, id)
}

// applyRemoveClip deletes a clip wherever it lives. Removal never lowers
// the document duration.
func (e *Engine) applyRemoveClip(doc *timeline.Document, cmd Command) Outcome {
	if !doc.HasClip(cmd.ClipID) {
		return unchanged(doc)
	}
	out := doc.Clone()
	removeClipByID(out, cmd.ClipID)
	renormalize(out)
	return changed(out, cmd.ClipID)
}

// removeClipByID detaches and returns the clip with the given id.
// The caller must have verified the clip exists.
func removeClipByID(doc *timeline.Document, id string) timeline.Clip {
	for i := range doc.Tracks {
		t := &doc.Tracks[i]
		for j := range t.Clips {
			if t.Clips[j].ID == id {
				c := t.Clips[j]
				t.Clips = append(t.Clips[:j], t.Clips[j+1:]...)
				return c
			}
		}
	}
	return timeline.Clip{}
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
