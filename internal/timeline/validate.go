package timeline

import (
	"fmt"
	"unicode/utf8"
)

// StructuralCode categorizes structural validation failures.
type StructuralCode string

const (
	CodeBadSchema           StructuralCode = "BAD_SCHEMA"
	CodeBadFPS              StructuralCode = "BAD_FPS"
	CodeNegativeDuration    StructuralCode = "NEGATIVE_DURATION"
	CodeBadKind             StructuralCode = "BAD_KIND"
	CodeDuplicateTrackID    StructuralCode = "DUPLICATE_TRACK_ID"
	CodeDuplicateClipID     StructuralCode = "DUPLICATE_CLIP_ID"
	CodeBadTrackRef         StructuralCode = "BAD_TRACK_REF"
	CodeEmptySpan           StructuralCode = "EMPTY_SPAN"
	CodeKindMismatch        StructuralCode = "KIND_MISMATCH"
	CodePastEnd             StructuralCode = "PAST_END"
	CodeSubtitleAsset       StructuralCode = "SUBTITLE_ASSET"
	CodeSubtitleText        StructuralCode = "SUBTITLE_TEXT"
	CodeMissingAssetID      StructuralCode = "MISSING_ASSET_ID"
	CodeUnexpectedText      StructuralCode = "UNEXPECTED_TEXT"
	CodeVolumeRange         StructuralCode = "VOLUME_RANGE"
	CodeNegativeSourceStart StructuralCode = "NEGATIVE_SOURCE_START"
)

// StructuralError reports a document that violates a structural invariant.
// It is always caught before any version row is written.
type StructuralError struct {
	Code    StructuralCode
	TrackID string
	ClipID  string
	Message string
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	switch {
	case e.ClipID != "":
		return fmt.Sprintf("%s: %s (clip=%s)", e.Code, e.Message, e.ClipID)
	case e.TrackID != "":
		return fmt.Sprintf("%s: %s (track=%s)", e.Code, e.Message, e.TrackID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func structuralErr(code StructuralCode, trackID, clipID, format string, args ...any) *StructuralError {
	return &StructuralError{
		Code:    code,
		TrackID: trackID,
		ClipID:  clipID,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validate checks every structural invariant and returns the first
// violation found, or nil for a well-formed document.
func Validate(d *Document) error {
	if d == nil {
		return structuralErr(CodeBadSchema, "", "", "document is nil")
	}
	if d.SchemaVersion != SchemaVersion {
		return structuralErr(CodeBadSchema, "", "", "unsupported schema version %d (want %d)", d.SchemaVersion, SchemaVersion)
	}
	if d.FPS <= 0 {
		return structuralErr(CodeBadFPS, "", "", "fps must be positive, got %d", d.FPS)
	}
	if d.DurationMs < 0 {
		return structuralErr(CodeNegativeDuration, "", "", "durationMs must be non-negative, got %d", d.DurationMs)
	}

	trackIDs := make(map[string]bool, len(d.Tracks))
	clipIDs := make(map[string]bool)

	for i := range d.Tracks {
		t := &d.Tracks[i]
		if t.ID == "" {
			return structuralErr(CodeBadTrackRef, "", "", "track %d has empty id", i)
		}
		if !ValidKinds[t.Kind] {
			return structuralErr(CodeBadKind, t.ID, "", "unknown track kind %q", t.Kind)
		}
		if trackIDs[t.ID] {
			return structuralErr(CodeDuplicateTrackID, t.ID, "", "track id appears more than once")
		}
		trackIDs[t.ID] = true

		for j := range t.Clips {
			if err := validateClip(d, t, &t.Clips[j], clipIDs); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateClip(d *Document, t *Track, c *Clip, clipIDs map[string]bool) error {
	if c.ID == "" {
		return structuralErr(CodeDuplicateClipID, t.ID, "", "clip has empty id")
	}
	if clipIDs[c.ID] {
		return structuralErr(CodeDuplicateClipID, t.ID, c.ID, "clip id appears more than once in document")
	}
	clipIDs[c.ID] = true

	if c.TrackID != t.ID {
		return structuralErr(CodeBadTrackRef, t.ID, c.ID, "clip trackId %q does not match owning track", c.TrackID)
	}
	if c.Type != t.Kind {
		return structuralErr(CodeKindMismatch, t.ID, c.ID, "clip type %q on track of kind %q", c.Type, t.Kind)
	}
	if c.EndMs <= c.StartMs {
		return structuralErr(CodeEmptySpan, t.ID, c.ID, "endMs %d must exceed startMs %d", c.EndMs, c.StartMs)
	}
	if c.EndMs > d.DurationMs {
		return structuralErr(CodePastEnd, t.ID, c.ID, "endMs %d extends past document duration %d", c.EndMs, d.DurationMs)
	}
	if c.SourceStartMs < 0 {
		return structuralErr(CodeNegativeSourceStart, t.ID, c.ID, "sourceStartMs %d is negative", c.SourceStartMs)
	}

	if c.Type == KindSubtitle {
		if c.AssetID != nil {
			return structuralErr(CodeSubtitleAsset, t.ID, c.ID, "subtitle clip must not reference an asset")
		}
		if c.Text == nil || *c.Text == "" {
			return structuralErr(CodeSubtitleText, t.ID, c.ID, "subtitle clip requires non-empty text")
		}
		if n := utf8.RuneCountInString(*c.Text); n > MaxSubtitleRunes {
			return structuralErr(CodeSubtitleText, t.ID, c.ID, "subtitle text is %d runes, max %d", n, MaxSubtitleRunes)
		}
		return nil
	}

	// video / audio
	if c.AssetID == nil || *c.AssetID == "" {
		return structuralErr(CodeMissingAssetID, t.ID, c.ID, "%s clip requires an asset reference", c.Type)
	}
	if c.Text != nil {
		return structuralErr(CodeUnexpectedText, t.ID, c.ID, "%s clip must not carry text", c.Type)
	}
	if c.Volume < MinVolume || c.Volume > MaxVolume {
		return structuralErr(CodeVolumeRange, t.ID, c.ID, "volume %g outside [%g, %g]", c.Volume, MinVolume, MaxVolume)
	}
	return nil
}

// ReferencedAssetIDs returns the distinct asset ids referenced by any clip,
// in first-appearance order.
func ReferencedAssetIDs(d *Document) []string {
	seen := make(map[string]bool)
	var ids []string
	for i := range d.Tracks {
		for j := range d.Tracks[i].Clips {
			a := d.Tracks[i].Clips[j].AssetID
			if a == nil || *a == "" || seen[*a] {
				continue
			}
			seen[*a] = true
			ids = append(ids, *a)
		}
	}
	return ids
}
