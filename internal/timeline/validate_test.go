package timeline

import (
	"errors"
	"strings"
	"testing"
)

func strptr(s string) *string { return &s }

// wellFormed builds a document with one clip per kind that passes Validate.
func wellFormed() *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		FPS:           30,
		DurationMs:    10000,
		Tracks: []Track{
			{
				ID:   "t-video",
				Kind: KindVideo,
				Name: "Video 1",
				Clips: []Clip{
					{ID: "c1", Type: KindVideo, TrackID: "t-video", AssetID: strptr("a1"), StartMs: 0, EndMs: 5000, Volume: 1},
				},
			},
			{
				ID:   "t-audio",
				Kind: KindAudio,
				Name: "Audio 1",
				Clips: []Clip{
					{ID: "c2", Type: KindAudio, TrackID: "t-audio", AssetID: strptr("a2"), StartMs: 1000, EndMs: 4000, SourceStartMs: 500, Volume: 0.5},
				},
			},
			{
				ID:   "t-sub",
				Kind: KindSubtitle,
				Name: "Subtitles",
				Clips: []Clip{
					{ID: "c3", Type: KindSubtitle, TrackID: "t-sub", StartMs: 0, EndMs: 2000, Text: strptr("hello")},
				},
			},
		},
	}
}

func TestValidate_WellFormed(t *testing.T) {
	if err := Validate(wellFormed()); err != nil {
		t.Fatalf("Validate() failed on well-formed document: %v", err)
	}
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Document)
		code   StructuralCode
	}{
		{
			name:   "wrong schema version",
			mutate: func(d *Document) { d.SchemaVersion = 2 },
			code:   CodeBadSchema,
		},
		{
			name:   "zero fps",
			mutate: func(d *Document) { d.FPS = 0 },
			code:   CodeBadFPS,
		},
		{
			name:   "negative duration",
			mutate: func(d *Document) { d.DurationMs = -1 },
			code:   CodeNegativeDuration,
		},
		{
			name:   "unknown track kind",
			mutate: func(d *Document) { d.Tracks[0].Kind = "image" },
			code:   CodeBadKind,
		},
		{
			name:   "duplicate track id",
			mutate: func(d *Document) { d.Tracks[1].ID = "t-video" },
			code:   CodeDuplicateTrackID,
		},
		{
			name: "duplicate clip id across tracks",
			mutate: func(d *Document) {
				d.Tracks[1].Clips[0].ID = "c1"
			},
			code: CodeDuplicateClipID,
		},
		{
			name:   "clip trackId mismatch",
			mutate: func(d *Document) { d.Tracks[0].Clips[0].TrackID = "elsewhere" },
			code:   CodeBadTrackRef,
		},
		{
			name:   "zero-length span",
			mutate: func(d *Document) { d.Tracks[0].Clips[0].EndMs = d.Tracks[0].Clips[0].StartMs },
			code:   CodeEmptySpan,
		},
		{
			name:   "clip type vs track kind",
			mutate: func(d *Document) { d.Tracks[0].Clips[0].Type = KindAudio },
			code:   CodeKindMismatch,
		},
		{
			name:   "clip past document end",
			mutate: func(d *Document) { d.Tracks[0].Clips[0].EndMs = 10001 },
			code:   CodePastEnd,
		},
		{
			name:   "negative sourceStartMs",
			mutate: func(d *Document) { d.Tracks[1].Clips[0].SourceStartMs = -10 },
			code:   CodeNegativeSourceStart,
		},
		{
			name:   "subtitle with asset",
			mutate: func(d *Document) { d.Tracks[2].Clips[0].AssetID = strptr("a9") },
			code:   CodeSubtitleAsset,
		},
		{
			name:   "subtitle without text",
			mutate: func(d *Document) { d.Tracks[2].Clips[0].Text = nil },
			code:   CodeSubtitleText,
		},
		{
			name: "subtitle text too long",
			mutate: func(d *Document) {
				long := strings.Repeat("x", MaxSubtitleRunes+1)
				d.Tracks[2].Clips[0].Text = &long
			},
			code: CodeSubtitleText,
		},
		{
			name:   "video without asset",
			mutate: func(d *Document) { d.Tracks[0].Clips[0].AssetID = nil },
			code:   CodeMissingAssetID,
		},
		{
			name:   "audio with text",
			mutate: func(d *Document) { d.Tracks[1].Clips[0].Text = strptr("nope") },
			code:   CodeUnexpectedText,
		},
		{
			name:   "volume above max",
			mutate: func(d *Document) { d.Tracks[0].Clips[0].Volume = 2.5 },
			code:   CodeVolumeRange,
		},
		{
			name:   "volume below min",
			mutate: func(d *Document) { d.Tracks[1].Clips[0].Volume = -0.1 },
			code:   CodeVolumeRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := wellFormed()
			tt.mutate(d)

			err := Validate(d)
			if err == nil {
				t.Fatal("Validate() succeeded, want structural error")
			}
			var se *StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("error type = %T, want *StructuralError", err)
			}
			if se.Code != tt.code {
				t.Errorf("code = %s, want %s", se.Code, tt.code)
			}
		})
	}
}

func TestValidate_SubtitleTextCountsRunes(t *testing.T) {
	d := wellFormed()
	// 500 multi-byte runes is exactly at the cap.
	text := strings.Repeat("é", MaxSubtitleRunes)
	d.Tracks[2].Clips[0].Text = &text

	if err := Validate(d); err != nil {
		t.Fatalf("Validate() rejected %d-rune subtitle: %v", MaxSubtitleRunes, err)
	}
}

func TestReferencedAssetIDs(t *testing.T) {
	d := wellFormed()
	// Second video clip re-referencing a1 must not duplicate it.
	d.DurationMs = 20000
	d.Tracks[0].Clips = append(d.Tracks[0].Clips, Clip{
		ID: "c4", Type: KindVideo, TrackID: "t-video", AssetID: strptr("a1"),
		StartMs: 6000, EndMs: 9000, Volume: 1,
	})

	ids := ReferencedAssetIDs(d)
	want := []string{"a1", "a2"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestReferencedAssetIDs_Empty(t *testing.T) {
	d := &Document{SchemaVersion: SchemaVersion, FPS: 30}
	if ids := ReferencedAssetIDs(d); len(ids) != 0 {
		t.Errorf("ids = %v, want empty", ids)
	}
}
