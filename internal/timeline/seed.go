package timeline

// NewSeedDocument builds the initial document written as version 1 when a
// timeline is provisioned: empty, zero duration, one video track and one
// subtitle track.
func NewSeedDocument(fps int) *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		FPS:           fps,
		DurationMs:    0,
		Tracks: []Track{
			{ID: NewTrackID(), Kind: KindVideo, Name: "Video 1", Clips: []Clip{}},
			{ID: NewTrackID(), Kind: KindSubtitle, Name: "Subtitles", Clips: []Clip{}},
		},
	}
}
