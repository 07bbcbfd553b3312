package timeline

import "github.com/google/uuid"

// ID constructors. UUIDv7 embeds a timestamp in the most significant bits,
// making ids sortable by creation time, which keeps the (startMs, id) clip
// ordering stable when several clips share a start.

// NewTimelineID returns a fresh timeline id.
func NewTimelineID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewTrackID returns a fresh track id.
func NewTrackID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewClipID returns a fresh clip id.
func NewClipID() string {
	return uuid.Must(uuid.NewV7()).String()
}
