package store

import (
	"fmt"
	"time"

	"github.com/haldane/cutroom/internal/timeline"
)

// marshalDocument converts a document to canonical JSON TEXT for storage.
// Canonical form makes stored bytes comparable: two rows hold the same
// document iff their data columns are byte-identical.
func marshalDocument(d *timeline.Document) (string, error) {
	data, err := timeline.MarshalCanonical(d)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(data), nil
}

// unmarshalDocument parses stored TEXT back into a document.
func unmarshalDocument(data string) (*timeline.Document, error) {
	d, err := timeline.UnmarshalDocument([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return d, nil
}

// formatTime renders a timestamp for TEXT columns. RFC 3339 with
// nanoseconds, always UTC, so lexical order equals chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a TEXT column written by formatTime.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
