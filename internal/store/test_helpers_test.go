package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/haldane/cutroom/internal/testutil"
	"github.com/haldane/cutroom/internal/timeline"
)

// createTestStore creates a file-backed store in a temp dir with a frozen
// clock, so timestamp columns are reproducible.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	clock := testutil.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s, err := Open(path, WithNow(clock.Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTimeline provisions a timeline and returns its head record.
func createTestTimeline(t *testing.T, s *Store, projectID string) *timeline.Timeline {
	t.Helper()
	tl, err := s.CreateTimeline(context.Background(), projectID, 30)
	if err != nil {
		t.Fatalf("CreateTimeline() failed: %v", err)
	}
	return tl
}

// testVersion builds a version row on top of the seed document.
func testVersion(t *testing.T, s *Store, timelineID string, version int64) timeline.Version {
	t.Helper()
	head, err := s.GetLatestVersion(context.Background(), timelineID)
	if err != nil {
		t.Fatalf("GetLatestVersion() failed: %v", err)
	}
	doc := head.Data.Clone()
	doc.DurationMs += 1000 * version
	return timeline.Version{
		TimelineID: timelineID,
		Version:    version,
		Source:     timeline.SourceManual,
		CreatedBy:  "user-1",
		Data:       doc,
		CreatedAt:  s.now(),
	}
}
