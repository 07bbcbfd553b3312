package store

import (
	"context"
	"fmt"

	"github.com/haldane/cutroom/internal/assets"
	"github.com/haldane/cutroom/internal/timeline"
)

// CreateTimeline provisions a new timeline for a project: the head record
// and version 1 (source=system, the seed document with one empty video and
// one empty subtitle track) are inserted in a single transaction, so no
// observer ever sees a timeline without a version.
func (s *Store) CreateTimeline(ctx context.Context, projectID string, fps int) (*timeline.Timeline, error) {
	doc := timeline.NewSeedDocument(fps)
	if err := timeline.Validate(doc); err != nil {
		return nil, fmt.Errorf("create timeline: seed document: %w", err)
	}
	data, err := marshalDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("create timeline: %w", err)
	}

	now := s.now().UTC()
	tl := &timeline.Timeline{
		ID:            timeline.NewTimelineID(),
		ProjectID:     projectID,
		LatestVersion: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create timeline: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO timelines (id, project_id, latest_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		tl.ID,
		tl.ProjectID,
		tl.LatestVersion,
		formatTime(tl.CreatedAt),
		formatTime(tl.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("create timeline: insert head: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO timeline_versions (timeline_id, version, source, created_by, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		tl.ID,
		1,
		string(timeline.SourceSystem),
		"system",
		data,
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("create timeline: insert seed version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create timeline: commit: %w", err)
	}

	return tl, nil
}

// InsertVersionIfAbsent appends a version row to the log.
// Uses ON CONFLICT DO NOTHING against the (timeline_id, version) primary
// key: losing the insert race reports inserted=false without error, which
// the save protocol surfaces as a conflict. The log itself is never
// updated or deleted.
func (s *Store) InsertVersionIfAbsent(ctx context.Context, v timeline.Version) (bool, error) {
	data, err := marshalDocument(v.Data)
	if err != nil {
		return false, fmt.Errorf("insert version: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO timeline_versions (timeline_id, version, source, created_by, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(timeline_id, version) DO NOTHING
	`,
		v.TimelineID,
		v.Version,
		string(v.Source),
		v.CreatedBy,
		data,
		formatTime(v.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert version: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert version: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// UpdatePointerIfMatches advances the head pointer to next only if it
// still equals expected. The WHERE clause is the compare-and-swap;
// RowsAffected reports whether this writer won.
func (s *Store) UpdatePointerIfMatches(ctx context.Context, timelineID string, expected, next int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE timelines
		SET latest_version = ?, updated_at = ?
		WHERE id = ? AND latest_version = ?
	`,
		next,
		formatTime(s.now()),
		timelineID,
		expected,
	)
	if err != nil {
		return false, fmt.Errorf("update pointer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update pointer: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// PutAsset registers an asset or updates its upload status. Upsert: the
// registry tracks current status only, history lives with the uploader.
func (s *Store) PutAsset(ctx context.Context, projectID, assetID string, status assets.Status) error {
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (project_id, id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at
	`,
		projectID,
		assetID,
		string(status),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("put asset: %w", err)
	}
	return nil
}
