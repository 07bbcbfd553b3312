package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/haldane/cutroom/internal/assets"
	"github.com/haldane/cutroom/internal/timeline"
)

// Sentinel errors for lookups. Checked with errors.Is.
var (
	ErrTimelineNotFound = errors.New("timeline not found")
	ErrVersionNotFound  = errors.New("version not found")
)

// GetTimeline returns the head record for a timeline, or
// ErrTimelineNotFound.
func (s *Store) GetTimeline(ctx context.Context, timelineID string) (*timeline.Timeline, error) {
	var (
		tl                   timeline.Timeline
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, latest_version, created_at, updated_at
		FROM timelines
		WHERE id = ?
	`, timelineID).Scan(&tl.ID, &tl.ProjectID, &tl.LatestVersion, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get timeline %s: %w", timelineID, ErrTimelineNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get timeline %s: %w", timelineID, err)
	}

	if tl.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("get timeline %s: %w", timelineID, err)
	}
	if tl.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("get timeline %s: %w", timelineID, err)
	}
	return &tl, nil
}

// GetLatestVersion returns the version row the head pointer designates.
// Reading through the pointer means a version row whose pointer update
// lost its race is invisible here, exactly as the protocol requires.
func (s *Store) GetLatestVersion(ctx context.Context, timelineID string) (*timeline.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT v.timeline_id, v.version, v.source, v.created_by, v.data, v.created_at
		FROM timeline_versions v
		JOIN timelines t ON t.id = v.timeline_id AND t.latest_version = v.version
		WHERE v.timeline_id = ?
	`, timelineID)

	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get latest version of %s: %w", timelineID, ErrTimelineNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get latest version of %s: %w", timelineID, err)
	}
	return v, nil
}

// GetVersion returns one specific version from the log, or
// ErrVersionNotFound. Every historical version stays reconstructable.
func (s *Store) GetVersion(ctx context.Context, timelineID string, version int64) (*timeline.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT timeline_id, version, source, created_by, data, created_at
		FROM timeline_versions
		WHERE timeline_id = ? AND version = ?
	`, timelineID, version)

	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get version %d of %s: %w", version, timelineID, ErrVersionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get version %d of %s: %w", version, timelineID, err)
	}
	return v, nil
}

// ListVersions returns the version log metadata for a timeline, oldest
// first. Data is left nil; fetch a specific version with GetVersion when
// the document itself is needed.
//
// Returns an empty slice (not nil) for an unknown timeline.
func (s *Store) ListVersions(ctx context.Context, timelineID string) ([]timeline.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timeline_id, version, source, created_by, created_at
		FROM timeline_versions
		WHERE timeline_id = ?
		ORDER BY version ASC
	`, timelineID)
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", timelineID, err)
	}
	defer rows.Close()

	versions := []timeline.Version{}
	for rows.Next() {
		var (
			v         timeline.Version
			source    string
			createdAt string
		)
		if err := rows.Scan(&v.TimelineID, &v.Version, &source, &v.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("list versions of %s: %w", timelineID, err)
		}
		v.Source = timeline.Source(source)
		if v.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("list versions of %s: %w", timelineID, err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", timelineID, err)
	}

	return versions, nil
}

// Statuses implements assets.Lookup against the registry table.
// Unknown ids are simply absent from the result map.
func (s *Store) Statuses(ctx context.Context, projectID string, assetIDs []string) (map[string]assets.Status, error) {
	statuses := make(map[string]assets.Status, len(assetIDs))
	if len(assetIDs) == 0 {
		return statuses, nil
	}

	placeholders := strings.Repeat("?, ", len(assetIDs)-1) + "?"
	args := make([]any, 0, len(assetIDs)+1)
	args = append(args, projectID)
	for _, id := range assetIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, status
		FROM assets
		WHERE project_id = ? AND id IN (%s)
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("asset statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("asset statuses: %w", err)
		}
		statuses[id] = assets.Status(status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("asset statuses: %w", err)
	}

	return statuses, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanVersion.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanVersion reads a full version row including its document.
func scanVersion(row rowScanner) (*timeline.Version, error) {
	var (
		v         timeline.Version
		source    string
		data      string
		createdAt string
	)
	if err := row.Scan(&v.TimelineID, &v.Version, &source, &v.CreatedBy, &data, &createdAt); err != nil {
		return nil, err
	}

	v.Source = timeline.Source(source)

	doc, err := unmarshalDocument(data)
	if err != nil {
		return nil, err
	}
	v.Data = doc

	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &v, nil
}
