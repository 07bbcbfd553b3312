package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/haldane/cutroom/internal/assets"
	"github.com/haldane/cutroom/internal/timeline"
)

// Persistence is the storage collaborator for the save protocol.
// Implemented by the SQLite and Postgres stores. The two conditional
// writes are the only concurrency primitives the protocol needs: no lock
// is ever taken.
type Persistence interface {
	// GetTimeline returns the head record, or store.ErrTimelineNotFound.
	GetTimeline(ctx context.Context, timelineID string) (*timeline.Timeline, error)

	// GetLatestVersion returns the version row the head pointer designates.
	GetLatestVersion(ctx context.Context, timelineID string) (*timeline.Version, error)

	// InsertVersionIfAbsent appends a version row, returning false without
	// error when a row at (timelineID, version) already exists.
	InsertVersionIfAbsent(ctx context.Context, v timeline.Version) (bool, error)

	// UpdatePointerIfMatches advances latestVersion to next only if it
	// still equals expected, reporting whether the update applied.
	UpdatePointerIfMatches(ctx context.Context, timelineID string, expected, next int64) (bool, error)
}

// Saver implements the version-gated write path: validate, read, append
// behind a compare-and-swap pair.
type Saver struct {
	db     Persistence
	assets *assets.Validator
	now    func() time.Time
	log    *slog.Logger
}

// SaverOption configures a Saver.
type SaverOption func(*Saver)

// WithNow replaces the wall clock, for deterministic version timestamps in
// tests.
func WithNow(now func() time.Time) SaverOption {
	return func(s *Saver) {
		s.now = now
	}
}

// WithLogger replaces the default slog logger.
func WithLogger(log *slog.Logger) SaverOption {
	return func(s *Saver) {
		s.log = log
	}
}

// NewSaver creates a Saver writing through db, with asset references
// checked by validator.
func NewSaver(db Persistence, validator *assets.Validator, opts ...SaverOption) *Saver {
	s := &Saver{
		db:     db,
		assets: validator,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save attempts a version-gated write of doc on top of expectedBase.
//
// Validation failures (timeline.StructuralError, assets.ReferenceError)
// are returned before any write is attempted and consume no version
// number. A *ConflictError means another writer raced ahead; the caller
// must re-read and retry with fresh state. On success the freshly
// committed version is returned.
//
// The operation can be abandoned without side effects any time before the
// version row insert commits; after that the row is permanent (append-only
// log) even if the pointer update loses its race.
func (s *Saver) Save(ctx context.Context, timelineID string, expectedBase int64, source timeline.Source, createdBy string, doc *timeline.Document) (*timeline.Version, error) {
	if source != timeline.SourceAutosave && source != timeline.SourceManual && source != timeline.SourceAI {
		return nil, fmt.Errorf("save: invalid source %q", source)
	}

	// Step 1: validate before touching the log. No write, no version
	// number consumed.
	if err := timeline.Validate(doc); err != nil {
		return nil, err
	}

	tl, err := s.db.GetTimeline(ctx, timelineID)
	if err != nil {
		return nil, fmt.Errorf("save: load timeline %s: %w", timelineID, err)
	}
	if err := s.assets.Validate(ctx, tl.ProjectID, doc); err != nil {
		return nil, err
	}

	// Step 2: stale-read check.
	if tl.LatestVersion != expectedBase {
		s.log.Debug("save conflict on read",
			"timeline", timelineID,
			"expected", expectedBase,
			"actual", tl.LatestVersion,
		)
		return nil, &ConflictError{TimelineID: timelineID, BaseVersion: expectedBase}
	}

	next := timeline.Version{
		TimelineID: timelineID,
		Version:    expectedBase + 1,
		Source:     source,
		CreatedBy:  createdBy,
		Data:       doc,
		CreatedAt:  s.now().UTC(),
	}

	// Step 3: append the version row, guarded by the (timeline, version)
	// uniqueness constraint. Losing this insert means a concurrent writer
	// won between steps 2 and 3 — same conflict, same remedy.
	inserted, err := s.db.InsertVersionIfAbsent(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("save: insert version %d: %w", next.Version, err)
	}
	if !inserted {
		s.log.Debug("save conflict on insert",
			"timeline", timelineID,
			"version", next.Version,
		)
		return nil, &ConflictError{TimelineID: timelineID, BaseVersion: expectedBase}
	}

	// Step 4: advance the pointer only if nobody moved it. The version row
	// from step 3 stays either way — the log is never rolled back.
	moved, err := s.db.UpdatePointerIfMatches(ctx, timelineID, expectedBase, next.Version)
	if err != nil {
		return nil, fmt.Errorf("save: advance pointer to %d: %w", next.Version, err)
	}
	if !moved {
		s.log.Warn("save conflict on pointer update, version row retained",
			"timeline", timelineID,
			"version", next.Version,
		)
		return nil, &ConflictError{TimelineID: timelineID, BaseVersion: expectedBase}
	}

	s.log.Info("version committed",
		"timeline", timelineID,
		"version", next.Version,
		"source", source,
		"created_by", createdBy,
		"clips", doc.ClipCount(),
	)
	return &next, nil
}
