package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/haldane/cutroom/internal/timeline"
)

// Default batch ceilings. Both are overridable via Limits; the values only
// bound automated (AI) writers, human edits never pass through here.
const (
	DefaultMaxCommandsPerCall = 20
	DefaultMaxCallsPerTurn    = 10
)

// MaxBatchAttempts bounds the end-to-end tries per batch: the original
// attempt plus exactly one automatic retry after a conflict. The retry
// re-fetches and re-applies against fresh state; it never resubmits the
// stale write.
const MaxBatchAttempts = 2

// Limits holds the externally configured batch ceilings.
type Limits struct {
	MaxCommandsPerCall int
	MaxCallsPerTurn    int
}

// DefaultLimits returns the default batch ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxCommandsPerCall: DefaultMaxCommandsPerCall,
		MaxCallsPerTurn:    DefaultMaxCallsPerTurn,
	}
}

// BatchResult is the outcome of one agent batch.
//
// Exactly one of Applied or NoChange is true. ChangedClipIDs reflects
// actual effect, not intent: it lists the clips touched by the attempt
// that committed, and is empty on NoChange.
type BatchResult struct {
	Applied        bool
	NoChange       bool
	Version        int64
	Data           *timeline.Document
	ChangedClipIDs []string
}

// BatchApplier orchestrates one AI tool call's worth of commands: fetch a
// snapshot, apply every command against it in order, and persist the
// result through the save protocol — all-or-nothing, retry once on
// conflict.
//
// One BatchApplier serves one conversation turn; ResetTurn starts the
// next. Apply is safe for concurrent use, though a turn's budget is shared
// across callers.
type BatchApplier struct {
	engine *Engine
	saver  *Saver
	db     Persistence
	limits Limits
	log    *slog.Logger

	mu    sync.Mutex
	calls int
}

// BatchOption configures a BatchApplier.
type BatchOption func(*BatchApplier)

// WithLimits overrides the default batch ceilings.
func WithLimits(l Limits) BatchOption {
	return func(b *BatchApplier) {
		b.limits = l
	}
}

// WithBatchLogger replaces the default slog logger.
func WithBatchLogger(log *slog.Logger) BatchOption {
	return func(b *BatchApplier) {
		b.log = log
	}
}

// NewBatchApplier creates a BatchApplier running commands through eng and
// persisting through saver. db supplies the snapshot reads.
func NewBatchApplier(eng *Engine, saver *Saver, db Persistence, opts ...BatchOption) *BatchApplier {
	b := &BatchApplier{
		engine: eng,
		saver:  saver,
		db:     db,
		limits: DefaultLimits(),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ResetTurn restores the per-turn tool-call budget.
func (b *BatchApplier) ResetTurn() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = 0
}

// CallsUsed returns the number of tool calls consumed this turn.
func (b *BatchApplier) CallsUsed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// Apply runs one batch of commands against the timeline's current version.
//
// The batch is rejected before any I/O when it exceeds the
// commands-per-call ceiling or the turn budget is spent. Any command that
// no-ops against the shared snapshot fails the whole batch — partial
// application is never persisted. A batch whose commands all legally apply
// but leave the document structurally identical to the base reports
// NoChange without consuming a version number.
func (b *BatchApplier) Apply(ctx context.Context, timelineID, createdBy string, cmds []Command) (*BatchResult, error) {
	if len(cmds) > b.limits.MaxCommandsPerCall {
		return nil, &BatchError{
			Code:    ErrCodeBatchTooLarge,
			Message: fmt.Sprintf("%d commands exceed the per-call ceiling of %d", len(cmds), b.limits.MaxCommandsPerCall),
		}
	}
	if err := b.consumeCall(); err != nil {
		return nil, err
	}
	if len(cmds) == 0 {
		return &BatchResult{NoChange: true}, nil
	}

	var lastConflict error
	for attempt := 0; attempt < MaxBatchAttempts; attempt++ {
		result, err := b.attempt(ctx, timelineID, createdBy, cmds)
		if err == nil {
			return result, nil
		}
		if !IsConflict(err) {
			return nil, err
		}
		lastConflict = err
		b.log.Warn("batch lost version race",
			"timeline", timelineID,
			"attempt", attempt+1,
			"max_attempts", MaxBatchAttempts,
		)
	}

	return nil, &BatchError{
		Code:    ErrCodeRetryExhausted,
		Message: fmt.Sprintf("timeline %s changed again during retry; giving up", timelineID),
		Err:     lastConflict,
	}
}

// attempt runs the batch once against a freshly fetched snapshot.
func (b *BatchApplier) attempt(ctx context.Context, timelineID, createdBy string, cmds []Command) (*BatchResult, error) {
	base, err := b.db.GetLatestVersion(ctx, timelineID)
	if err != nil {
		return nil, fmt.Errorf("batch: load latest version of %s: %w", timelineID, err)
	}

	doc := base.Data
	var clipIDs []string
	seen := make(map[string]bool)

	for i, cmd := range cmds {
		out := b.engine.Apply(doc, cmd)
		if !out.Changed {
			return nil, &BatchError{
				Code:    ErrCodeCommandRejected,
				Message: "did not apply",
				Index:   i,
				Command: cmd.Type,
			}
		}
		doc = out.Doc
		for _, id := range out.ClipIDs {
			if !seen[id] {
				seen[id] = true
				clipIDs = append(clipIDs, id)
			}
		}
	}

	// Every command applied, but collectively they may cancel out (e.g. a
	// trim that clamps back to the original bounds). Nothing to persist.
	if timeline.Equal(base.Data, doc) {
		b.log.Debug("batch produced no change",
			"timeline", timelineID,
			"base_version", base.Version,
			"commands", len(cmds),
		)
		return &BatchResult{NoChange: true}, nil
	}

	v, err := b.saver.Save(ctx, timelineID, base.Version, timeline.SourceAI, createdBy, doc)
	if err != nil {
		return nil, err
	}
	return &BatchResult{
		Applied:        true,
		Version:        v.Version,
		Data:           v.Data,
		ChangedClipIDs: clipIDs,
	}, nil
}

func (b *BatchApplier) consumeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls >= b.limits.MaxCallsPerTurn {
		return &BatchError{
			Code:    ErrCodeTurnBudgetExhausted,
			Message: fmt.Sprintf("turn budget of %d tool calls already spent", b.limits.MaxCallsPerTurn),
		}
	}
	b.calls++
	return nil
}
