package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/haldane/cutroom/internal/assets"
	"github.com/haldane/cutroom/internal/engine"
	"github.com/haldane/cutroom/internal/store"
	"github.com/haldane/cutroom/internal/testutil"
	"github.com/haldane/cutroom/internal/timeline"
)

// harnessProject scopes every scenario run; the store is fresh each time
// so the constant never collides.
const harnessProject = "harness"

// Result captures one scenario execution.
type Result struct {
	// Outcome is applied, no_change or error.
	Outcome string

	// Version is the committed version when Outcome is applied.
	Version int64

	// ChangedClipIDs is the batch's changed-clip report.
	ChangedClipIDs []string

	// Doc is the final head document, re-read from the store so the
	// persistence round-trip is part of what golden files cover.
	Doc *timeline.Document

	// Err holds the batch error when Outcome is error.
	Err error
}

// Run executes a scenario against a fresh in-memory store and the real
// engine, saver and batch applier.
//
// Execution flow:
//  1. Provision a timeline (version 1, seed document)
//  2. Register the scenario's assets
//  3. Save the scenario document as a manual version 2
//  4. Apply the command batch through the agent write path
//  5. Re-read the head and report the outcome
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithNow(fixedClock().Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	tl, err := st.CreateTimeline(ctx, harnessProject, scenario.FPS)
	if err != nil {
		return nil, fmt.Errorf("provision timeline: %w", err)
	}

	for _, a := range scenario.Assets {
		status := assets.Status(a.Status)
		if a.Status == "" {
			status = assets.StatusUploaded
		}
		if err := st.PutAsset(ctx, harnessProject, a.ID, status); err != nil {
			return nil, fmt.Errorf("seed asset %s: %w", a.ID, err)
		}
	}

	saver := engine.NewSaver(st, assets.NewValidator(st),
		engine.WithNow(fixedClock().Now),
		engine.WithLogger(quiet),
	)

	doc := scenario.buildDocument()
	if _, err := saver.Save(ctx, tl.ID, 1, timeline.SourceManual, harnessProject, doc); err != nil {
		return nil, fmt.Errorf("save scenario document: %w", err)
	}

	eng := engine.New(engine.WithIDGenerator(engine.NewFixedIDGenerator(scenario.ClipIDs...)))
	batch := engine.NewBatchApplier(eng, saver, st, engine.WithBatchLogger(quiet))

	result := &Result{}
	res, err := batch.Apply(ctx, tl.ID, harnessProject, scenario.Commands)
	switch {
	case err != nil:
		result.Outcome = OutcomeError
		result.Err = err
	case res.NoChange:
		result.Outcome = OutcomeNoChange
	default:
		result.Outcome = OutcomeApplied
		result.Version = res.Version
		result.ChangedClipIDs = res.ChangedClipIDs
	}

	head, err := st.GetLatestVersion(ctx, tl.ID)
	if err != nil {
		return nil, fmt.Errorf("read final head: %w", err)
	}
	result.Doc = head.Data

	return result, nil
}

// fixedClock pins every run to the same instant. Timestamps never reach
// the canonical document, but frozen time keeps store rows reproducible
// too.
func fixedClock() *testutil.Clock {
	return testutil.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}
