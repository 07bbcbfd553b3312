package engine

import (
	"sync"

	"github.com/haldane/cutroom/internal/timeline"
)

// ClipIDGenerator supplies ids for clips the engine creates (addClip,
// addSubtitle, the second half of a split). Injected so Apply stays
// deterministic: production uses UUIDGenerator, tests use FixedIDGenerator.
type ClipIDGenerator interface {
	NewClipID() string
}

// UUIDGenerator generates time-sortable UUIDv7 clip ids.
// Stateless and safe for concurrent use.
type UUIDGenerator struct{}

// NewClipID returns a fresh UUIDv7 string.
func (UUIDGenerator) NewClipID() string {
	return timeline.NewClipID()
}

// FixedIDGenerator returns predetermined clip ids for testing.
// This enables deterministic test execution and golden document comparison.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
// Generating past the end panics; this is a fail-fast guard against test
// misconfiguration (the scenario created more clips than expected).
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// NewClipID returns the next predetermined id.
func (g *FixedIDGenerator) NewClipID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedIDGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
