package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/haldane/cutroom/internal/timeline"
)

func newTestBatch(t *testing.T, db *fakeStore, ids ...string) *BatchApplier {
	t.Helper()
	eng := New(WithIDGenerator(NewFixedIDGenerator(ids...)))
	return NewBatchApplier(eng, newTestSaver(db), db)
}

func TestBatch_AppliesAndCommits(t *testing.T) {
	db := newFakeStore()
	db.seed("tl-1", "p-1", baseDoc())
	b := newTestBatch(t, db, "g1", "g2")

	res, err := b.Apply(context.Background(), "tl-1", "agent", []Command{
		{Type: CmdTrimClip, ClipID: "c1", EndMs: i64(3000)},
		{Type: CmdSplitClip, ClipID: "c2", AtMs: i64(5000)},
		{Type: CmdSetVolume, ClipID: "c2", Volume: f64(0.5)},
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.False(t, res.NoChange)
	assert.Equal(t, int64(2), res.Version)
	assert.Equal(t, []string{"c1", "c2", "g1"}, res.ChangedClipIDs, "ordered, deduped across commands")

	_, clip := res.Data.Clip("c1")
	assert.Equal(t, int64(3000), clip.EndMs)
}

func TestBatch_TooLarge(t *testing.T) {
	db := newFakeStore()
	db.seed("tl-1", "p-1", baseDoc())
	b := newTestBatch(t, db)

	cmds := make([]Command, DefaultMaxCommandsPerCall+1)
	for i := range cmds {
		cmds[i] = Command{Type: CmdRemoveClip, ClipID: "c1"}
	}
	_, err := b.Apply(context.Background(), "tl-1", "agent", cmds)
	assert.True(t, IsBatchError(err, ErrCodeBatchTooLarge))
	assert.Equal(t, 0, b.CallsUsed(), "oversized batches do not consume budget")
}

func TestBatch_TurnBudget(t *testing.T) {
	db := newFakeStore()
	db.seed("tl-1", "p-1", baseDoc())
	b := NewBatchApplier(New(), newTestSaver(db), db, WithLimits(Limits{
		MaxCommandsPerCall: 5,
		MaxCallsPerTurn:    2,
	}))

	for i := 0; i < 2; i++ {
		_, err := b.Apply(context.Background(), "tl-1", "agent", nil)
		require.NoError(t, err)
	}
	_, err := b.Apply(context.Background(), "tl-1", "agent", nil)
	assert.True(t, IsBatchError(err, ErrCodeTurnBudgetExhausted))

	b.ResetTurn()
	_, err = b.Apply(context.Background(), "tl-1", "agent", nil)
	assert.NoError(t, err)
}

func TestBatch_EmptyIsNoChange(t *testing.T) {
	db := newFakeStore()
	db.seed("tl-1", "p-1", baseDoc())
	b := newTestBatch(t, db)

	res, err := b.Apply(context.Background(), "tl-1", "agent", nil)
	require.NoError(t, err)
	assert.True(t, res.NoChange)
	assert.Empty(t, res.ChangedClipIDs)
	assert.Equal(t, 1, b.CallsUsed(), "empty batches still consume budget")
}

func TestBatch_AllOrNothing(t *testing.T) {
	db := newFakeStore()
	db.seed("tl-1", "p-1", baseDoc())
	b := newTestBatch(t, db)

	_, err := b.Apply(context.Background(), "tl-1", "agent", []Command{
		{Type: CmdTrimClip, ClipID: "c1", EndMs: i64(3000)},
		{Type: CmdSetVolume, ClipID: "missing", Volume: f64(1)},
	})
	require.Error(t, err)
	assert.True(t, IsBatchError(err, ErrCodeCommandRejected))

	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 1, be.Index)
	assert.Equal(t, CmdSetVolume, be.Command)

	head, err := db.GetLatestVersion(context.Background(), "tl-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), head.Version, "nothing from a failed batch is written")
	_, clip := head.Data.Clip("c1")
	assert.Equal(t, int64(4000), clip.EndMs)
}

func TestBatch_CancellingCommandsReportNoChange(t *testing.T) {
	db := newFakeStore()
	db.seed("tl-1", "p-1", baseDoc())
	b := newTestBatch(t, db)

	// Two legal trims that restore the original bounds.
	res, err := b.Apply(context.Background(), "tl-1", "agent", []Command{
		{Type: CmdTrimClip, ClipID: "c1", EndMs: i64(3000)},
		{Type: CmdTrimClip, ClipID: "c1", EndMs: i64(4000)},
	})
	require.NoError(t, err)
	assert.True(t, res.NoChange)
	assert.Empty(t, res.ChangedClipIDs)

	head, err := db.GetLatestVersion(context.Background(), "tl-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), head.Version, "no-change batches consume no version")
}

// racingStore injects a competing write between the batch's snapshot read
// and its save, for the first n reads.
type racingStore struct {
	*fakeStore
	saver *Saver
	races int
}

func (r *racingStore) GetLatestVersion(ctx context.Context, timelineID string) (*timeline.Version, error) {
	v, err := r.fakeStore.GetLatestVersion(ctx, timelineID)
	if err != nil {
		return nil, err
	}
	if r.races > 0 {
		r.races--
		doc := v.Data.Clone()
		doc.DurationMs += 1000
		if _, err := r.saver.Save(ctx, timelineID, v.Version, timeline.SourceManual, "rival", doc); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func TestBatch_RetriesOnceAfterConflict(t *testing.T) {
	db := newFakeStore()
	db.seed("tl-1", "p-1", baseDoc())
	rs := &racingStore{fakeStore: db, saver: newTestSaver(db), races: 1}
	b := NewBatchApplier(New(), newTestSaver(db), rs)

	res, err := b.Apply(context.Background(), "tl-1", "agent", []Command{
		{Type: CmdTrimClip, ClipID: "c1", EndMs: i64(3000)},
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, int64(3), res.Version, "retry builds on the rival's version")

	_, clip := res.Data.Clip("c1")
	assert.Equal(t, int64(3000), clip.EndMs)
	assert.Equal(t, int64(11000), res.Data.DurationMs, "rival's edit survives")
}

func TestBatch_SecondConflictIsTerminal(t *testing.T) {
	db := newFakeStore()
	db.seed("tl-1", "p-1", baseDoc())
	rs := &racingStore{fakeStore: db, saver: newTestSaver(db), races: MaxBatchAttempts}
	b := NewBatchApplier(New(), newTestSaver(db), rs)

	_, err := b.Apply(context.Background(), "tl-1", "agent", []Command{
		{Type: CmdTrimClip, ClipID: "c1", EndMs: i64(3000)},
	})
	require.Error(t, err)
	assert.True(t, IsBatchError(err, ErrCodeRetryExhausted))
	assert.True(t, IsConflict(err), "the underlying conflict stays reachable")
}

// Four writers race on the same timeline, each looping read-apply-save
// until its write lands. The conditional writes guarantee every committed
// version had exactly one author and the sequence stays gapless.
func TestSave_ConcurrentWriters(t *testing.T) {
	db := newFakeStore()
	db.seed("tl-1", "p-1", baseDoc())
	s := newTestSaver(db)

	const writers = 4
	var g errgroup.Group
	for w := 0; w < writers; w++ {
		delta := int64(w+1) * 1000
		g.Go(func() error {
			for {
				head, err := db.GetLatestVersion(context.Background(), "tl-1")
				if err != nil {
					return err
				}
				doc := head.Data.Clone()
				doc.DurationMs += delta
				_, err = s.Save(context.Background(), "tl-1", head.Version, timeline.SourceAI, "agent", doc)
				if err == nil {
					return nil
				}
				if !IsConflict(err) {
					return err
				}
			}
		})
	}
	require.NoError(t, g.Wait())

	head, err := db.GetLatestVersion(context.Background(), "tl-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1+writers), head.Version)
	assert.Equal(t, int64(10000+1000+2000+3000+4000), head.Data.DurationMs, "every writer's edit landed exactly once")
}
