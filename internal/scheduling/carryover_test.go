package scheduling

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/db"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

func TestProcessCarryover_ChainsOneDayAtATime(t *testing.T) {
	e := newEnv(t, 1, 1)
	c, v := e.child(0), e.item(0)
	e.schedule(t, d1, []int{v}, []int{c})

	res, err := e.proc.ProcessCarryover(ctx, &c, d1.AddDays(2))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Found)
	assert.Equal(t, 2, res.Carried)
	assert.Equal(t, 0, res.Failed)

	hist := e.history(t, c, v)
	require.Len(t, hist, 3)
	for i, r := range hist {
		assert.Equal(t, d1.AddDays(i), r.ScheduledDate)
		assert.Equal(t, d1, r.OriginalDate, "original date must survive carryover")
		assert.False(t, r.IsWatched)
	}
	assert.False(t, hist[0].IsActive)
	assert.False(t, hist[0].CarriedOver)
	assert.False(t, hist[1].IsActive)
	assert.True(t, hist[1].CarriedOver)
	assert.True(t, hist[2].IsActive)
	assert.True(t, hist[2].CarriedOver)
}

func TestProcessCarryover_Idempotent(t *testing.T) {
	e := newEnv(t, 1, 2)
	c := e.child(0)
	e.schedule(t, d1, []int{e.item(0), e.item(1)}, []int{c})
	ref := d1.AddDays(1)

	first, err := e.proc.ProcessCarryover(ctx, &c, ref)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Carried)
	before := activeCounts(t, e.store, c, e.item(0))

	second, err := e.proc.ProcessCarryover(ctx, &c, ref)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Found)
	assert.Equal(t, 0, second.Carried)
	assert.Equal(t, before, activeCounts(t, e.store, c, e.item(0)))
}

func TestProcessCarryover_SkipsWatched(t *testing.T) {
	e := newEnv(t, 1, 1)
	c, v := e.child(0), e.item(0)
	recs := e.schedule(t, d1, []int{v}, []int{c})
	require.Len(t, recs, 1)

	watched, err := e.watch.MarkWatched(ctx, recs[0].ID, c)
	require.NoError(t, err)

	res, err := e.proc.ProcessCarryover(ctx, &c, d1.AddDays(1))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Found)
	assert.Equal(t, 0, res.Carried)

	hist := e.history(t, c, v)
	require.Len(t, hist, 1)
	assert.Equal(t, watched, hist[0], "watched record must not be altered")
}

func TestProcessCarryover_MergesIntoExistingActiveRecord(t *testing.T) {
	e := newEnv(t, 1, 1)
	c, v := e.child(0), e.item(0)
	e.schedule(t, d1, []int{v}, []int{c})
	e.schedule(t, d1.AddDays(1), []int{v}, []int{c})

	res, err := e.proc.ProcessCarryover(ctx, &c, d1.AddDays(1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Found)
	assert.Equal(t, 0, res.Carried)
	assert.Equal(t, 1, res.Merged)

	hist := e.history(t, c, v)
	require.Len(t, hist, 2)
	assert.False(t, hist[0].IsActive, "stale record is retired even when nothing is created")
	assert.True(t, hist[1].IsActive)
	assert.False(t, hist[1].CarriedOver)
}

func TestProcessCarryover_ScopedToChild(t *testing.T) {
	e := newEnv(t, 2, 1)
	e.schedule(t, d1, []int{e.item(0)}, []int{e.child(0), e.child(1)})

	c := e.child(0)
	res, err := e.proc.ProcessCarryover(ctx, &c, d1.AddDays(1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Carried)

	other := e.history(t, e.child(1), e.item(0))
	require.Len(t, other, 1)
	assert.True(t, other[0].IsActive)
}

func TestProcessCarryover_JumpsAfterMaxCatchUp(t *testing.T) {
	e := newEnv(t, 1, 1, WithMaxCatchUpDays(2))
	c, v := e.child(0), e.item(0)
	e.schedule(t, d1, []int{v}, []int{c})
	ref := d1.AddDays(5)

	_, err := e.proc.ProcessCarryover(ctx, &c, ref)
	require.NoError(t, err)

	hist := e.history(t, c, v)
	require.Len(t, hist, 4)
	assert.Equal(t, d1.AddDays(1), hist[1].ScheduledDate)
	assert.Equal(t, d1.AddDays(2), hist[2].ScheduledDate)
	assert.Equal(t, ref, hist[3].ScheduledDate)
	assert.Equal(t, map[string]int{ref.String(): 1}, activeCounts(t, e.store, c, v))
}

func TestProcessCarryover_AdvancesWatermark(t *testing.T) {
	e := newEnv(t, 1, 1)
	c := e.child(0)
	e.schedule(t, d1, []int{e.item(0)}, []int{c})

	_, err := e.proc.ProcessCarryover(ctx, &c, d1.AddDays(3))
	require.NoError(t, err)

	w, err := e.proc.Watermark(c)
	require.NoError(t, err)
	assert.Equal(t, d1.AddDays(2), w.ClosedThrough)
	assert.Equal(t, TriggerLazy, w.Trigger)

	// an older reference date never moves it back
	_, err = e.proc.ProcessCarryover(ctx, &c, d1)
	require.NoError(t, err)
	w, err = e.proc.Watermark(c)
	require.NoError(t, err)
	assert.Equal(t, d1.AddDays(2), w.ClosedThrough)
}

func TestProcessCarryover_RecordsMetrics(t *testing.T) {
	e := newEnv(t, 1, 1)
	c := e.child(0)
	e.schedule(t, d1, []int{e.item(0)}, []int{c})

	_, err := e.proc.ProcessCarryover(ctx, &c, d1.AddDays(1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.CarryoverCreated.WithLabelValues(TriggerLazy)))
}

func TestProcessCarryover_RequiresDate(t *testing.T) {
	e := newEnv(t, 1, 1)
	_, err := e.proc.ProcessCarryover(ctx, nil, model.Date{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProcessCarryover_ConcurrentCallersKeepOneActiveRecord(t *testing.T) {
	e := newEnv(t, 1, 3)
	c := e.child(0)
	items := []int{e.item(0), e.item(1), e.item(2)}
	e.schedule(t, d1, items, []int{c})
	ref := d1.AddDays(3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.proc.ProcessCarryover(ctx, &c, ref)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for _, v := range items {
		assert.Equal(t, map[string]int{ref.String(): 1}, activeCounts(t, e.store, c, v))
		for _, r := range e.history(t, c, v) {
			assert.Equal(t, d1, r.OriginalDate)
		}
	}
}

// failingStore fails CarryOverRecord for one record id.
type failingStore struct {
	db.Store
	failID int
}

func (f failingStore) CarryOverRecord(stale model.ScheduleRecord, target model.Date) (db.CarryoverOutcome, error) {
	if stale.ID == f.failID {
		return db.OutcomeStale, errors.New("disk on fire")
	}
	return f.Store.CarryOverRecord(stale, target)
}

func TestProcessCarryover_ContinuesPastFailures(t *testing.T) {
	e := newEnv(t, 1, 3)
	c := e.child(0)
	recs := e.schedule(t, d1, []int{e.item(0), e.item(1), e.item(2)}, []int{c})
	require.Len(t, recs, 3)

	proc := NewProcessor(failingStore{Store: e.store, failID: recs[1].ID})
	res, err := proc.ProcessCarryover(ctx, &c, d1.AddDays(1))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Carried)
	assert.GreaterOrEqual(t, res.Failed, 1)

	stuck, err := e.store.GetScheduleRecord(recs[1].ID)
	require.NoError(t, err)
	assert.True(t, stuck.IsActive, "a failed record keeps its prior state")

	_, err = e.proc.Watermark(c)
	assert.ErrorIs(t, err, ErrNotFound, "watermark only moves after a clean pass")
}
