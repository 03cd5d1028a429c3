package scheduling

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkWatched(t *testing.T) {
	e := newEnv(t, 1, 1)
	c := e.child(0)
	recs := e.schedule(t, d1, []int{e.item(0)}, []int{c})

	got, err := e.watch.MarkWatched(ctx, recs[0].ID, c)
	require.NoError(t, err)
	assert.True(t, got.IsWatched)
	require.NotNil(t, got.WatchedAt)
	assert.True(t, got.IsActive, "watching does not deactivate")
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.SchedulesWatched))
}

func TestMarkWatched_IdempotentKeepsFirstTimestamp(t *testing.T) {
	e := newEnv(t, 1, 1)
	c := e.child(0)
	recs := e.schedule(t, d1, []int{e.item(0)}, []int{c})

	first, err := e.watch.MarkWatched(ctx, recs[0].ID, c)
	require.NoError(t, err)
	e.clock.Advance(time.Hour)
	second, err := e.watch.MarkWatched(ctx, recs[0].ID, c)
	require.NoError(t, err)

	require.NotNil(t, second.WatchedAt)
	assert.True(t, first.WatchedAt.Equal(*second.WatchedAt))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.SchedulesWatched))
}

func TestMarkWatched_OtherChild(t *testing.T) {
	e := newEnv(t, 2, 1)
	recs := e.schedule(t, d1, []int{e.item(0)}, []int{e.child(0)})

	_, err := e.watch.MarkWatched(ctx, recs[0].ID, e.child(1))
	assert.ErrorIs(t, err, ErrForbidden)

	rec, err := e.store.GetScheduleRecord(recs[0].ID)
	require.NoError(t, err)
	assert.False(t, rec.IsWatched)
}

func TestMarkWatched_Missing(t *testing.T) {
	e := newEnv(t, 1, 1)
	_, err := e.watch.MarkWatched(ctx, 4242, e.child(0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkWatched_NeverUnwatches(t *testing.T) {
	e := newEnv(t, 1, 1)
	c := e.child(0)
	recs := e.schedule(t, d1, []int{e.item(0)}, []int{c})
	_, err := e.watch.MarkWatched(ctx, recs[0].ID, c)
	require.NoError(t, err)

	// carryover and a fresh schedule for the same day leave it watched
	_, err = e.proc.ProcessCarryover(ctx, &c, d1.AddDays(4))
	require.NoError(t, err)
	e.schedule(t, d1, []int{e.item(0)}, []int{c})

	rec, err := e.store.GetScheduleRecord(recs[0].ID)
	require.NoError(t, err)
	assert.True(t, rec.IsWatched)
	assert.True(t, rec.IsActive)
}

func TestMarkWatched_SupersededRecordConflicts(t *testing.T) {
	e := newEnv(t, 1, 1)
	c := e.child(0)
	recs := e.schedule(t, d1, []int{e.item(0)}, []int{c})

	_, err := e.proc.ProcessCarryover(ctx, &c, d1.AddDays(1))
	require.NoError(t, err)

	_, err = e.watch.MarkWatched(ctx, recs[0].ID, c)
	assert.ErrorIs(t, err, ErrConflict)

	stale, err := e.store.GetScheduleRecord(recs[0].ID)
	require.NoError(t, err)
	assert.False(t, stale.IsActive)
	assert.False(t, stale.IsWatched)
	assert.Zero(t, testutil.ToFloat64(e.metrics.SchedulesWatched))

	// watching the active descendant ends the chain
	var current int
	for _, r := range e.history(t, c, e.item(0)) {
		if r.IsActive {
			current = r.ID
		}
	}
	require.NotZero(t, current)
	_, err = e.watch.MarkWatched(ctx, current, c)
	require.NoError(t, err)

	items, err := e.query.GetTodaysSchedule(ctx, c, d1.AddDays(3))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Len(t, e.history(t, c, e.item(0)), 2)
}
