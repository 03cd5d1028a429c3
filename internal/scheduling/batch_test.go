package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

func TestRunBatchCarryover_AllChildren(t *testing.T) {
	e := newEnv(t, 2, 2)
	e.schedule(t, d1, []int{e.item(0), e.item(1)}, []int{e.child(0), e.child(1)})

	res, err := e.proc.RunBatchCarryover(ctx, d1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Children)
	assert.Equal(t, 4, res.Found)
	assert.Equal(t, 4, res.Carried)
	assert.Equal(t, d1.AddDays(1), res.TargetDate)

	for _, c := range []int{e.child(0), e.child(1)} {
		for _, v := range []int{e.item(0), e.item(1)} {
			assert.Equal(t, map[string]int{d1.AddDays(1).String(): 1}, activeCounts(t, e.store, c, v))
		}
	}
}

func TestRunBatchCarryover_RepeatIsNoop(t *testing.T) {
	e := newEnv(t, 1, 1)
	e.schedule(t, d1, []int{e.item(0)}, []int{e.child(0)})

	_, err := e.proc.RunBatchCarryover(ctx, d1)
	require.NoError(t, err)
	again, err := e.proc.RunBatchCarryover(ctx, d1)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Found)
	assert.Equal(t, 0, again.Carried)
	assert.Len(t, e.history(t, e.child(0), e.item(0)), 2)
}

func TestRunBatchCarryover_OnlyExactDate(t *testing.T) {
	e := newEnv(t, 1, 2)
	c := e.child(0)
	e.schedule(t, d1, []int{e.item(0)}, []int{c})
	e.schedule(t, d1.AddDays(1), []int{e.item(1)}, []int{c})

	res, err := e.proc.RunBatchCarryover(ctx, d1.AddDays(1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Found)

	older := e.history(t, c, e.item(0))
	require.Len(t, older, 1)
	assert.True(t, older[0].IsActive, "days other than the explicit date are left alone")
}

func TestRunBatchCarryover_AfterLazyFindsNothing(t *testing.T) {
	e := newEnv(t, 1, 1)
	c := e.child(0)
	e.schedule(t, d1, []int{e.item(0)}, []int{c})

	_, err := e.proc.ProcessCarryover(ctx, &c, d1.AddDays(1))
	require.NoError(t, err)

	res, err := e.proc.RunBatchCarryover(ctx, d1)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Found)
	assert.Equal(t, map[string]int{d1.AddDays(1).String(): 1}, activeCounts(t, e.store, c, e.item(0)))
}

func TestRunBatchCarryover_AdvancesWatermarksForAllChildren(t *testing.T) {
	e := newEnv(t, 2, 1)
	e.schedule(t, d1, []int{e.item(0)}, []int{e.child(0)})

	_, err := e.proc.RunBatchCarryover(ctx, d1)
	require.NoError(t, err)

	for _, c := range []int{e.child(0), e.child(1)} {
		w, err := e.proc.Watermark(c)
		require.NoError(t, err)
		assert.Equal(t, d1, w.ClosedThrough)
		assert.Equal(t, TriggerBatch, w.Trigger)
	}
}

func TestRunBatchCarryover_WatermarkStopsAtOlderBacklog(t *testing.T) {
	e := newEnv(t, 2, 2)
	behind, caughtUp := e.child(0), e.child(1)
	e.schedule(t, d1, []int{e.item(0)}, []int{behind})
	e.schedule(t, d1.AddDays(1), []int{e.item(1)}, []int{behind, caughtUp})

	_, err := e.proc.RunBatchCarryover(ctx, d1.AddDays(1))
	require.NoError(t, err)

	w, err := e.proc.Watermark(behind)
	require.NoError(t, err)
	assert.Equal(t, d1.AddDays(-1), w.ClosedThrough, "the d1 record is still open")

	w, err = e.proc.Watermark(caughtUp)
	require.NoError(t, err)
	assert.Equal(t, d1.AddDays(1), w.ClosedThrough)

	// closing d1 as well lets the lagging child catch up
	_, err = e.proc.RunBatchCarryover(ctx, d1)
	require.NoError(t, err)
	_, err = e.proc.RunBatchCarryover(ctx, d1.AddDays(1))
	require.NoError(t, err)
	w, err = e.proc.Watermark(behind)
	require.NoError(t, err)
	assert.Equal(t, d1.AddDays(1), w.ClosedThrough)
}

func TestRunBatchCarryover_RejectsUnfinishedDay(t *testing.T) {
	e := newEnv(t, 1, 1)
	today := d1.AddDays(14)
	e.schedule(t, today, []int{e.item(0)}, []int{e.child(0)})

	for _, date := range []model.Date{today, today.AddDays(1)} {
		_, err := e.proc.RunBatchCarryover(ctx, date)
		assert.ErrorIs(t, err, ErrValidation, date.String())
	}
	assert.Equal(t, map[string]int{today.String(): 1}, activeCounts(t, e.store, e.child(0), e.item(0)))
}

func TestRunBatchCarryover_RequiresDate(t *testing.T) {
	e := newEnv(t, 1, 1)
	_, err := e.proc.RunBatchCarryover(ctx, model.Date{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPreview_DoesNotWrite(t *testing.T) {
	e := newEnv(t, 1, 2)
	c := e.child(0)
	e.schedule(t, d1, []int{e.item(0), e.item(1)}, []int{c})
	e.schedule(t, d1.AddDays(1), []int{e.item(1)}, []int{c})

	entries, err := e.proc.Preview(ctx, d1, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	byItem := map[int]PreviewEntry{}
	for _, en := range entries {
		byItem[en.Record.ApprovedItemID] = en
		assert.Equal(t, d1.AddDays(1), en.TargetDate)
	}
	assert.True(t, byItem[e.item(0)].WouldCreate)
	assert.False(t, byItem[e.item(1)].WouldCreate, "an active record already sits on the target date")

	for _, v := range []int{e.item(0), e.item(1)} {
		for _, r := range e.history(t, c, v) {
			assert.True(t, r.IsActive)
		}
	}
}

func TestPreview_ChildUsesLazySemantics(t *testing.T) {
	e := newEnv(t, 2, 1)
	e.schedule(t, d1, []int{e.item(0)}, []int{e.child(0), e.child(1)})

	entries, err := e.proc.Preview(ctx, d1.AddDays(3), intPtr(e.child(1)))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e.child(1), entries[0].Record.ChildID)
	assert.Equal(t, d1.AddDays(1), entries[0].TargetDate)
}
