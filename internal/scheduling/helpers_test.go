package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/db"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/db/dbtest"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/metrics"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

var (
	ctx = context.Background()
	d1  = model.NewDate(2026, time.October, 10)
)

type env struct {
	store   db.Store
	clock   *dbtest.FixedClock
	metrics *metrics.Metrics
	proc    *Processor
	query   *QueryService
	watch   *WatchRecorder
	svc     *ScheduleService
	fx      dbtest.Fixture
}

func newEnv(t *testing.T, children, items int, opts ...Option) *env {
	t.Helper()
	clock := dbtest.NewFixedClock(time.Date(2026, time.October, 10, 8, 0, 0, 0, time.UTC))
	store := db.NewStoreWithClock(dbtest.Open(t), func() time.Time {
		// every write gets a distinct, increasing timestamp
		clock.Advance(time.Second)
		return clock.Now()
	})
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	today := func() time.Time { return d1.AddDays(14).Time() }
	proc := NewProcessor(store, append([]Option{WithMetrics(m), WithClock(today)}, opts...)...)
	return &env{
		store:   store,
		clock:   clock,
		metrics: m,
		proc:    proc,
		query:   NewQueryService(store, proc),
		watch:   NewWatchRecorder(store, m, clock.Now),
		svc:     NewScheduleService(store, m),
		fx:      dbtest.Seed(t, store, "guardian@example.com", children, items),
	}
}

func (e *env) child(i int) int { return e.fx.Children[i].ID }
func (e *env) item(i int) int  { return e.fx.Items[i].ID }

func (e *env) schedule(t *testing.T, date model.Date, items []int, children []int) []model.ScheduleRecord {
	t.Helper()
	recs, err := e.svc.CreateSchedule(ctx, e.fx.Guardian, items, children, date)
	require.NoError(t, err)
	return recs
}

func (e *env) history(t *testing.T, child, item int) []model.ScheduleRecord {
	t.Helper()
	recs, err := e.store.ListScheduleHistory(child, item)
	require.NoError(t, err)
	return recs
}

// activeCounts maps (child, item, date) to the number of active records.
func activeCounts(t *testing.T, store db.Store, child, item int) map[string]int {
	t.Helper()
	recs, err := store.ListScheduleHistory(child, item)
	require.NoError(t, err)
	out := map[string]int{}
	for _, r := range recs {
		if r.IsActive {
			out[r.ScheduledDate.String()]++
		}
	}
	return out
}

func intPtr(i int) *int { return &i }
