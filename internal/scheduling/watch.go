package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/db"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/metrics"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

// WatchRecorder marks schedule records as consumed.
type WatchRecorder struct {
	store   db.Store
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewWatchRecorder(store db.Store, m *metrics.Metrics, now func() time.Time) *WatchRecorder {
	if now == nil {
		now = time.Now
	}
	return &WatchRecorder{store: store, metrics: m, now: now}
}

// MarkWatched sets is_watched and watched_at on a record owned by childID.
// Repeating the call returns the record unchanged, keeping the first watched_at.
// The record stays active; it simply stops being a carryover candidate.
// A record already superseded by carryover is history and returns ErrConflict;
// the watch belongs on its active descendant.
func (w *WatchRecorder) MarkWatched(ctx context.Context, recordID, childID int) (model.ScheduleRecord, error) {
	rec, err := w.store.GetScheduleRecord(recordID)
	if err != nil {
		return model.ScheduleRecord{}, storeErr(err, "schedule record")
	}
	if rec.ChildID != childID {
		return model.ScheduleRecord{}, ErrForbidden
	}
	if rec.IsWatched {
		return rec, nil
	}
	if !rec.IsActive {
		return model.ScheduleRecord{}, supersededErr(recordID)
	}

	changed, err := w.store.MarkScheduleWatched(recordID, w.now())
	if err != nil {
		return model.ScheduleRecord{}, storeErr(err, "mark watched")
	}
	if changed {
		w.metrics.IncWatched()
		log.Info().Int("schedule_id", recordID).Int("child_id", childID).Msg("schedule watched")
	}

	updated, err := w.store.GetScheduleRecord(recordID)
	if err != nil {
		return model.ScheduleRecord{}, storeErr(err, "schedule record")
	}
	// carryover retired it between the read and the update
	if !updated.IsWatched {
		return model.ScheduleRecord{}, supersededErr(recordID)
	}
	return updated, nil
}

func supersededErr(recordID int) error {
	return fmt.Errorf("schedule record %d was carried over: %w", recordID, ErrConflict)
}
