package scheduling

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/db"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/metrics"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

// ScheduleService is the guardian-facing side of scheduling: create, list and
// remove. Every call checks that referenced children and items belong to the
// guardian before touching anything.
type ScheduleService struct {
	store   db.Store
	metrics *metrics.Metrics
}

func NewScheduleService(store db.Store, m *metrics.Metrics) *ScheduleService {
	return &ScheduleService{store: store, metrics: m}
}

// CreateSchedule places every item on date for every child, one record per
// (child, item). Pairs that already have an active record on date are left
// alone; only newly created records are returned.
func (s *ScheduleService) CreateSchedule(ctx context.Context, guardianID int, itemIDs, childIDs []int, date model.Date) ([]model.ScheduleRecord, error) {
	itemIDs, childIDs = dedupe(itemIDs), dedupe(childIDs)
	switch {
	case len(itemIDs) == 0:
		return nil, validationErr("at least one approved item is required")
	case len(childIDs) == 0:
		return nil, validationErr("at least one child is required")
	case date.IsZero():
		return nil, validationErr("date is required")
	}

	for _, id := range childIDs {
		if err := s.ownsChild(guardianID, id); err != nil {
			return nil, err
		}
	}
	for _, id := range itemIDs {
		item, err := s.store.GetApprovedItem(id)
		if err != nil {
			return nil, storeErr(err, fmt.Sprintf("approved item %d", id))
		}
		if item.GuardianID != guardianID {
			return nil, fmt.Errorf("approved item %d: %w", id, ErrForbidden)
		}
	}

	recs := make([]model.ScheduleRecord, 0, len(itemIDs)*len(childIDs))
	for _, childID := range childIDs {
		for _, itemID := range itemIDs {
			recs = append(recs, model.ScheduleRecord{
				ChildID:        childID,
				ApprovedItemID: itemID,
				ScheduledDate:  date,
				OriginalDate:   date,
			})
		}
	}

	created, err := s.store.CreateScheduleRecords(recs)
	if err != nil {
		return nil, storeErr(err, "create schedule")
	}
	s.metrics.AddSchedulesCreated(len(created))
	log.Info().
		Int("guardian_id", guardianID).
		Str("date", date.String()).
		Int("requested", len(recs)).
		Int("created", len(created)).
		Msg("schedule created")
	return created, nil
}

// ListSchedule returns the guardian's active records, optionally narrowed to
// one child and/or one day.
func (s *ScheduleService) ListSchedule(ctx context.Context, guardianID int, filter db.GuardianScheduleFilter) ([]model.ScheduledItem, error) {
	if filter.ChildID != nil {
		if err := s.ownsChild(guardianID, *filter.ChildID); err != nil {
			return nil, err
		}
	}
	items, err := s.store.ListGuardianSchedule(guardianID, filter)
	if err != nil {
		return nil, storeErr(err, "list schedule")
	}
	if items == nil {
		items = []model.ScheduledItem{}
	}
	return items, nil
}

// History returns the full carryover chain for one child and item, retired
// records included.
func (s *ScheduleService) History(ctx context.Context, guardianID, childID, itemID int) ([]model.ScheduleRecord, error) {
	if err := s.ownsChild(guardianID, childID); err != nil {
		return nil, err
	}
	recs, err := s.store.ListScheduleHistory(childID, itemID)
	if err != nil {
		return nil, storeErr(err, "schedule history")
	}
	if recs == nil {
		recs = []model.ScheduleRecord{}
	}
	return recs, nil
}

// RemoveSchedule deletes a record that is still pending. Watched records and
// records already superseded by carryover are history and stay.
func (s *ScheduleService) RemoveSchedule(ctx context.Context, guardianID, recordID int) error {
	rec, err := s.store.GetScheduleRecord(recordID)
	if err != nil {
		return storeErr(err, "schedule record")
	}
	if err := s.ownsChild(guardianID, rec.ChildID); err != nil {
		return err
	}
	if !rec.IsActive || rec.IsWatched {
		return fmt.Errorf("schedule record %d is no longer pending: %w", recordID, ErrConflict)
	}

	deleted, err := s.store.DeleteScheduleRecord(recordID)
	if err != nil {
		return storeErr(err, "remove schedule")
	}
	if !deleted {
		return fmt.Errorf("schedule record %d changed before removal: %w", recordID, ErrConflict)
	}
	log.Info().Int("guardian_id", guardianID).Int("schedule_id", recordID).Msg("schedule removed")
	return nil
}

func (s *ScheduleService) ownsChild(guardianID, childID int) error {
	child, err := s.store.GetChild(childID)
	if err != nil {
		return storeErr(err, fmt.Sprintf("child %d", childID))
	}
	if child.GuardianID != guardianID {
		return fmt.Errorf("child %d: %w", childID, ErrForbidden)
	}
	return nil
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
