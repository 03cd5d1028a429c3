package scheduling

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/db"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

// QueryService answers "what should this child see today". Every read first
// runs a lazy carryover pass for the child.
type QueryService struct {
	store     db.Store
	processor *Processor
}

func NewQueryService(store db.Store, processor *Processor) *QueryService {
	return &QueryService{store: store, processor: processor}
}

// GetTodaysSchedule returns the child's deliverable items for date: fresh
// items first, then carried-over backlog, each oldest first. A failed
// carryover pass is logged and the read goes ahead with whatever is active.
func (q *QueryService) GetTodaysSchedule(ctx context.Context, childID int, date model.Date) ([]model.ScheduledItem, error) {
	if date.IsZero() {
		return nil, validationErr("date is required")
	}
	if _, err := q.store.GetChild(childID); err != nil {
		return nil, storeErr(err, "child")
	}

	if _, err := q.processor.ProcessCarryover(ctx, &childID, date); err != nil {
		if errors.Is(err, ErrLocked) {
			log.Debug().Int("child_id", childID).Msg("carryover in progress elsewhere, reading current schedule")
		} else {
			log.Error().Err(err).Int("child_id", childID).Str("date", date.String()).Msg("lazy carryover failed, serving existing schedule")
		}
	}

	items, err := q.store.ListDeliverable(childID, date)
	if err != nil {
		return nil, storeErr(err, "schedule")
	}
	if items == nil {
		items = []model.ScheduledItem{}
	}
	return items, nil
}
