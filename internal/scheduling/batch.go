package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/db"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

// batchParallelism bounds how many children one sweep processes at once.
const batchParallelism = 4

// BatchResult is what a batch sweep reports back to its caller.
type BatchResult struct {
	Date       model.Date `json:"date"`
	TargetDate model.Date `json:"target_date"`
	Children   int        `json:"children"`
	Result
}

// RunBatchCarryover closes out exactly one day for every child: active,
// unwatched records dated date move to date+1. Safe to repeat for the same
// date; a second run finds nothing left to move. Only finished days can be
// closed: date must be before today.
func (p *Processor) RunBatchCarryover(ctx context.Context, date model.Date) (BatchResult, error) {
	if date.IsZero() {
		return BatchResult{}, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if today := model.DateOf(p.now().UTC()); !date.Before(today) {
		return BatchResult{}, fmt.Errorf("%w: %s has not ended yet (today is %s)", ErrValidation, date, today)
	}
	start := time.Now()
	out := BatchResult{Date: date, TargetDate: date.AddDays(1)}

	childIDs, err := p.store.ListChildIDsWithCandidates(db.CandidateFilter{On: &date})
	if err != nil {
		return out, fmt.Errorf("%w: list children with candidates: %w", ErrPersistence, err)
	}
	out.Children = len(childIDs)

	var (
		mu    sync.Mutex
		total = Result{Passes: 1}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelism)

	for _, childID := range childIDs {
		g.Go(func() error {
			candidates, err := p.store.ListCarryoverCandidates(db.CandidateFilter{ChildID: &childID, On: &date})
			if err != nil {
				// one child's failure must not stop the others
				log.Error().Err(err).Int("child_id", childID).Str("date", date.String()).Msg("batch carryover could not list candidates")
				mu.Lock()
				total.Failed++
				mu.Unlock()
				return nil
			}
			res, err := p.advanceAll(gctx, candidates, TriggerBatch, func(model.ScheduleRecord) model.Date {
				return out.TargetDate
			})
			res.Passes = 0
			mu.Lock()
			total.add(res)
			mu.Unlock()
			return err
		})
	}
	err = g.Wait()
	out.Result = total

	p.observe(TriggerBatch, total, start)
	if err != nil {
		return out, err
	}

	// children left with backlog on or before date stop short of it
	if err := p.store.AdvanceWatermarkAll(date, TriggerBatch); err != nil {
		log.Warn().Err(err).Str("date", date.String()).Msg("could not advance carryover watermarks")
	}

	logCarryover(TriggerBatch, date, nil, total)
	return out, nil
}

// PreviewEntry describes what carryover would do with one record.
type PreviewEntry struct {
	Record      model.ScheduleRecord `json:"record"`
	TargetDate  model.Date           `json:"target_date"`
	WouldCreate bool                 `json:"would_create"`
}

// Preview reports the records the next carryover would touch, without writing.
// With no child it mirrors the batch sweep for date; with a child it mirrors
// the first step of that child's lazy pass for reference date date.
func (p *Processor) Preview(ctx context.Context, date model.Date, childID *int) ([]PreviewEntry, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}

	filter := db.CandidateFilter{On: &date}
	if childID != nil {
		filter = db.CandidateFilter{ChildID: childID, Before: &date}
	}
	candidates, err := p.store.ListCarryoverCandidates(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: list carryover candidates: %w", ErrPersistence, err)
	}

	out := make([]PreviewEntry, 0, len(candidates))
	for _, r := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := r.ScheduledDate.AddDays(1)
		exists, err := p.store.HasActiveSchedule(r.ChildID, r.ApprovedItemID, target)
		if err != nil {
			return nil, fmt.Errorf("%w: check target date: %w", ErrPersistence, err)
		}
		out = append(out, PreviewEntry{Record: r, TargetDate: target, WouldCreate: !exists})
	}
	return out, nil
}

// Watermark returns the last day carryover closed out for a child.
func (p *Processor) Watermark(childID int) (model.Watermark, error) {
	w, err := p.store.GetWatermark(childID)
	if err != nil {
		return w, storeErr(err, "watermark")
	}
	return w, nil
}
