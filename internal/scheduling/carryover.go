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

const (
	TriggerLazy  = "lazy"
	TriggerBatch = "batch"

	defaultMaxCatchUpDays = 31
)

// Result summarizes one carryover invocation.
type Result struct {
	Found   int `json:"found"`   // candidates examined
	Carried int `json:"carried"` // descendants created
	Merged  int `json:"merged"`  // retired onto an existing active record
	Stale   int `json:"stale"`   // already handled by a concurrent caller
	Failed  int `json:"failed"`  // skipped because of an error
	Passes  int `json:"passes"`
}

func (r *Result) add(o Result) {
	r.Found += o.Found
	r.Carried += o.Carried
	r.Merged += o.Merged
	r.Stale += o.Stale
	r.Failed += o.Failed
	r.Passes += o.Passes
}

// Processor moves unwatched, expired schedule records forward one day at a
// time. It never deletes: the stale record is deactivated and kept.
type Processor struct {
	store      db.Store
	locker     Locker
	metrics    *metrics.Metrics
	maxCatchUp int
	now        func() time.Time
}

type Option func(*Processor)

func WithLocker(l Locker) Option {
	return func(p *Processor) {
		if l != nil {
			p.locker = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithMaxCatchUpDays bounds how many one-day steps a lazy pass materializes
// before jumping the remaining backlog straight to the reference date.
func WithMaxCatchUpDays(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxCatchUp = n
		}
	}
}

// WithClock sets the clock that decides which days have ended.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProcessor(store db.Store, opts ...Option) *Processor {
	p := &Processor{
		store:      store,
		locker:     NopLocker{},
		maxCatchUp: defaultMaxCatchUpDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessCarryover closes out every day before ref. Candidates are active,
// unwatched records dated before ref, optionally scoped to one child. Each
// pass advances them by one day; passes repeat until nothing dated before ref
// is left, so an item missed for several days leaves one retired record per
// day. Individual failures are logged and counted, not returned.
func (p *Processor) ProcessCarryover(ctx context.Context, childID *int, ref model.Date) (Result, error) {
	if ref.IsZero() {
		return Result{}, fmt.Errorf("%w: reference date is required", ErrValidation)
	}

	if childID != nil {
		unlock, ok, err := p.locker.TryLock(ctx, childLockKey(*childID))
		if err != nil {
			log.Warn().Err(err).Int("child_id", *childID).Msg("carryover lock unavailable, continuing without it")
		} else if !ok {
			return Result{}, ErrLocked
		} else {
			defer unlock()
		}
	}

	start := time.Now()
	var total Result
	filter := db.CandidateFilter{ChildID: childID, Before: &ref}

	for pass := 0; ; pass++ {
		candidates, err := p.store.ListCarryoverCandidates(filter)
		if err != nil {
			p.observe(TriggerLazy, total, start)
			return total, fmt.Errorf("%w: list carryover candidates: %w", ErrPersistence, err)
		}
		if len(candidates) == 0 {
			break
		}

		jump := pass >= p.maxCatchUp
		res, err := p.advanceAll(ctx, candidates, TriggerLazy, func(r model.ScheduleRecord) model.Date {
			if jump {
				return ref
			}
			return r.ScheduledDate.AddDays(1)
		})
		total.add(res)
		if err != nil {
			p.observe(TriggerLazy, total, start)
			return total, err
		}
		// every candidate failed: another pass would see the same rows
		if res.Failed == res.Found {
			break
		}
	}

	p.observe(TriggerLazy, total, start)

	if childID != nil && total.Failed == 0 {
		if err := p.store.AdvanceWatermark(*childID, ref.AddDays(-1), TriggerLazy); err != nil {
			log.Warn().Err(err).Int("child_id", *childID).Msg("could not advance carryover watermark")
		}
	}

	logCarryover(TriggerLazy, ref, childID, total)
	return total, nil
}

// advanceAll carries each candidate to targetFor(candidate). It stops early
// only when ctx is cancelled.
func (p *Processor) advanceAll(
	ctx context.Context,
	candidates []model.ScheduleRecord,
	trigger string,
	targetFor func(model.ScheduleRecord) model.Date,
) (Result, error) {
	res := Result{Passes: 1}
	for _, r := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Found++

		target := targetFor(r)
		outcome, err := p.store.CarryOverRecord(r, target)
		if err != nil {
			res.Failed++
			log.Error().Err(err).
				Str("trigger", trigger).
				Int("schedule_id", r.ID).
				Int("child_id", r.ChildID).
				Int("approved_item_id", r.ApprovedItemID).
				Str("scheduled_date", r.ScheduledDate.String()).
				Str("target_date", target.String()).
				Msg("carryover skipped record")
			continue
		}
		switch outcome {
		case db.OutcomeCreated:
			res.Carried++
		case db.OutcomeMerged:
			res.Merged++
		case db.OutcomeStale:
			res.Stale++
		}
	}
	return res, nil
}

func (p *Processor) observe(trigger string, res Result, start time.Time) {
	p.metrics.ObserveCarryover(trigger, res.Found, res.Carried, res.Failed, time.Since(start))
}

func logCarryover(trigger string, date model.Date, childID *int, res Result) {
	ev := log.Info()
	switch {
	case res.Failed > 0:
		ev = log.Warn()
	case res.Found == 0:
		ev = log.Debug()
	}
	if childID != nil {
		ev = ev.Int("child_id", *childID)
	}
	ev.Str("trigger", trigger).
		Str("date", date.String()).
		Int("found", res.Found).
		Int("carried", res.Carried).
		Int("merged", res.Merged).
		Int("stale", res.Stale).
		Int("failed", res.Failed).
		Int("passes", res.Passes).
		Msg("carryover finished")
}
