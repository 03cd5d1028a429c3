package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/scheduling"
)

// BatchRunner runs one batch carryover sweep.
type BatchRunner interface {
	RunBatchCarryover(ctx context.Context, date model.Date) (scheduling.BatchResult, error)
}

// BatchReport is the archived record of one sweep.
type BatchReport struct {
	scheduling.BatchResult
	Source     string    `json:"source"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

// ReportKey is carryover/<date>/<finished timestamp>.json, so repeated runs
// for one day sit side by side.
func ReportKey(date model.Date, finishedAt time.Time) string {
	return fmt.Sprintf("carryover/%s/%s.json", date, finishedAt.UTC().Format("20060102T150405.000Z"))
}

// ArchivingRunner wraps a runner and saves a report after every sweep.
// Archive failures are logged and never change the sweep's result.
type ArchivingRunner struct {
	runner BatchRunner
	store  Storage
	source string
	now    func() time.Time
}

func NewArchivingRunner(runner BatchRunner, store Storage, source string, now func() time.Time) *ArchivingRunner {
	if now == nil {
		now = time.Now
	}
	return &ArchivingRunner{runner: runner, store: store, source: source, now: now}
}

func (a *ArchivingRunner) RunBatchCarryover(ctx context.Context, date model.Date) (scheduling.BatchResult, error) {
	res, runErr := a.runner.RunBatchCarryover(ctx, date)
	// rejected requests never ran
	if errors.Is(runErr, scheduling.ErrValidation) {
		return res, runErr
	}

	report := BatchReport{BatchResult: res, Source: a.source, FinishedAt: a.now().UTC()}
	report.Date = date
	if runErr != nil {
		report.Error = runErr.Error()
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("failed to encode carryover report")
		return res, runErr
	}
	location, err := a.store.Save(ReportKey(date, report.FinishedAt), body, "application/json")
	if err != nil {
		log.Error().Err(err).Str("date", date.String()).Msg("failed to archive carryover report")
		return res, runErr
	}
	log.Info().Str("date", date.String()).Str("location", location).Msg("carryover report archived")
	return res, runErr
}
