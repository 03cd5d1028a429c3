// Package app wires configuration into a ready set of scheduling services.
// The HTTP server and the carryover CLI share it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/config"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/db"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/metrics"
	kidredis "github.com/Nixie-Tech-LLC/kidcurate/internal/redis"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/scheduling"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/storage"
)

const metricsNamespace = "kidcurate"

type App struct {
	Config    *config.Config
	DB        *sqlx.DB
	Store     db.Store
	Metrics   *metrics.Metrics
	Processor *scheduling.Processor
	Query     *scheduling.QueryService
	Watch     *scheduling.WatchRecorder
	Schedule  *scheduling.ScheduleService
	Reports   storage.Storage // nil when no archive is configured

	closers []func()
}

// New connects to the database and, when configured, Redis. Migrations are
// not applied here; callers decide whether to run them.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	conn, err := db.Init(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db init: %w", err)
	}
	a := &App{Config: cfg, DB: conn}
	a.closers = append(a.closers, func() { _ = conn.Close() })

	a.Store = db.NewStore(conn)
	if reg != nil {
		a.Metrics = metrics.NewMetrics(metricsNamespace, reg)
	}

	opts := []scheduling.Option{
		scheduling.WithMetrics(a.Metrics),
		scheduling.WithMaxCatchUpDays(cfg.CarryoverMaxCatchUpDays),
	}
	if cfg.RedisAddress != "" {
		client := kidredis.NewClient(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		if err := client.Ping(ctx).Err(); err != nil {
			// the unique index already prevents duplicates; the lock only saves work
			log.Warn().Err(err).Str("address", cfg.RedisAddress).Msg("redis unavailable, carryover runs without child locks")
			_ = client.Close()
		} else {
			opts = append(opts, scheduling.WithLocker(kidredis.NewChildLocker(client, cfg.CarryoverLockTTL)))
			a.closers = append(a.closers, func() { _ = client.Close() })
			log.Info().Str("address", cfg.RedisAddress).Msg("using redis child locks for carryover")
		}
	}

	a.Processor = scheduling.NewProcessor(a.Store, opts...)
	a.Query = scheduling.NewQueryService(a.Store, a.Processor)
	a.Watch = scheduling.NewWatchRecorder(a.Store, a.Metrics, time.Now)
	a.Schedule = scheduling.NewScheduleService(a.Store, a.Metrics)

	reports, err := newReportStorage(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Reports = reports
	return a, nil
}

func newReportStorage(cfg *config.Config) (storage.Storage, error) {
	switch {
	case cfg.UseSpaces:
		s, err := storage.NewSpacesStorage(cfg.SpacesEndpoint, cfg.SpacesRegion, cfg.SpacesBucket,
			cfg.SpacesCDNURL, cfg.SpacesAccessKey, cfg.SpacesSecretKey)
		if err != nil {
			return nil, fmt.Errorf("spaces report storage: %w", err)
		}
		log.Info().Str("bucket", cfg.SpacesBucket).Msg("archiving carryover reports to Spaces")
		return s, nil
	case cfg.ReportDir != "":
		log.Info().Str("dir", cfg.ReportDir).Msg("archiving carryover reports locally")
		return storage.NewLocalStorage(cfg.ReportDir), nil
	}
	return nil, nil
}

// BatchRunner returns the batch trigger for one entry point, archiving a
// report per run when an archive is configured.
func (a *App) BatchRunner(source string) storage.BatchRunner {
	if a.Reports == nil {
		return a.Processor
	}
	return storage.NewArchivingRunner(a.Processor, a.Reports, source, time.Now)
}

// Migrate applies every up migration under the configured path.
func (a *App) Migrate() error {
	if err := db.RunMigrations(a.DB, a.Config.MigrationsPath); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	return nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
