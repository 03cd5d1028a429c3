package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/app"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/config"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

var rootCmd = &cobra.Command{
	Use:           "carryover",
	Short:         "Operate the schedule carryover engine",
	Long:          "Runs and inspects the daily carryover sweep against the same database the server uses.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(migrateCmd)
}

// openApp loads config the same way the server does. No metrics registry:
// a one-shot process has nothing to scrape.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ConfigureLogging()
	return app.New(ctx, cfg, nil)
}

// resolveDate parses --date, defaulting to the day before now.
func resolveDate(raw string, now time.Time) (model.Date, error) {
	if raw == "" {
		return model.DateOf(now.UTC()).AddDays(-1), nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
