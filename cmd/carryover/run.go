package main

import (
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Carry every child's unwatched items from --date to the next day",
	RunE:  runCarryover,
}

func init() {
	runCmd.Flags().String("date", "", "Day to close out, YYYY-MM-DD (default yesterday)")
}

func runCarryover(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("date")
	date, err := resolveDate(raw, time.Now())
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.BatchRunner("cli").RunBatchCarryover(cmd.Context(), date)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
