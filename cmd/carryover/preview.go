package main

import (
	"time"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show what carryover would do, without writing anything",
	Long: `Without --child, lists the records a batch run for --date would move.
With --child, lists what that child's next schedule read on --date would move first.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("date", "", "Day to inspect, YYYY-MM-DD (default yesterday)")
	previewCmd.Flags().Int("child", 0, "Limit to one child")
}

func runPreview(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("date")
	date, err := resolveDate(raw, time.Now())
	if err != nil {
		return err
	}
	var childID *int
	if cmd.Flags().Changed("child") {
		id, _ := cmd.Flags().GetInt("child")
		childID = &id
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.Processor.Preview(cmd.Context(), date, childID)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), entries)
}
