package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"caltidy/pkg/engine"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Bulk-adjust reminders for events in a window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fromDate, _ := cmd.Flags().GetString("from")
		toDate, _ := cmd.Flags().GetString("to")
		apply, _ := cmd.Flags().GetBool("apply")
		off, _ := cmd.Flags().GetBool("off")
		minutes, _ := cmd.Flags().GetInt("minutes")
		allOcc, _ := cmd.Flags().GetBool("all-occurrences")

		svc, err := newProvider()
		if err != nil {
			return err
		}

		res, err := engine.ApplyReminders(cmd.Context(), svc, engine.RemindersRequest{
			Calendar:       calendarFlag(cmd),
			FromDate:       fromDate,
			ToDate:         toDate,
			DryRun:         !apply,
			AllOccurrences: allOcc,
			SetOff:         off,
			Minutes:        minutes,
		})
		if err != nil {
			return err
		}
		for _, line := range res.Logs {
			fmt.Println(line)
		}
		fmt.Printf("Updated %d events\n", res.Updated)
		if !apply {
			fmt.Println("Dry run: pass --apply to update")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(remindersCmd)
	remindersCmd.Flags().String("from", "", "Window start date YYYY-MM-DD (default: 30 days back)")
	remindersCmd.Flags().String("to", "", "Window end date YYYY-MM-DD (default: 180 days forward)")
	remindersCmd.Flags().Bool("apply", false, "Send the updates (default: dry run)")
	remindersCmd.Flags().Bool("off", false, "Disable reminders instead of setting minutes")
	remindersCmd.Flags().Int("minutes", 15, "Minutes before start when enabling reminders")
	remindersCmd.Flags().Bool("all-occurrences", false, "Also update individual occurrences, not just series masters")
}
