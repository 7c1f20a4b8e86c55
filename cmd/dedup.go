package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"caltidy/pkg/engine"
	"caltidy/pkg/storage"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Find (and optionally delete) duplicate recurring series",
	RunE: func(cmd *cobra.Command, _ []string) error {
		apply, _ := cmd.Flags().GetBool("apply")
		fromDate, _ := cmd.Flags().GetString("from")
		toDate, _ := cmd.Flags().GetString("to")
		keepNewest, _ := cmd.Flags().GetBool("keep-newest")
		preferNonstd, _ := cmd.Flags().GetBool("prefer-delete-nonstandard")
		deleteStd, _ := cmd.Flags().GetBool("delete-standardized")

		svc, err := newProvider()
		if err != nil {
			return err
		}

		res, err := engine.Dedup(cmd.Context(), svc, engine.DedupRequest{
			Calendar:                calendarFlag(cmd),
			FromDate:                fromDate,
			ToDate:                  toDate,
			Apply:                   apply,
			KeepNewest:              keepNewest,
			PreferDeleteNonstandard: preferNonstd,
			DeleteStandardized:      deleteStd,
		})
		if err != nil {
			return err
		}

		if len(res.Groups) == 0 {
			fmt.Println("No duplicate series found")
			return nil
		}
		for _, g := range res.Groups {
			fmt.Printf("Duplicate: %s %s %s-%s (%d series)\n", g.Subject, g.Weekday, g.StartTime, g.EndTime, len(g.Members))
			fmt.Printf("  keep:   %s\n", g.Keep)
			for _, id := range g.Delete {
				fmt.Printf("  delete: %s\n", id)
			}
		}
		for _, line := range res.Logs {
			fmt.Println(line)
		}
		if !apply {
			fmt.Println("Dry run: pass --apply to delete")
			return nil
		}
		fmt.Printf("Deleted %d series\n", res.Deleted)

		var actions []storage.Action
		for _, g := range res.Groups {
			for _, id := range g.Delete {
				actions = append(actions, storage.Action{
					Action:   storage.ActionDeleted,
					Calendar: calendarFlag(cmd),
					EventID:  id,
					Subject:  g.Subject,
					Detail:   "duplicate of " + g.Keep,
				})
			}
		}
		recordAudit(cmd, "dedup", actions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dedupCmd)
	dedupCmd.Flags().String("from", "", "Window start date YYYY-MM-DD (default: 30 days back)")
	dedupCmd.Flags().String("to", "", "Window end date YYYY-MM-DD (default: 180 days forward)")
	dedupCmd.Flags().Bool("apply", false, "Delete the losing series (default: dry run)")
	dedupCmd.Flags().Bool("keep-newest", false, "Keep the newest series instead of the oldest")
	dedupCmd.Flags().Bool("prefer-delete-nonstandard", false, "Prefer keeping series with a standardized location")
	dedupCmd.Flags().Bool("delete-standardized", false, "Prefer keeping series without a standardized location")
}
