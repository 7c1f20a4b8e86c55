package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"caltidy/pkg/engine"
	"caltidy/pkg/spec"
	"caltidy/pkg/storage"
)

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete the live events matching a declaration file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("file")
		apply, _ := cmd.Flags().GetBool("apply")
		subjectOnly, _ := cmd.Flags().GetBool("subject-only")

		specs, err := spec.LoadEventsDoc(file)
		if err != nil {
			return err
		}
		svc, err := newProvider()
		if err != nil {
			return err
		}

		res := engine.Remove(cmd.Context(), svc, engine.RemoveRequest{
			Specs:       specs,
			Calendar:    calendarFlag(cmd),
			SubjectOnly: subjectOnly,
			Apply:       apply,
		})
		for _, entry := range res.Plan {
			fmt.Printf("%s: %d series, %d single events matched\n", entry.Subject, len(entry.SeriesIDs), len(entry.EventIDs))
		}
		for _, line := range res.Logs {
			fmt.Println(line)
		}
		if !apply {
			fmt.Println("Dry run: pass --apply to delete")
			return nil
		}
		fmt.Printf("Deleted %d events\n", res.Deleted)

		var actions []storage.Action
		for _, entry := range res.Plan {
			for _, id := range append(entry.SeriesIDs, entry.EventIDs...) {
				actions = append(actions, storage.Action{
					Action:   storage.ActionDeleted,
					Calendar: calendarFlag(cmd),
					EventID:  id,
					Subject:  entry.Subject,
				})
			}
		}
		recordAudit(cmd, "remove", actions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringP("file", "f", "events.yaml", "YAML file with declared events")
	removeCmd.Flags().Bool("apply", false, "Delete the matched events (default: dry run)")
	removeCmd.Flags().Bool("subject-only", false, "Match on subject and date window only")
}
