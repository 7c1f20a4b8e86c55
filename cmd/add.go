package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"caltidy/pkg/engine"
	"caltidy/pkg/spec"
	"caltidy/pkg/storage"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create the events declared in a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("file")
		apply, _ := cmd.Flags().GetBool("apply")
		noReminder, _ := cmd.Flags().GetBool("no-reminder")

		specs, err := spec.LoadEventsDoc(file)
		if err != nil {
			return err
		}
		svc, err := newProvider()
		if err != nil {
			return err
		}

		res := engine.Create(cmd.Context(), svc, engine.CreateRequest{
			Specs:      specs,
			Calendar:   calendarFlag(cmd),
			DryRun:     !apply,
			NoReminder: noReminder,
		})
		for _, line := range res.Logs {
			fmt.Println(line)
		}
		if !apply {
			fmt.Printf("Would create %d events. Pass --apply to create\n", res.Created)
			return nil
		}
		fmt.Printf("Created %d events\n", res.Created)

		var actions []storage.Action
		for _, ev := range specs {
			actions = append(actions, storage.Action{
				Action:   storage.ActionCreated,
				Calendar: calendarFlag(cmd),
				Subject:  ev.Subject,
			})
		}
		recordAudit(cmd, "add", actions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringP("file", "f", "events.yaml", "YAML file with declared events")
	addCmd.Flags().Bool("apply", false, "Create the events (default: dry run)")
	addCmd.Flags().Bool("no-reminder", false, "Create every event with reminders off")
}
