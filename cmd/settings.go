package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"caltidy/pkg/engine"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Apply rule-driven setting patches to events in a window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rulesFile, _ := cmd.Flags().GetString("rules")
		fromDate, _ := cmd.Flags().GetString("from")
		toDate, _ := cmd.Flags().GetString("to")
		apply, _ := cmd.Flags().GetBool("apply")

		rs, err := engine.LoadPatchRuleSet(rulesFile)
		if err != nil {
			return err
		}
		svc, err := newProvider()
		if err != nil {
			return err
		}

		res, err := engine.ApplySettings(cmd.Context(), svc, engine.SettingsRequest{
			RuleSet:  rs,
			Calendar: calendarFlag(cmd),
			FromDate: fromDate,
			ToDate:   toDate,
			DryRun:   !apply,
		})
		if err != nil {
			return err
		}
		for _, line := range res.Logs {
			fmt.Println(line)
		}
		fmt.Printf("Matched %d events, changed %d\n", res.Selected, res.Changed)
		if !apply {
			fmt.Println("Dry run: pass --apply to patch")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.Flags().StringP("rules", "r", "settings.yaml", "YAML file with match rules and defaults")
	settingsCmd.Flags().String("from", "", "Window start date YYYY-MM-DD (default: 30 days back)")
	settingsCmd.Flags().String("to", "", "Window end date YYYY-MM-DD (default: 180 days forward)")
	settingsCmd.Flags().Bool("apply", false, "Send the patches (default: dry run)")
}
