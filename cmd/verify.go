package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"caltidy/pkg/engine"
	"caltidy/pkg/spec"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check which declared weekly events already exist on the calendar",
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("file")
		specs, err := spec.LoadEventsDoc(file)
		if err != nil {
			return err
		}
		svc, err := newProvider()
		if err != nil {
			return err
		}

		res := engine.Verify(cmd.Context(), svc, engine.VerifyRequest{
			Specs:    specs,
			Calendar: calendarFlag(cmd),
		})
		for _, line := range res.Logs {
			fmt.Println(line)
		}
		fmt.Printf("Checked %d events: %d already present, %d missing\n", res.Total, res.Duplicates, res.Missing)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringP("file", "f", "events.yaml", "YAML file with declared events")
}
