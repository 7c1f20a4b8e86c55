package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"caltidy/pkg/ics"
	"caltidy/pkg/spec"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a declaration file as iCalendar (.ics)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("file")
		outPath, _ := cmd.Flags().GetString("out")

		specs, err := spec.LoadEventsDoc(file)
		if err != nil {
			return err
		}
		body, err := ics.Export(specs, specTimeLocation())
		if err != nil {
			return err
		}
		if outPath == "" || outPath == "-" {
			fmt.Print(body)
			return nil
		}
		if err := os.WriteFile(outPath, []byte(body), 0644); err != nil {
			return err
		}
		fmt.Printf("Wrote %d events to %s\n", len(specs), outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("file", "f", "events.yaml", "YAML file with declared events")
	exportCmd.Flags().StringP("out", "o", "", "Output .ics file (default: stdout)")
}
