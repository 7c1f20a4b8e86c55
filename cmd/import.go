package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"caltidy/pkg/importer"
	"caltidy/pkg/spec"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Build a declaration file from a schedule CSV or webpage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		csvPath, _ := cmd.Flags().GetString("csv")
		url, _ := cmd.Flags().GetString("url")
		activity, _ := cmd.Flags().GetString("activity")
		outPath, _ := cmd.Flags().GetString("out")

		var specs []spec.Event
		var err error
		switch {
		case csvPath != "":
			specs, err = importer.ParseCSV(csvPath)
		case url != "":
			specs, err = importer.ParseWebsite(url, activity)
		default:
			return fmt.Errorf("pass --csv or --url")
		}
		if err != nil {
			return err
		}
		if len(specs) == 0 {
			return fmt.Errorf("no schedule entries found")
		}

		data, err := spec.MarshalEventsDoc(specs)
		if err != nil {
			return err
		}
		if outPath == "" || outPath == "-" {
			fmt.Print(string(data))
			return nil
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return err
		}
		fmt.Printf("Wrote %d events to %s\n", len(specs), outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("csv", "", "Schedule CSV file to import")
	importCmd.Flags().String("url", "", "Schedule webpage to import")
	importCmd.Flags().String("activity", importer.DefaultActivity, "Activity row to extract from a webpage schedule")
	importCmd.Flags().StringP("out", "o", "", "Output YAML file (default: stdout)")
}
