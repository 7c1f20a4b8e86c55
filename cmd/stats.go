package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"caltidy/pkg/storage"
)

// statsCmd summarizes the audit log per command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about applied changes in the audit log.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		if dbPath == "" {
			dbPath = "caltidy.sqlite"
		}
		if _, err := os.Stat(dbPath); err != nil {
			return fmt.Errorf("audit database not found: %s", dbPath)
		}

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("No data in the audit log to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "COMMAND\tRUNS\tACTIONS\t")

		var totalRuns, totalActions int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t\n", s.Command, s.RunCount, s.ActionCount)
			totalRuns += s.RunCount
			totalActions += s.ActionCount
		}

		fmt.Fprintln(w, " \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t\n", totalRuns, totalActions)

		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
