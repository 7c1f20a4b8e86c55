package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"caltidy/pkg/storage"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent applied changes from the audit log (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		limit, _ := cmd.Flags().GetInt("limit")
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
		actions, err := db.ListRecentActions(context.Background(), limit)
		if err != nil {
			return err
		}
		for _, a := range actions {
			ts := a.OccurredAt.Format("2006-01-02 15:04:05")
			fmt.Printf("%s  %-10s  %-16s  %s  %s  %s\n", ts, a.Command, a.Action, a.EventID, a.Subject, a.Detail)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.Flags().Int("limit", 50, "Number of recent changes to show")
}
