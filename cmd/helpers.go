package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"caltidy/internal/utils"
	"caltidy/pkg/provider"
	"caltidy/pkg/provider/graph"
	"caltidy/pkg/storage"
)

// newProvider builds the Graph client from config.
func newProvider() (provider.Provider, error) {
	token := viper.GetString("graph.token")
	if token == "" {
		return nil, errors.New("graph.token not set; add it to the config file")
	}
	return graph.New(viper.GetString("graph.base_url"), token, viper.GetString("timezone")), nil
}

// calendarFlag resolves the calendar name: flag first, then config.
func calendarFlag(cmd *cobra.Command) string {
	cal, _ := cmd.Flags().GetString("calendar")
	if cal == "" {
		cal = viper.GetString("default_calendar")
	}
	return cal
}

// specTimeLocation loads the configured timezone, falling back to local.
func specTimeLocation() *time.Location {
	tz := viper.GetString("timezone")
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		utils.Log.Warnf("Unknown timezone %q, using local", tz)
		return time.Local
	}
	return loc
}

// recordAudit writes applied actions to the audit DB when --dbpath is
// set. Audit failures never fail the command.
func recordAudit(cmd *cobra.Command, command string, actions []storage.Action) {
	if len(actions) == 0 {
		return
	}
	dbPath, _ := cmd.Flags().GetString("dbpath")
	if dbPath == "" {
		return
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		utils.Log.Errorf("Audit DB open failed: %v", err)
		return
	}
	defer db.Close()
	if _, err := db.RecordActions(context.Background(), command, actions); err != nil {
		utils.Log.Errorf("Audit write failed: %v", err)
	}
}
