package engine

import (
	"context"
	"fmt"
	"sort"

	"caltidy/pkg/provider"
)

// RemindersRequest toggles or adjusts reminders for every event in a
// window, grouped by event kind.
type RemindersRequest struct {
	Calendar       string
	FromDate       string
	ToDate         string
	DryRun         bool
	AllOccurrences bool // also touch individual occurrences, not just masters
	SetOff         bool
	Minutes        int // minutes before start when enabling

	Window WindowResolver
}

// RemindersResult counts reminder updates.
type RemindersResult struct {
	Logs    []string
	Updated int
	DryRun  bool
	SetOff  bool
}

// ApplyReminders classifies every event in the window as series master,
// occurrence, or single, and updates reminders per class. Occurrences
// are only touched when AllOccurrences is set; their series master is
// always included. Dry-run logs the intended action per id and never
// calls the provider.
func ApplyReminders(ctx context.Context, svc provider.Provider, req RemindersRequest) (RemindersResult, error) {
	res := RemindersResult{DryRun: req.DryRun, SetOff: req.SetOff}

	calID := ""
	if req.Calendar != "" {
		id, err := svc.FindCalendarID(ctx, req.Calendar)
		if err != nil {
			return res, fmt.Errorf("calendar lookup failed: %w", err)
		}
		if id == "" {
			return res, fmt.Errorf("calendar not found: %s", req.Calendar)
		}
		calID = id
	}

	startISO, endISO := req.Window.Resolve(req.FromDate, req.ToDate, 30, 180)
	events, err := svc.ListEventsInRange(ctx, provider.RangeQuery{
		CalendarID: calID,
		StartISO:   startISO,
		EndISO:     endISO,
	})
	if err != nil {
		return res, fmt.Errorf("failed to list events: %w", err)
	}

	seriesIDs := map[string]bool{}
	occurrenceIDs := map[string]bool{}
	singleIDs := map[string]bool{}
	for _, ev := range events {
		switch ev.Kind {
		case provider.KindSeriesMaster:
			if ev.ID != "" {
				seriesIDs[ev.ID] = true
			}
		case provider.KindOccurrence:
			if req.AllOccurrences && ev.ID != "" {
				occurrenceIDs[ev.ID] = true
			}
			if ev.SeriesMasterID != "" {
				seriesIDs[ev.SeriesMasterID] = true
			}
		default:
			if ev.ID != "" {
				singleIDs[ev.ID] = true
			}
		}
	}

	res.Updated += updateReminderIDs(ctx, svc, sortedIDs(seriesIDs), "series master", calID, req, &res.Logs)
	if req.AllOccurrences {
		res.Updated += updateReminderIDs(ctx, svc, sortedIDs(occurrenceIDs), "occurrence", calID, req, &res.Logs)
	}
	res.Updated += updateReminderIDs(ctx, svc, sortedIDs(singleIDs), "single", calID, req, &res.Logs)
	return res, nil
}

func sortedIDs(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func updateReminderIDs(ctx context.Context, svc provider.Provider, ids []string, label, calID string, req RemindersRequest, logs *[]string) int {
	updated := 0
	for _, eid := range ids {
		if req.DryRun {
			if req.SetOff {
				*logs = append(*logs, fmt.Sprintf("[dry-run] would disable reminder for %s %s", label, eid))
			} else {
				*logs = append(*logs, fmt.Sprintf("[dry-run] would set reminderMinutesBeforeStart=%d for %s %s", req.Minutes, label, eid))
			}
			continue
		}
		upd := provider.ReminderUpdate{
			EventID:      eid,
			CalendarID:   calID,
			CalendarName: req.Calendar,
			IsOn:         !req.SetOff,
		}
		if !req.SetOff {
			upd.MinutesBeforeStart = req.Minutes
		}
		if err := svc.UpdateEventReminder(ctx, upd); err != nil {
			*logs = append(*logs, fmt.Sprintf("Failed to update %s %s: %v", label, eid, err))
			continue
		}
		updated++
	}
	return updated
}
