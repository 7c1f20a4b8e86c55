package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"caltidy/pkg/provider"
	"caltidy/pkg/spec"
)

// CreateRequest turns declared entries into live events/series.
type CreateRequest struct {
	Specs      []spec.Event
	Calendar   string // overrides per-spec calendar when set
	DryRun     bool
	NoReminder bool
}

// CreateResult counts created events; in dry-run, Created counts the
// events that would have been created.
type CreateResult struct {
	Logs    []string
	Created int
	DryRun  bool
}

// Create creates every declared entry that carries enough fields to
// build an event, best-effort per entry. Dry-run previews recurring
// entries with their concrete occurrence count where it can be
// computed.
func Create(ctx context.Context, svc provider.Provider, req CreateRequest) CreateResult {
	res := CreateResult{DryRun: req.DryRun}
	for i, ev := range req.Specs {
		idx := i + 1
		subj := strings.TrimSpace(ev.Subject)
		if subj == "" {
			res.Logs = append(res.Logs, fmt.Sprintf("[%d] Skipping event: missing subject", idx))
			continue
		}
		calName := req.Calendar
		if calName == "" {
			calName = ev.Calendar
		}
		label := calName
		if label == "" {
			label = "<primary>"
		}

		noReminder := req.NoReminder || (ev.IsReminderOn != nil && !*ev.IsReminderOn)
		if ev.ReminderMinutes != nil {
			noReminder = false
		}

		if ev.IsRecurring() {
			if req.DryRun {
				preview := ""
				if dates, err := ev.ExpandDates(time.Local); err == nil && len(dates) > 0 {
					preview = fmt.Sprintf(" (%d occurrences through %s)",
						len(dates), dates[len(dates)-1].Format("2006-01-02"))
				}
				res.Logs = append(res.Logs, fmt.Sprintf(
					"Would create series '%s' cal='%s' byday=%s time=%s-%s range=%s..%s%s",
					subj, label, strings.Join(ev.ByDay, ","), ev.StartTime, ev.EndTime,
					ev.RangeStart, ev.RangeUntil, preview))
				res.Created++
				continue
			}
			p := provider.RecurringEventParams{
				Subject:      subj,
				StartTime:    ev.StartTime,
				EndTime:      ev.EndTime,
				CalendarName: calName,
				TimeZone:     ev.TimeZone,
				Repeat:       ev.Repeat,
				Interval:     ev.Interval,
				ByDay:        ev.ByDay,
				RangeStart:   ev.RangeStart,
				RangeUntil:   ev.RangeUntil,
				Count:        ev.Count,
				BodyHTML:     ev.BodyHTML,
				Location:     ev.Location,
				NoReminder:   noReminder,
			}
			if p.Interval == 0 {
				p.Interval = 1
			}
			if err := svc.CreateRecurringEvent(ctx, p); err != nil {
				res.Logs = append(res.Logs, fmt.Sprintf("[%d] Failed to create series '%s': %v", idx, subj, err))
				continue
			}
			res.Created++
			res.Logs = append(res.Logs, fmt.Sprintf("[%d] Created series: %s", idx, subj))
			continue
		}

		if !ev.IsOneOff() {
			res.Logs = append(res.Logs, fmt.Sprintf("[%d] Skipping one-time event '%s': missing start/end", idx, subj))
			continue
		}
		if req.DryRun {
			res.Logs = append(res.Logs, fmt.Sprintf("Would create one-off '%s' %s->%s cal='%s'",
				subj, ev.Start, ev.End, label))
			res.Created++
			continue
		}
		err := svc.CreateEvent(ctx, provider.EventParams{
			Subject:      subj,
			StartISO:     ev.Start,
			EndISO:       ev.End,
			CalendarName: calName,
			TimeZone:     ev.TimeZone,
			BodyHTML:     ev.BodyHTML,
			Location:     ev.Location,
			NoReminder:   noReminder,
		})
		if err != nil {
			res.Logs = append(res.Logs, fmt.Sprintf("[%d] Failed to create event '%s': %v", idx, subj, err))
			continue
		}
		res.Created++
		res.Logs = append(res.Logs, fmt.Sprintf("[%d] Created event: %s", idx, subj))
	}
	return res
}
