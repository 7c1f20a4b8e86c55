package engine

import (
	"context"
	"fmt"
	"strings"

	"caltidy/pkg/provider"
	"caltidy/pkg/spec"
)

// VerifyRequest asks whether each declared weekly entry already exists
// on the live calendar.
type VerifyRequest struct {
	Specs    []spec.Event
	Calendar string // overrides per-spec calendar when set
}

// VerifyResult aggregates the per-spec classification. Total counts
// only the specs that were actually evaluated.
type VerifyResult struct {
	Logs       []string
	Total      int
	Duplicates int
	Missing    int
}

// Verify classifies every fully specified weekly entry as duplicate
// (already present) or missing. Entries that are not weekly-recurring
// with a byday list are skipped and not counted: verification only
// targets complete recurring imports. A provider listing error skips
// that one spec and continues.
func Verify(ctx context.Context, svc provider.Provider, req VerifyRequest) VerifyResult {
	var res VerifyResult
	for i, ev := range req.Specs {
		idx := i + 1
		subj := strings.TrimSpace(ev.Subject)
		if subj == "" || ev.Repeat != "weekly" || len(ev.ByDay) == 0 || ev.StartTime == "" || ev.EndTime == "" {
			continue
		}
		res.Total++

		calName := req.Calendar
		if calName == "" {
			calName = ev.Calendar
		}
		startISO, endISO, ok := specWindow(ev)
		if !ok {
			continue
		}
		events, err := svc.ListEventsInRange(ctx, provider.RangeQuery{
			CalendarName:  calName,
			StartISO:      startISO,
			EndISO:        endISO,
			SubjectFilter: subj,
		})
		if err != nil {
			res.Logs = append(res.Logs, fmt.Sprintf("[%d] Unable to list events for '%s': %v", idx, subj, err))
			continue
		}

		matches := FilterByDayTime(events, ev.ByDay, ev.StartTime, ev.EndTime)
		label := calName
		if label == "" {
			label = "<primary>"
		}
		days := strings.Join(ev.ByDay, ",")
		if len(matches) > 0 {
			res.Duplicates++
			res.Logs = append(res.Logs, fmt.Sprintf("[%d] duplicate: %s %s %s-%s in '%s'",
				idx, subj, days, ev.StartTime, ev.EndTime, label))
		} else {
			res.Missing++
			res.Logs = append(res.Logs, fmt.Sprintf("[%d] missing:   %s %s %s-%s in '%s'",
				idx, subj, days, ev.StartTime, ev.EndTime, label))
		}
	}
	return res
}
