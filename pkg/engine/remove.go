package engine

import (
	"context"
	"fmt"
	"strings"

	"caltidy/pkg/provider"
	"caltidy/pkg/spec"
)

// RemoveRequest asks for the live events matching each declared entry
// to be planned for deletion (and deleted when Apply is set).
type RemoveRequest struct {
	Specs       []spec.Event
	Calendar    string
	SubjectOnly bool // match on subject+window only, skip weekday/time
	Apply       bool
}

// RemovePlanEntry is the deletion plan for one declared entry. Series
// masters are deleted once for the whole series; plain event ids are
// deleted individually.
type RemovePlanEntry struct {
	Subject   string
	SeriesIDs []string
	EventIDs  []string
}

// RemoveResult is the plan plus apply-phase outcomes.
type RemoveResult struct {
	Plan    []RemovePlanEntry
	Applied bool
	Deleted int
	Logs    []string
}

// Remove plans (and with Apply, performs) deletion of the live events
// matching each declared entry. A provider listing error skips that
// entry; deletions are best-effort per id.
func Remove(ctx context.Context, svc provider.Provider, req RemoveRequest) RemoveResult {
	var res RemoveResult
	res.Applied = req.Apply

	for i, ev := range req.Specs {
		idx := i + 1
		subj := strings.TrimSpace(ev.Subject)
		startISO, endISO, ok := specWindow(ev)
		if !ok {
			continue
		}
		calName := req.Calendar
		if calName == "" {
			calName = ev.Calendar
		}
		occ, err := svc.ListEventsInRange(ctx, provider.RangeQuery{
			CalendarName:  calName,
			StartISO:      startISO,
			EndISO:        endISO,
			SubjectFilter: subj,
		})
		if err != nil {
			res.Logs = append(res.Logs, fmt.Sprintf("[%d] list error: %v", idx, err))
			continue
		}

		matches := matchForRemoval(occ, ev, req.SubjectOnly)
		seriesIDs, eventIDs := collectIDs(matches)
		if len(seriesIDs) == 0 && len(eventIDs) == 0 {
			continue
		}
		entry := RemovePlanEntry{Subject: subj, SeriesIDs: seriesIDs, EventIDs: eventIDs}
		res.Plan = append(res.Plan, entry)
		if req.Apply {
			res.Deleted += applyDeletions(ctx, svc, entry, &res.Logs)
		}
	}
	return res
}

// matchForRemoval filters the returned occurrences against the declared
// entry. One-offs match on minute-precision timestamps; recurring
// entries match on weekday and HH:MM where those can be computed, and
// skip any field that cannot be, tolerating partial provider data.
func matchForRemoval(occ []provider.Event, ev spec.Event, subjectOnly bool) []provider.Event {
	wantDays := make(map[string]bool, len(ev.ByDay))
	for _, d := range ev.ByDay {
		wantDays[strings.ToUpper(d)] = true
	}
	var out []provider.Event
	for _, ex := range occ {
		st, en := ex.Start, ex.End
		switch {
		case ev.IsOneOff():
			if !minutePrefixMatch(st, ev.Start) || !minutePrefixMatch(en, ev.End) {
				continue
			}
		case !subjectOnly:
			t1, t2 := hhmm(st), hhmm(en)
			wcode := ""
			if t, ok := ParseISO(st); ok {
				wcode = WeekdayCode(t)
			}
			if len(wantDays) > 0 && wcode != "" && !wantDays[wcode] {
				continue
			}
			if ev.StartTime != "" && t1 != "" && ev.StartTime != t1 {
				continue
			}
			if ev.EndTime != "" && t2 != "" && ev.EndTime != t2 {
				continue
			}
		}
		out = append(out, ex)
	}
	return out
}

// minutePrefixMatch compares two ISO datetimes to minute precision
// ("2006-01-02T15:04" prefix).
func minutePrefixMatch(got, want string) bool {
	if len(want) > 16 {
		want = want[:16]
	}
	return want != "" && strings.HasPrefix(got, want)
}

// collectIDs separates series master ids from plain event ids. A match
// that belongs to a series contributes its series id, not its own: the
// whole series goes, never a lone occurrence.
func collectIDs(matches []provider.Event) (seriesIDs, eventIDs []string) {
	seenSeries := map[string]bool{}
	seenEvent := map[string]bool{}
	for _, m := range matches {
		if sid := m.SeriesMasterID; sid != "" {
			if !seenSeries[sid] {
				seriesIDs = append(seriesIDs, sid)
				seenSeries[sid] = true
			}
			continue
		}
		if id := m.ID; id != "" && !seenEvent[id] {
			eventIDs = append(eventIDs, id)
			seenEvent[id] = true
		}
	}
	return seriesIDs, eventIDs
}

func applyDeletions(ctx context.Context, svc provider.Provider, entry RemovePlanEntry, logs *[]string) int {
	deleted := 0
	for _, sid := range entry.SeriesIDs {
		ok, err := svc.DeleteEventByID(ctx, sid)
		if err != nil {
			*logs = append(*logs, fmt.Sprintf("Failed to delete series %s: %v", sid, err))
			continue
		}
		if ok {
			deleted++
			*logs = append(*logs, fmt.Sprintf("Deleted series master: %s (%s)", sid, entry.Subject))
		} else {
			*logs = append(*logs, fmt.Sprintf("Failed to delete series %s", sid))
		}
	}
	for _, eid := range entry.EventIDs {
		ok, err := svc.DeleteEventByID(ctx, eid)
		if err != nil {
			*logs = append(*logs, fmt.Sprintf("Failed to delete event %s: %v", eid, err))
			continue
		}
		if ok {
			deleted++
			*logs = append(*logs, fmt.Sprintf("Deleted event: %s (%s)", eid, entry.Subject))
		} else {
			*logs = append(*logs, fmt.Sprintf("Failed to delete event %s", eid))
		}
	}
	return deleted
}
