package engine

import (
	"strings"

	"caltidy/pkg/provider"
	"caltidy/pkg/spec"
)

// specWindow computes the lookup window a declared entry implies: a
// one-off uses its own timestamps verbatim, a recurring entry widens
// its date range to whole days. Returns ok=false when the entry gives
// nothing to anchor a query on.
func specWindow(ev spec.Event) (startISO, endISO string, ok bool) {
	if ev.Start != "" && ev.End != "" {
		return ev.Start, ev.End, true
	}
	if ev.RangeStart == "" {
		return "", "", false
	}
	start := ymd(ev.RangeStart)
	until := ev.RangeUntil
	if until == "" {
		until = ev.RangeStart
	}
	return start + dayStart, ymd(until) + dayEnd, true
}

func ymd(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}

// FilterByDayTime keeps the occurrences whose weekday is in byday and
// whose start/end HH:MM equal the wanted times. Comparison is
// permissive: a field that cannot be derived from the occurrence (no
// parseable start, no time component) is skipped rather than treated
// as a mismatch, tolerating partial provider data.
func FilterByDayTime(events []provider.Event, byday []string, startTime, endTime string) []provider.Event {
	wantDays := make(map[string]bool, len(byday))
	for _, d := range byday {
		wantDays[strings.ToUpper(d)] = true
	}
	var out []provider.Event
	for _, ev := range events {
		if ev.Start == "" {
			continue
		}
		tStart := hhmm(ev.Start)
		tEnd := hhmm(ev.End)
		wcode := ""
		if t, ok := ParseISO(ev.Start); ok {
			wcode = WeekdayCode(t)
		}
		if len(wantDays) > 0 && !wantDays[wcode] {
			continue
		}
		if startTime != "" && tStart != "" && startTime != tStart {
			continue
		}
		if endTime != "" && tEnd != "" && endTime != tEnd {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// subjectContains is the client-side analogue of the provider's
// best-effort subject filter.
func subjectContains(ev provider.Event, subject string) bool {
	if subject == "" {
		return true
	}
	return strings.Contains(strings.ToLower(ev.Subject), strings.ToLower(subject))
}
