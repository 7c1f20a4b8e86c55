package engine

import (
	"strings"
	"time"

	"caltidy/pkg/provider"
	"caltidy/pkg/spec"
)

// Key is the canonical comparison tuple: two specs/occurrences with
// equal keys describe the same logical recurring slot, regardless of
// which import created them. Location participates only when the
// consuming operation asks for it (duplicate grouping leaves it out,
// since two imports of one slot may format the location differently).
type Key struct {
	Subject  string // lower-cased, trimmed
	Weekday  string // MO..SU, or "" when underivable
	Start    string // HH:MM, or ""
	End      string // HH:MM, or ""
	Location string
}

var weekdayCodes = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// isoLayouts covers the datetime shapes providers hand back: RFC3339
// with offset or Z, and Graph's fraction-bearing local form.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05.999999999Z07:00",
}

// ParseISO parses a provider datetime string, trying the known layouts.
func ParseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WeekdayCode maps a datetime to its MO..SU code, Monday first.
func WeekdayCode(t time.Time) string {
	return weekdayCodes[(int(t.Weekday())+6)%7]
}

// hhmm extracts HH:MM from an ISO datetime by slicing after the 'T'.
// Unparseable input yields "", which matching treats as "don't care".
func hhmm(iso string) string {
	i := strings.IndexByte(iso, 'T')
	if i < 0 || len(iso) < i+6 {
		return ""
	}
	return iso[i+1 : i+6]
}

func normalizeSubject(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// KeyForEvent derives the canonical key of a live occurrence. The
// weekday comes from the parsed local start; if the start cannot be
// parsed the weekday is left empty rather than failing.
func KeyForEvent(ev provider.Event) Key {
	k := Key{
		Subject: normalizeSubject(ev.Subject),
		Start:   hhmm(ev.Start),
		End:     hhmm(ev.End),
	}
	if t, ok := ParseISO(ev.Start); ok {
		k.Weekday = WeekdayCode(t)
	}
	return k
}

// KeysForSpec derives one key per declared weekday. The caller decides
// whether the spec's location participates.
func KeysForSpec(ev spec.Event, withLocation bool) []Key {
	loc := ""
	if withLocation {
		loc = ev.Location
	}
	if len(ev.ByDay) == 0 {
		return []Key{{
			Subject:  normalizeSubject(ev.Subject),
			Start:    ev.StartTime,
			End:      ev.EndTime,
			Location: loc,
		}}
	}
	out := make([]Key, 0, len(ev.ByDay))
	for _, day := range ev.ByDay {
		out = append(out, Key{
			Subject:  normalizeSubject(ev.Subject),
			Weekday:  strings.ToUpper(day),
			Start:    ev.StartTime,
			End:      ev.EndTime,
			Location: loc,
		})
	}
	return out
}
