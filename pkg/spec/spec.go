// Package spec models declared events: the recurring or one-off entries a
// user maintains in a YAML document and asks the engine to verify,
// create, or remove against the live calendar.
package spec

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Event is a declared schedule entry. Exactly one of the one-off fields
// (Start/End) or the recurring fields (Repeat/ByDay/StartTime/...) is
// expected to be populated.
type Event struct {
	Subject  string
	Calendar string
	TimeZone string
	Location string
	BodyHTML string

	// Recurring
	Repeat     string   // weekly | daily | monthly
	Interval   int      // 0 means unset (provider default 1)
	ByDay      []string // MO..SU
	StartTime  string   // HH:MM
	EndTime    string   // HH:MM
	RangeStart string   // YYYY-MM-DD
	RangeUntil string   // YYYY-MM-DD
	Count      int      // 0 means unset
	ExDates    []string

	// One-off
	Start string // ISO datetime
	End   string

	// Reminder
	IsReminderOn    *bool
	ReminderMinutes *int
}

// IsOneOff reports whether the entry declares a single dated event.
func (e Event) IsOneOff() bool {
	return e.Start != "" && e.End != ""
}

// IsRecurring reports whether the entry declares a recurring series.
func (e Event) IsRecurring() bool {
	return e.Repeat != ""
}

// Validate rejects entries that declare neither shape. Specs like this
// must never reach the engine.
func (e Event) Validate() error {
	if e.Subject == "" {
		return fmt.Errorf("event has no subject")
	}
	if !e.IsOneOff() && !e.IsRecurring() && len(e.ByDay) == 0 {
		return fmt.Errorf("event %q declares neither one-off nor recurring fields", e.Subject)
	}
	return nil
}

var dayAliases = map[string]string{
	"monday": "MO", "mon": "MO",
	"tuesday": "TU", "tue": "TU", "tues": "TU",
	"wednesday": "WE", "wed": "WE",
	"thursday": "TH", "thu": "TH", "thur": "TH", "thurs": "TH",
	"friday": "FR", "fri": "FR",
	"saturday": "SA", "sat": "SA",
	"sunday": "SU", "sun": "SU",
}

// NormalizeByDay accepts ["MO","TU"], comma/space/semicolon separated
// strings, or full day names, and returns canonical two-letter codes
// with duplicates removed.
func NormalizeByDay(v interface{}) []string {
	var toks []string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		r := strings.NewReplacer(";", ",", " ", ",")
		for _, p := range strings.Split(r.Replace(t), ",") {
			if p = strings.TrimSpace(p); p != "" {
				toks = append(toks, p)
			}
		}
	case []interface{}:
		for _, x := range t {
			s := strings.TrimSpace(fmt.Sprint(x))
			if s != "" {
				toks = append(toks, s)
			}
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				toks = append(toks, s)
			}
		}
	default:
		return nil
	}

	var out []string
	seen := map[string]bool{}
	for _, tok := range toks {
		code := ""
		if len(tok) <= 2 {
			code = strings.ToUpper(tok)
		} else if c, ok := dayAliases[strings.ToLower(tok)]; ok {
			code = c
		} else {
			code = strings.ToUpper(tok[:2])
		}
		if !seen[code] {
			out = append(out, code)
			seen[code] = true
		}
	}
	return out
}

func coerceString(v interface{}) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func coerceInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		n, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(v)))
		if err != nil {
			return 0, false
		}
		return n, true
	}
}

// CoerceBool maps boolean-like values to a tri-state: true, false, or
// nil for anything unrecognized.
func CoerceBool(v interface{}) *bool {
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		return &t
	}
	s := strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
	switch s {
	case "1", "true", "yes", "on":
		b := true
		return &b
	case "0", "false", "no", "off", "none":
		b := false
		return &b
	}
	return nil
}

func firstKey(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// Normalize coerces a loose, human-authored YAML map into a canonical
// Event. Legacy key aliases (camelCase, range sub-map) are accepted.
func Normalize(raw map[string]interface{}) Event {
	ev := Event{
		Subject:   coerceString(raw["subject"]),
		Calendar:  coerceString(raw["calendar"]),
		TimeZone:  coerceString(raw["tz"]),
		Location:  coerceString(raw["location"]),
		BodyHTML:  coerceString(firstKey(raw, "body_html", "bodyHtml")),
		Repeat:    coerceString(raw["repeat"]),
		ByDay:     NormalizeByDay(firstKey(raw, "byday", "byDay")),
		StartTime: coerceString(firstKey(raw, "start_time", "startTime", "start-time")),
		EndTime:   coerceString(firstKey(raw, "end_time", "endTime", "end-time")),
		Start:     coerceString(raw["start"]),
		End:       coerceString(raw["end"]),
	}
	if n, ok := coerceInt(raw["interval"]); ok {
		ev.Interval = n
	}
	if n, ok := coerceInt(raw["count"]); ok {
		ev.Count = n
	}

	// Range: nested range: {start_date, until} wins over flat aliases.
	rangeStart := ""
	rangeUntil := ""
	if r, ok := raw["range"].(map[string]interface{}); ok {
		rangeStart = coerceString(firstKey(r, "start_date", "startDate"))
		rangeUntil = coerceString(firstKey(r, "until", "end_date", "endDate"))
	}
	if rangeStart == "" {
		rangeStart = coerceString(firstKey(raw, "start_date", "startDate"))
	}
	if rangeUntil == "" {
		rangeUntil = coerceString(firstKey(raw, "until", "end_date", "endDate"))
	}
	ev.RangeStart = rangeStart
	ev.RangeUntil = rangeUntil

	switch x := firstKey(raw, "exdates", "exceptions").(type) {
	case string:
		for _, p := range strings.Split(x, ",") {
			if p = strings.TrimSpace(p); p != "" {
				ev.ExDates = append(ev.ExDates, p)
			}
		}
	case []interface{}:
		for _, v := range x {
			if s := coerceString(v); s != "" {
				ev.ExDates = append(ev.ExDates, s)
			}
		}
	}

	ev.IsReminderOn = CoerceBool(firstKey(raw, "is_reminder_on", "isReminderOn", "reminder"))
	if n, ok := coerceInt(firstKey(raw, "reminder_minutes", "reminderMinutes", "reminder-minutes")); ok {
		ev.ReminderMinutes = &n
	}
	return ev
}

// LoadEventsDoc reads a YAML document of the form:
//
//	events:
//	  - subject: Swim
//	    repeat: weekly
//	    ...
//
// and returns the normalized entries. A document without an events list
// is a configuration error.
func LoadEventsDoc(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var doc struct {
		Events []map[string]interface{} `yaml:"events"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if doc.Events == nil {
		return nil, fmt.Errorf("config must contain an events: list")
	}
	out := make([]Event, 0, len(doc.Events))
	for _, raw := range doc.Events {
		if raw == nil {
			continue
		}
		out = append(out, Normalize(raw))
	}
	return out, nil
}

// MarshalEventsDoc renders entries back into the YAML document shape
// LoadEventsDoc reads. Only set fields are emitted.
func MarshalEventsDoc(events []Event) ([]byte, error) {
	list := make([]map[string]interface{}, 0, len(events))
	for _, ev := range events {
		m := map[string]interface{}{"subject": ev.Subject}
		put := func(k, v string) {
			if v != "" {
				m[k] = v
			}
		}
		put("calendar", ev.Calendar)
		put("tz", ev.TimeZone)
		put("location", ev.Location)
		put("body_html", ev.BodyHTML)
		put("repeat", ev.Repeat)
		put("start_time", ev.StartTime)
		put("end_time", ev.EndTime)
		put("start", ev.Start)
		put("end", ev.End)
		if ev.Interval > 0 {
			m["interval"] = ev.Interval
		}
		if ev.Count > 0 {
			m["count"] = ev.Count
		}
		if len(ev.ByDay) > 0 {
			m["byday"] = ev.ByDay
		}
		if len(ev.ExDates) > 0 {
			m["exdates"] = ev.ExDates
		}
		if ev.RangeStart != "" || ev.RangeUntil != "" {
			r := map[string]interface{}{}
			if ev.RangeStart != "" {
				r["start_date"] = ev.RangeStart
			}
			if ev.RangeUntil != "" {
				r["until"] = ev.RangeUntil
			}
			m["range"] = r
		}
		if ev.IsReminderOn != nil {
			m["is_reminder_on"] = *ev.IsReminderOn
		}
		if ev.ReminderMinutes != nil {
			m["reminder_minutes"] = *ev.ReminderMinutes
		}
		list = append(list, m)
	}
	return yaml.Marshal(map[string]interface{}{"events": list})
}
