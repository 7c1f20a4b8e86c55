// Package importer parses recurring activity schedules out of tabular
// and web sources and produces declared event specs ready for calendar
// creation.
package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"caltidy/pkg/spec"
)

var dayCodes = map[string]string{
	"mon": "MO", "tue": "TU", "wed": "WE", "thu": "TH",
	"fri": "FR", "sat": "SA", "sun": "SU",
}

var dayOrder = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// NormalizeDay converts a day name ("Monday", "mon") to its MO..SU code,
// or "" when unrecognized.
func NormalizeDay(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if len(s) >= 3 {
		if c, ok := dayCodes[s[:3]]; ok {
			return c
		}
	}
	return ""
}

var (
	dayRangeRe = regexp.MustCompile(`\b(mon|tue|wed|thu|fri|sat|sun)\w*\b\s*(?:-|to)\s*\b(mon|tue|wed|thu|fri|sat|sun)\w*\b`)
	ampmRe     = regexp.MustCompile(`(?i)[ap]\.?m\.?`)
	amOnlyRe   = regexp.MustCompile(`(?i)\ba\.?m\.?`)
	pmOnlyRe   = regexp.MustCompile(`(?i)\bp\.?m\.?`)
	clockRe    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?$`)
	rangeRe    = regexp.MustCompile(`(?i)(\d{1,2}(?::\d{2})?\s*(?:a\.?m\.?|p\.?m\.?))\s*(?:-|to)\s*(\d{1,2}(?::\d{2})?\s*(?:a\.?m\.?|p\.?m\.?))`)
)

// NormalizeDays parses a day specification into two-letter codes.
// Handles ranges ("Mon to Fri", "Mon-Fri", wrap-around "Sat to Mon"),
// lists ("Mon & Wed"), and full names.
func NormalizeDays(specText string) []string {
	s := strings.ToLower(specText)
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&", " & ")

	if m := dayRangeRe.FindStringSubmatch(s); m != nil {
		i1, i2 := indexOfDay(m[1]), indexOfDay(m[2])
		var names []string
		if i1 <= i2 {
			names = dayOrder[i1 : i2+1]
		} else {
			names = append(append([]string{}, dayOrder[i1:]...), dayOrder[:i2+1]...)
		}
		out := make([]string, 0, len(names))
		for _, n := range names {
			out = append(out, dayCodes[n])
		}
		return out
	}

	var out []string
	for _, d := range dayOrder {
		re := regexp.MustCompile(`\b` + d + `\w*\b`)
		if re.MatchString(s) {
			c := dayCodes[d]
			if !containsString(out, c) {
				out = append(out, c)
			}
		}
	}
	return out
}

func indexOfDay(d string) int {
	for i, n := range dayOrder {
		if n == d {
			return i
		}
	}
	return 0
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

// To24h converts a clock string to 24-hour HH:MM ("1:45 p.m." -> "13:45").
// ampm may force a meridian; when absent and undetectable, hours 7-11
// are assumed PM since these schedules are overwhelmingly evening slots.
func To24h(timeStr, ampm string) string {
	t := strings.ToLower(strings.TrimSpace(timeStr))
	t = strings.ReplaceAll(t, " ", "")

	suffix := ampm
	if suffix == "" {
		if pmOnlyRe.MatchString(t) {
			suffix = "pm"
		} else if amOnlyRe.MatchString(t) {
			suffix = "am"
		}
	}
	clean := strings.Trim(ampmRe.ReplaceAllString(t, ""), " .")
	m := clockRe.FindStringSubmatch(clean)
	if m == nil {
		return ""
	}
	hh, _ := strconv.Atoi(m[1])
	mm := 0
	if m[2] != "" {
		mm, _ = strconv.Atoi(m[2])
	}
	if suffix == "" {
		if hh >= 7 && hh <= 11 {
			suffix = "pm"
		} else {
			suffix = "am"
		}
	}
	if strings.HasPrefix(suffix, "p") && hh < 12 {
		hh += 12
	}
	if strings.HasPrefix(suffix, "a") && hh == 12 {
		hh = 0
	}
	return fmt.Sprintf("%02d:%02d", hh, mm)
}

// ParseTimeRange splits "1:45 - 3:15 p.m." style strings into 24-hour
// (start, end). A meridian on one side only applies to both sides; with
// both present each side keeps its own.
func ParseTimeRange(s string) (string, string) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if s == "" {
		return "", ""
	}
	s = strings.ReplaceAll(s, " to ", "-")

	hasAM := amOnlyRe.MatchString(s)
	hasPM := pmOnlyRe.MatchString(s)
	clean := ampmRe.ReplaceAllString(s, "")
	var parts []string
	for _, p := range strings.Split(clean, "-") {
		if p = strings.Trim(p, " ."); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) != 2 {
		return "", ""
	}
	leftSuf, rightSuf := "", ""
	switch {
	case hasAM && hasPM:
		leftSuf, rightSuf = "am", "pm"
	case hasAM:
		leftSuf, rightSuf = "am", "am"
	case hasPM:
		leftSuf, rightSuf = "pm", "pm"
	}
	return To24h(parts[0], leftSuf), To24h(parts[1], rightSuf)
}

// ExtractTimeRanges finds every meridian-qualified time range in free
// text ("10:00 a.m. - 12:00 p.m.").
func ExtractTimeRanges(text string) [][2]string {
	text = strings.ReplaceAll(strings.ReplaceAll(text, "*", " "), "\n", " ")
	var out [][2]string
	for _, m := range rangeRe.FindAllStringSubmatch(text, -1) {
		start := To24h(m[1], "")
		end := To24h(m[2], "")
		if start != "" && end != "" {
			out = append(out, [2]string{start, end})
		}
	}
	return out
}

// ParseCSV reads a schedule CSV with headered columns (Subject, Repeat,
// ByDay, StartTime, EndTime, StartDate, Until, Location, ...) into
// declared event specs. Rows without a subject are skipped.
func ParseCSV(path string) ([]spec.Event, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	rd := csv.NewReader(fh)
	rd.FieldsPerRecord = -1
	records, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("bad csv %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	get := func(row []string, names ...string) string {
		for _, name := range names {
			for i, h := range headers {
				if h == name && i < len(row) {
					return strings.TrimSpace(row[i])
				}
			}
		}
		return ""
	}

	var items []spec.Event
	for _, row := range records[1:] {
		subj := get(row, "subject")
		if subj == "" {
			continue
		}
		ev := spec.Event{
			Subject:    subj,
			Start:      get(row, "start"),
			End:        get(row, "end"),
			Repeat:     strings.ToLower(get(row, "recurrence", "repeat")),
			ByDay:      spec.NormalizeByDay(get(row, "byday")),
			StartTime:  get(row, "starttime", "start_time"),
			EndTime:    get(row, "endtime", "end_time"),
			RangeStart: get(row, "startdate", "start_date"),
			RangeUntil: get(row, "until", "enddate", "end_date"),
			Location:   get(row, "location", "address"),
			BodyHTML:   get(row, "notes"),
		}
		if c := get(row, "count"); c != "" {
			if n, cerr := strconv.Atoi(c); cerr == nil {
				ev.Count = n
			}
		}
		items = append(items, ev)
	}
	return items, nil
}
