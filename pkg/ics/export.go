// Package ics serializes declared event specs to an iCalendar file, so
// a declaration document can be previewed in any calendar client.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"caltidy/pkg/spec"
)

const prodID = "-//caltidy//calendar export//EN"

// Export renders specs as a VCALENDAR. One-off specs become plain
// VEVENTs; recurring specs carry an RRULE and EXDATEs.
func Export(specs []spec.Event, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	now := time.Now().UTC()
	for i, ev := range specs {
		if err := ev.Validate(); err != nil {
			return "", fmt.Errorf("event %d (%q): %w", i, ev.Subject, err)
		}
		ve := cal.AddEvent(fmt.Sprintf("caltidy-%d-%d@local", now.Unix(), i))
		ve.SetDtStampTime(now)
		ve.SetSummary(ev.Subject)
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.BodyHTML != "" {
			ve.SetDescription(ev.BodyHTML)
		}

		if ev.IsOneOff() {
			start, err := time.ParseInLocation("2006-01-02T15:04:05", ev.Start, loc)
			if err != nil {
				return "", fmt.Errorf("event %d (%q): bad start: %w", i, ev.Subject, err)
			}
			end, err := time.ParseInLocation("2006-01-02T15:04:05", ev.End, loc)
			if err != nil {
				return "", fmt.Errorf("event %d (%q): bad end: %w", i, ev.Subject, err)
			}
			ve.SetStartAt(start)
			ve.SetEndAt(end)
			continue
		}

		start, err := time.ParseInLocation("2006-01-02T15:04", ev.RangeStart+"T"+ev.StartTime, loc)
		if err != nil {
			return "", fmt.Errorf("event %d (%q): bad range start: %w", i, ev.Subject, err)
		}
		end, err := time.ParseInLocation("2006-01-02T15:04", ev.RangeStart+"T"+ev.EndTime, loc)
		if err != nil {
			return "", fmt.Errorf("event %d (%q): bad range end: %w", i, ev.Subject, err)
		}
		ve.SetStartAt(start)
		ve.SetEndAt(end)

		rule, err := rruleString(ev, loc)
		if err != nil {
			return "", fmt.Errorf("event %d (%q): %w", i, ev.Subject, err)
		}
		ve.AddRrule(rule)
		for _, xd := range ev.ExDates {
			exDay, perr := time.ParseInLocation("2006-01-02", xd, loc)
			if perr != nil {
				continue
			}
			ex := exDay.Add(time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute)
			ve.AddProperty(ical.ComponentProperty("EXDATE"), ex.Format("20060102T150405"))
		}
	}
	return cal.Serialize(), nil
}

func rruleString(ev spec.Event, loc *time.Location) (string, error) {
	var parts []string
	switch strings.ToLower(ev.Repeat) {
	case "daily":
		parts = append(parts, "FREQ=DAILY")
	case "weekly":
		parts = append(parts, "FREQ=WEEKLY")
	case "monthly":
		parts = append(parts, "FREQ=MONTHLY")
	default:
		return "", fmt.Errorf("unsupported repeat %q", ev.Repeat)
	}
	if ev.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", ev.Interval))
	}
	if strings.EqualFold(ev.Repeat, "weekly") && len(ev.ByDay) > 0 {
		parts = append(parts, "BYDAY="+strings.Join(ev.ByDay, ","))
	}
	switch {
	case ev.RangeUntil != "":
		until, err := time.ParseInLocation("2006-01-02", ev.RangeUntil, loc)
		if err != nil {
			return "", fmt.Errorf("bad range until: %w", err)
		}
		// Whole last day counts.
		until = until.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		parts = append(parts, "UNTIL="+until.UTC().Format("20060102T150405Z"))
	case ev.Count > 0:
		parts = append(parts, fmt.Sprintf("COUNT=%d", ev.Count))
	}
	return strings.Join(parts, ";"), nil
}
