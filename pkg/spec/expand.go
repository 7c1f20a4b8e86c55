package spec

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

const maxExpandedDates = 1000

var rruleDays = map[string]rrule.Weekday{
	"MO": rrule.MO, "TU": rrule.TU, "WE": rrule.WE, "TH": rrule.TH,
	"FR": rrule.FR, "SA": rrule.SA, "SU": rrule.SU,
}

var rruleFreqs = map[string]rrule.Frequency{
	"daily":   rrule.DAILY,
	"weekly":  rrule.WEEKLY,
	"monthly": rrule.MONTHLY,
}

// ExpandDates materializes the concrete occurrence start datetimes of a
// recurring entry, capped at maxExpandedDates. It is used for dry-run
// previews ("N occurrences through <date>"), never for matching: the
// engine compares against the provider's own expanded view.
func (e Event) ExpandDates(loc *time.Location) ([]time.Time, error) {
	if !e.IsRecurring() {
		return nil, fmt.Errorf("event %q is not recurring", e.Subject)
	}
	freq, ok := rruleFreqs[e.Repeat]
	if !ok {
		return nil, fmt.Errorf("unsupported repeat %q", e.Repeat)
	}
	if e.RangeStart == "" {
		return nil, fmt.Errorf("event %q has no range start", e.Subject)
	}
	if loc == nil {
		loc = time.Local
	}

	start, err := time.ParseInLocation("2006-01-02", e.RangeStart[:min(10, len(e.RangeStart))], loc)
	if err != nil {
		return nil, fmt.Errorf("bad range start %q: %w", e.RangeStart, err)
	}
	if e.StartTime != "" {
		if t, terr := time.Parse("15:04", e.StartTime); terr == nil {
			start = start.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
		}
	}

	opt := rrule.ROption{Freq: freq, Dtstart: start}
	if e.Interval > 0 {
		opt.Interval = e.Interval
	}
	for _, d := range e.ByDay {
		if wd, ok := rruleDays[d]; ok {
			opt.Byweekday = append(opt.Byweekday, wd)
		}
	}
	if e.Count > 0 {
		opt.Count = e.Count
	} else if e.RangeUntil != "" {
		until, uerr := time.ParseInLocation("2006-01-02", e.RangeUntil[:min(10, len(e.RangeUntil))], loc)
		if uerr != nil {
			return nil, fmt.Errorf("bad range until %q: %w", e.RangeUntil, uerr)
		}
		// Inclusive through the end of the until day.
		opt.Until = until.Add(24*time.Hour - time.Second)
	} else {
		// Open-ended series: preview a single year.
		opt.Until = start.AddDate(1, 0, 0)
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, err
	}

	var set rrule.Set
	set.RRule(r)
	timeOfDay := time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute
	for _, ex := range e.ExDates {
		exd, perr := time.ParseInLocation("2006-01-02", ex[:min(10, len(ex))], loc)
		if perr != nil {
			continue
		}
		set.ExDate(exd.Add(timeOfDay))
	}

	dates := set.All()
	if len(dates) > maxExpandedDates {
		dates = dates[:maxExpandedDates]
	}
	return dates, nil
}
