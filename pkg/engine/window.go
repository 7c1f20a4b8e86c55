// Package engine implements the recurring-event reconciliation core:
// canonical comparison keys, duplicate series detection, declared-spec
// matching for verification and removal, and rule-driven bulk patches.
// It talks to the calendar only through provider.Provider and mutates
// nothing unless a caller asks it to apply a plan.
package engine

import "time"

const (
	dayStart = "T00:00:00"
	dayEnd   = "T23:59:59"
)

// WindowResolver turns optional from/to dates into a concrete ISO query
// window. Now is injectable for tests; nil means time.Now.
type WindowResolver struct {
	Now func() time.Time
}

func (w WindowResolver) today() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Resolve returns (startISO, endISO) anchored at 00:00:00 and 23:59:59.
// Explicit dates are used verbatim; missing ones default to today minus
// daysBack / plus daysForward.
func (w WindowResolver) Resolve(fromDate, toDate string, daysBack, daysForward int) (string, string) {
	today := w.today()
	start := fromDate
	if start == "" {
		start = today.AddDate(0, 0, -daysBack).Format("2006-01-02")
	}
	end := toDate
	if end == "" {
		end = today.AddDate(0, 0, daysForward).Format("2006-01-02")
	}
	return start + dayStart, end + dayEnd
}

// ResolveYearEnd is Resolve with defaults of today through December 31
// of the current year.
func (w WindowResolver) ResolveYearEnd(fromDate, toDate string) (string, string) {
	today := w.today()
	start := fromDate
	if start == "" {
		start = today.Format("2006-01-02")
	}
	end := toDate
	if end == "" {
		end = time.Date(today.Year(), 12, 31, 0, 0, 0, 0, today.Location()).Format("2006-01-02")
	}
	return start + dayStart, end + dayEnd
}
