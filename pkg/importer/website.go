package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"

	"caltidy/internal/utils"
	"caltidy/pkg/spec"
)

// DefaultActivity is the schedule row harvested from municipal
// recreation pages when the caller does not name one.
const DefaultActivity = "Public Skating"

var fullDayNames = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

// ParseWebsite fetches a recreation schedule page and extracts weekly
// recurring specs for the given activity ("" = DefaultActivity).
func ParseWebsite(url, activity string) ([]spec.Event, error) {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetch failed: status %d", resp.StatusCode)
	}
	return ParseScheduleHTML(resp.Body, activity)
}

// ParseScheduleHTML walks an accordion-style schedule page: paired
// [data-name=accParent] (venue name) and [data-name=accChild] (weekly
// table) blocks, one activity per table row, one weekday per column.
func ParseScheduleHTML(r io.Reader, activity string) ([]spec.Event, error) {
	if activity == "" {
		activity = DefaultActivity
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	var out []spec.Event

	doc.Find(`[data-name="accParent"]`).Each(func(_ int, parent *goquery.Selection) {
		venue := strings.TrimSpace(parent.Text())
		child := parent.NextAllFiltered(`[data-name="accChild"]`).First()
		if child.Length() == 0 {
			return
		}
		table := child.Find("table").First()
		if table.Length() == 0 {
			return
		}

		// Day headers, in the column order the table uses.
		var days []string
		table.Find("td").Each(func(_ int, td *goquery.Selection) {
			txt := strings.TrimSpace(td.Text())
			if fullDayNames[strings.ToLower(txt)] {
				days = append(days, txt)
			}
		})

		table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			cells := tr.Find("td")
			if cells.Length() < 2 {
				return true
			}
			first := strings.ToLower(strings.TrimSpace(cells.First().Text()))
			if !strings.Contains(first, strings.ToLower(activity)) {
				return true
			}
			// Positional fallback when headers were ambiguous.
			if len(days) < cells.Length()-1 {
				days = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
				if cells.Length()-1 < len(days) {
					days = days[:cells.Length()-1]
				}
			}
			cells.Slice(1, cells.Length()).Each(func(i int, td *goquery.Selection) {
				if i >= len(days) {
					return
				}
				txt := strings.TrimSpace(td.Text())
				if txt == "" || txt == " " {
					return
				}
				start, end := ParseTimeRange(txt)
				if start == "" || end == "" {
					utils.Log.Debugf("Skipping unparseable slot %q at %s", txt, venue)
					return
				}
				out = append(out, spec.Event{
					Subject:    activity,
					Repeat:     "weekly",
					ByDay:      []string{NormalizeDay(days[i])},
					StartTime:  start,
					EndTime:    end,
					RangeStart: today,
					Location:   venue,
				})
			})
			return false
		})
	})
	return out, nil
}
