package importer

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeDay(t *testing.T) {
	cases := map[string]string{
		"Monday":  "MO",
		"mon":     "MO",
		"SUNDAY":  "SU",
		"thurs":   "TH",
		"holiday": "",
		"":        "",
	}
	for in, want := range cases {
		if got := NormalizeDay(in); got != want {
			t.Fatalf("NormalizeDay(%q): want %q, got %q", in, want, got)
		}
	}
}

func TestNormalizeDaysRangesAndLists(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Mon to Fri", []string{"MO", "TU", "WE", "TH", "FR"}},
		{"Mon-Fri", []string{"MO", "TU", "WE", "TH", "FR"}},
		{"Sat to Mon", []string{"SA", "SU", "MO"}},
		{"Mon &amp; Wed", []string{"MO", "WE"}},
		{"Tuesday and Thursday", []string{"TU", "TH"}},
		{"weekends", nil},
	}
	for _, c := range cases {
		got := NormalizeDays(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("NormalizeDays(%q): want %v, got %v", c.in, c.want, got)
		}
	}
}

func TestTo24h(t *testing.T) {
	cases := []struct {
		timeStr, ampm, want string
	}{
		{"1:45 p.m.", "", "13:45"},
		{"10:00 a.m.", "", "10:00"},
		{"12:00 p.m.", "", "12:00"},
		{"12:15 a.m.", "", "00:15"},
		{"3:15", "pm", "15:15"},
		{"9", "", "21:00"},  // bare evening hour assumed PM
		{"6", "", "06:00"},  // outside the 7-11 heuristic
		{"whenever", "", ""},
	}
	for _, c := range cases {
		if got := To24h(c.timeStr, c.ampm); got != c.want {
			t.Fatalf("To24h(%q, %q): want %q, got %q", c.timeStr, c.ampm, c.want, got)
		}
	}
}

func TestParseTimeRange(t *testing.T) {
	cases := []struct {
		in         string
		start, end string
	}{
		{"1:45 - 3:15 p.m.", "13:45", "15:15"},
		{"10:00 a.m. - 12:00 p.m.", "10:00", "12:00"},
		{"10:00 to 11:30 a.m.", "10:00", "11:30"},
		{"", "", ""},
		{"closed", "", ""},
	}
	for _, c := range cases {
		start, end := ParseTimeRange(c.in)
		if start != c.start || end != c.end {
			t.Fatalf("ParseTimeRange(%q): want (%q, %q), got (%q, %q)", c.in, c.start, c.end, start, end)
		}
	}
}

func TestExtractTimeRanges(t *testing.T) {
	text := "Open skate 10:00 a.m. - 12:00 p.m. and again 7:00 p.m. to 9:00 p.m.*"
	got := ExtractTimeRanges(text)
	want := [][2]string{{"10:00", "12:00"}, {"19:00", "21:00"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected ranges.\nwant: %v\ngot:  %v", want, got)
	}
}

func TestParseCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.csv")
	data := `Subject,Repeat,ByDay,StartTime,EndTime,StartDate,Until,Location
Swim,weekly,"MO,WE",17:00,17:30,2025-01-06,2025-03-01,Pool
,weekly,FR,10:00,11:00,2025-01-06,,Gym
Yoga,weekly,TU,18:00,19:00,2025-01-07,,Studio
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	items, err := ParseCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("subject-less row must be skipped, got %d items", len(items))
	}
	swim := items[0]
	if swim.Subject != "Swim" || swim.Repeat != "weekly" {
		t.Fatalf("unexpected item: %+v", swim)
	}
	if !reflect.DeepEqual(swim.ByDay, []string{"MO", "WE"}) {
		t.Fatalf("unexpected byday: %v", swim.ByDay)
	}
	if swim.RangeStart != "2025-01-06" || swim.RangeUntil != "2025-03-01" || swim.Location != "Pool" {
		t.Fatalf("unexpected item: %+v", swim)
	}
}

const scheduleHTML = `
<html><body>
<div data-name="accParent">North Arena</div>
<div data-name="accChild">
  <table>
    <tr>
      <td>Activity</td><td>Sunday</td><td>Monday</td><td>Tuesday</td>
    </tr>
    <tr>
      <td>Public Skating</td><td></td><td>1:45 - 3:15 p.m.</td><td>10:00 - 11:30 a.m.</td>
    </tr>
    <tr>
      <td>Shinny Hockey</td><td>9:00 - 10:00 p.m.</td><td></td><td></td>
    </tr>
  </table>
</div>
</body></html>`

func TestParseScheduleHTML(t *testing.T) {
	events, err := ParseScheduleHTML(strings.NewReader(scheduleHTML), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected the two Public Skating slots, got %d: %+v", len(events), events)
	}
	mo := events[0]
	if mo.Subject != DefaultActivity || mo.Repeat != "weekly" {
		t.Fatalf("unexpected event: %+v", mo)
	}
	if !reflect.DeepEqual(mo.ByDay, []string{"MO"}) || mo.StartTime != "13:45" || mo.EndTime != "15:15" {
		t.Fatalf("unexpected Monday slot: %+v", mo)
	}
	if mo.Location != "North Arena" {
		t.Fatalf("unexpected venue: %+v", mo)
	}
	tu := events[1]
	if !reflect.DeepEqual(tu.ByDay, []string{"TU"}) || tu.StartTime != "10:00" || tu.EndTime != "11:30" {
		t.Fatalf("unexpected Tuesday slot: %+v", tu)
	}
}

func TestParseScheduleHTMLOtherActivity(t *testing.T) {
	events, err := ParseScheduleHTML(strings.NewReader(scheduleHTML), "Shinny Hockey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one slot, got %d", len(events))
	}
	if !reflect.DeepEqual(events[0].ByDay, []string{"SU"}) || events[0].StartTime != "21:00" {
		t.Fatalf("unexpected slot: %+v", events[0])
	}
}
