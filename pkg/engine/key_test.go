package engine

import (
	"reflect"
	"testing"

	"caltidy/pkg/provider"
	"caltidy/pkg/spec"
)

func TestKeyForEvent(t *testing.T) {
	ev := provider.Event{
		Subject: "  Swim Practice ",
		Start:   "2025-01-06T17:00:00", // a Monday
		End:     "2025-01-06T17:30:00",
	}
	got := KeyForEvent(ev)
	want := Key{Subject: "swim practice", Weekday: "MO", Start: "17:00", End: "17:30"}
	if got != want {
		t.Fatalf("unexpected key.\nwant: %#v\ngot:  %#v", want, got)
	}
}

func TestKeyForEventUnparseableStart(t *testing.T) {
	ev := provider.Event{Subject: "Swim", Start: "not-a-date", End: ""}
	got := KeyForEvent(ev)
	if got.Weekday != "" || got.Start != "" || got.End != "" {
		t.Fatalf("expected empty derived fields, got %#v", got)
	}
	if got.Subject != "swim" {
		t.Fatalf("unexpected subject: %q", got.Subject)
	}
}

func TestWeekdayCodeMondayFirst(t *testing.T) {
	cases := map[string]string{
		"2025-01-06T09:00:00": "MO",
		"2025-01-07T09:00:00": "TU",
		"2025-01-11T09:00:00": "SA",
		"2025-01-12T09:00:00": "SU",
	}
	for iso, want := range cases {
		tm, ok := ParseISO(iso)
		if !ok {
			t.Fatalf("failed to parse %s", iso)
		}
		if got := WeekdayCode(tm); got != want {
			t.Fatalf("%s: want %s, got %s", iso, want, got)
		}
	}
}

func TestParseISOOffsets(t *testing.T) {
	for _, iso := range []string{
		"2025-01-06T17:00:00Z",
		"2025-01-06T17:00:00-05:00",
		"2025-01-06T17:00:00",
		"2025-01-06T17:00:00.0000000",
	} {
		if _, ok := ParseISO(iso); !ok {
			t.Fatalf("failed to parse %s", iso)
		}
	}
	if _, ok := ParseISO("2025-01-06"); ok {
		t.Fatal("date-only string should not parse as a datetime")
	}
}

func TestKeysForSpecMultipleDays(t *testing.T) {
	ev := spec.Event{
		Subject:   "Soccer",
		ByDay:     []string{"MO", "WE"},
		StartTime: "18:00",
		EndTime:   "19:00",
		Location:  "Field 2",
	}
	got := KeysForSpec(ev, false)
	want := []Key{
		{Subject: "soccer", Weekday: "MO", Start: "18:00", End: "19:00"},
		{Subject: "soccer", Weekday: "WE", Start: "18:00", End: "19:00"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected keys.\nwant: %#v\ngot:  %#v", want, got)
	}

	withLoc := KeysForSpec(ev, true)
	if withLoc[0].Location != "Field 2" {
		t.Fatalf("expected location to participate, got %#v", withLoc[0])
	}
}
