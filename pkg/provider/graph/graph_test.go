package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"caltidy/pkg/provider"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, "test-token", "UTC"), srv
}

func TestListCalendarViewPagination(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/me/calendarView", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		if r.URL.Query().Get("page") == "2" {
			w.Write([]byte(`{"value":[{"id":"e2","subject":"Swim","type":"occurrence","seriesMasterId":"S",
				"start":{"dateTime":"2025-01-13T17:00:00.0000000"},"end":{"dateTime":"2025-01-13T17:30:00.0000000"}}]}`))
			return
		}
		next := srv.URL + "/me/calendarView?page=2"
		body := map[string]interface{}{
			"value": []map[string]interface{}{{
				"id": "e1", "subject": "Swim", "type": "occurrence", "seriesMasterId": "S",
				"createdDateTime": "2024-01-01T00:00:00Z",
				"start":           map[string]string{"dateTime": "2025-01-06T17:00:00.0000000"},
				"end":             map[string]string{"dateTime": "2025-01-06T17:30:00.0000000"},
				"location": map[string]interface{}{
					"displayName": "Pool",
					"address":     map[string]string{"street": "123 Main St", "city": "City"},
				},
			}},
			"@odata.nextLink": next,
		}
		json.NewEncoder(w).Encode(body)
	})
	c, srvStarted := newTestClient(mux)
	srv = srvStarted
	defer srv.Close()

	events, err := c.ListCalendarView(context.Background(), "", "2025-01-01T00:00:00", "2025-03-01T23:59:59")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected both pages, got %d events", len(events))
	}
	e1 := events[0]
	if e1.ID != "e1" || e1.Kind != provider.KindOccurrence || e1.SeriesMasterID != "S" {
		t.Fatalf("unexpected event: %+v", e1)
	}
	if e1.Start != "2025-01-06T17:00:00.0000000" || e1.CreatedAt != "2024-01-01T00:00:00Z" {
		t.Fatalf("datetimes must stay verbatim: %+v", e1)
	}
	if e1.Location.DisplayName != "Pool" || e1.Location.Address.Street != "123 Main St" {
		t.Fatalf("unexpected location: %+v", e1.Location)
	}
}

func TestListEventsInRangeSubjectFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/calendarView", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"value":[
			{"id":"e1","subject":"Swim Practice","start":{"dateTime":"2025-01-06T17:00:00"},"end":{"dateTime":"2025-01-06T17:30:00"}},
			{"id":"e2","subject":"Soccer","start":{"dateTime":"2025-01-07T18:00:00"},"end":{"dateTime":"2025-01-07T19:00:00"}}
		]}`))
	})
	c, srv := newTestClient(mux)
	defer srv.Close()

	events, err := c.ListEventsInRange(context.Background(), provider.RangeQuery{
		StartISO: "2025-01-01T00:00:00", EndISO: "2025-03-01T23:59:59", SubjectFilter: "swim",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e1" {
		t.Fatalf("subject filter failed: %+v", events)
	}
	// Untyped events without a series id classify as singles.
	if events[0].Kind != provider.KindSingle {
		t.Fatalf("unexpected kind: %+v", events[0])
	}
}

func TestDeleteEventByID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/events/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c, srv := newTestClient(mux)
	defer srv.Close()

	ok, err := c.DeleteEventByID(context.Background(), "abc")
	if err != nil || !ok {
		t.Fatalf("expected deletion to succeed: ok=%v err=%v", ok, err)
	}
}

func TestUpdateEventSettingsBody(t *testing.T) {
	var got map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/me/events/abc", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	})
	c, srv := newTestClient(mux)
	defer srv.Close()

	on := true
	minutes := 30
	err := c.UpdateEventSettings(context.Background(), "abc", provider.SettingsPatch{
		Categories:      []string{"Sports"},
		ShowAs:          "busy",
		Sensitivity:     "private",
		IsReminderOn:    &on,
		ReminderMinutes: &minutes,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["showAs"] != "busy" || got["sensitivity"] != "private" {
		t.Fatalf("unexpected body: %v", got)
	}
	if got["isReminderOn"] != true || got["reminderMinutesBeforeStart"] != float64(30) {
		t.Fatalf("unexpected reminder fields: %v", got)
	}
}

func TestUpdateEventSettingsEmptyPatchSkipsRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected for an empty patch")
	})
	c, srv := newTestClient(mux)
	defer srv.Close()

	if err := c.UpdateEventSettings(context.Background(), "abc", provider.SettingsPatch{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureCalendarExists(t *testing.T) {
	created := false
	mux := http.NewServeMux()
	mux.HandleFunc("/me/calendars", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			created = true
			w.Write([]byte(`{"id":"new-id","name":"Kids"}`))
			return
		}
		w.Write([]byte(`{"value":[{"id":"cal1","name":"Calendar"}]}`))
	})
	c, srv := newTestClient(mux)
	defer srv.Close()

	id, err := c.EnsureCalendarExists(context.Background(), "Kids")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || id != "new-id" {
		t.Fatalf("expected the calendar created: created=%v id=%q", created, id)
	}

	id, err = c.FindCalendarID(context.Background(), "calendar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "cal1" {
		t.Fatalf("lookup must be case-insensitive: %q", id)
	}
}

func TestCreateRecurringEventPayload(t *testing.T) {
	var got map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/me/events", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})
	c, srv := newTestClient(mux)
	defer srv.Close()

	err := c.CreateRecurringEvent(context.Background(), provider.RecurringEventParams{
		Subject:    "Swim",
		StartTime:  "17:00",
		EndTime:    "17:30",
		Repeat:     "weekly",
		ByDay:      []string{"MO", "WE"},
		RangeStart: "2025-01-06",
		RangeUntil: "2025-03-01",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := got["start"].(map[string]interface{})
	if start["dateTime"] != "2025-01-06T17:00:00" {
		t.Fatalf("unexpected start: %v", start)
	}
	rec := got["recurrence"].(map[string]interface{})
	pattern := rec["pattern"].(map[string]interface{})
	if pattern["type"] != "weekly" || pattern["interval"] != float64(1) {
		t.Fatalf("unexpected pattern: %v", pattern)
	}
	days := pattern["daysOfWeek"].([]interface{})
	if len(days) != 2 || days[0] != "monday" || days[1] != "wednesday" {
		t.Fatalf("unexpected days: %v", days)
	}
	rng := rec["range"].(map[string]interface{})
	if rng["type"] != "endDate" || rng["endDate"] != "2025-03-01" || rng["startDate"] != "2025-01-06" {
		t.Fatalf("unexpected range: %v", rng)
	}
}

func TestCreateRecurringEventRejectsUnknownRepeat(t *testing.T) {
	c := New("http://unused.invalid", "tok", "")
	err := c.CreateRecurringEvent(context.Background(), provider.RecurringEventParams{
		Subject: "X", Repeat: "fortnightly", RangeStart: "2025-01-06",
	})
	if err == nil || !strings.Contains(err.Error(), "unsupported repeat") {
		t.Fatalf("expected an unsupported repeat error, got %v", err)
	}
}
