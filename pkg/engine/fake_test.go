package engine

import (
	"context"
	"errors"
	"strings"

	"caltidy/pkg/provider"
)

// fakeProvider is an in-memory provider.Provider for engine tests. It
// records every mutation so tests can assert on exactly what was sent.
type fakeProvider struct {
	events    []provider.Event
	calendars map[string]string // name -> id

	listErr   error
	deleteErr map[string]error

	deleted         []string
	settingsPatches map[string]provider.SettingsPatch
	reminderUpdates []provider.ReminderUpdate
	created         []provider.EventParams
	createdSeries   []provider.RecurringEventParams
}

func newFakeProvider(events ...provider.Event) *fakeProvider {
	return &fakeProvider{
		events:          events,
		calendars:       map[string]string{},
		deleteErr:       map[string]error{},
		settingsPatches: map[string]provider.SettingsPatch{},
	}
}

func (f *fakeProvider) ListEventsInRange(_ context.Context, q provider.RangeQuery) ([]provider.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []provider.Event
	for _, ev := range f.events {
		if q.SubjectFilter != "" && !strings.Contains(strings.ToLower(ev.Subject), strings.ToLower(q.SubjectFilter)) {
			continue
		}
		if q.StartISO != "" && ev.Start != "" && ev.Start < q.StartISO {
			continue
		}
		if q.EndISO != "" && ev.Start != "" && ev.Start > q.EndISO {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (f *fakeProvider) ListCalendarView(_ context.Context, _, startISO, endISO string) ([]provider.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []provider.Event
	for _, ev := range f.events {
		if startISO != "" && ev.Start != "" && ev.Start < startISO {
			continue
		}
		if endISO != "" && ev.Start != "" && ev.Start > endISO {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (f *fakeProvider) DeleteEventByID(_ context.Context, id string) (bool, error) {
	if err := f.deleteErr[id]; err != nil {
		return false, err
	}
	f.deleted = append(f.deleted, id)
	return true, nil
}

func (f *fakeProvider) UpdateEventSettings(_ context.Context, eventID string, patch provider.SettingsPatch) error {
	f.settingsPatches[eventID] = patch
	return nil
}

func (f *fakeProvider) UpdateEventReminder(_ context.Context, upd provider.ReminderUpdate) error {
	f.reminderUpdates = append(f.reminderUpdates, upd)
	return nil
}

func (f *fakeProvider) FindCalendarID(_ context.Context, name string) (string, error) {
	return f.calendars[name], nil
}

func (f *fakeProvider) EnsureCalendarExists(_ context.Context, name string) (string, error) {
	if id, ok := f.calendars[name]; ok {
		return id, nil
	}
	id := "cal-" + name
	f.calendars[name] = id
	return id, nil
}

func (f *fakeProvider) CreateEvent(_ context.Context, p provider.EventParams) error {
	f.created = append(f.created, p)
	return nil
}

func (f *fakeProvider) CreateRecurringEvent(_ context.Context, p provider.RecurringEventParams) error {
	f.createdSeries = append(f.createdSeries, p)
	return nil
}

var errBackend = errors.New("backend unavailable")
