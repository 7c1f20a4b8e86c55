// Package provider defines the calendar backend contract consumed by the
// reconciliation engine. Concrete adapters (Microsoft Graph, in-memory
// fakes) implement Provider; the engine never talks to the network itself.
package provider

import "context"

// EventKind mirrors the provider-side event type field.
type EventKind string

const (
	KindSeriesMaster EventKind = "seriesMaster"
	KindOccurrence   EventKind = "occurrence"
	KindSingle       EventKind = "singleInstance"
)

// Address holds the structured components of an event location.
type Address struct {
	Street          string
	City            string
	State           string
	PostalCode      string
	CountryOrRegion string
}

// Empty reports whether no structured component is set.
func (a Address) Empty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.PostalCode == "" && a.CountryOrRegion == ""
}

// Location is an event's place: a display string plus an optional
// structured address.
type Location struct {
	DisplayName string
	Address     Address
}

// Event is a live calendar item as returned by the provider.
//
// Start, End and CreatedAt are kept as the provider's ISO 8601 strings
// rather than parsed time.Time values: matching is specified to degrade
// to "don't care" on an unparseable datetime instead of failing, so the
// raw text has to survive until comparison time.
type Event struct {
	ID             string
	SeriesMasterID string // empty for non-recurring items
	Kind           EventKind
	Subject        string
	Start          string // ISO 8601, provider-local
	End            string
	Location       Location
	CreatedAt      string // ISO 8601; empty when unknown
}

// RangeQuery selects events for ListEventsInRange.
type RangeQuery struct {
	CalendarID    string
	CalendarName  string
	StartISO      string
	EndISO        string
	SubjectFilter string // best-effort server-side filter
}

// SettingsPatch carries the updatable event settings. Nil pointers mean
// "leave unchanged"; a patch with every field nil is a no-op and must
// not be sent.
type SettingsPatch struct {
	CalendarName    string
	Categories      []string
	ShowAs          string
	Sensitivity     string
	IsReminderOn    *bool
	ReminderMinutes *int
}

// IsZero reports whether the patch changes nothing.
func (p SettingsPatch) IsZero() bool {
	return p.Categories == nil && p.ShowAs == "" && p.Sensitivity == "" &&
		p.IsReminderOn == nil && p.ReminderMinutes == nil
}

// ReminderUpdate toggles or adjusts a single event's reminder.
type ReminderUpdate struct {
	EventID            string
	CalendarID         string
	CalendarName       string
	IsOn               bool
	MinutesBeforeStart int
}

// EventParams describes a one-off event to create.
type EventParams struct {
	Subject      string
	StartISO     string
	EndISO       string
	CalendarID   string
	CalendarName string
	TimeZone     string
	BodyHTML     string
	Location     string
	NoReminder   bool
}

// RecurringEventParams describes a recurring series to create.
type RecurringEventParams struct {
	Subject      string
	StartTime    string // HH:MM
	EndTime      string // HH:MM
	CalendarID   string
	CalendarName string
	TimeZone     string
	Repeat       string // weekly | daily | monthly
	Interval     int
	ByDay        []string // MO..SU, weekly only
	RangeStart   string   // YYYY-MM-DD
	RangeUntil   string   // YYYY-MM-DD, empty with Count set
	Count        int
	BodyHTML     string
	Location     string
	NoReminder   bool
}

// Provider is the capability interface over a remote calendar account.
type Provider interface {
	ListEventsInRange(ctx context.Context, q RangeQuery) ([]Event, error)
	// ListCalendarView returns the expanded view: every occurrence of
	// every series in the window, plus singles.
	ListCalendarView(ctx context.Context, calendarID, startISO, endISO string) ([]Event, error)
	DeleteEventByID(ctx context.Context, id string) (bool, error)
	UpdateEventSettings(ctx context.Context, eventID string, patch SettingsPatch) error
	UpdateEventReminder(ctx context.Context, upd ReminderUpdate) error
	FindCalendarID(ctx context.Context, name string) (string, error)
	EnsureCalendarExists(ctx context.Context, name string) (string, error)
	CreateEvent(ctx context.Context, p EventParams) error
	CreateRecurringEvent(ctx context.Context, p RecurringEventParams) error
}
