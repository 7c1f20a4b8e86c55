// Package graph is the Microsoft-Graph-flavored provider adapter. It
// speaks the /me/calendars and /me/calendarView surface with a bearer
// token and maps the JSON into provider.Event values.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"caltidy/pkg/provider"
	"caltidy/pkg/whttp"
)

const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

const pageSize = 50

// Client implements provider.Provider against a Graph-style endpoint.
type Client struct {
	BaseURL  string
	Token    string
	TimeZone string // default timeZone for created events

	httpClient *http.Client
}

// New builds a client with a retrying HTTP transport.
func New(baseURL, token, timeZone string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		TimeZone:   timeZone,
		httpClient: rc.StandardClient(),
	}
}

func (c *Client) request(ctx context.Context, method, path, body string) (*whttp.WHTTPRes, error) {
	u := path
	if !strings.HasPrefix(path, "http") {
		u = c.BaseURL + path
	}
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: method,
		URL:    u,
		Body:   body,
		Headers: []whttp.WHTTPHeader{
			{Name: "Authorization", Value: "Bearer " + c.Token},
			{Name: "Prefer", Value: `outlook.timezone="` + c.resolveTZ("") + `"`},
		},
	}, c.httpClient)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 400 {
		return res, fmt.Errorf("graph %s %s: status %d: %s", method, path, res.StatusCode, snippet(res.BodyString))
	}
	return res, nil
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

func (c *Client) resolveTZ(tz string) string {
	if tz != "" {
		return tz
	}
	if c.TimeZone != "" {
		return c.TimeZone
	}
	return "UTC"
}

// paginatedGet follows @odata.nextLink and returns every value entry.
func (c *Client) paginatedGet(ctx context.Context, path string) ([]gjson.Result, error) {
	var out []gjson.Result
	next := path
	for next != "" {
		res, err := c.request(ctx, "GET", next, "")
		if err != nil {
			return nil, err
		}
		out = append(out, gjson.Get(res.BodyString, "value").Array()...)
		next = gjson.Get(res.BodyString, `\@odata\.nextLink`).Str
	}
	return out, nil
}

func eventFromJSON(j gjson.Result) provider.Event {
	kind := provider.EventKind(j.Get("type").Str)
	if kind == "" {
		if j.Get("seriesMasterId").Str != "" {
			kind = provider.KindOccurrence
		} else {
			kind = provider.KindSingle
		}
	}
	return provider.Event{
		ID:             j.Get("id").Str,
		SeriesMasterID: j.Get("seriesMasterId").Str,
		Kind:           kind,
		Subject:        j.Get("subject").Str,
		Start:          j.Get("start.dateTime").Str,
		End:            j.Get("end.dateTime").Str,
		CreatedAt:      j.Get("createdDateTime").Str,
		Location: provider.Location{
			DisplayName: j.Get("location.displayName").Str,
			Address: provider.Address{
				Street:          j.Get("location.address.street").Str,
				City:            j.Get("location.address.city").Str,
				State:           j.Get("location.address.state").Str,
				PostalCode:      j.Get("location.address.postalCode").Str,
				CountryOrRegion: j.Get("location.address.countryOrRegion").Str,
			},
		},
	}
}

func (c *Client) calendarViewPath(calendarID, startISO, endISO string) string {
	base := "/me/calendarView"
	if calendarID != "" {
		base = "/me/calendars/" + url.PathEscape(calendarID) + "/calendarView"
	}
	return fmt.Sprintf("%s?startDateTime=%s&endDateTime=%s&$top=%d",
		base, url.QueryEscape(startISO), url.QueryEscape(endISO), pageSize)
}

func (c *Client) ListEventsInRange(ctx context.Context, q provider.RangeQuery) ([]provider.Event, error) {
	calID := q.CalendarID
	if calID == "" && q.CalendarName != "" {
		id, err := c.FindCalendarID(ctx, q.CalendarName)
		if err != nil {
			return nil, err
		}
		calID = id
	}
	rows, err := c.paginatedGet(ctx, c.calendarViewPath(calID, q.StartISO, q.EndISO))
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(q.SubjectFilter)
	var out []provider.Event
	for _, j := range rows {
		ev := eventFromJSON(j)
		if needle != "" && !strings.Contains(strings.ToLower(ev.Subject), needle) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c *Client) ListCalendarView(ctx context.Context, calendarID, startISO, endISO string) ([]provider.Event, error) {
	rows, err := c.paginatedGet(ctx, c.calendarViewPath(calendarID, startISO, endISO))
	if err != nil {
		return nil, err
	}
	out := make([]provider.Event, 0, len(rows))
	for _, j := range rows {
		out = append(out, eventFromJSON(j))
	}
	return out, nil
}

func (c *Client) DeleteEventByID(ctx context.Context, id string) (bool, error) {
	res, err := c.request(ctx, "DELETE", "/me/events/"+url.PathEscape(id), "")
	if err != nil {
		return false, err
	}
	switch res.StatusCode {
	case 200, 202, 204:
		return true, nil
	}
	return false, nil
}

func (c *Client) patchEvent(ctx context.Context, eventID string, body map[string]interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	_, err = c.request(ctx, "PATCH", "/me/events/"+url.PathEscape(eventID), string(payload))
	return err
}

func (c *Client) UpdateEventSettings(ctx context.Context, eventID string, patch provider.SettingsPatch) error {
	body := map[string]interface{}{}
	if patch.Categories != nil {
		body["categories"] = patch.Categories
	}
	if patch.ShowAs != "" {
		body["showAs"] = patch.ShowAs
	}
	if patch.Sensitivity != "" {
		body["sensitivity"] = patch.Sensitivity
	}
	if patch.IsReminderOn != nil {
		body["isReminderOn"] = *patch.IsReminderOn
	}
	if patch.ReminderMinutes != nil {
		body["reminderMinutesBeforeStart"] = *patch.ReminderMinutes
	}
	if len(body) == 0 {
		return nil
	}
	return c.patchEvent(ctx, eventID, body)
}

func (c *Client) UpdateEventReminder(ctx context.Context, upd provider.ReminderUpdate) error {
	body := map[string]interface{}{"isReminderOn": upd.IsOn}
	if upd.IsOn {
		body["reminderMinutesBeforeStart"] = upd.MinutesBeforeStart
	}
	return c.patchEvent(ctx, upd.EventID, body)
}

func (c *Client) FindCalendarID(ctx context.Context, name string) (string, error) {
	rows, err := c.paginatedGet(ctx, "/me/calendars")
	if err != nil {
		return "", err
	}
	for _, j := range rows {
		if strings.EqualFold(strings.TrimSpace(j.Get("name").Str), strings.TrimSpace(name)) {
			return j.Get("id").Str, nil
		}
	}
	return "", nil
}

func (c *Client) EnsureCalendarExists(ctx context.Context, name string) (string, error) {
	id, err := c.FindCalendarID(ctx, name)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	payload, _ := json.Marshal(map[string]string{"name": name})
	res, err := c.request(ctx, "POST", "/me/calendars", string(payload))
	if err != nil {
		return "", err
	}
	return gjson.Get(res.BodyString, "id").Str, nil
}

func (c *Client) eventEndpoint(calendarID string) string {
	if calendarID != "" {
		return "/me/calendars/" + url.PathEscape(calendarID) + "/events"
	}
	return "/me/events"
}

func (c *Client) resolveCalendar(ctx context.Context, id, name string) (string, error) {
	if id != "" || name == "" {
		return id, nil
	}
	return c.FindCalendarID(ctx, name)
}

func (c *Client) CreateEvent(ctx context.Context, p provider.EventParams) error {
	calID, err := c.resolveCalendar(ctx, p.CalendarID, p.CalendarName)
	if err != nil {
		return err
	}
	tz := c.resolveTZ(p.TimeZone)
	payload := map[string]interface{}{
		"subject": p.Subject,
		"start":   map[string]string{"dateTime": p.StartISO, "timeZone": tz},
		"end":     map[string]string{"dateTime": p.EndISO, "timeZone": tz},
	}
	if p.BodyHTML != "" {
		payload["body"] = map[string]string{"contentType": "HTML", "content": p.BodyHTML}
	}
	if p.Location != "" {
		payload["location"] = map[string]string{"displayName": p.Location}
	}
	if p.NoReminder {
		payload["isReminderOn"] = false
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = c.request(ctx, "POST", c.eventEndpoint(calID), string(body))
	return err
}

func (c *Client) CreateRecurringEvent(ctx context.Context, p provider.RecurringEventParams) error {
	calID, err := c.resolveCalendar(ctx, p.CalendarID, p.CalendarName)
	if err != nil {
		return err
	}
	pattern, err := recurrencePattern(p)
	if err != nil {
		return err
	}
	tz := c.resolveTZ(p.TimeZone)
	payload := map[string]interface{}{
		"subject": p.Subject,
		"start":   map[string]string{"dateTime": p.RangeStart + "T" + p.StartTime + ":00", "timeZone": tz},
		"end":     map[string]string{"dateTime": p.RangeStart + "T" + p.EndTime + ":00", "timeZone": tz},
		"recurrence": map[string]interface{}{
			"pattern": pattern,
			"range":   recurrenceRange(p),
		},
	}
	if p.BodyHTML != "" {
		payload["body"] = map[string]string{"contentType": "HTML", "content": p.BodyHTML}
	}
	if p.Location != "" {
		payload["location"] = map[string]string{"displayName": p.Location}
	}
	if p.NoReminder {
		payload["isReminderOn"] = false
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = c.request(ctx, "POST", c.eventEndpoint(calID), string(body))
	return err
}

var graphDayNames = map[string]string{
	"MO": "monday", "TU": "tuesday", "WE": "wednesday", "TH": "thursday",
	"FR": "friday", "SA": "saturday", "SU": "sunday",
}

func recurrencePattern(p provider.RecurringEventParams) (map[string]interface{}, error) {
	interval := p.Interval
	if interval < 1 {
		interval = 1
	}
	pattern := map[string]interface{}{"interval": interval}
	switch strings.ToLower(p.Repeat) {
	case "daily":
		pattern["type"] = "daily"
	case "weekly":
		pattern["type"] = "weekly"
		var days []string
		for _, d := range p.ByDay {
			if name, ok := graphDayNames[strings.ToUpper(d)]; ok {
				days = append(days, name)
			}
		}
		pattern["daysOfWeek"] = days
	case "monthly":
		pattern["type"] = "absoluteMonthly"
	default:
		return nil, fmt.Errorf("unsupported repeat %q; use daily|weekly|monthly", p.Repeat)
	}
	return pattern, nil
}

func recurrenceRange(p provider.RecurringEventParams) map[string]interface{} {
	rng := map[string]interface{}{"startDate": p.RangeStart}
	switch {
	case p.RangeUntil != "":
		rng["type"] = "endDate"
		rng["endDate"] = p.RangeUntil
	case p.Count > 0:
		rng["type"] = "numbered"
		rng["numberOfOccurrences"] = p.Count
	default:
		rng["type"] = "noEnd"
	}
	return rng
}
