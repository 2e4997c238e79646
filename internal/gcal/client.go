// Package gcal adapts the Google Calendar API to the scheduling interfaces:
// free/busy queries, event insertion and removal, and time-zone lookup.
package gcal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"timeagent/internal/scheduling"
)

// PrimaryCalendar is the signed-in user's default calendar id.
const PrimaryCalendar = "primary"

const maxListResults = int64(250)

// Client talks to one calendar of one user.
type Client struct {
	srv        *calendar.Service
	calendarID string
}

// CalendarEvent is the listing view of an existing event.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status"`
	Creator     string    `json:"creator,omitempty"`
	Recurrence  []string  `json:"recurrence,omitempty"`
}

// CalendarInfo describes one entry of the user's calendar list.
type CalendarInfo struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Primary     bool   `json:"primary"`
	AccessRole  string `json:"access_role"`
	TimeZone    string `json:"time_zone,omitempty"`
}

// New creates a Client using an already-authorized HTTP client. Extra
// options are appended, which lets tests point the service at a fake endpoint.
func New(ctx context.Context, httpClient *http.Client, calendarID string, opts ...option.ClientOption) (*Client, error) {
	if calendarID == "" {
		calendarID = PrimaryCalendar
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Client{srv: srv, calendarID: calendarID}, nil
}

// TimeZone returns the calendar's IANA time zone.
func (c *Client) TimeZone(ctx context.Context) (string, error) {
	cal, err := c.srv.Calendars.Get(c.calendarID).Context(ctx).Do()
	if err != nil {
		return "", upstream("get calendar", err)
	}
	return cal.TimeZone, nil
}

// Busy runs a free/busy query for [start, end) and returns the busy
// intervals in the order the provider reports them.
func (c *Client) Busy(ctx context.Context, start, end time.Time, timeZone string) ([]scheduling.BusyInterval, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin:  start.Format(time.RFC3339),
		TimeMax:  end.Format(time.RFC3339),
		TimeZone: timeZone,
		Items:    []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}
	resp, err := c.srv.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, upstream("freebusy query", err)
	}
	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return nil, fmt.Errorf("%w: freebusy response has no calendar %q", scheduling.ErrUpstreamUnavailable, c.calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("%w: freebusy %s: %s", scheduling.ErrUpstreamUnavailable, c.calendarID, cal.Errors[0].Reason)
	}

	out := make([]scheduling.BusyInterval, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		s, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: bad busy start %q", scheduling.ErrUpstreamUnavailable, p.Start)
		}
		e, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, fmt.Errorf("%w: bad busy end %q", scheduling.ErrUpstreamUnavailable, p.End)
		}
		out = append(out, scheduling.BusyInterval{Start: s, End: e})
	}
	return out, nil
}

// Get fetches one event. Recurrence rules are not carried over.
func (c *Client) Get(ctx context.Context, eventID string) (scheduling.ScheduledEvent, error) {
	item, err := c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return scheduling.ScheduledEvent{}, upstream("get event", err)
	}
	ev := scheduling.ScheduledEvent{
		ID:      item.Id,
		Title:   item.Summary,
		ColorID: item.ColorId,
		Start:   parseEventTime(item.Start),
		End:     parseEventTime(item.End),
	}
	if item.Start != nil {
		ev.TimeZone = item.Start.TimeZone
	}
	return ev, nil
}

// Insert creates ev and returns the provider's event id.
func (c *Client) Insert(ctx context.Context, ev scheduling.ScheduledEvent) (string, error) {
	body := &calendar.Event{
		Summary: ev.Title,
		ColorId: ev.ColorID,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
	}
	if ev.Recurrence != nil {
		line, err := ev.Recurrence.RRule()
		if err != nil {
			return "", err
		}
		body.Recurrence = []string{line}
	}
	created, err := c.srv.Events.Insert(c.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", upstream("insert event", err)
	}
	return created.Id, nil
}

// Delete removes an event.
func (c *Client) Delete(ctx context.Context, eventID string) error {
	if err := c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return upstream("delete event", err)
	}
	return nil
}

// ListEvents returns single (expanded) events between timeMin and timeMax,
// ordered by start time. Zero bounds are left open.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]CalendarEvent, error) {
	call := c.srv.Events.List(c.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxListResults).
		Context(ctx)
	if !timeMin.IsZero() {
		call = call.TimeMin(timeMin.Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}

	events, err := call.Do()
	if err != nil {
		return nil, upstream("list events", err)
	}

	out := make([]CalendarEvent, 0, len(events.Items))
	for _, item := range events.Items {
		ev := CalendarEvent{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Status:      item.Status,
			Recurrence:  item.Recurrence,
		}
		if item.Creator != nil {
			ev.Creator = item.Creator.Email
		}
		ev.StartTime = parseEventTime(item.Start)
		ev.EndTime = parseEventTime(item.End)
		out = append(out, ev)
	}
	return out, nil
}

// ListCalendars returns the user's calendar list.
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := c.srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, upstream("list calendars", err)
	}
	out := make([]CalendarInfo, 0, len(list.Items))
	for _, item := range list.Items {
		out = append(out, CalendarInfo{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Primary:     item.Primary,
			AccessRole:  item.AccessRole,
			TimeZone:    item.TimeZone,
		})
	}
	return out, nil
}

// parseEventTime handles both timed and all-day event bounds.
func parseEventTime(t *calendar.EventDateTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	if t.DateTime != "" {
		if v, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return v
		}
	} else if t.Date != "" {
		if v, err := time.Parse("2006-01-02", t.Date); err == nil {
			return v
		}
	}
	return time.Time{}
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", scheduling.ErrUpstreamUnavailable, op, err)
}
