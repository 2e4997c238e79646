package app

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"timeagent/internal/scheduling"
)

// Minutes is a duration in minutes that accepts both 30 and "30" in JSON,
// since form-driven clients send numbers as strings.
type Minutes int

func (m *Minutes) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 {
		*m = 0
		return nil
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("duration must be a whole number of minutes: %s", b)
	}
	*m = Minutes(v)
	return nil
}

// CreateEventRequest schedules a new event. It is booked at ManualDate and
// ManualTime when both are set, otherwise in the earliest free slot after Now.
type CreateEventRequest struct {
	Summary    string     `json:"summary" binding:"required"`
	Duration   Minutes    `json:"duration"`
	ManualDate string     `json:"manualDate,omitempty"`
	ManualTime string     `json:"manualTime,omitempty"`
	Now        *time.Time `json:"now,omitempty"`
}

// RescheduleRequest moves an existing event. A missing Start means "next free slot after Now".
type RescheduleRequest struct {
	Summary  string     `json:"summary" binding:"required"`
	Duration Minutes    `json:"duration"`
	Start    *time.Time `json:"start,omitempty"`
	Now      *time.Time `json:"now,omitempty"`
}

// WeeklyHoursRequest carries a weekly table keyed by full English day names.
type WeeklyHoursRequest struct {
	Data map[string]scheduling.TimePeriod `json:"data" binding:"required"`
	Now  *time.Time                       `json:"now,omitempty"`
}

// HoursKind distinguishes the two weekly tables.
type HoursKind string

const (
	WorkingHours     HoursKind = "working"
	UnavailableHours HoursKind = "unavailable"
)

// ParseHoursKind validates a kind from a URL or flag.
func ParseHoursKind(s string) (HoursKind, error) {
	switch HoursKind(s) {
	case WorkingHours, UnavailableHours:
		return HoursKind(s), nil
	}
	return "", fmt.Errorf("unknown hours kind %q", s)
}

// SavedHours is the last weekly table a user submitted.
type SavedHours struct {
	Kind      HoursKind                 `json:"kind"`
	Schedule  scheduling.WeeklySchedule `json:"schedule"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// EventResponse is the JSON view of an issued event.
type EventResponse struct {
	ID         string    `json:"id"`
	Summary    string    `json:"summary"`
	ColorID    string    `json:"color_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	TimeZone   string    `json:"time_zone"`
	Recurrence string    `json:"recurrence,omitempty"`
}

func toResponse(ev scheduling.ScheduledEvent) (EventResponse, error) {
	out := EventResponse{
		ID:       ev.ID,
		Summary:  ev.Title,
		ColorID:  ev.ColorID,
		Start:    ev.Start,
		End:      ev.End,
		TimeZone: ev.TimeZone,
	}
	if ev.Recurrence != nil {
		line, err := ev.Recurrence.RRule()
		if err != nil {
			return EventResponse{}, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		out.Recurrence = line
	}
	return out, nil
}

func toResponses(events []scheduling.ScheduledEvent) ([]EventResponse, error) {
	out := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		resp, err := toResponse(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}
