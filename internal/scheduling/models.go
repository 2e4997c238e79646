package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Calendar color ids used for the events this service creates.
const (
	ColorEvent       = "7"
	ColorWorking     = "4"
	ColorUnavailable = "8"
)

const (
	WorkingHoursTitle     = "Working hours"
	UnavailableHoursTitle = "Unavailable hours"
)

// TimePeriod is a daily window given as wall-clock strings. Both empty means
// no restriction for the day.
type TimePeriod struct {
	StartTime string `json:"startTime" yaml:"startTime"`
	EndTime   string `json:"endTime" yaml:"endTime"`
}

// Empty reports whether neither bound is set.
func (p TimePeriod) Empty() bool {
	return strings.TrimSpace(p.StartTime) == "" && strings.TrimSpace(p.EndTime) == ""
}

// Bounds parses and validates the period. An end of 24:00 denotes midnight.
func (p TimePeriod) Bounds() (WallClock, WallClock, error) {
	s, e := strings.TrimSpace(p.StartTime), strings.TrimSpace(p.EndTime)
	if s == "" || e == "" {
		return WallClock{}, WallClock{}, fmt.Errorf("%w: start %q end %q", ErrInvalidPeriod, p.StartTime, p.EndTime)
	}
	start, err := ParseWallClock(s)
	if err != nil || !start.Valid() {
		return WallClock{}, WallClock{}, fmt.Errorf("%w: start %q", ErrInvalidPeriod, p.StartTime)
	}
	end, err := ParseWallClock(e)
	if err != nil || !(end.Valid() || (end.Hours == 24 && end.Minutes == 0)) {
		return WallClock{}, WallClock{}, fmt.Errorf("%w: end %q", ErrInvalidPeriod, p.EndTime)
	}
	if start.Hours*60+start.Minutes >= end.Hours*60+end.Minutes {
		return WallClock{}, WallClock{}, fmt.Errorf("%w: start %s not before end %s", ErrInvalidPeriod, start, end)
	}
	return start, end, nil
}

// WeeklySchedule maps each day of the week to its period.
type WeeklySchedule map[Weekday]TimePeriod

// ParseWeeklySchedule converts a day-name keyed table, as submitted by clients.
func ParseWeeklySchedule(raw map[string]TimePeriod) (WeeklySchedule, error) {
	out := make(WeeklySchedule, len(raw))
	for name, p := range raw {
		d, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		if _, dup := out[d]; dup {
			return nil, fmt.Errorf("%w: %q names %s more than once", ErrInvalidDay, name, d)
		}
		out[d] = p
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks every non-empty period.
func (s WeeklySchedule) Validate() error {
	for d, p := range s {
		if !d.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidDay, int(d))
		}
		if p.Empty() {
			continue
		}
		if _, _, err := p.Bounds(); err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
	}
	return nil
}

// BusyInterval is a half-open [Start, End) range of committed time.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Recurrence repeats an event weekly on one day.
type Recurrence struct {
	Weekday Weekday
}

var rruleDays = map[Weekday]rrule.Weekday{
	Monday:    rrule.MO,
	Tuesday:   rrule.TU,
	Wednesday: rrule.WE,
	Thursday:  rrule.TH,
	Friday:    rrule.FR,
	Saturday:  rrule.SA,
	Sunday:    rrule.SU,
}

// RRule renders the recurrence as an RFC 5545 RRULE line.
func (r Recurrence) RRule() (string, error) {
	wd, ok := rruleDays[r.Weekday]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrInvalidDay, int(r.Weekday))
	}
	opt := rrule.ROption{Freq: rrule.WEEKLY, Byweekday: []rrule.Weekday{wd}}
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("build rrule: %w", err)
	}
	return "RRULE:" + opt.RRuleString(), nil
}

// ScheduledEvent is an event issued to the calendar. It is never mutated
// after being issued.
type ScheduledEvent struct {
	ID         string      `json:"id,omitempty"`
	Title      string      `json:"summary"`
	ColorID    string      `json:"colorId"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	TimeZone   string      `json:"timeZone"`
	Recurrence *Recurrence `json:"-"`
}

// BusySource answers free/busy queries for one calendar.
type BusySource interface {
	Busy(ctx context.Context, start, end time.Time, timeZone string) ([]BusyInterval, error)
}

// EventSink reads, creates and removes calendar events.
type EventSink interface {
	Get(ctx context.Context, eventID string) (ScheduledEvent, error)
	Insert(ctx context.Context, ev ScheduledEvent) (string, error)
	Delete(ctx context.Context, eventID string) error
}

// ZoneResolver returns the user's IANA time zone.
type ZoneResolver interface {
	TimeZone(ctx context.Context) (string, error)
}
