package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// Scheduler resolves start instants and issues events to the calendar.
type Scheduler struct {
	finder *Finder
	sink   EventSink
	zones  ZoneResolver
	log    zerolog.Logger
}

// NewScheduler wires a Scheduler. The finder's busy source and sink are
// normally the same calendar.
func NewScheduler(finder *Finder, sink EventSink, zones ZoneResolver, log zerolog.Logger) *Scheduler {
	return &Scheduler{finder: finder, sink: sink, zones: zones, log: log}
}

// Location resolves the user's zone once for the current operation.
func (s *Scheduler) Location(ctx context.Context) (*time.Location, error) {
	name, err := s.zones.TimeZone(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", ErrUpstreamUnavailable, name)
	}
	return loc, nil
}

// ScheduleManual books an event at an explicit date and time in the user's zone.
func (s *Scheduler) ScheduleManual(ctx context.Context, title, dateText, timeText string, durationMinutes int) (ScheduledEvent, error) {
	if durationMinutes <= 0 {
		return ScheduledEvent{}, fmt.Errorf("%w: duration %d must be positive", ErrInvalidInput, durationMinutes)
	}
	loc, err := s.Location(ctx)
	if err != nil {
		return ScheduledEvent{}, err
	}
	date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(dateText), loc)
	if err != nil {
		return ScheduledEvent{}, fmt.Errorf("%w: date %q", ErrInvalidInput, dateText)
	}
	wc, err := ParseWallClock(timeText)
	if err != nil {
		return ScheduledEvent{}, err
	}
	if !wc.Valid() {
		return ScheduledEvent{}, fmt.Errorf("%w: time %q out of range", ErrInvalidInput, timeText)
	}
	return s.issue(ctx, title, wc.On(date), durationMinutes, loc)
}

// ScheduleAutomatic books an event in the earliest free slot on or after ref.
func (s *Scheduler) ScheduleAutomatic(ctx context.Context, title string, durationMinutes int, ref time.Time) (ScheduledEvent, error) {
	loc, err := s.Location(ctx)
	if err != nil {
		return ScheduledEvent{}, err
	}
	start, err := s.find(ctx, ref.In(loc), durationMinutes)
	if err != nil {
		return ScheduledEvent{}, err
	}
	return s.issue(ctx, title, start, durationMinutes, loc)
}

// Reschedule replaces eventID with a new event at newStart. A zero newStart
// asks for the earliest free slot on or after ref instead.
//
// With an explicit start the new event is inserted before the old one is
// deleted, and rolled back if that delete fails. A search removes the old
// event first so its own time counts as free; if no replacement can be
// issued the original is inserted again.
func (s *Scheduler) Reschedule(ctx context.Context, eventID, title string, newStart time.Time, durationMinutes int, ref time.Time) (ScheduledEvent, error) {
	if strings.TrimSpace(eventID) == "" {
		return ScheduledEvent{}, fmt.Errorf("%w: event id required", ErrInvalidInput)
	}
	if durationMinutes <= 0 {
		return ScheduledEvent{}, fmt.Errorf("%w: duration %d must be positive", ErrInvalidInput, durationMinutes)
	}
	loc, err := s.Location(ctx)
	if err != nil {
		return ScheduledEvent{}, err
	}
	if !newStart.IsZero() {
		return s.replace(ctx, eventID, title, newStart.In(loc), durationMinutes, loc)
	}

	old, err := s.sink.Get(ctx, eventID)
	if err != nil {
		return ScheduledEvent{}, err
	}
	if err := s.sink.Delete(ctx, eventID); err != nil {
		return ScheduledEvent{}, err
	}
	start, err := s.find(ctx, ref.In(loc), durationMinutes)
	if err != nil {
		return ScheduledEvent{}, s.restore(ctx, old, err)
	}
	ev, err := s.issue(ctx, title, start, durationMinutes, loc)
	if err != nil {
		return ScheduledEvent{}, s.restore(ctx, old, err)
	}
	return ev, nil
}

func (s *Scheduler) replace(ctx context.Context, eventID, title string, start time.Time, durationMinutes int, loc *time.Location) (ScheduledEvent, error) {
	ev, err := s.issue(ctx, title, start, durationMinutes, loc)
	if err != nil {
		return ScheduledEvent{}, err
	}
	if err := s.sink.Delete(ctx, eventID); err != nil {
		if rbErr := s.sink.Delete(ctx, ev.ID); rbErr != nil {
			s.log.Error().Err(rbErr).Str("event_id", ev.ID).Msg("rollback of replacement event failed")
		}
		return ScheduledEvent{}, err
	}
	return ev, nil
}

// restore inserts old again after a failed search-based reschedule. The
// returned error always wraps cause.
func (s *Scheduler) restore(ctx context.Context, old ScheduledEvent, cause error) error {
	prevID := old.ID
	old.ID = ""
	id, err := s.sink.Insert(ctx, old)
	if err != nil {
		s.log.Error().Err(err).Str("event_id", prevID).Msg("original event could not be restored")
		return fmt.Errorf("%w (event %s): %w", ErrEventRemoved, prevID, cause)
	}
	s.log.Info().Str("event_id", id).Str("replaces", prevID).Msg("original event restored")
	return cause
}

// ApplyWorkingHours plans and inserts the working-hours events.
func (s *Scheduler) ApplyWorkingHours(ctx context.Context, schedule WeeklySchedule, ref time.Time) ([]ScheduledEvent, error) {
	return s.apply(ctx, schedule, ref, PlanWorkingHours)
}

// ApplyUnavailableHours plans and inserts the unavailable-hours events.
func (s *Scheduler) ApplyUnavailableHours(ctx context.Context, schedule WeeklySchedule, ref time.Time) ([]ScheduledEvent, error) {
	return s.apply(ctx, schedule, ref, PlanUnavailableHours)
}

type planFunc func(WeeklySchedule, time.Time) ([]ScheduledEvent, error)

func (s *Scheduler) apply(ctx context.Context, schedule WeeklySchedule, ref time.Time, plan planFunc) ([]ScheduledEvent, error) {
	loc, err := s.Location(ctx)
	if err != nil {
		return nil, err
	}
	events, err := plan(schedule, ref.In(loc))
	if err != nil {
		return nil, err
	}
	for i := range events {
		id, err := s.sink.Insert(ctx, events[i])
		if err != nil {
			return events[:i], err
		}
		events[i].ID = id
		s.log.Info().Str("event_id", id).Str("title", events[i].Title).
			Str("day", events[i].Recurrence.Weekday.String()).Msg("recurring event created")
	}
	return events, nil
}

func (s *Scheduler) find(ctx context.Context, earliest time.Time, durationMinutes int) (time.Time, error) {
	start, ok, err := s.finder.FindSlot(ctx, earliest, durationMinutes)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		s.log.Warn().Int("duration_minutes", durationMinutes).Int("horizon_days", s.finder.Horizon()).
			Msg("no available time found")
		return time.Time{}, ErrSchedulingFailed
	}
	return start, nil
}

func (s *Scheduler) issue(ctx context.Context, title string, start time.Time, durationMinutes int, loc *time.Location) (ScheduledEvent, error) {
	ev := ScheduledEvent{
		Title:    title,
		ColorID:  ColorEvent,
		Start:    start,
		End:      AddMinutes(start, durationMinutes),
		TimeZone: loc.String(),
	}
	id, err := s.sink.Insert(ctx, ev)
	if err != nil {
		return ScheduledEvent{}, err
	}
	ev.ID = id
	s.log.Info().Str("event_id", id).Time("start", ev.Start).Time("end", ev.End).Msg("event scheduled")
	return ev, nil
}
