package scheduling

import (
	"fmt"
	"time"
)

// PlanWorkingHours turns a working-hours table into one weekly recurring
// event per restricted day, anchored on the next occurrence of that day on
// or after ref. Days are emitted in week order.
func PlanWorkingHours(schedule WeeklySchedule, ref time.Time) ([]ScheduledEvent, error) {
	var out []ScheduledEvent
	for _, day := range Weekdays {
		p, ok := schedule[day]
		if !ok || p.Empty() {
			continue
		}
		start, end, err := p.Bounds()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", day, err)
		}
		date, err := NextWeekday(day, ref, false)
		if err != nil {
			return nil, err
		}
		out = append(out, ScheduledEvent{
			Title:      WorkingHoursTitle,
			ColorID:    ColorWorking,
			Start:      start.On(date),
			End:        end.On(date),
			TimeZone:   ref.Location().String(),
			Recurrence: &Recurrence{Weekday: day},
		})
	}
	return out, nil
}

// PlanUnavailableHours treats each period as the free window of its day and
// blocks the rest: [midnight, start) and [end, next midnight), as two
// separate weekly events. Zero-length remainders are skipped.
func PlanUnavailableHours(schedule WeeklySchedule, ref time.Time) ([]ScheduledEvent, error) {
	var out []ScheduledEvent
	for _, day := range Weekdays {
		p, ok := schedule[day]
		if !ok || p.Empty() {
			continue
		}
		start, end, err := p.Bounds()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", day, err)
		}
		date, err := NextWeekday(day, ref, false)
		if err != nil {
			return nil, err
		}
		dayStart := Midnight(date)
		dayEnd := NextMidnight(date)
		freeStart := start.On(date)
		freeEnd := end.On(date)

		for _, span := range [2][2]time.Time{{dayStart, freeStart}, {freeEnd, dayEnd}} {
			if !span[0].Before(span[1]) {
				continue
			}
			out = append(out, ScheduledEvent{
				Title:      UnavailableHoursTitle,
				ColorID:    ColorUnavailable,
				Start:      span[0],
				End:        span[1],
				TimeZone:   ref.Location().String(),
				Recurrence: &Recurrence{Weekday: day},
			})
		}
	}
	return out, nil
}
