package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is a day of the week, Monday first.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Weekdays lists every day in week order.
var Weekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Valid reports whether d is one of the seven known days.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// Code returns the two-letter weekday code (Mo, Tu, ... Su).
func (d Weekday) Code() string {
	if !d.Valid() {
		return ""
	}
	return weekdayNames[d][:2]
}

// Std converts d to the standard library weekday.
func (d Weekday) Std() time.Weekday {
	return time.Weekday((int(d) + 1) % 7)
}

// WeekdayOf returns the Weekday of t in t's location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// ParseWeekday accepts full English day names and two-letter codes, case-insensitively.
func ParseWeekday(name string) (Weekday, error) {
	n := strings.TrimSpace(name)
	for _, d := range Weekdays {
		if strings.EqualFold(n, weekdayNames[d]) || strings.EqualFold(n, d.Code()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDay, name)
}

// MarshalText renders the full day name.
func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDay, int(d))
	}
	return []byte(weekdayNames[d]), nil
}

// UnmarshalText lets Weekday be used as a JSON/YAML map key.
func (d *Weekday) UnmarshalText(b []byte) error {
	v, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Midnight returns the start of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NextMidnight returns the start of the calendar day after t's.
func NextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// NextWeekday returns local midnight of the next date matching day, counting
// forward from ref. The reference day itself qualifies unless excludeRef is set.
func NextWeekday(day Weekday, ref time.Time, excludeRef bool) (time.Time, error) {
	if !day.Valid() {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidDay, int(day))
	}
	offset := (int(day) - int(WeekdayOf(ref)) + 7) % 7
	if excludeRef && offset == 0 {
		offset = 7
	}
	y, m, d := ref.Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, ref.Location()), nil
}

// WallClock is a time of day. Ranges are not validated on parse.
type WallClock struct {
	Hours   int
	Minutes int
}

// ParseWallClock splits an "HH:MM" or "HH:MM:SS" string. Seconds are ignored.
func ParseWallClock(text string) (WallClock, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) < 2 {
		return WallClock{}, fmt.Errorf("%w: time %q", ErrInvalidInput, text)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return WallClock{}, fmt.Errorf("%w: time %q", ErrInvalidInput, text)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return WallClock{}, fmt.Errorf("%w: time %q", ErrInvalidInput, text)
	}
	return WallClock{Hours: h, Minutes: m}, nil
}

// Valid reports whether the wall clock is within 00:00-23:59.
func (w WallClock) Valid() bool {
	return w.Hours >= 0 && w.Hours < 24 && w.Minutes >= 0 && w.Minutes < 60
}

// On places the wall clock on date's calendar day in date's location.
func (w WallClock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, w.Hours, w.Minutes, 0, 0, date.Location())
}

func (w WallClock) String() string {
	return fmt.Sprintf("%02d:%02d", w.Hours, w.Minutes)
}

// AddMinutes adds minutes linearly, without calendar rounding.
func AddMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}
