package scheduling

import "errors"

var (
	// ErrInvalidDay reports a weekday key that is not one of the seven known days.
	ErrInvalidDay = errors.New("invalid day of week")
	// ErrInvalidPeriod reports a malformed time period (one bound empty, or start not before end).
	ErrInvalidPeriod = errors.New("invalid time period")
	// ErrInvalidInput reports a rejected scheduling request (bad duration, date or time).
	ErrInvalidInput = errors.New("invalid scheduling input")
	// ErrUpstreamUnavailable wraps failures of the calendar provider.
	ErrUpstreamUnavailable = errors.New("calendar provider unavailable")
	// ErrSchedulingFailed means the search horizon was exhausted without a free slot.
	ErrSchedulingFailed = errors.New("no available time found within the search horizon")
	// ErrEventRemoved means a reschedule removed the original event and could
	// neither replace nor restore it.
	ErrEventRemoved = errors.New("original event was removed and could not be restored")
)
