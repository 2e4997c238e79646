package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultHorizonDays bounds the day scan; offsets 0..DefaultHorizonDays are examined.
const DefaultHorizonDays = 180

// Finder locates the earliest free slot of a given length, one day at a time.
type Finder struct {
	source  BusySource
	horizon int
	log     zerolog.Logger
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithHorizon overrides the number of days searched after the first.
func WithHorizon(days int) FinderOption {
	return func(f *Finder) {
		if days >= 0 {
			f.horizon = days
		}
	}
}

// WithFinderLogger attaches a logger for per-day debug output.
func WithFinderLogger(l zerolog.Logger) FinderOption {
	return func(f *Finder) { f.log = l }
}

// NewFinder builds a Finder over source.
func NewFinder(source BusySource, opts ...FinderOption) *Finder {
	f := &Finder{source: source, horizon: DefaultHorizonDays, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Horizon returns the configured horizon in days.
func (f *Finder) Horizon() int { return f.horizon }

// FindSlot returns the start of the earliest gap of at least durationMinutes
// on or after earliest. Day boundaries are taken in earliest's location, and
// that location's name is passed to the busy source as the query time zone.
// ok is false when no gap exists within the horizon.
func (f *Finder) FindSlot(ctx context.Context, earliest time.Time, durationMinutes int) (time.Time, bool, error) {
	if durationMinutes <= 0 {
		return time.Time{}, false, fmt.Errorf("%w: duration %d must be positive", ErrInvalidInput, durationMinutes)
	}
	need := time.Duration(durationMinutes) * time.Minute
	tz := earliest.Location().String()
	y, m, d := earliest.Date()

	for offset := 0; offset <= f.horizon; offset++ {
		windowStart := earliest
		if offset > 0 {
			windowStart = time.Date(y, m, d+offset, 0, 0, 0, 0, earliest.Location())
		}
		windowEnd := NextMidnight(windowStart)

		busy, err := f.source.Busy(ctx, windowStart, windowEnd, tz)
		if err != nil {
			return time.Time{}, false, err
		}
		if start, ok := earliestGap(windowStart, windowEnd, busy, need); ok {
			f.log.Debug().Int("day_offset", offset).Time("start", start).Msg("slot found")
			return start, true, nil
		}
		f.log.Debug().Int("day_offset", offset).Int("busy", len(busy)).Msg("no slot in day")
	}
	return time.Time{}, false, nil
}

// earliestGap scans the gaps of one window in time order and returns the
// start of the first one that is at least need long.
func earliestGap(windowStart, windowEnd time.Time, busy []BusyInterval, need time.Duration) (time.Time, bool) {
	if len(busy) == 0 {
		return windowStart, true
	}
	if busy[0].Start.Sub(windowStart) >= need {
		return windowStart, true
	}
	for i := 0; i+1 < len(busy); i++ {
		if busy[i+1].Start.Sub(busy[i].End) >= need {
			return busy[i].End, true
		}
	}
	last := busy[len(busy)-1]
	if windowEnd.Sub(last.End) >= need {
		return last.End, true
	}
	return time.Time{}, false
}
