package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"
)

type window struct {
	start, end time.Time
	tz         string
}

// fakeSource serves busy intervals from a fixed list, or from fn when set.
type fakeSource struct {
	busy  []BusyInterval
	fn    func(start, end time.Time) ([]BusyInterval, error)
	calls []window
}

func (f *fakeSource) Busy(_ context.Context, start, end time.Time, tz string) ([]BusyInterval, error) {
	f.calls = append(f.calls, window{start: start, end: end, tz: tz})
	if f.fn != nil {
		return f.fn(start, end)
	}
	var out []BusyInterval
	for _, iv := range f.busy {
		if iv.Start.Before(end) && (iv.End.After(start) || (iv.End.Equal(iv.Start) && !iv.Start.Before(start))) {
			out = append(out, iv)
		}
	}
	return out, nil
}

var testDay = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return testDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func morningAndNoon() []BusyInterval {
	return []BusyInterval{
		{Start: at(9, 0), End: at(10, 0)},
		{Start: at(11, 0), End: at(12, 0)},
	}
}

func TestFindSlot_EmptyDayReturnsSearchPoint(t *testing.T) {
	src := &fakeSource{}
	f := NewFinder(src)

	got, ok, err := f.FindSlot(context.Background(), at(14, 15), 30)
	if err != nil || !ok {
		t.Fatalf("expected slot, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(at(14, 15)) {
		t.Fatalf("expected 14:15, got %s", got.Format(time.RFC3339))
	}
	if len(src.calls) != 1 {
		t.Fatalf("expected 1 query, got %d", len(src.calls))
	}
	if !src.calls[0].end.Equal(at(24, 0)) {
		t.Fatalf("expected window end at next midnight, got %s", src.calls[0].end.Format(time.RFC3339))
	}
	if src.calls[0].tz != "UTC" {
		t.Fatalf("expected tz UTC, got %q", src.calls[0].tz)
	}
}

func TestFindSlot_BeforeFirstGap(t *testing.T) {
	f := NewFinder(&fakeSource{busy: morningAndNoon()})

	got, ok, err := f.FindSlot(context.Background(), at(0, 0), 90)
	if err != nil || !ok {
		t.Fatalf("expected slot, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(at(0, 0)) {
		t.Fatalf("expected 00:00, got %s", got.Format(time.RFC3339))
	}
}

func TestFindSlot_AfterLastGap(t *testing.T) {
	f := NewFinder(&fakeSource{busy: morningAndNoon()})

	got, ok, err := f.FindSlot(context.Background(), at(9, 30), 70)
	if err != nil || !ok {
		t.Fatalf("expected slot, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(at(12, 0)) {
		t.Fatalf("expected 12:00, got %s", got.Format(time.RFC3339))
	}
}

func TestFindSlot_BetweenGap(t *testing.T) {
	f := NewFinder(&fakeSource{busy: morningAndNoon()})

	got, ok, err := f.FindSlot(context.Background(), at(9, 30), 60)
	if err != nil || !ok {
		t.Fatalf("expected slot, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(at(10, 0)) {
		t.Fatalf("expected 10:00, got %s", got.Format(time.RFC3339))
	}
}

func TestFindSlot_ExactGapBoundary(t *testing.T) {
	busy := []BusyInterval{
		{Start: at(0, 0), End: at(9, 0)},
		{Start: at(10, 0), End: at(24, 0)},
	}

	f := NewFinder(&fakeSource{busy: busy})
	got, ok, err := f.FindSlot(context.Background(), at(0, 0), 60)
	if err != nil || !ok {
		t.Fatalf("expected slot, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(at(9, 0)) {
		t.Fatalf("expected exact 60 minute gap at 09:00, got %s", got.Format(time.RFC3339))
	}

	src := &fakeSource{busy: busy}
	got, ok, err = NewFinder(src).FindSlot(context.Background(), at(0, 0), 61)
	if err != nil || !ok {
		t.Fatalf("expected slot on the next day, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(at(24, 0)) {
		t.Fatalf("expected next midnight, got %s", got.Format(time.RFC3339))
	}
	if len(src.calls) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(src.calls))
	}
}

func TestFindSlot_LaterDaysStartAtMidnight(t *testing.T) {
	src := &fakeSource{fn: func(start, end time.Time) ([]BusyInterval, error) {
		if start.Before(at(24, 0)) {
			return []BusyInterval{{Start: start, End: end}}, nil
		}
		return []BusyInterval{{Start: start.Add(8 * time.Hour), End: end}}, nil
	}}

	got, ok, err := NewFinder(src).FindSlot(context.Background(), at(16, 45), 120)
	if err != nil || !ok {
		t.Fatalf("expected slot, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(at(24, 0)) {
		t.Fatalf("expected next midnight, got %s", got.Format(time.RFC3339))
	}
	if !src.calls[0].start.Equal(at(16, 45)) {
		t.Fatalf("first window should start at the search point, got %s", src.calls[0].start)
	}
	if !src.calls[1].start.Equal(at(24, 0)) || !src.calls[1].end.Equal(at(48, 0)) {
		t.Fatalf("second window should cover the whole next day, got %s - %s", src.calls[1].start, src.calls[1].end)
	}
}

func TestFindSlot_ZeroLengthIntervalTolerated(t *testing.T) {
	busy := []BusyInterval{
		{Start: at(8, 0), End: at(8, 0)},
		{Start: at(10, 0), End: at(24, 0)},
	}

	got, ok, err := NewFinder(&fakeSource{busy: busy}).FindSlot(context.Background(), at(7, 30), 60)
	if err != nil || !ok {
		t.Fatalf("expected slot, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(at(8, 0)) {
		t.Fatalf("expected 08:00, got %s", got.Format(time.RFC3339))
	}
}

func TestFindSlot_HorizonExhausted(t *testing.T) {
	src := &fakeSource{fn: func(start, end time.Time) ([]BusyInterval, error) {
		return []BusyInterval{{Start: start, End: end}}, nil
	}}

	_, ok, err := NewFinder(src).FindSlot(context.Background(), at(0, 0), 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no slot")
	}
	if len(src.calls) != DefaultHorizonDays+1 {
		t.Fatalf("expected %d queries, got %d", DefaultHorizonDays+1, len(src.calls))
	}
}

func TestFindSlot_CustomHorizon(t *testing.T) {
	src := &fakeSource{fn: func(start, end time.Time) ([]BusyInterval, error) {
		return []BusyInterval{{Start: start, End: end}}, nil
	}}

	_, ok, _ := NewFinder(src, WithHorizon(3)).FindSlot(context.Background(), at(0, 0), 15)
	if ok || len(src.calls) != 4 {
		t.Fatalf("expected 4 queries and no slot, got ok=%v calls=%d", ok, len(src.calls))
	}
}

func TestFindSlot_Idempotent(t *testing.T) {
	f := NewFinder(&fakeSource{busy: morningAndNoon()})
	a, _, _ := f.FindSlot(context.Background(), at(9, 30), 70)
	b, _, _ := f.FindSlot(context.Background(), at(9, 30), 70)
	if !a.Equal(b) {
		t.Fatalf("expected identical results, got %s and %s", a, b)
	}
}

func TestFindSlot_UpstreamError(t *testing.T) {
	boom := errors.New("503")
	src := &fakeSource{fn: func(start, end time.Time) ([]BusyInterval, error) {
		return nil, errors.Join(ErrUpstreamUnavailable, boom)
	}}

	_, _, err := NewFinder(src).FindSlot(context.Background(), at(0, 0), 30)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(src.calls) != 1 {
		t.Fatalf("expected no retry, got %d calls", len(src.calls))
	}
}

func TestFindSlot_RejectsNonPositiveDuration(t *testing.T) {
	src := &fakeSource{}
	_, _, err := NewFinder(src).FindSlot(context.Background(), at(0, 0), 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(src.calls) != 0 {
		t.Fatalf("expected no queries, got %d", len(src.calls))
	}
}
