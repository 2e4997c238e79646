package ics

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"timeagent/internal/scheduling"
)

func TestEncodeUnavailablePlan(t *testing.T) {
	ref := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	events, err := scheduling.PlanUnavailableHours(scheduling.WeeklySchedule{
		scheduling.Monday: {StartTime: "09:00", EndTime: "17:00"},
	}, ref)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	out, err := Encode(events, ref)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("output does not parse: %v\n%s", err, out)
	}
	vevents := cal.Events()
	if len(vevents) != 2 {
		t.Fatalf("expected 2 events, got %d", len(vevents))
	}

	start, err := vevents[1].GetStartAt()
	if err != nil {
		t.Fatalf("GetStartAt failed: %v", err)
	}
	if !start.Equal(time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", start)
	}
	rrule := vevents[0].GetProperty(ical.ComponentPropertyRrule)
	if rrule == nil || rrule.Value != "FREQ=WEEKLY;BYDAY=MO" {
		t.Fatalf("unexpected rrule %+v", rrule)
	}
	summary := vevents[0].GetProperty(ical.ComponentPropertySummary)
	if summary == nil || summary.Value != scheduling.UnavailableHoursTitle {
		t.Fatalf("unexpected summary %+v", summary)
	}
	uid0 := vevents[0].GetProperty(ical.ComponentPropertyUniqueId)
	uid1 := vevents[1].GetProperty(ical.ComponentPropertyUniqueId)
	if uid0 == nil || uid1 == nil || uid0.Value == uid1.Value {
		t.Fatal("event uids must differ")
	}
}

func TestEncodeKeepsProviderIDs(t *testing.T) {
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	out, err := Encode([]scheduling.ScheduledEvent{{ID: "abc123", Title: "Focus", Start: start, End: start.Add(time.Hour)}}, start)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(out, "UID:abc123") {
		t.Fatalf("expected provider id as UID:\n%s", out)
	}
	if strings.Contains(out, "RRULE") {
		t.Fatalf("one-off events must not recur:\n%s", out)
	}
}
