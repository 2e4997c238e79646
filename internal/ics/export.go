// Package ics renders planned calendar events as an iCalendar document so
// a weekly plan can be previewed or imported without touching the provider.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"timeagent/internal/scheduling"
)

const productID = "-//timeagent//weekly hours//EN"

// Encode serializes events into a VCALENDAR. Events without a provider id
// get a deterministic UID derived from their title, day and start.
func Encode(events []scheduling.ScheduledEvent, stamp time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for i, ev := range events {
		ve := cal.AddEvent(uid(ev, i))
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Title)
		if ev.ColorID != "" {
			ve.SetProperty(ical.ComponentProperty("X-GOOGLE-COLOR-ID"), ev.ColorID)
		}
		if ev.Recurrence != nil {
			line, err := ev.Recurrence.RRule()
			if err != nil {
				return "", err
			}
			ve.AddRrule(strings.TrimPrefix(line, "RRULE:"))
		}
	}
	return cal.Serialize(), nil
}

func uid(ev scheduling.ScheduledEvent, i int) string {
	if ev.ID != "" {
		return ev.ID
	}
	slug := strings.ToLower(strings.ReplaceAll(ev.Title, " ", "-"))
	return fmt.Sprintf("%s-%d-%s@timeagent", slug, i, ev.Start.UTC().Format("20060102T150405Z"))
}
