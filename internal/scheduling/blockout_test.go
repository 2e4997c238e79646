package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/teambition/rrule-go"
)

// Sunday 2026-10-18, mid-afternoon.
var planRef = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

func TestPlanUnavailableHours(t *testing.T) {
	convey.Convey("Given an unavailable-hours table", t, func() {
		convey.Convey("When Monday is free from 09:00 to 17:00", func() {
			events, err := PlanUnavailableHours(WeeklySchedule{
				Monday:  {StartTime: "09:00", EndTime: "17:00"},
				Tuesday: {},
			}, planRef)

			convey.Convey("Then the rest of Monday is blocked by two weekly events", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(events, convey.ShouldHaveLength, 2)

				monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
				convey.So(events[0].Start, convey.ShouldEqual, monday)
				convey.So(events[0].End, convey.ShouldEqual, monday.Add(9*time.Hour))
				convey.So(events[1].Start, convey.ShouldEqual, monday.Add(17*time.Hour))
				convey.So(events[1].End, convey.ShouldEqual, monday.Add(24*time.Hour))

				for _, ev := range events {
					convey.So(ev.Title, convey.ShouldEqual, UnavailableHoursTitle)
					convey.So(ev.ColorID, convey.ShouldEqual, ColorUnavailable)
					convey.So(ev.Recurrence, convey.ShouldNotBeNil)
					convey.So(ev.Recurrence.Weekday.Code(), convey.ShouldEqual, "Mo")
				}
			})
		})

		convey.Convey("When a day has both times empty", func() {
			events, err := PlanUnavailableHours(WeeklySchedule{Friday: {}}, planRef)

			convey.Convey("Then nothing is blocked", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(events, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the free window starts at midnight", func() {
			events, err := PlanUnavailableHours(WeeklySchedule{
				Wednesday: {StartTime: "00:00:00", EndTime: "12:30:00"},
			}, planRef)

			convey.Convey("Then only the evening is blocked", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(events, convey.ShouldHaveLength, 1)
				wed := time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
				convey.So(events[0].Start, convey.ShouldEqual, wed.Add(12*time.Hour+30*time.Minute))
				convey.So(events[0].End, convey.ShouldEqual, wed.Add(24*time.Hour))
			})
		})

		convey.Convey("When a period has only a start time", func() {
			_, err := PlanUnavailableHours(WeeklySchedule{Monday: {StartTime: "09:00"}}, planRef)

			convey.Convey("Then the table is rejected", func() {
				convey.So(errors.Is(err, ErrInvalidPeriod), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPlanWorkingHours(t *testing.T) {
	convey.Convey("Given a working-hours table", t, func() {
		events, err := PlanWorkingHours(WeeklySchedule{
			Sunday:  {StartTime: "10:00", EndTime: "14:00"},
			Monday:  {StartTime: "09:00", EndTime: "17:00"},
			Tuesday: {},
		}, planRef)

		convey.Convey("Then each restricted day yields one weekly event in week order", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(events, convey.ShouldHaveLength, 2)

			convey.So(events[0].Recurrence.Weekday, convey.ShouldEqual, Monday)
			convey.So(events[0].Start, convey.ShouldEqual, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
			convey.So(events[0].End, convey.ShouldEqual, time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC))
			convey.So(events[0].Title, convey.ShouldEqual, WorkingHoursTitle)
			convey.So(events[0].ColorID, convey.ShouldEqual, ColorWorking)

			// the reference day itself is the first Sunday occurrence
			convey.So(events[1].Recurrence.Weekday, convey.ShouldEqual, Sunday)
			convey.So(events[1].Start, convey.ShouldEqual, time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC))
		})

		convey.Convey("When start is not before end", func() {
			_, err := PlanWorkingHours(WeeklySchedule{Monday: {StartTime: "17:00", EndTime: "09:00"}}, planRef)
			convey.So(errors.Is(err, ErrInvalidPeriod), convey.ShouldBeTrue)
		})
	})
}

func TestRecurrenceRRule(t *testing.T) {
	convey.Convey("Given a weekly recurrence on Monday", t, func() {
		line, err := Recurrence{Weekday: Monday}.RRule()

		convey.Convey("Then it renders a weekly BYDAY rule", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(line, convey.ShouldEqual, "RRULE:FREQ=WEEKLY;BYDAY=MO")
		})

		convey.Convey("Then the rule expands to consecutive Mondays", func() {
			r, err := rrule.StrToRRule(line[len("RRULE:"):])
			convey.So(err, convey.ShouldBeNil)
			r.DTStart(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
			occ := r.Between(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), true)
			convey.So(occ, convey.ShouldHaveLength, 2)
			for _, o := range occ {
				convey.So(o.Weekday(), convey.ShouldEqual, time.Monday)
			}
		})
	})

	convey.Convey("Given an out-of-range weekday", t, func() {
		_, err := Recurrence{Weekday: Weekday(8)}.RRule()
		convey.So(errors.Is(err, ErrInvalidDay), convey.ShouldBeTrue)
	})
}

func TestParseWeeklySchedule(t *testing.T) {
	convey.Convey("Given a day-name keyed table", t, func() {
		s, err := ParseWeeklySchedule(map[string]TimePeriod{
			"Monday": {StartTime: "09:00:00", EndTime: "17:00:00"},
			"Sunday": {},
		})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldContainKey, Monday)
		convey.So(s, convey.ShouldContainKey, Sunday)

		_, err = ParseWeeklySchedule(map[string]TimePeriod{"Caturday": {}})
		convey.So(errors.Is(err, ErrInvalidDay), convey.ShouldBeTrue)

		_, err = ParseWeeklySchedule(map[string]TimePeriod{"Monday": {EndTime: "17:00"}})
		convey.So(errors.Is(err, ErrInvalidPeriod), convey.ShouldBeTrue)

		convey.Convey("a day named twice is rejected", func() {
			for _, alias := range []string{"MO", "monday", " Monday "} {
				_, err := ParseWeeklySchedule(map[string]TimePeriod{
					"Monday": {StartTime: "09:00", EndTime: "17:00"},
					alias:    {},
				})
				convey.So(errors.Is(err, ErrInvalidDay), convey.ShouldBeTrue)
			}
		})
	})
}
