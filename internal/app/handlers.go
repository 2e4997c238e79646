package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"timeagent/internal/ics"
	"timeagent/internal/scheduling"
)

// POST /api/events
// Books at manualDate/manualTime when both are given, otherwise in the
// earliest free slot at or after now.
func (a *App) CreateEventHandler(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	log := requestLogger(c)
	sched, err := a.schedulerFor(ctx, userSubject(c), log)
	if err != nil {
		a.writeError(c, err)
		return
	}

	kind := "automatic"
	var ev scheduling.ScheduledEvent
	if strings.TrimSpace(req.ManualDate) != "" && strings.TrimSpace(req.ManualTime) != "" {
		kind = "manual"
		ev, err = sched.ScheduleManual(ctx, req.Summary, req.ManualDate, req.ManualTime, int(req.Duration))
	} else {
		ev, err = sched.ScheduleAutomatic(ctx, req.Summary, int(req.Duration), a.requestNow(req.Now))
	}
	a.Metrics.ObserveScheduling(kind, err)
	if err != nil {
		a.writeError(c, err)
		return
	}
	resp, err := toResponse(ev)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// PUT /api/events/:id
func (a *App) RescheduleHandler(c *gin.Context) {
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	sched, err := a.schedulerFor(ctx, userSubject(c), requestLogger(c))
	if err != nil {
		a.writeError(c, err)
		return
	}

	var start time.Time
	if req.Start != nil {
		start = *req.Start
	}
	ev, err := sched.Reschedule(ctx, c.Param("id"), req.Summary, start, int(req.Duration), a.requestNow(req.Now))
	a.Metrics.ObserveScheduling("reschedule", err)
	if err != nil {
		a.writeError(c, err)
		return
	}
	resp, err := toResponse(ev)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// WeeklyHoursHandler serves POST /api/working-hours and
// POST /api/unavailable-hours. With ?preview=ics the plan is rendered as
// iCalendar and nothing is written.
func (a *App) WeeklyHoursHandler(kind HoursKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WeeklyHoursRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		schedule, err := scheduling.ParseWeeklySchedule(req.Data)
		if err != nil {
			a.writeError(c, err)
			return
		}

		ctx := c.Request.Context()
		sub := userSubject(c)
		sched, err := a.schedulerFor(ctx, sub, requestLogger(c))
		if err != nil {
			a.writeError(c, err)
			return
		}
		ref := a.requestNow(req.Now)

		if c.Query("preview") == "ics" {
			a.previewHours(c, sched, kind, schedule, ref)
			return
		}

		var events []scheduling.ScheduledEvent
		if kind == WorkingHours {
			events, err = sched.ApplyWorkingHours(ctx, schedule, ref)
		} else {
			events, err = sched.ApplyUnavailableHours(ctx, schedule, ref)
		}
		a.Metrics.ObserveScheduling(string(kind)+"_hours", err)
		if err != nil {
			if len(events) > 0 {
				log := requestLogger(c)
				log.Warn().Err(err).Int("created", len(events)).Msg("weekly hours partially applied")
			}
			a.writeError(c, err)
			return
		}

		if err := a.Store.SaveWeeklyHours(ctx, sub, kind, schedule); err != nil {
			log := requestLogger(c)
			log.Error().Err(err).Msg("save weekly hours")
		}
		resp, err := toResponses(events)
		if err != nil {
			a.writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"events": resp,
			"count":  len(events),
		})
	}
}

func (a *App) previewHours(c *gin.Context, sched *scheduling.Scheduler, kind HoursKind, schedule scheduling.WeeklySchedule, ref time.Time) {
	loc, err := sched.Location(c.Request.Context())
	if err != nil {
		a.writeError(c, err)
		return
	}
	plan := scheduling.PlanUnavailableHours
	if kind == WorkingHours {
		plan = scheduling.PlanWorkingHours
	}
	events, err := plan(schedule, ref.In(loc))
	if err != nil {
		a.writeError(c, err)
		return
	}
	doc, err := ics.Encode(events, a.now())
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(doc))
}

// GET /api/hours/:kind
func (a *App) GetHoursHandler(c *gin.Context) {
	kind, err := ParseHoursKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := a.Store.WeeklyHours(c.Request.Context(), userSubject(c), kind)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no saved hours"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, saved)
}

// GET /api/calendar/events?time_min=ISO&time_max=ISO
func (a *App) GetGoogleCalendarEvents(c *gin.Context) {
	var timeMin, timeMax time.Time
	for _, q := range []struct {
		name string
		dst  *time.Time
	}{{"time_min", &timeMin}, {"time_max", &timeMax}} {
		v := c.Query(q.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + q.name})
			return
		}
		*q.dst = t
	}
	if !timeMin.IsZero() && !timeMax.IsZero() && !timeMin.Before(timeMax) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "time_min must be before time_max"})
		return
	}

	ctx := c.Request.Context()
	cal, _, err := a.calendarFor(ctx, userSubject(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	events, err := cal.ListEvents(ctx, timeMin, timeMax)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// GET /api/calendar/calendars
func (a *App) GetGoogleCalendarList(c *gin.Context) {
	ctx := c.Request.Context()
	cal, _, err := a.calendarFor(ctx, userSubject(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	calendars, err := cal.ListCalendars(ctx)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"calendars": calendars,
		"count":     len(calendars),
	})
}

func (a *App) requestNow(t *time.Time) time.Time {
	if t != nil && !t.IsZero() {
		return *t
	}
	return a.now()
}

// writeError maps domain errors to status codes. Exhausting the horizon and
// rejecting the input get different messages so callers can tell them apart.
func (a *App) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduling.ErrEventRemoved):
		log := requestLogger(c)
		log.Error().Err(err).Msg("reschedule lost the original event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error() + "; sign in again"})
	case errors.Is(err, scheduling.ErrSchedulingFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "no available time could be found in the next " + horizonText(a.HorizonDays),
		})
	case errors.Is(err, scheduling.ErrInvalidInput),
		errors.Is(err, scheduling.ErrInvalidDay),
		errors.Is(err, scheduling.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduling request rejected: " + err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "calendar request timed out"})
	case errors.Is(err, scheduling.ErrUpstreamUnavailable):
		log := requestLogger(c)
		log.Warn().Err(err).Msg("calendar provider failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log := requestLogger(c)
		log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func horizonText(days int) string {
	if days == 30 {
		return "month"
	}
	if days > 0 && days%30 == 0 {
		return fmt.Sprintf("%d months", days/30)
	}
	return fmt.Sprintf("%d days", days)
}
