// Package telemetry exposes Prometheus metrics for calendar traffic and
// scheduling outcomes.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timeagent/internal/scheduling"
)

const namespace = "timeagent"

// Metrics holds the service collectors.
type Metrics struct {
	registry *prometheus.Registry

	calendarCalls    *prometheus.CounterVec
	calendarLatency  *prometheus.HistogramVec
	schedulings      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpRequestTimes *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calendarCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_calls_total",
			Help:      "Calls made to the calendar provider.",
		}, []string{"op", "outcome"}),
		calendarLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calendar_call_duration_seconds",
			Help:      "Latency of calendar provider calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		schedulings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduling_requests_total",
			Help:      "Scheduling operations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpRequestTimes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(m.calendarCalls, m.calendarLatency, m.schedulings, m.httpRequests, m.httpRequestTimes)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome classifies a scheduling error for metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, scheduling.ErrSchedulingFailed):
		return "no_slot"
	case errors.Is(err, scheduling.ErrInvalidInput),
		errors.Is(err, scheduling.ErrInvalidPeriod),
		errors.Is(err, scheduling.ErrInvalidDay):
		return "invalid"
	case errors.Is(err, scheduling.ErrUpstreamUnavailable):
		return "upstream"
	default:
		return "error"
	}
}

// ObserveScheduling counts one scheduling operation.
func (m *Metrics) ObserveScheduling(kind string, err error) {
	m.schedulings.WithLabelValues(kind, Outcome(err)).Inc()
}

func (m *Metrics) observeCall(op string, started time.Time, err error) {
	m.calendarLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
	m.calendarCalls.WithLabelValues(op, Outcome(err)).Inc()
}

// Calendar is the full set of calendar operations the scheduler relies on.
type Calendar interface {
	scheduling.BusySource
	scheduling.EventSink
	scheduling.ZoneResolver
}

type instrumented struct {
	next Calendar
	m    *Metrics
}

// Instrument wraps a calendar so every call is counted and timed.
func (m *Metrics) Instrument(next Calendar) Calendar {
	return &instrumented{next: next, m: m}
}

func (c *instrumented) Busy(ctx context.Context, start, end time.Time, tz string) ([]scheduling.BusyInterval, error) {
	started := time.Now()
	out, err := c.next.Busy(ctx, start, end, tz)
	c.m.observeCall("freebusy", started, err)
	return out, err
}

func (c *instrumented) Get(ctx context.Context, eventID string) (scheduling.ScheduledEvent, error) {
	started := time.Now()
	ev, err := c.next.Get(ctx, eventID)
	c.m.observeCall("get", started, err)
	return ev, err
}

func (c *instrumented) Insert(ctx context.Context, ev scheduling.ScheduledEvent) (string, error) {
	started := time.Now()
	id, err := c.next.Insert(ctx, ev)
	c.m.observeCall("insert", started, err)
	return id, err
}

func (c *instrumented) Delete(ctx context.Context, eventID string) error {
	started := time.Now()
	err := c.next.Delete(ctx, eventID)
	c.m.observeCall("delete", started, err)
	return err
}

func (c *instrumented) TimeZone(ctx context.Context) (string, error) {
	started := time.Now()
	tz, err := c.next.TimeZone(ctx)
	c.m.observeCall("timezone", started, err)
	return tz, err
}

// GinMiddleware records request counts and latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestTimes.WithLabelValues(c.Request.Method, route).Observe(time.Since(started).Seconds())
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
