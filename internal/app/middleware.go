package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	RequestIDHeader = "X-Request-Id"
	ctxLogger       = "logger"
)

// RequestLogger tags each request with an id (taken from the header when the
// caller sent one), exposes a child logger to handlers and writes one access
// log line per request.
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		log := base.With().Str("request_id", id).Logger()
		c.Set(ctxLogger, log)
		c.Request = c.Request.WithContext(log.WithContext(c.Request.Context()))

		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= 500 {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("http request")
	}
}

// Timeout bounds the request context, and with it every calendar call a
// handler makes.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(c *gin.Context) zerolog.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if l, ok := v.(zerolog.Logger); ok {
			return l
		}
	}
	return *zerolog.Ctx(c.Request.Context())
}
