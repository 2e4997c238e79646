package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Router builds the HTTP routes. requestTimeout bounds each API request.
func (a *App) Router(requestTimeout time.Duration) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(a.Log), a.Metrics.GinMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(a.Metrics.Handler()))

	// sign-in routes must be reachable before a session exists
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)
	router.GET("/api/calendar/auth", a.GoogleAuthHandler)

	api := router.Group("/api", AuthMiddleware(a.JWTSecret), Timeout(requestTimeout))
	{
		api.POST("/events", a.CreateEventHandler)
		api.PUT("/events/:id", a.RescheduleHandler)
		api.POST("/working-hours", a.WeeklyHoursHandler(WorkingHours))
		api.POST("/unavailable-hours", a.WeeklyHoursHandler(UnavailableHours))
		api.GET("/hours/:kind", a.GetHoursHandler)

		calendar := api.Group("/calendar")
		{
			calendar.GET("/events", a.GetGoogleCalendarEvents)
			calendar.GET("/calendars", a.GetGoogleCalendarList)
		}
	}
	return router
}
