package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"timeagent/internal/config"
	"timeagent/internal/gcal"
	"timeagent/internal/scheduling"
	"timeagent/internal/telemetry"
)

// ErrNotSignedIn means the user has no stored Google refresh token.
var ErrNotSignedIn = errors.New("google calendar not connected")

// CalendarService is everything the handlers need from one user's calendar.
type CalendarService interface {
	telemetry.Calendar
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]gcal.CalendarEvent, error)
	ListCalendars(ctx context.Context) ([]gcal.CalendarInfo, error)
}

// CalendarFactory opens the calendar of a signed-in user.
type CalendarFactory interface {
	ForUser(ctx context.Context, userSub string) (CalendarService, error)
}

// App holds the dependencies shared by all handlers.
type App struct {
	Store       Store
	Calendars   CalendarFactory
	OAuth       *oauth2.Config
	Metrics     *telemetry.Metrics
	Log         zerolog.Logger
	JWTSecret   string
	SessionTTL  time.Duration
	HorizonDays int

	// Now defaults to time.Now; requests may still carry their own "now".
	Now func() time.Time
}

// New wires an App from configuration.
func New(cfg *config.Config, store Store, metrics *telemetry.Metrics, log zerolog.Logger) *App {
	oauthCfg := OAuthConfig(cfg)
	calendars := &GoogleCalendars{
		OAuth:      oauthCfg,
		Store:      store,
		CalendarID: cfg.CalendarID,
	}
	return &App{
		Store:       store,
		Calendars:   calendars,
		OAuth:       oauthCfg,
		Metrics:     metrics,
		Log:         log,
		JWTSecret:   cfg.JWTSecret,
		SessionTTL:  cfg.SessionTTL,
		HorizonDays: cfg.HorizonDays,
		Now:         time.Now,
	}
}

// OAuthConfig builds the Google sign-in configuration. Calendar write access
// is needed for inserts; openid yields the id_token carrying the user's sub.
func OAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{calendar.CalendarScope, "openid"},
		Endpoint:     google.Endpoint,
	}
}

// GoogleCalendars builds per-request calendar clients from stored refresh tokens.
type GoogleCalendars struct {
	OAuth      *oauth2.Config
	Store      Store
	CalendarID string
	Options    []option.ClientOption
}

func (g *GoogleCalendars) ForUser(ctx context.Context, userSub string) (CalendarService, error) {
	refresh, err := g.Store.RefreshToken(ctx, userSub)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotSignedIn
	}
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	ts := g.OAuth.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh})
	return gcal.New(ctx, oauth2.NewClient(ctx, ts), g.CalendarID, g.Options...)
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// calendarFor opens the caller's calendar wrapped with call metrics.
func (a *App) calendarFor(ctx context.Context, userSub string) (CalendarService, telemetry.Calendar, error) {
	cal, err := a.Calendars.ForUser(ctx, userSub)
	if err != nil {
		return nil, nil, err
	}
	return cal, a.Metrics.Instrument(cal), nil
}

// schedulerFor builds the scheduler for one request. Nothing is cached
// between requests, so every search sees the calendar as it is now.
func (a *App) schedulerFor(ctx context.Context, userSub string, log zerolog.Logger) (*scheduling.Scheduler, error) {
	_, cal, err := a.calendarFor(ctx, userSub)
	if err != nil {
		return nil, err
	}
	finder := scheduling.NewFinder(cal,
		scheduling.WithHorizon(a.HorizonDays),
		scheduling.WithFinderLogger(log),
	)
	return scheduling.NewScheduler(finder, cal, cal, log), nil
}
