// Package config defines the service configuration and how it is loaded.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Environment selects console logging when set to "development".
	Environment string `koanf:"environment"`

	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL is the Postgres DSN used for refresh tokens and saved hours.
	DatabaseURL string `koanf:"database_url"`

	// JWTSecret signs the session tokens handed out after Google sign-in.
	JWTSecret string `koanf:"jwt_secret"`

	// SessionTTL bounds the lifetime of issued session tokens.
	SessionTTL time.Duration `koanf:"session_ttl"`

	GoogleClientID     string `koanf:"google_client_id"`
	GoogleClientSecret string `koanf:"google_client_secret"`
	GoogleRedirectURL  string `koanf:"google_redirect_url"`

	// CalendarID is the calendar that is queried and written, normally "primary".
	CalendarID string `koanf:"calendar_id"`

	// HorizonDays bounds the availability search.
	HorizonDays int `koanf:"horizon_days"`

	// RequestTimeout caps each API request, including every calendar call it makes.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Environment:    "production",
		Addr:           ":8080",
		SessionTTL:     24 * time.Hour,
		CalendarID:     "primary",
		HorizonDays:    180,
		RequestTimeout: 60 * time.Second,
	}
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.HorizonDays < 0 {
		return fmt.Errorf("%w: horizon_days must not be negative", ErrInvalidConfig)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: session_ttl must be positive", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// ValidateServer additionally checks the settings the HTTP server needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	missing := func(name string) error {
		return fmt.Errorf("%w: %s is required", ErrInvalidConfig, name)
	}
	switch {
	case c.DatabaseURL == "":
		return missing("database_url")
	case c.JWTSecret == "":
		return missing("jwt_secret")
	case c.GoogleClientID == "" || c.GoogleClientSecret == "" || c.GoogleRedirectURL == "":
		return missing("google_client_id, google_client_secret and google_redirect_url")
	}
	return nil
}
