package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"timeagent/internal/app"
	"timeagent/internal/config"
	"timeagent/internal/logging"
	"timeagent/internal/server"
	"timeagent/internal/telemetry"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:          "timeagent",
	Short:        "timeagent - calendar time-blocking assistant",
	Long:         "timeagent finds free time in a Google Calendar, books events into it and blocks out recurring working and unavailable hours.",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and sets up logging (called by commands that need it).
func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.Load(ctx)
	if err != nil {
		return err
	}
	logger, err = logging.Setup(cfg.Environment, cfg.LogLevel)
	return err
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loadConfig(ctx); err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := app.OpenPG(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	appInstance := app.New(cfg, store, telemetry.New(), logger)

	logger.Info().Int("horizon_days", cfg.HorizonDays).Str("calendar_id", cfg.CalendarID).Msg("timeagent starting")
	return server.Run(ctx, cfg.Addr, appInstance.Router(cfg.RequestTimeout), logger)
}
