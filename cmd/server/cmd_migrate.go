package main

import (
	"errors"

	"github.com/spf13/cobra"

	"timeagent/internal/app"
	"timeagent/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := loadConfig(ctx); err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errors.Join(config.ErrInvalidConfig, errors.New("database_url is required"))
		}

		store, err := app.OpenPG(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(ctx); err != nil {
			return err
		}
		logger.Info().Msg("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
