package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-telemetry/internal/weather"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the store indexes (tables on DynamoDB)",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(context.Background()) //nolint:errcheck

	if err := weather.NewService(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	slog.Info("indexes ready", "driver", cfg.StoreDriver, "count", len(weather.Indexes()))
	return nil
}
