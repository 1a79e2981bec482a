package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-telemetry/internal/config"
)

var logFormat string

var rootCmd = &cobra.Command{
	Use:   "weather-telemetry",
	Short: "HTTP API for countries, cities and temperature readings",
	Long: `weather-telemetry serves a REST API over a document store holding
countries, the cities within them and temperature readings taken in those
cities. MongoDB, DynamoDB and an in-memory store are supported.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text or json, overrides LOG_FORMAT)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and installs the default logger.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.AppConfig) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
