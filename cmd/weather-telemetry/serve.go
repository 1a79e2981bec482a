package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/i474232898/weather-telemetry/internal/api/http"
	"github.com/i474232898/weather-telemetry/internal/metrics"
	"github.com/i474232898/weather-telemetry/internal/scheduler"
	"github.com/i474232898/weather-telemetry/internal/weather"
)

var listenPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (default command)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenPort, "port", "", "HTTP port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)

	// Make serve the default command.
	rootCmd.RunE = runServe
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenPort != "" {
		cfg.Port = listenPort
	}

	slog.Info("starting weather-telemetry",
		"port", cfg.Port,
		"store_driver", cfg.StoreDriver,
		"audit_interval", cfg.AuditInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(context.Background()) //nolint:errcheck

	service := weather.NewService(db)
	if err := service.EnsureIndexes(ctx); err != nil {
		// The API still works without indexes, only slower and without the
		// unique country name guarantee.
		slog.Error("failed to ensure indexes", "error", err)
	}

	m := metrics.New()

	sched := scheduler.New(cfg.AuditInterval, service, m)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp(service, httpapi.Options{
		Metrics:      m,
		StoreTimeout: cfg.StoreTimeout,
		AccessLog:    cfg.AccessLog,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("weather-telemetry ready", "addr", ":"+cfg.Port)
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("weather-telemetry exited with error", "error", err)
		return err
	}
	slog.Info("weather-telemetry shutdown complete")
	return nil
}
