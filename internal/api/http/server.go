package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/weather-telemetry/internal/docstore"
	"github.com/i474232898/weather-telemetry/internal/metrics"
	"github.com/i474232898/weather-telemetry/internal/weather"
)

const (
	appName         = "weather-telemetry"
	requestIDHeader = "X-Request-ID"
	healthTimeout   = 2 * time.Second
)

// Options configures NewApp. Metrics may be nil.
type Options struct {
	Metrics      *metrics.Metrics
	StoreTimeout time.Duration
	AccessLog    bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewApp builds the Fiber app with middleware, health, metrics and API routes.
func NewApp(service *weather.Service, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler:          ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(RequestID())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:request_id} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	if opts.Metrics != nil {
		app.Use(Observe(opts.Metrics))
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		if err := service.Ping(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "unavailable",
				"service": appName,
			})
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	app.Use("/api", StoreTimeout(opts.StoreTimeout))
	RegisterRoutes(app, service)
	return app
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, msg := statusOf(err)
	if code >= fiber.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", c.Locals(requestIDLocal),
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func statusOf(err error) (int, string) {
	var werr *weather.Error
	if errors.As(err, &werr) {
		switch werr.Kind {
		case weather.KindValidation, weather.KindConflict, weather.KindInvalidID:
			return fiber.StatusBadRequest, werr.Msg
		case weather.KindNotFound:
			return fiber.StatusNotFound, werr.Msg
		}
		if errors.Is(err, docstore.ErrUnavailable) {
			return fiber.StatusServiceUnavailable, "store unavailable"
		}
		return fiber.StatusInternalServerError, werr.Error()
	}
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ferr.Code, ferr.Message
	}
	return fiber.StatusInternalServerError, "internal server error"
}
