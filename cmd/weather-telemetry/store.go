package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/i474232898/weather-telemetry/internal/config"
	"github.com/i474232898/weather-telemetry/internal/docstore"
	"github.com/i474232898/weather-telemetry/internal/docstore/breaker"
	"github.com/i474232898/weather-telemetry/internal/docstore/dynamo"
	"github.com/i474232898/weather-telemetry/internal/docstore/memory"
	"github.com/i474232898/weather-telemetry/internal/docstore/mongodb"
)

// openStore connects the configured backend and wraps it in a circuit breaker.
func openStore(ctx context.Context, cfg *config.AppConfig) (docstore.Database, error) {
	var (
		db  docstore.Database
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverMongo:
		slog.Info("connecting to mongodb", "uri", redactURI(cfg.MongoURI), "database", cfg.MongoDatabase)
		db, err = mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverDynamoDB:
		slog.Info("connecting to dynamodb", "table_prefix", cfg.DynamoTablePrefix, "endpoint", cfg.DynamoEndpoint)
		db, err = dynamo.Open(ctx, dynamo.Options{
			Region:      cfg.DynamoRegion,
			Endpoint:    cfg.DynamoEndpoint,
			TablePrefix: cfg.DynamoTablePrefix,
		})
	case config.DriverMemory:
		slog.Warn("using in-memory store; data is lost on exit")
		db = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
	if err != nil {
		return nil, err
	}

	return breaker.Wrap(cfg.StoreDriver, db, breaker.Settings{
		MaxFailures: cfg.BreakerFailures,
		Cooldown:    cfg.BreakerCooldown,
	}), nil
}

// redactURI masks the password in a connection URI for safe display.
func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "<unparsable>"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
