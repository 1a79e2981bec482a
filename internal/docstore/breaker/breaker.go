// Package breaker wraps a docstore.Database so that repeated store failures
// open a circuit and further calls fail fast with docstore.ErrUnavailable.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// Settings controls when the circuit opens.
type Settings struct {
	// MaxFailures is the number of consecutive failures that trips the breaker.
	MaxFailures uint32
	// Cooldown is how long the breaker stays open before probing again.
	Cooldown time.Duration
}

// Database guards every collection of an underlying database with one breaker.
type Database struct {
	inner docstore.Database
	cb    *gobreaker.TwoStepCircuitBreaker
}

// Wrap returns db guarded by a breaker named name.
func Wrap(name string, db docstore.Database, s Settings) *Database {
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	cb := gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("store breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Database{inner: db, cb: cb}
}

// State exposes the breaker state for health reporting.
func (d *Database) State() gobreaker.State {
	return d.cb.State()
}

func (d *Database) Collection(name string) docstore.Collection {
	return &Collection{inner: d.inner.Collection(name), cb: d.cb}
}

func (d *Database) EnsureIndexes(ctx context.Context, specs ...docstore.IndexSpec) error {
	return d.inner.EnsureIndexes(ctx, specs...)
}

func (d *Database) Ping(ctx context.Context) error {
	return guard(d.cb, func() error { return d.inner.Ping(ctx) })
}

func (d *Database) Close(ctx context.Context) error {
	return d.inner.Close(ctx)
}

// Collection forwards to the inner collection through the breaker.
type Collection struct {
	inner docstore.Collection
	cb    *gobreaker.TwoStepCircuitBreaker
}

func (c *Collection) Name() string { return c.inner.Name() }

func (c *Collection) Insert(ctx context.Context, doc docstore.Document) (docstore.ID, error) {
	var id docstore.ID
	err := guard(c.cb, func() (err error) {
		id, err = c.inner.Insert(ctx, doc)
		return err
	})
	return id, err
}

func (c *Collection) Find(ctx context.Context, filter docstore.Filter) iter.Seq2[docstore.Document, error] {
	return func(yield func(docstore.Document, error) bool) {
		done, err := c.cb.Allow()
		if err != nil {
			yield(nil, unavailable(err))
			return
		}
		failed := false
		for doc, err := range c.inner.Find(ctx, filter) {
			if err != nil {
				failed = isFailure(err)
				yield(nil, err)
				break
			}
			if !yield(doc, nil) {
				break
			}
		}
		done(!failed)
	}
}

func (c *Collection) FindOne(ctx context.Context, filter docstore.Filter) (docstore.Document, error) {
	var doc docstore.Document
	err := guard(c.cb, func() (err error) {
		doc, err = c.inner.FindOne(ctx, filter)
		return err
	})
	return doc, err
}

func (c *Collection) UpdateOne(ctx context.Context, id docstore.ID, set docstore.Document) (docstore.Document, error) {
	var doc docstore.Document
	err := guard(c.cb, func() (err error) {
		doc, err = c.inner.UpdateOne(ctx, id, set)
		return err
	})
	return doc, err
}

func (c *Collection) DeleteOne(ctx context.Context, id docstore.ID) (int64, error) {
	var n int64
	err := guard(c.cb, func() (err error) {
		n, err = c.inner.DeleteOne(ctx, id)
		return err
	})
	return n, err
}

func guard(cb *gobreaker.TwoStepCircuitBreaker, fn func() error) error {
	done, err := cb.Allow()
	if err != nil {
		return unavailable(err)
	}
	err = fn()
	done(!isFailure(err))
	return err
}

// isFailure reports whether err says something about store health. Misses,
// unique violations and caller cancellations do not.
func isFailure(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, docstore.ErrNoDocument),
		errors.Is(err, docstore.ErrDuplicateKey),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
}

var (
	_ docstore.Database   = (*Database)(nil)
	_ docstore.Collection = (*Collection)(nil)
)
