package breaker

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

type stubDB struct {
	coll *stubCollection
}

func (d *stubDB) Collection(string) docstore.Collection                      { return d.coll }
func (d *stubDB) EnsureIndexes(context.Context, ...docstore.IndexSpec) error { return nil }
func (d *stubDB) Ping(context.Context) error                                 { return d.coll.err }
func (d *stubDB) Close(context.Context) error                                { return nil }

// stubCollection fails every call with err and counts the calls that reach it.
type stubCollection struct {
	err   error
	calls int
}

func (c *stubCollection) Name() string { return "stub" }

func (c *stubCollection) Insert(context.Context, docstore.Document) (docstore.ID, error) {
	c.calls++
	return docstore.NewID(), c.err
}

func (c *stubCollection) Find(context.Context, docstore.Filter) iter.Seq2[docstore.Document, error] {
	return func(yield func(docstore.Document, error) bool) {
		c.calls++
		if c.err != nil {
			yield(nil, c.err)
			return
		}
		yield(docstore.Document{"n": 1.0}, nil)
	}
}

func (c *stubCollection) FindOne(context.Context, docstore.Filter) (docstore.Document, error) {
	c.calls++
	return nil, c.err
}

func (c *stubCollection) UpdateOne(context.Context, docstore.ID, docstore.Document) (docstore.Document, error) {
	c.calls++
	return nil, c.err
}

func (c *stubCollection) DeleteOne(context.Context, docstore.ID) (int64, error) {
	c.calls++
	return 0, c.err
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	inner := &stubCollection{err: errors.New("connection refused")}
	db := Wrap("test", &stubDB{coll: inner}, Settings{MaxFailures: 3, Cooldown: time.Minute})
	c := db.Collection("Tari")

	for i := 0; i < 3; i++ {
		if _, err := c.FindOne(ctx, nil); errors.Is(err, docstore.ErrUnavailable) {
			t.Fatalf("call %d: breaker opened too early", i)
		}
	}
	if db.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %v", db.State())
	}

	if _, err := c.Insert(ctx, docstore.Document{}); !errors.Is(err, docstore.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	for _, err := range c.Find(ctx, nil) {
		if !errors.Is(err, docstore.ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable from Find, got %v", err)
		}
	}
	if inner.calls != 3 {
		t.Fatalf("expected calls to stop reaching the store, got %d", inner.calls)
	}
}

func TestBreakerIgnoresDomainErrors(t *testing.T) {
	ctx := context.Background()
	inner := &stubCollection{err: docstore.ErrNoDocument}
	db := Wrap("test", &stubDB{coll: inner}, Settings{MaxFailures: 1, Cooldown: time.Minute})
	c := db.Collection("Orase")

	for i := 0; i < 5; i++ {
		if _, err := c.UpdateOne(ctx, docstore.NewID(), docstore.Document{}); !errors.Is(err, docstore.ErrNoDocument) {
			t.Fatalf("expected ErrNoDocument, got %v", err)
		}
	}
	inner.err = docstore.ErrDuplicateKey
	if _, err := c.Insert(ctx, docstore.Document{}); !errors.Is(err, docstore.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	if db.State() != gobreaker.StateClosed {
		t.Fatalf("expected closed breaker, got %v", db.State())
	}
}

func TestBreakerFindReleasesOnEarlyStop(t *testing.T) {
	inner := &stubCollection{}
	db := Wrap("test", &stubDB{coll: inner}, Settings{MaxFailures: 1, Cooldown: time.Minute})
	c := db.Collection("Temperaturi")

	for range 3 {
		for _, err := range c.Find(context.Background(), nil) {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			break
		}
	}
	if db.State() != gobreaker.StateClosed {
		t.Fatalf("expected closed breaker, got %v", db.State())
	}
}
