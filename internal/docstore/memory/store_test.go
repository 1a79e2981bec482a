package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

func collect(t *testing.T, c docstore.Collection, f docstore.Filter) []docstore.Document {
	t.Helper()
	var out []docstore.Document
	for doc, err := range c.Find(context.Background(), f) {
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		out = append(out, doc)
	}
	return out
}

func TestInsertFindUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	c := s.Collection("Tari")

	id, err := c.Insert(ctx, docstore.Document{"nume_tara": "Romania", "latitudine": 45.9})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := c.Insert(ctx, docstore.Document{"nume_tara": "Moldova"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	docs := collect(t, c, nil)
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if got, _ := docs[0].StringField("nume_tara"); got != "Romania" {
		t.Fatalf("expected insertion order, got %q first", got)
	}

	updated, err := c.UpdateOne(ctx, id, docstore.Document{"latitudine": 46.0, docstore.KeyID: docstore.NewID()})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got, _ := updated.ID(); got != id {
		t.Fatalf("update must not change the identifier")
	}
	if lat, _ := updated.FloatField("latitudine"); lat != 46.0 {
		t.Fatalf("expected updated latitude, got %v", lat)
	}

	n, err := c.DeleteOne(ctx, id)
	if err != nil || n != 1 {
		t.Fatalf("delete: n=%d err=%v", n, err)
	}
	n, err = c.DeleteOne(ctx, id)
	if err != nil || n != 0 {
		t.Fatalf("second delete: n=%d err=%v", n, err)
	}
	if _, err := c.UpdateOne(ctx, id, docstore.Document{"x": 1.0}); !errors.Is(err, docstore.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
	if _, err := c.FindOne(ctx, docstore.ByID(id)); !errors.Is(err, docstore.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	c := NewStore().Collection("Orase")

	id, err := c.Insert(ctx, docstore.Document{"nume_oras": "Iasi"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	doc, err := c.FindOne(ctx, docstore.ByID(id))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	doc["nume_oras"] = "changed"

	again, _ := c.FindOne(ctx, docstore.ByID(id))
	if got, _ := again.StringField("nume_oras"); got != "Iasi" {
		t.Fatalf("stored document was mutated through a returned copy: %q", got)
	}
}

func TestUniqueIndex(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	if err := s.EnsureIndexes(ctx,
		docstore.IndexSpec{Collection: "Tari", Fields: []string{"nume_tara"}, Unique: true},
		docstore.IndexSpec{Collection: "Tari", Fields: []string{"nume_tara"}, Unique: true},
	); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	c := s.Collection("Tari")

	if _, err := c.Insert(ctx, docstore.Document{"nume_tara": "Romania"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := c.Insert(ctx, docstore.Document{"nume_tara": "Romania"}); !errors.Is(err, docstore.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	// Case differs, so the key differs.
	id, err := c.Insert(ctx, docstore.Document{"nume_tara": "romania"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := c.UpdateOne(ctx, id, docstore.Document{"nume_tara": "Romania"}); !errors.Is(err, docstore.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey on update, got %v", err)
	}
	if _, err := c.UpdateOne(ctx, id, docstore.Document{"nume_tara": "romania"}); err != nil {
		t.Fatalf("rewriting own key: %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewStore().Collection("Temperaturi")

	if _, err := c.Insert(ctx, docstore.Document{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for _, err := range c.Find(ctx, nil) {
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	}
}
