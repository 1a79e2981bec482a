// Package memory is an in-process docstore backend. It keeps documents in
// insertion order and enforces unique indexes declared via EnsureIndexes.
package memory

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// Store is a concurrency-safe in-memory implementation of docstore.Database.
type Store struct {
	mu sync.RWMutex

	// key: collection name
	data map[string]*collectionData
}

type collectionData struct {
	docs    []docstore.Document
	uniques [][]string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*collectionData),
	}
}

// Collection returns the named collection, creating it lazily on first write.
func (s *Store) Collection(name string) docstore.Collection {
	return &Collection{store: s, name: name}
}

// EnsureIndexes records unique indexes; non-unique ones are ignored.
func (s *Store) EnsureIndexes(_ context.Context, specs ...docstore.IndexSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, spec := range specs {
		if !spec.Unique {
			continue
		}
		c := s.collectionLocked(spec.Collection)
		if !containsIndex(c.uniques, spec.Fields) {
			c.uniques = append(c.uniques, append([]string(nil), spec.Fields...))
		}
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

func (s *Store) collectionLocked(name string) *collectionData {
	c, ok := s.data[name]
	if !ok {
		c = &collectionData{}
		s.data[name] = c
	}
	return c
}

// Collection is a view of one collection in a Store.
type Collection struct {
	store *Store
	name  string
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) Insert(ctx context.Context, doc docstore.Document) (docstore.ID, error) {
	if err := ctx.Err(); err != nil {
		return docstore.NilID, err
	}

	id := docstore.NewID()
	stored := doc.Clone()
	stored[docstore.KeyID] = id

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	data := c.store.collectionLocked(c.name)
	if err := data.checkUnique(stored, -1); err != nil {
		return docstore.NilID, err
	}
	data.docs = append(data.docs, stored)
	return id, nil
}

func (c *Collection) Find(ctx context.Context, filter docstore.Filter) iter.Seq2[docstore.Document, error] {
	return func(yield func(docstore.Document, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		for _, doc := range c.snapshot(filter) {
			if !yield(doc, nil) {
				return
			}
		}
	}
}

func (c *Collection) FindOne(ctx context.Context, filter docstore.Filter) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	data, ok := c.store.data[c.name]
	if !ok {
		return nil, docstore.ErrNoDocument
	}
	for _, doc := range data.docs {
		if docstore.Match(doc, filter) {
			return doc.Clone(), nil
		}
	}
	return nil, docstore.ErrNoDocument
}

func (c *Collection) UpdateOne(ctx context.Context, id docstore.ID, set docstore.Document) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	data, ok := c.store.data[c.name]
	if !ok {
		return nil, docstore.ErrNoDocument
	}
	i := data.indexOf(id)
	if i < 0 {
		return nil, docstore.ErrNoDocument
	}

	updated := data.docs[i].Clone()
	for k, v := range set {
		if k == docstore.KeyID {
			continue
		}
		updated[k] = v
	}
	if err := data.checkUnique(updated, i); err != nil {
		return nil, err
	}
	data.docs[i] = updated
	return updated.Clone(), nil
}

func (c *Collection) DeleteOne(ctx context.Context, id docstore.ID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	data, ok := c.store.data[c.name]
	if !ok {
		return 0, nil
	}
	i := data.indexOf(id)
	if i < 0 {
		return 0, nil
	}
	data.docs = append(data.docs[:i], data.docs[i+1:]...)
	return 1, nil
}

// snapshot copies the matching documents under the read lock so callers can
// yield without holding it.
func (c *Collection) snapshot(filter docstore.Filter) []docstore.Document {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	data, ok := c.store.data[c.name]
	if !ok {
		return nil
	}
	var result []docstore.Document
	for _, doc := range data.docs {
		if docstore.Match(doc, filter) {
			result = append(result, doc.Clone())
		}
	}
	return result
}

func (d *collectionData) indexOf(id docstore.ID) int {
	for i, doc := range d.docs {
		if got, ok := doc.ID(); ok && got == id {
			return i
		}
	}
	return -1
}

// checkUnique rejects doc if another document (other than position self)
// shares its values on any unique index.
func (d *collectionData) checkUnique(doc docstore.Document, self int) error {
	for _, fields := range d.uniques {
		key, ok := indexKey(doc, fields)
		if !ok {
			continue
		}
		for i, other := range d.docs {
			if i == self {
				continue
			}
			if otherKey, ok := indexKey(other, fields); ok && otherKey == key {
				return fmt.Errorf("%w: %s on %s", docstore.ErrDuplicateKey, strings.Join(fields, ","), key)
			}
		}
	}
	return nil
}

func indexKey(doc docstore.Document, fields []string) (string, bool) {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, ok := docstore.Canonical(doc[f])
		if !ok {
			return "", false
		}
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, "\x00"), true
}

func containsIndex(indexes [][]string, fields []string) bool {
	for _, idx := range indexes {
		if strings.Join(idx, ",") == strings.Join(fields, ",") {
			return true
		}
	}
	return false
}

var (
	_ docstore.Database   = (*Store)(nil)
	_ docstore.Collection = (*Collection)(nil)
)
