// Package docstore defines the document-store contract used by the weather
// entity stores: schema-less documents addressed by collection and opaque
// identifier, filtered scans, and single-document updates.
//
// Backends live in sub-packages (memory, mongodb, dynamo). None of them offer
// joins or cross-collection constraints; those are enforced one layer up.
package docstore

import (
	"context"
	"errors"
	"iter"
)

// KeyID is the field holding a document's identifier.
const KeyID = "_id"

var (
	// ErrNoDocument is returned when a lookup or update matches nothing.
	ErrNoDocument = errors.New("docstore: no document matched")

	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("docstore: duplicate key")

	// ErrInvalidID is returned when an identifier cannot be parsed.
	ErrInvalidID = errors.New("docstore: invalid identifier")

	// ErrUnavailable is returned when the store refuses work (e.g. open breaker).
	ErrUnavailable = errors.New("docstore: store unavailable")
)

// Collection is one named set of documents.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Insert stores doc under a newly generated identifier and returns it.
	// Any identifier already present in doc is ignored.
	Insert(ctx context.Context, doc Document) (ID, error)

	// Find returns the documents matching every predicate of filter, in
	// store-native order. The sequence is lazy; ranging over it again
	// re-runs the query.
	Find(ctx context.Context, filter Filter) iter.Seq2[Document, error]

	// FindOne returns the first match or ErrNoDocument.
	FindOne(ctx context.Context, filter Filter) (Document, error)

	// UpdateOne sets the given fields on the document with id and returns the
	// updated document, or ErrNoDocument if it does not exist.
	UpdateOne(ctx context.Context, id ID, set Document) (Document, error)

	// DeleteOne removes the document with id and reports how many were removed (0 or 1).
	DeleteOne(ctx context.Context, id ID) (int64, error)
}

// IndexSpec declares an index on a collection.
type IndexSpec struct {
	Collection string
	Fields     []string
	Unique     bool
}

// Database is a process-wide handle to a set of collections.
type Database interface {
	Collection(name string) Collection
	EnsureIndexes(ctx context.Context, specs ...IndexSpec) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
