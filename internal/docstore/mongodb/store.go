// Package mongodb is the MongoDB docstore backend.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// Database wraps a connected client and one database.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string) (*Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &Database{client: client, db: client.Database(database)}, nil
}

func (d *Database) Collection(name string) docstore.Collection {
	return &Collection{coll: d.db.Collection(name)}
}

// EnsureIndexes creates each index; existing identical indexes are left alone.
func (d *Database) EnsureIndexes(ctx context.Context, specs ...docstore.IndexSpec) error {
	for _, spec := range specs {
		keys := bson.D{}
		for _, f := range spec.Fields {
			keys = append(keys, bson.E{Key: f, Value: 1})
		}
		model := mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetUnique(spec.Unique),
		}
		name, err := d.db.Collection(spec.Collection).Indexes().CreateOne(ctx, model)
		if err != nil {
			return fmt.Errorf("creating index on %s%v: %w", spec.Collection, spec.Fields, err)
		}
		slog.Debug("index ready", "collection", spec.Collection, "index", name, "unique", spec.Unique)
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// Collection adapts a *mongo.Collection.
type Collection struct {
	coll *mongo.Collection
}

func (c *Collection) Name() string { return c.coll.Name() }

func (c *Collection) Insert(ctx context.Context, doc docstore.Document) (docstore.ID, error) {
	id := docstore.NewID()
	stored := doc.Clone()
	stored[docstore.KeyID] = id

	if _, err := c.coll.InsertOne(ctx, bson.M(stored)); err != nil {
		return docstore.NilID, mapError(err)
	}
	return id, nil
}

func (c *Collection) Find(ctx context.Context, filter docstore.Filter) iter.Seq2[docstore.Document, error] {
	return func(yield func(docstore.Document, error) bool) {
		cur, err := c.coll.Find(ctx, ToBSON(filter))
		if err != nil {
			yield(nil, mapError(err))
			return
		}
		defer cur.Close(ctx) //nolint:errcheck

		for cur.Next(ctx) {
			var m bson.M
			if err := cur.Decode(&m); err != nil {
				yield(nil, fmt.Errorf("decoding %s document: %w", c.Name(), err))
				return
			}
			if !yield(docstore.Document(m), nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, mapError(err))
		}
	}
}

func (c *Collection) FindOne(ctx context.Context, filter docstore.Filter) (docstore.Document, error) {
	var m bson.M
	if err := c.coll.FindOne(ctx, ToBSON(filter)).Decode(&m); err != nil {
		return nil, mapError(err)
	}
	return docstore.Document(m), nil
}

func (c *Collection) UpdateOne(ctx context.Context, id docstore.ID, set docstore.Document) (docstore.Document, error) {
	fields := set.Clone()
	delete(fields, docstore.KeyID)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := c.coll.FindOneAndUpdate(ctx, bson.M{docstore.KeyID: id}, bson.M{"$set": bson.M(fields)}, opts)

	var m bson.M
	if err := res.Decode(&m); err != nil {
		return nil, mapError(err)
	}
	return docstore.Document(m), nil
}

func (c *Collection) DeleteOne(ctx context.Context, id docstore.ID) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, bson.M{docstore.KeyID: id})
	if err != nil {
		return 0, mapError(err)
	}
	return res.DeletedCount, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return docstore.ErrNoDocument
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", docstore.ErrDuplicateKey, err)
	}
	return err
}

var (
	_ docstore.Database   = (*Database)(nil)
	_ docstore.Collection = (*Collection)(nil)
)
