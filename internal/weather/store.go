package weather

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// entityStore is the persistence facade for one entity kind. It knows its
// collection and codec and nothing about other entities.
type entityStore[T any] struct {
	coll   docstore.Collection
	kind   string
	encode func(T) docstore.Document
	// decode reports false for documents missing required fields.
	decode func(docstore.Document) (T, bool)
}

func (s *entityStore[T]) Insert(ctx context.Context, v T) (docstore.ID, error) {
	id, err := s.coll.Insert(ctx, s.encode(v))
	if err != nil {
		return docstore.NilID, s.wrap("insert", err)
	}
	return id, nil
}

// FindAll yields decoded entities matching f. Incomplete documents are skipped.
func (s *entityStore[T]) FindAll(ctx context.Context, f docstore.Filter) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for doc, err := range s.coll.Find(ctx, f) {
			if err != nil {
				yield(zero, s.wrap("list", err))
				return
			}
			v, ok := s.decode(doc)
			if !ok {
				id, _ := doc.ID()
				slog.Debug("skipping incomplete document", "collection", s.coll.Name(), "id", id.Hex())
				continue
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// FindIDs returns the identifiers of every document matching f.
func (s *entityStore[T]) FindIDs(ctx context.Context, f docstore.Filter) ([]docstore.ID, error) {
	var ids []docstore.ID
	for doc, err := range s.coll.Find(ctx, f) {
		if err != nil {
			return nil, s.wrap("list", err)
		}
		if id, ok := doc.ID(); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// FindOne returns the first decodable match.
func (s *entityStore[T]) FindOne(ctx context.Context, f docstore.Filter) (T, bool, error) {
	var zero T
	doc, err := s.coll.FindOne(ctx, f)
	if errors.Is(err, docstore.ErrNoDocument) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, s.wrap("find", err)
	}
	v, ok := s.decode(doc)
	return v, ok, nil
}

// Exists reports whether any document matches f, complete or not.
func (s *entityStore[T]) Exists(ctx context.Context, f docstore.Filter) (bool, error) {
	_, err := s.coll.FindOne(ctx, f)
	if errors.Is(err, docstore.ErrNoDocument) {
		return false, nil
	}
	if err != nil {
		return false, s.wrap("find", err)
	}
	return true, nil
}

// UpdateOne sets fields on the document with id. It reports false if no
// such document exists.
func (s *entityStore[T]) UpdateOne(ctx context.Context, id docstore.ID, fields docstore.Document) (bool, error) {
	_, err := s.coll.UpdateOne(ctx, id, fields)
	if errors.Is(err, docstore.ErrNoDocument) {
		return false, nil
	}
	if err != nil {
		return false, s.wrap("update", err)
	}
	return true, nil
}

func (s *entityStore[T]) DeleteOne(ctx context.Context, id docstore.ID) (int64, error) {
	n, err := s.coll.DeleteOne(ctx, id)
	if err != nil {
		return 0, s.wrap("delete", err)
	}
	return n, nil
}

func (s *entityStore[T]) wrap(op string, err error) error {
	if errors.Is(err, docstore.ErrDuplicateKey) {
		return &Error{Kind: KindConflict, Msg: s.kind + " already exists (duplicate key)", Err: err}
	}
	return &Error{Kind: KindStore, Msg: fmt.Sprintf("failed to %s %s", op, s.kind), Err: err}
}

func newCountryStore(db docstore.Database) *entityStore[Country] {
	return &entityStore[Country]{
		coll: db.Collection(CountriesCollection),
		kind: "country",
		encode: func(c Country) docstore.Document {
			return countryFields(c)
		},
		decode: func(d docstore.Document) (Country, bool) {
			var c Country
			var ok1, ok2, ok3, ok4 bool
			c.ID, ok1 = d.ID()
			c.Name, ok2 = d.StringField(fieldCountryName)
			c.Lat, ok3 = d.FloatField(fieldLat)
			c.Lon, ok4 = d.FloatField(fieldLon)
			return c, ok1 && ok2 && ok3 && ok4
		},
	}
}

func newCityStore(db docstore.Database) *entityStore[City] {
	return &entityStore[City]{
		coll: db.Collection(CitiesCollection),
		kind: "city",
		encode: func(c City) docstore.Document {
			doc := cityFields(c)
			doc[fieldCountryID] = c.CountryID
			return doc
		},
		decode: func(d docstore.Document) (City, bool) {
			var c City
			var ok1, ok2, ok3, ok4, ok5 bool
			c.ID, ok1 = d.ID()
			c.CountryID, ok2 = d.IDField(fieldCountryID)
			c.Name, ok3 = d.StringField(fieldCityName)
			c.Lat, ok4 = d.FloatField(fieldLat)
			c.Lon, ok5 = d.FloatField(fieldLon)
			return c, ok1 && ok2 && ok3 && ok4 && ok5
		},
	}
}

func newReadingStore(db docstore.Database) *entityStore[Reading] {
	return &entityStore[Reading]{
		coll: db.Collection(ReadingsCollection),
		kind: "temperature",
		encode: func(r Reading) docstore.Document {
			return docstore.Document{
				fieldCityID:    r.CityID,
				fieldValue:     r.Value,
				fieldTimestamp: r.Timestamp.UTC(),
			}
		},
		decode: func(d docstore.Document) (Reading, bool) {
			var r Reading
			var ok1, ok2, ok3, ok4 bool
			r.ID, ok1 = d.ID()
			r.CityID, ok2 = d.IDField(fieldCityID)
			r.Value, ok3 = d.FloatField(fieldValue)
			r.Timestamp, ok4 = d.TimeField(fieldTimestamp)
			return r, ok1 && ok2 && ok3 && ok4
		},
	}
}

// countryFields is the updatable field set of a country.
func countryFields(c Country) docstore.Document {
	return docstore.Document{
		fieldCountryName: c.Name,
		fieldLat:         c.Lat,
		fieldLon:         c.Lon,
	}
}

// cityFields is the updatable field set of a city; the country reference is not updatable.
func cityFields(c City) docstore.Document {
	return docstore.Document{
		fieldCityName: c.Name,
		fieldLat:      c.Lat,
		fieldLon:      c.Lon,
	}
}

func readingFields(value float64) docstore.Document {
	return docstore.Document{fieldValue: value}
}

// stamp normalizes an insertion time to the millisecond precision every
// backend can round-trip.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
