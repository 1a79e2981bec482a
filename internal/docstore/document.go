package docstore

import (
	"maps"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimeLayout is the fixed-width UTC form used by backends that persist
// instants as strings. Values in this layout sort lexicographically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// Document is a schema-less record. Field values are one of: ID, string,
// float64, time.Time. Backends may hand back equivalent representations
// (hex strings, BSON dates, integers); the typed getters accept all of them.
type Document map[string]any

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	return maps.Clone(d)
}

// ID returns the document identifier.
func (d Document) ID() (ID, bool) {
	return d.IDField(KeyID)
}

// IDField returns key as an identifier.
func (d Document) IDField(key string) (ID, bool) {
	switch v := d[key].(type) {
	case ID:
		return v, true
	case string:
		id, err := primitive.ObjectIDFromHex(v)
		return id, err == nil
	}
	return NilID, false
}

// StringField returns key as a string.
func (d Document) StringField(key string) (string, bool) {
	v, ok := d[key].(string)
	return v, ok
}

// FloatField returns key as a float64.
func (d Document) FloatField(key string) (float64, bool) {
	switch v := d[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// TimeField returns key as a UTC instant.
func (d Document) TimeField(key string) (time.Time, bool) {
	switch v := d[key].(type) {
	case time.Time:
		return v.UTC(), true
	case primitive.DateTime:
		return v.Time().UTC(), true
	case string:
		t, err := time.Parse(TimeLayout, v)
		return t, err == nil
	}
	return time.Time{}, false
}
