package mongodb

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

func TestToBSONMergesRangeOnOneField(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	city := docstore.NewID()

	got := ToBSON(docstore.Filter{
		docstore.Eq("id_oras", city),
		docstore.Gte("timestamp", from),
		docstore.Lte("timestamp", until),
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 top-level fields, got %v", got)
	}
	if got[0].Key != "id_oras" {
		t.Fatalf("expected id_oras first, got %q", got[0].Key)
	}
	ts, ok := got[1].Value.(bson.D)
	if !ok || len(ts) != 2 || ts[0].Key != "$gte" || ts[1].Key != "$lte" {
		t.Fatalf("unexpected timestamp clause %v", got[1].Value)
	}
	if ts[0].Value != from || ts[1].Value != until {
		t.Fatalf("unexpected bounds %v", ts)
	}
}

func TestToBSONEqFoldEscapesPattern(t *testing.T) {
	got := ToBSON(docstore.Filter{docstore.EqFold("nume_oras", "St. Gallen (CH)")})

	clause := got[0].Value.(bson.D)
	re, ok := clause[0].Value.(primitive.Regex)
	if !ok || clause[0].Key != "$regex" {
		t.Fatalf("expected $regex clause, got %v", clause)
	}
	if re.Pattern != `^St\. Gallen \(CH\)$` || re.Options != "i" {
		t.Fatalf("unexpected regex %+v", re)
	}
}

func TestToBSONEmptyIn(t *testing.T) {
	got := ToBSON(docstore.Filter{docstore.In[docstore.ID]("id_oras")})

	clause := got[0].Value.(bson.D)
	values, ok := clause[0].Value.([]any)
	if !ok || values == nil || len(values) != 0 {
		t.Fatalf("expected empty non-nil $in list, got %#v", clause[0].Value)
	}
}

func TestToBSONEmptyFilter(t *testing.T) {
	if got := ToBSON(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty document, got %#v", got)
	}
}
