package mongodb

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// ToBSON translates a docstore filter into a Mongo query document. Operator
// predicates on the same field are merged into one sub-document, so a
// Gte/Lte pair becomes {field: {$gte: a, $lte: b}}.
func ToBSON(f docstore.Filter) bson.D {
	out := bson.D{}
	ops := make(map[string]int) // field -> index in out of its operator document

	addOp := func(field, op string, v any) {
		if i, ok := ops[field]; ok {
			sub := out[i].Value.(bson.D)
			out[i].Value = append(sub, bson.E{Key: op, Value: v})
			return
		}
		ops[field] = len(out)
		out = append(out, bson.E{Key: field, Value: bson.D{{Key: op, Value: v}}})
	}

	for _, p := range f {
		switch p.Op {
		case docstore.OpEq:
			addOp(p.Field, "$eq", p.Value)
		case docstore.OpEqFold:
			s, _ := p.Value.(string)
			addOp(p.Field, "$regex", primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"})
		case docstore.OpIn:
			values := p.Values
			if values == nil {
				values = []any{}
			}
			addOp(p.Field, "$in", values)
		case docstore.OpGte:
			addOp(p.Field, "$gte", p.Value)
		case docstore.OpLte:
			addOp(p.Field, "$lte", p.Value)
		}
	}
	return out
}
