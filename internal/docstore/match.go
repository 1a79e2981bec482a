package docstore

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Match reports whether doc satisfies every predicate of f. Values are
// compared in canonical form, so an ID matches its hex string and an
// instant matches its TimeLayout string.
func Match(doc Document, f Filter) bool {
	for _, p := range f {
		if !matchOne(doc, p) {
			return false
		}
	}
	return true
}

func matchOne(doc Document, p Predicate) bool {
	raw, ok := doc[p.Field]
	if !ok {
		return false
	}
	got, ok := Canonical(raw)
	if !ok {
		return false
	}

	switch p.Op {
	case OpEq:
		want, ok := Canonical(p.Value)
		return ok && got == want
	case OpEqFold:
		s, ok := got.(string)
		want, _ := p.Value.(string)
		return ok && strings.EqualFold(s, want)
	case OpIn:
		for _, v := range p.Values {
			if want, ok := Canonical(v); ok && got == want {
				return true
			}
		}
		return false
	case OpGte, OpLte:
		want, ok := Canonical(p.Value)
		if !ok {
			return false
		}
		c, ok := compare(got, want)
		if !ok {
			return false
		}
		if p.Op == OpGte {
			return c >= 0
		}
		return c <= 0
	}
	return false
}

// Canonical reduces a field value to a float64 or a string. Identifiers
// become hex, instants become TimeLayout strings.
func Canonical(v any) (any, bool) {
	switch x := v.(type) {
	case ID:
		return x.Hex(), true
	case time.Time:
		return x.UTC().Format(TimeLayout), true
	case primitive.DateTime:
		return x.Time().UTC().Format(TimeLayout), true
	case string:
		return x, true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return nil, false
}

func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	}
	return 0, false
}
