package docstore

// Op is a predicate operator.
type Op int

const (
	// OpEq matches exact equality.
	OpEq Op = iota
	// OpEqFold matches strings equal under Unicode case folding.
	OpEqFold
	// OpIn matches when the field equals any of Values.
	OpIn
	// OpGte matches field >= Value.
	OpGte
	// OpLte matches field <= Value.
	OpLte
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpEqFold:
		return "eqfold"
	case OpIn:
		return "in"
	case OpGte:
		return "gte"
	case OpLte:
		return "lte"
	}
	return "unknown"
}

// Predicate is a single condition on one field.
type Predicate struct {
	Field  string
	Op     Op
	Value  any
	Values []any
}

// Filter is a conjunction of predicates. An empty filter matches everything.
type Filter []Predicate

// Eq matches field == v.
func Eq(field string, v any) Predicate {
	return Predicate{Field: field, Op: OpEq, Value: v}
}

// EqFold matches field equal to s ignoring case.
func EqFold(field, s string) Predicate {
	return Predicate{Field: field, Op: OpEqFold, Value: s}
}

// In matches field equal to any of vs.
func In[T any](field string, vs ...T) Predicate {
	values := make([]any, len(vs))
	for i, v := range vs {
		values[i] = v
	}
	return Predicate{Field: field, Op: OpIn, Values: values}
}

// Gte matches field >= v.
func Gte(field string, v any) Predicate {
	return Predicate{Field: field, Op: OpGte, Value: v}
}

// Lte matches field <= v.
func Lte(field string, v any) Predicate {
	return Predicate{Field: field, Op: OpLte, Value: v}
}

// ByID matches the document with id.
func ByID(id ID) Filter {
	return Filter{Eq(KeyID, id)}
}
