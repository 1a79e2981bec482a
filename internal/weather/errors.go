package weather

import (
	"fmt"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// Kind classifies an Error.
type Kind int

const (
	// KindValidation is malformed or missing input.
	KindValidation Kind = iota + 1
	// KindConflict is a uniqueness or referential integrity violation.
	KindConflict
	// KindNotFound is a referenced or scoped entity that does not exist.
	KindNotFound
	// KindInvalidID is a malformed opaque identifier.
	KindInvalidID
	// KindStore is an unexpected persistence failure.
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not found"
	case KindInvalidID:
		return "invalid identifier"
	case KindStore:
		return "store"
	}
	return "unknown"
}

// Error is the error type returned by every Service operation. Msg is safe
// to show to clients; Err carries the underlying cause, if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrInvalidID  = &Error{Kind: KindInvalidID}
	ErrStore      = &Error{Kind: KindStore}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels (errors with no message) by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

func validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// ParseID parses a client-supplied identifier, failing with KindInvalidID.
func ParseID(s string) (docstore.ID, error) {
	id, err := docstore.ParseID(s)
	if err != nil {
		return docstore.NilID, &Error{Kind: KindInvalidID, Msg: "invalid identifier format", Err: err}
	}
	return id, nil
}
