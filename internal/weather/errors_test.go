package weather

import (
	"errors"
	"fmt"
	"testing"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", conflictf("country %q already exists", "Romania"))

	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		t.Fatalf("matched the wrong kind: %v", err)
	}

	var werr *Error
	if !errors.As(err, &werr) || werr.Msg != `country "Romania" already exists` {
		t.Fatalf("unexpected error %#v", werr)
	}
}

func TestParseIDKind(t *testing.T) {
	_, err := ParseID("bogus")
	if !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected invalid id kind, got %v", err)
	}
	if !errors.Is(err, docstore.ErrInvalidID) {
		t.Fatalf("expected cause to be kept, got %v", err)
	}
}
