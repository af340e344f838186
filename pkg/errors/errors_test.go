package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForCoversEveryCode(t *testing.T) {
	want := map[Code]int{
		CodeValidation:    http.StatusBadRequest,
		CodeNotFound:      http.StatusNotFound,
		CodeStateConflict: http.StatusUnprocessableEntity,
		CodeIdempotency:   http.StatusConflict,
		CodeInternal:      http.StatusInternalServerError,
		CodeDependency:    http.StatusServiceUnavailable,
	}
	if len(want) != len(metadataByCode) {
		t.Fatalf("metadata table has %d codes, expected %d", len(metadataByCode), len(want))
	}
	for code, status := range want {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Errorf("%s: expected status %d, got %d", code, status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("RATE_LIMIT_EXCEEDED"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
	if meta.DetailsAllowed {
		t.Fatal("fallback metadata must not leak details")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("row missing")
	err := Wrap(CodeNotFound, cause, "pallet not found")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	typed := As(fmt.Errorf("outer: %w", err))
	if typed == nil || typed.Code() != CodeNotFound {
		t.Fatalf("expected typed error through the chain, got %v", typed)
	}
}

func TestWithDetailsRoundTrip(t *testing.T) {
	err := New(CodeStateConflict, "carton miss").WithDetails(map[string]any{"required": 6})
	details, ok := err.Details().(map[string]any)
	if !ok || details["required"] != 6 {
		t.Fatalf("expected details to round-trip, got %v", err.Details())
	}
}

func TestAsNilAndUntyped(t *testing.T) {
	if As(nil) != nil {
		t.Fatal("nil error must yield nil")
	}
	if As(fmt.Errorf("plain")) != nil {
		t.Fatal("untyped error must yield nil")
	}
}
