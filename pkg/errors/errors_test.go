package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeStorageUnavailable, cause, "persisting submission")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Code() != CodeStorageUnavailable {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsUnwrapsThroughChain(t *testing.T) {
	inner := New(CodeDuplicateConflict, "already exists")
	outer := fmt.Errorf("submitting row: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatalf("expected typed error through chain")
	}
	if typed.Code() != CodeDuplicateConflict {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("cycle: %w", New(CodeNotReady, "offline"))
	if !HasCode(err, CodeNotReady) {
		t.Fatalf("expected NOT_READY to be detected")
	}
	if HasCode(err, CodeDelivery) {
		t.Fatalf("unexpected DELIVERY_ERROR match")
	}
	if HasCode(nil, CodeNotReady) {
		t.Fatalf("nil error must not match")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}
