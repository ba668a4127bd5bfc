package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindMatchesThroughWrapping(t *testing.T) {
	base := Conflict("time slot already taken")
	wrapped := fmt.Errorf("scheduling event: %w", base)

	if !errors.Is(wrapped, KindConflict) {
		t.Fatalf("expected wrapped error to match KindConflict")
	}
	if errors.Is(wrapped, KindNotFound) {
		t.Fatalf("conflict error must not match KindNotFound")
	}
}

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	err := ExternalService("calendar insert failed", cause)

	if KindOf(err) != KindExternalService {
		t.Fatalf("expected external_service kind, got %v", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause preserved in chain")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected plain error to report unknown kind")
	}
}

func TestMessageOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("family not found"))
	if MessageOf(err) != "family not found" {
		t.Fatalf("expected inner message, got %q", MessageOf(err))
	}
	if MessageOf(nil) != "" {
		t.Fatalf("expected empty message for nil error")
	}
}
