package upstream

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrap(t *testing.T) {
	if Wrap("spotify", "search", 0, nil) != nil {
		t.Fatal("Wrap(nil) should return nil")
	}

	err := Wrap("spotify", "search", 502, errors.New("bad gateway"))
	if !Is(err) {
		t.Fatalf("Is(%v) = false, want true", err)
	}
	if got, want := err.Error(), "spotify: search failed (502): bad gateway"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	// Wrapping again keeps the innermost service details.
	again := Wrap("gemini", "generate", 0, fmt.Errorf("outer: %w", err))
	var ue *Error
	if !errors.As(again, &ue) || ue.Service != "spotify" {
		t.Errorf("rewrapped error lost its service: %v", again)
	}
}

func TestError_Unwrap(t *testing.T) {
	err := Wrap("gemini", "generate", 0, context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("errors.Is(%v, DeadlineExceeded) = false", err)
	}
	if got, want := err.Error(), "gemini: generate failed: context deadline exceeded"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if Is(errors.New("plain")) {
		t.Error("Is(plain error) = true, want false")
	}
}
