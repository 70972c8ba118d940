package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindsMatchWithErrorsIs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"invalid argument", InvalidArgument("id cannot be blank"), ErrInvalidArgument},
		{"not found", NotFound("dish %s", "abc"), ErrNotFound},
		{"conflict", Conflict("dish %s is still referenced", "abc"), ErrConflict},
		{"data integrity", DataIntegrity("ingredient %d has zero base quantity", 4), ErrDataIntegrity},
		{"cycle", &CycleError{DishID: "a", Path: []string{"a", "b", "a"}}, ErrCycleDetected},
		{"wrapped", fmt.Errorf("load dish: %w", NotFound("dish x")), ErrNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !errors.Is(tt.err, tt.kind) {
				t.Fatalf("errors.Is(%v, %v) = false", tt.err, tt.kind)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	err := NotFound("ingredient %d", 7)
	if got := err.Error(); got != "not found: ingredient 7" {
		t.Fatalf("Error() = %q", got)
	}
	if got := Message(err); got != "ingredient 7" {
		t.Fatalf("Message() = %q", got)
	}
	if got := Message(errors.New("boom")); got != "boom" {
		t.Fatalf("Message() = %q", got)
	}

	cycle := &CycleError{DishID: "a", Path: []string{"a", "b", "a"}}
	if got := cycle.Error(); got != "cycle detected: dish a (a -> b -> a)" {
		t.Fatalf("CycleError.Error() = %q", got)
	}
}
