package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		status   int
	}{
		{"not found", &NotFoundError{Message: "folder missing"}, ErrNotFound, http.StatusNotFound},
		{"validation", &ValidationError{Message: "bad name"}, ErrValidation, http.StatusBadRequest},
		{"forbidden", &ForbiddenError{Message: "no access"}, ErrForbidden, http.StatusForbidden},
		{"conflict", &ConflictError{Message: "duplicate", ResourceType: "folder", ResourceID: "f1"}, ErrConflict, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.sentinel) {
				t.Errorf("errors.Is(%T, sentinel) = false, want true", tc.err)
			}
			httpErr, ok := tc.err.(HTTPError)
			if !ok {
				t.Fatalf("%T does not implement HTTPError", tc.err)
			}
			if httpErr.StatusCode() != tc.status {
				t.Errorf("StatusCode() = %d, want %d", httpErr.StatusCode(), tc.status)
			}
		})
	}
}

func TestWrappedSentinelsSurviveFmtErrorf(t *testing.T) {
	err := fmt.Errorf("folder abc: %w", ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped sentinel should still match ErrNotFound")
	}
	if errors.Is(err, ErrConflict) {
		t.Error("wrapped sentinel must not match a different sentinel")
	}
}
