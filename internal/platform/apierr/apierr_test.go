package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsUnwrapsThroughWrapping(t *testing.T) {
	base := NotFound("course %s not found", "x")
	wrapped := fmt.Errorf("load course: %w", base)

	apiErr, ok := As(wrapped)
	if !ok {
		t.Fatalf("As: expected apierr through wrapping")
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != CodeNotFound {
		t.Fatalf("status/code: got=%d/%s", apiErr.Status, apiErr.Code)
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := Conflict(CodeDuplicateCourseCode, "code %s already active", "MATH101")
	if !Is(err, CodeDuplicateCourseCode) {
		t.Fatalf("Is: expected match for %q", CodeDuplicateCourseCode)
	}
	if Is(err, CodeNotFound) {
		t.Fatalf("Is: unexpected match for %q", CodeNotFound)
	}
	if Is(errors.New("plain"), CodeNotFound) {
		t.Fatalf("Is: plain errors never match")
	}
}

func TestValidationDefaults(t *testing.T) {
	err := Validation("title is required")
	if err.Status != http.StatusBadRequest || err.Code != CodeValidationFailed {
		t.Fatalf("validation defaults: got=%d/%s", err.Status, err.Code)
	}
	if err.Error() == "" {
		t.Fatalf("error text must not be empty")
	}
}

func TestForbiddenAndConflictStatuses(t *testing.T) {
	if err := Forbidden("nope"); err.Status != http.StatusForbidden {
		t.Fatalf("forbidden status: got=%d", err.Status)
	}
	if err := Conflict(CodeAlreadyEnrolled, "dup"); err.Status != http.StatusConflict {
		t.Fatalf("conflict status: got=%d", err.Status)
	}
}
