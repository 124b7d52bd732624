package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestValidationError(t *testing.T) {
	// Test with field
	err := NewValidationError("city", "city is required")
	expectedMsg := "validation error for field 'city': city is required"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Test without field
	err2 := NewValidationError("", "general validation error")
	expectedMsg2 := "validation error: general validation error"
	if err2.Error() != expectedMsg2 {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg2, err2.Error())
	}

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("Expected error to match ErrInvalidInput sentinel")
	}
	if errors.Is(err, ErrUpstream) {
		t.Error("Validation error should not match ErrUpstream")
	}
}

func TestUpstreamError(t *testing.T) {
	err := NewUpstreamError("live", "Invalid or unsupported city", "Failed to load live hotels", nil)
	expectedMsg := "live source failed: Invalid or unsupported city"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrUpstream) {
		t.Error("Expected error to match ErrUpstream sentinel")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("Plain upstream error should not match ErrTimeout")
	}

	// Empty message falls back
	fallback := NewUpstreamError("local", "", "Failed to load local hotels", nil)
	if fallback.Message != "Failed to load local hotels" {
		t.Errorf("Expected fallback message, got '%s'", fallback.Message)
	}

	// Status code is reported
	withStatus := &UpstreamError{Source: "live", Message: "boom", StatusCode: 500}
	if withStatus.Error() != "live source failed (status 500): boom" {
		t.Errorf("Unexpected message '%s'", withStatus.Error())
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamError("live", "", "Failed to load live hotels", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected upstream error to unwrap to its cause")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("live", 30*time.Second)
	expectedMsg := "live source did not respond within 30s"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrTimeout) {
		t.Error("Expected error to match ErrTimeout sentinel")
	}
	if !errors.Is(err, ErrUpstream) {
		t.Error("Expected timeout to also match ErrUpstream sentinel")
	}
	if !IsRetryable(err) {
		t.Error("Expected timeout to be retryable")
	}
}

func TestOperationInProgressError(t *testing.T) {
	err := NewOperationInProgressError("load more")
	expectedMsg := "cannot load more: another request is still in flight"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrOperationInProgress) {
		t.Error("Expected error to match ErrOperationInProgress sentinel")
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransitionError("load more", "combined")
	expectedMsg := "cannot load more while source is 'combined'"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrInvalidTransition) {
		t.Error("Expected error to match ErrInvalidTransition sentinel")
	}
	if IsRetryable(err) {
		t.Error("State errors should not be retryable")
	}
}

func TestSessionNotFoundError(t *testing.T) {
	err := NewSessionNotFoundError("abc")
	expectedMsg := "session with ID 'abc' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected error to match ErrSessionNotFound sentinel")
	}
}

func TestErrorWrapping(t *testing.T) {
	originalErr := NewUpstreamError("live", "quota exceeded", "", nil)
	wrappedErr := fmt.Errorf("search failed: %w", originalErr)

	if !errors.Is(wrappedErr, ErrUpstream) {
		t.Error("Expected wrapped error to match ErrUpstream sentinel")
	}

	var upstreamErr *UpstreamError
	if !errors.As(wrappedErr, &upstreamErr) {
		t.Fatal("Expected to extract UpstreamError from wrapped error")
	}
	if upstreamErr.Message != "quota exceeded" {
		t.Errorf("Expected message 'quota exceeded', got '%s'", upstreamErr.Message)
	}
	if !IsRetryable(wrappedErr) {
		t.Error("Expected upstream failures to be retryable")
	}
}
