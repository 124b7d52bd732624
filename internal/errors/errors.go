package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common error conditions
var (
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream is returned when a data source request fails
	ErrUpstream = errors.New("upstream request failed")

	// ErrTimeout is returned when a data source does not answer in time
	ErrTimeout = errors.New("upstream request timed out")

	// ErrOperationInProgress is returned when the same kind of operation is already in flight
	ErrOperationInProgress = errors.New("operation already in progress")

	// ErrInvalidTransition is returned when an operation is not allowed in the current source state
	ErrInvalidTransition = errors.New("operation not allowed in current state")

	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError represents a failed request to a data source.
// Message is the human-readable reason shown to the user.
type UpstreamError struct {
	Source     string
	Message    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s source failed (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s source failed: %s", e.Source, e.Message)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates a new UpstreamError. An empty message is replaced by fallback.
func NewUpstreamError(source, message, fallback string, cause error) *UpstreamError {
	if message == "" {
		message = fallback
	}
	return &UpstreamError{Source: source, Message: message, Err: cause}
}

// TimeoutError represents a data source request that exceeded its deadline.
// It matches both ErrTimeout and ErrUpstream and is always retryable.
type TimeoutError struct {
	Source string
	After  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s source did not respond within %s", e.Source, e.After)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout || target == ErrUpstream
}

// Retryable reports whether repeating the triggering action may succeed.
func (e *TimeoutError) Retryable() bool { return true }

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(source string, after time.Duration) *TimeoutError {
	return &TimeoutError{Source: source, After: after}
}

// OperationInProgressError represents a rejected action because one is already running
type OperationInProgressError struct {
	Action string
}

func (e *OperationInProgressError) Error() string {
	return fmt.Sprintf("cannot %s: another request is still in flight", e.Action)
}

func (e *OperationInProgressError) Is(target error) bool {
	return target == ErrOperationInProgress
}

// NewOperationInProgressError creates a new OperationInProgressError
func NewOperationInProgressError(action string) *OperationInProgressError {
	return &OperationInProgressError{Action: action}
}

// InvalidTransitionError represents an action that the current source state does not allow
type InvalidTransitionError struct {
	Action string
	State  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s while source is '%s'", e.Action, e.State)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NewInvalidTransitionError creates a new InvalidTransitionError
func NewInvalidTransitionError(action, state string) *InvalidTransitionError {
	return &InvalidTransitionError{Action: action, State: state}
}

// SessionNotFoundError represents a session not found error with context
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session with ID '%s' not found", e.SessionID)
}

func (e *SessionNotFoundError) Is(target error) bool {
	return target == ErrSessionNotFound
}

// NewSessionNotFoundError creates a new SessionNotFoundError
func NewSessionNotFoundError(sessionID string) *SessionNotFoundError {
	return &SessionNotFoundError{SessionID: sessionID}
}

// IsRetryable reports whether err is a failure that retrying the same action may fix.
func IsRetryable(err error) bool {
	var retryable interface{ Retryable() bool }
	if errors.As(err, &retryable) {
		return retryable.Retryable()
	}
	return errors.Is(err, ErrUpstream)
}
