package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/gcbaptista/go-hotel-search/internal/errors"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrorCodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	ErrorCodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidJSON         ErrorCode = "INVALID_JSON"
	ErrorCodeOperationInProgress ErrorCode = "OPERATION_IN_PROGRESS"
	ErrorCodeInvalidState        ErrorCode = "INVALID_STATE"
	ErrorCodeRequestCanceled     ErrorCode = "REQUEST_CANCELED"

	// Server Error Codes (5xx)
	ErrorCodeInternalError   ErrorCode = "INTERNAL_ERROR"
	ErrorCodeUpstreamFailed  ErrorCode = "UPSTREAM_FAILED"
	ErrorCodeUpstreamTimeout ErrorCode = "UPSTREAM_TIMEOUT"
)

// statusClientClosedRequest is the non-standard status used when the caller went away
const statusClientClosedRequest = 499

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Retryable bool          `json:"retryable,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	sendErrorResponse(c, statusCode, APIErrorResponse(code, message, details...))
}

func sendErrorResponse(c *gin.Context, statusCode int, errorResponse *APIError) {
	// Add request ID if available
	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			errorResponse.RequestID = id
		}
	}

	c.JSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with structured details
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendSessionNotFoundError sends a standardized session not found error
func SendSessionNotFoundError(c *gin.Context, sessionID string) {
	SendError(c, http.StatusNotFound, ErrorCodeSessionNotFound,
		"Session '"+sessionID+"' not found")
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

// SendOperationError maps an error returned by a session operation to its
// HTTP status and error code.
func SendOperationError(c *gin.Context, operation string, err error) {
	var (
		validationErr *apperrors.ValidationError
		timeoutErr    *apperrors.TimeoutError
		upstreamErr   *apperrors.UpstreamError
		notFoundErr   *apperrors.SessionNotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", ErrorDetail{
			Field:   validationErr.Field,
			Message: validationErr.Message,
			Code:    "VALIDATION_ERROR",
		})
	case errors.As(err, &timeoutErr):
		resp := APIErrorResponse(ErrorCodeUpstreamTimeout, timeoutErr.Error())
		resp.Retryable = true
		sendErrorResponse(c, http.StatusGatewayTimeout, resp)
	case errors.As(err, &upstreamErr):
		resp := APIErrorResponse(ErrorCodeUpstreamFailed, upstreamErr.Message)
		resp.Retryable = apperrors.IsRetryable(err)
		sendErrorResponse(c, http.StatusBadGateway, resp)
	case errors.Is(err, apperrors.ErrOperationInProgress):
		SendError(c, http.StatusConflict, ErrorCodeOperationInProgress, err.Error())
	case errors.Is(err, apperrors.ErrInvalidTransition):
		SendError(c, http.StatusConflict, ErrorCodeInvalidState, err.Error())
	case errors.As(err, &notFoundErr):
		SendSessionNotFoundError(c, notFoundErr.SessionID)
	case errors.Is(err, context.Canceled):
		SendError(c, statusClientClosedRequest, ErrorCodeRequestCanceled, "Request canceled during "+operation)
	default:
		SendInternalError(c, operation, err)
	}
}
