// Package api provides validation utilities for API request handling.
package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gcbaptista/go-hotel-search/model"
	"github.com/gcbaptista/go-hotel-search/services"
)

const maxAdults = 30

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// SearchRequest is the body of POST /sessions/:sessionId/search
type SearchRequest struct {
	Source   string `json:"source"`
	City     string `json:"city"`
	CheckIn  string `json:"checkin"`
	CheckOut string `json:"checkout"`
	Adults   int    `json:"adults"`
}

// Params returns the search parameters carried by the request
func (r SearchRequest) Params() services.SearchParams {
	return services.SearchParams{City: r.City, CheckIn: r.CheckIn, CheckOut: r.CheckOut, Adults: r.Adults}
}

// RefreshRequest is the optional body of POST /sessions/:sessionId/refresh.
// An empty body refreshes with the parameters of the last search.
type RefreshRequest struct {
	City     string `json:"city"`
	CheckIn  string `json:"checkin"`
	CheckOut string `json:"checkout"`
	Adults   int    `json:"adults"`
}

// Params returns the search parameters carried by the request
func (r RefreshRequest) Params() services.SearchParams {
	return services.SearchParams{City: r.City, CheckIn: r.CheckIn, CheckOut: r.CheckOut, Adults: r.Adults}
}

// ViewRequest is the body of PATCH /sessions/:sessionId/view. Omitted fields are unchanged.
type ViewRequest struct {
	Query        *string  `json:"query"`
	SortField    *string  `json:"sort_field"`
	SortOrder    *string  `json:"sort_order"`
	TargetRating *float64 `json:"target_rating"`
	TargetPrice  *float64 `json:"target_price"`
	K            *int     `json:"k"`
	Theme        *string  `json:"theme"`
}

// ValidateSessionID validates a session ID path parameter
func ValidateSessionID(sessionID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if sessionID == "" {
		result.AddError("sessionId", "Session ID is required")
		return result
	}

	if _, err := uuid.Parse(sessionID); err != nil {
		result.AddError("sessionId", "Session ID must be a UUID")
		return result
	}

	return result
}

// ValidateSearchRequest checks the parts of a search request that the
// session does not validate itself.
func ValidateSearchRequest(req *SearchRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch model.SourceState(strings.ToLower(strings.TrimSpace(req.Source))) {
	case model.SourceLive, model.SourceLocal:
	case "":
		result.AddError("source", "Source is required ('live' or 'local')")
	default:
		result.AddError("source", "Source must be 'live' or 'local', got '"+req.Source+"'")
	}

	validateAdults(result, req.Adults)
	return result
}

// ValidateRefreshRequest validates a refresh request body
func ValidateRefreshRequest(req *RefreshRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}
	validateAdults(result, req.Adults)
	return result
}

// ValidateViewRequest validates a view update request
func ValidateViewRequest(req *ViewRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req.Query == nil && req.SortField == nil && req.SortOrder == nil && req.TargetRating == nil &&
		req.TargetPrice == nil && req.K == nil && req.Theme == nil {
		result.AddError("request_body", "At least one view setting must be provided")
		return result
	}

	if req.TargetRating != nil && (*req.TargetRating < 0 || *req.TargetRating > 5) {
		result.AddError("target_rating", "Target rating must be between 0 and 5")
	}
	if req.TargetPrice != nil && *req.TargetPrice < 0 {
		result.AddError("target_price", "Target price cannot be negative")
	}

	return result
}

func validateAdults(result *ValidationResult, adults int) {
	if adults < 0 {
		result.AddError("adults", "Adults cannot be negative")
	} else if adults > maxAdults {
		result.AddError("adults", "Adults cannot exceed 30")
	}
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}
