package services

import (
	"context"
	"strings"

	"github.com/gcbaptista/go-hotel-search/internal/errors"
	"github.com/gcbaptista/go-hotel-search/model"
)

// SearchParams are the user-supplied search inputs shared by every upstream call.
type SearchParams struct {
	City     string `json:"city"`
	CheckIn  string `json:"checkin"`  // YYYY-MM-DD
	CheckOut string `json:"checkout"` // YYYY-MM-DD
	Adults   int    `json:"adults"`
}

// Normalized returns a copy with the city trimmed and lowercased and adults defaulted to 1.
func (p SearchParams) Normalized() SearchParams {
	p.City = strings.ToLower(strings.TrimSpace(p.City))
	p.CheckIn = strings.TrimSpace(p.CheckIn)
	p.CheckOut = strings.TrimSpace(p.CheckOut)
	if p.Adults < 1 {
		p.Adults = 1
	}
	return p
}

// ValidateForLocal checks the parameters the local dataset needs.
func (p SearchParams) ValidateForLocal() error {
	if strings.TrimSpace(p.City) == "" {
		return errors.NewValidationError("city", "city is required")
	}
	return nil
}

// ValidateForLive checks the parameters the live backend needs.
func (p SearchParams) ValidateForLive() error {
	if err := p.ValidateForLocal(); err != nil {
		return err
	}
	if strings.TrimSpace(p.CheckIn) == "" {
		return errors.NewValidationError("checkin", "check-in date is required")
	}
	if strings.TrimSpace(p.CheckOut) == "" {
		return errors.NewValidationError("checkout", "check-out date is required")
	}
	return nil
}

// Batch is one upstream response.
type Batch struct {
	Hotels    []model.Listing `json:"hotels"`
	FromCache bool            `json:"from_cache"`
}

// LiveSource fetches listings from the live pricing backend.
type LiveSource interface {
	FetchLive(ctx context.Context, params SearchParams) (Batch, error)
	// ForceRefresh bypasses any upstream cache.
	ForceRefresh(ctx context.Context, params SearchParams) (Batch, error)
}

// LocalSource fetches listings from the static local dataset.
type LocalSource interface {
	FetchLocal(ctx context.Context, params SearchParams) (Batch, error)
}

// SearchObserver is notified after every controller operation completes.
type SearchObserver interface {
	TrackSearchEvent(event model.SearchEvent)
}
