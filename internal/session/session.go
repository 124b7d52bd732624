package session

import (
	"context"
	stderrors "errors"
	"math"
	"sync"
	"time"

	"github.com/gcbaptista/go-hotel-search/internal/errors"
	"github.com/gcbaptista/go-hotel-search/internal/ranking"
	"github.com/gcbaptista/go-hotel-search/internal/source"
	"github.com/gcbaptista/go-hotel-search/model"
	"github.com/gcbaptista/go-hotel-search/services"
)

// Default view settings for a new session.
const (
	DefaultTargetRating = 4.0
	DefaultTargetPrice  = 1500.0
	DefaultK            = 15
)

// DefaultView returns the view a new session starts with.
func DefaultView() model.View {
	return model.View{
		SortField: model.SortFieldRating,
		SortOrder: model.SortOrderDesc,
		Target: model.RelevanceTarget{
			Rating: DefaultTargetRating,
			Price:  DefaultTargetPrice,
			K:      DefaultK,
		},
		Theme: model.ThemeLight,
	}
}

// ViewUpdate changes some view settings. Nil fields are left as they are.
type ViewUpdate struct {
	Query        *string
	SortField    *string
	SortOrder    *string
	TargetRating *float64
	TargetPrice  *float64
	K            *int
	Theme        *string
}

// Session is the explicit context object for one user's search: the source
// controller, the memoized ranking pipeline and the view settings.
type Session struct {
	ID        string
	CreatedAt time.Time

	controller *source.Controller
	pipeline   *ranking.Pipeline

	mu       sync.RWMutex
	view     model.View
	lastUsed time.Time
}

func newSession(id string, controller *source.Controller, view model.View) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		controller: controller,
		pipeline:   ranking.NewPipeline(),
		view:       view,
		lastUsed:   now,
	}
}

// Search starts a new primary search against the live or local source.
// The text query is reset once the search has been issued, whether or not
// the upstream call succeeded.
func (s *Session) Search(ctx context.Context, src model.SourceState, params services.SearchParams) error {
	s.touch()

	var search func(context.Context, services.SearchParams) error
	switch src {
	case model.SourceLive:
		search = s.controller.SearchLive
	case model.SourceLocal:
		search = s.controller.SearchLocal
	default:
		return errors.NewValidationError("source", "source must be 'live' or 'local'")
	}

	err := search(ctx, params)
	if err == nil || stderrors.Is(err, errors.ErrUpstream) {
		s.mu.Lock()
		s.view.Query = ""
		s.mu.Unlock()
	}
	return err
}

// Refresh re-fetches live listings bypassing the upstream cache.
func (s *Session) Refresh(ctx context.Context, params services.SearchParams) error {
	s.touch()
	return s.controller.Refresh(ctx, params)
}

// LoadMore merges listings from the other source into the collection.
func (s *Session) LoadMore(ctx context.Context) error {
	s.touch()
	return s.controller.LoadMore(ctx)
}

// UpdateView applies update atomically: either every field is applied or,
// when any field is invalid, none is.
func (s *Session) UpdateView(update ViewUpdate) (model.View, error) {
	s.touch()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.view
	if update.Query != nil {
		next.Query = *update.Query
	}
	if update.SortField != nil {
		field, err := ranking.ParseSortField(*update.SortField)
		if err != nil {
			return s.view, errors.NewValidationError("sort_field", err.Error())
		}
		next.SortField = field
	}
	if update.SortOrder != nil {
		order, err := ranking.ParseSortOrder(*update.SortOrder)
		if err != nil {
			return s.view, errors.NewValidationError("sort_order", err.Error())
		}
		next.SortOrder = order
	}
	if update.TargetRating != nil {
		if !isFinite(*update.TargetRating) {
			return s.view, errors.NewValidationError("target_rating", "target rating must be a finite number")
		}
		next.Target.Rating = *update.TargetRating
	}
	if update.TargetPrice != nil {
		if !isFinite(*update.TargetPrice) {
			return s.view, errors.NewValidationError("target_price", "target price must be a finite number")
		}
		next.Target.Price = *update.TargetPrice
	}
	if update.K != nil {
		k := *update.K
		if k < 0 {
			k = 0
		}
		next.Target.K = k
	}
	if update.Theme != nil {
		switch theme := model.Theme(*update.Theme); theme {
		case model.ThemeLight, model.ThemeDark:
			next.Theme = theme
		default:
			return s.view, errors.NewValidationError("theme", "theme must be 'light' or 'dark'")
		}
	}

	s.view = next
	return next, nil
}

// View returns the current view settings.
func (s *Session) View() model.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Results runs the ranking pipeline over the current collection.
func (s *Session) Results() model.ResultSet {
	s.touch()

	view := s.View()
	snap := s.controller.Snapshot()
	hotels := s.pipeline.Run(snap.Listings, snap.Revision, snap.Source, view)

	return model.ResultSet{
		SessionID:   s.ID,
		Hotels:      hotels,
		Count:       len(hotels),
		Total:       len(snap.Listings),
		Source:      snap.Source,
		FromCache:   snap.FromCache,
		Loading:     snap.Loading,
		LoadingMore: snap.LoadingMore,
		CanLoadMore: s.controller.CanLoadMore(),
		View:        view,
	}
}

// LastParams returns the parameters of the last successful search.
func (s *Session) LastParams() (services.SearchParams, bool) {
	return s.controller.Params()
}

// LastUsed returns when the session was last accessed.
func (s *Session) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
