package source

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	apperrors "github.com/gcbaptista/go-hotel-search/internal/errors"
	"github.com/gcbaptista/go-hotel-search/model"
	"github.com/gcbaptista/go-hotel-search/services"
)

// DefaultTimeout bounds every upstream call made by a Controller.
const DefaultTimeout = 30 * time.Second

const (
	sourceLive  = "live"
	sourceLocal = "local"
)

// Fallback messages used when an upstream failure carries no reason of its own.
const (
	msgLiveFailed          = "Failed to load live hotels"
	msgLocalFailed         = "Failed to load local hotels"
	msgRefreshFailed       = "Failed to refresh data"
	msgLoadMoreLiveFailed  = "Failed to load more live hotels"
	msgLoadMoreLocalFailed = "Failed to load more local hotels"
)

var (
	ErrLiveSourceRequired  = errors.New("live source is required")
	ErrLocalSourceRequired = errors.New("local source is required")
)

// Controller owns the listing collection of one search session. It decides
// which upstream collaborator is queried, tracks the active source and merges
// load-more batches. At most one primary search (search or refresh) and one
// load-more may be in flight, and never both at once.
type Controller struct {
	live     services.LiveSource
	local    services.LocalSource
	logger   *slog.Logger
	observer services.SearchObserver
	timeout  time.Duration

	searchSem *semaphore.Weighted
	moreSem   *semaphore.Weighted

	mu          sync.RWMutex
	state       model.SourceState
	listings    []model.Listing
	fromCache   bool
	loading     bool
	loadingMore bool
	params      services.SearchParams
	hasParams   bool
	revision    uint64
}

// Option configures a Controller.
type Option func(*Controller) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithTimeout bounds each upstream call. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) error {
		if timeout > 0 {
			c.timeout = timeout
		}
		return nil
	}
}

// WithObserver registers a receiver for one event per completed operation.
func WithObserver(observer services.SearchObserver) Option {
	return func(c *Controller) error {
		c.observer = observer
		return nil
	}
}

// NewController creates a controller in the empty state.
func NewController(live services.LiveSource, local services.LocalSource, opts ...Option) (*Controller, error) {
	if live == nil {
		return nil, ErrLiveSourceRequired
	}
	if local == nil {
		return nil, ErrLocalSourceRequired
	}

	c := &Controller{
		live:      live,
		local:     local,
		logger:    slog.Default(),
		timeout:   DefaultTimeout,
		searchSem: semaphore.NewWeighted(1),
		moreSem:   semaphore.NewWeighted(1),
		state:     model.SourceNone,
		listings:  []model.Listing{},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// SearchLive replaces the collection with a fresh batch from the live backend.
// The collection is cleared when the request starts; on failure the previous
// source state comes back but the collection stays empty.
func (c *Controller) SearchLive(ctx context.Context, params services.SearchParams) error {
	if err := params.ValidateForLive(); err != nil {
		return err
	}
	return c.primarySearch(ctx, model.ActionSearchLive, params.Normalized(), true)
}

// SearchLocal replaces the collection with the local dataset's listings for the city.
func (c *Controller) SearchLocal(ctx context.Context, params services.SearchParams) error {
	if err := params.ValidateForLocal(); err != nil {
		return err
	}
	return c.primarySearch(ctx, model.ActionSearchLocal, params.Normalized(), false)
}

func (c *Controller) primarySearch(ctx context.Context, action model.SearchAction, params services.SearchParams, live bool) error {
	if err := c.beginPrimary(string(action)); err != nil {
		return err
	}
	defer c.searchSem.Release(1)

	c.mu.Lock()
	prior := c.state
	c.listings = []model.Listing{}
	c.revision++
	c.mu.Unlock()

	start := time.Now()
	var (
		batch services.Batch
		err   error
	)
	if live {
		batch, err = c.fetch(ctx, sourceLive, msgLiveFailed, func(ctx context.Context) (services.Batch, error) {
			return c.live.FetchLive(ctx, params)
		})
	} else {
		batch, err = c.fetch(ctx, sourceLocal, msgLocalFailed, func(ctx context.Context) (services.Batch, error) {
			return c.local.FetchLocal(ctx, params)
		})
	}

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.state = prior
		c.mu.Unlock()
		c.logger.Warn("search failed", "action", action, "city", params.City, "error", err)
		c.track(action, prior, params.City, start, 0, false, err)
		return err
	}

	c.listings = ownedListings(batch.Hotels)
	c.revision++
	c.params = params
	c.hasParams = true
	if live {
		c.state = model.SourceLive
		c.fromCache = batch.FromCache
	} else {
		c.state = model.SourceLocal
		c.fromCache = false
	}
	state := c.state
	count := len(c.listings)
	fromCache := c.fromCache
	c.mu.Unlock()

	c.logger.Info("search completed", "action", action, "city", params.City, "hotels", count, "from_cache", fromCache, "took", time.Since(start))
	c.track(action, state, params.City, start, count, fromCache, nil)
	return nil
}

// Refresh fetches live listings bypassing the upstream cache. The collection is
// replaced only when the request succeeds.
func (c *Controller) Refresh(ctx context.Context, params services.SearchParams) error {
	if err := params.ValidateForLive(); err != nil {
		return err
	}
	params = params.Normalized()

	if err := c.beginPrimary("refresh"); err != nil {
		return err
	}
	defer c.searchSem.Release(1)

	start := time.Now()
	batch, err := c.fetch(ctx, sourceLive, msgRefreshFailed, func(ctx context.Context) (services.Batch, error) {
		return c.live.ForceRefresh(ctx, params)
	})

	c.mu.Lock()
	c.loading = false
	if err != nil {
		state := c.state
		c.mu.Unlock()
		c.logger.Warn("refresh failed", "city", params.City, "error", err)
		c.track(model.ActionRefresh, state, params.City, start, 0, false, err)
		return err
	}

	c.listings = ownedListings(batch.Hotels)
	c.revision++
	c.params = params
	c.hasParams = true
	c.state = model.SourceLive
	c.fromCache = false
	count := len(c.listings)
	c.mu.Unlock()

	c.logger.Info("refresh completed", "city", params.City, "hotels", count, "took", time.Since(start))
	c.track(model.ActionRefresh, model.SourceLive, params.City, start, count, false, nil)
	return nil
}

// LoadMore fetches from the source not currently shown and merges the batch
// into the collection, landing in the combined state. It uses the parameters
// of the last successful search or refresh.
func (c *Controller) LoadMore(ctx context.Context) error {
	if !c.moreSem.TryAcquire(1) {
		return apperrors.NewOperationInProgressError("load more")
	}
	defer c.moreSem.Release(1)

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return apperrors.NewOperationInProgressError("load more")
	}
	from := c.state
	if from != model.SourceLive && from != model.SourceLocal {
		c.mu.Unlock()
		return apperrors.NewInvalidTransitionError("load more", string(from))
	}
	if !c.hasParams {
		c.mu.Unlock()
		return apperrors.NewValidationError("params", "no previous search to load more for")
	}
	params := c.params
	var err error
	if from == model.SourceLocal {
		err = params.ValidateForLive()
	} else {
		err = params.ValidateForLocal()
	}
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.loadingMore = true
	c.mu.Unlock()

	start := time.Now()
	var batch services.Batch
	if from == model.SourceLocal {
		batch, err = c.fetch(ctx, sourceLive, msgLoadMoreLiveFailed, func(ctx context.Context) (services.Batch, error) {
			return c.live.FetchLive(ctx, params)
		})
	} else {
		batch, err = c.fetch(ctx, sourceLocal, msgLoadMoreLocalFailed, func(ctx context.Context) (services.Batch, error) {
			return c.local.FetchLocal(ctx, params)
		})
	}

	c.mu.Lock()
	c.loadingMore = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("load more failed", "from", from, "city", params.City, "error", err)
		c.track(model.ActionLoadMore, from, params.City, start, 0, false, err)
		return err
	}

	merged, added := MergeListings(c.listings, batch.Hotels)
	c.listings = merged
	c.revision++
	c.state = model.SourceCombined
	if from == model.SourceLocal {
		c.fromCache = batch.FromCache
	}
	fromCache := c.fromCache
	total := len(merged)
	c.mu.Unlock()

	c.logger.Info("load more completed", "from", from, "city", params.City, "added", added, "dropped", len(batch.Hotels)-added, "total", total)
	c.track(model.ActionLoadMore, model.SourceCombined, params.City, start, added, fromCache, nil)
	return nil
}

// Snapshot returns a consistent copy of the controller state.
func (c *Controller) Snapshot() model.SourceSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	listings := make([]model.Listing, len(c.listings))
	copy(listings, c.listings)
	return model.SourceSnapshot{
		Source:      c.state,
		FromCache:   c.fromCache,
		Loading:     c.loading,
		LoadingMore: c.loadingMore,
		Revision:    c.revision,
		Listings:    listings,
	}
}

// Params returns the parameters of the last successful search, if any.
func (c *Controller) Params() (services.SearchParams, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params, c.hasParams
}

// CanLoadMore reports whether LoadMore would be accepted right now.
func (c *Controller) CanLoadMore() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.loading || c.loadingMore || !c.hasParams {
		return false
	}
	switch c.state {
	case model.SourceLocal:
		return c.params.ValidateForLive() == nil
	case model.SourceLive:
		return c.params.ValidateForLocal() == nil
	}
	return false
}

// beginPrimary claims the primary-search slot and sets the loading flag.
// The caller must release searchSem.
func (c *Controller) beginPrimary(action string) error {
	if !c.searchSem.TryAcquire(1) {
		return apperrors.NewOperationInProgressError(action)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadingMore {
		c.searchSem.Release(1)
		return apperrors.NewOperationInProgressError(action)
	}
	c.loading = true
	return nil
}

// fetch runs one upstream call under the controller timeout and normalizes
// its failure into an UpstreamError or TimeoutError.
func (c *Controller) fetch(ctx context.Context, source, fallback string, call func(context.Context) (services.Batch, error)) (services.Batch, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	batch, err := call(callCtx)
	if err == nil {
		return batch, nil
	}

	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return services.Batch{}, apperrors.NewTimeoutError(source, c.timeout)
	}
	if errors.Is(err, apperrors.ErrTimeout) {
		return services.Batch{}, err
	}

	var upstream *apperrors.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.Message != "" {
			return services.Batch{}, err
		}
		filled := *upstream
		filled.Message = fallback
		return services.Batch{}, &filled
	}
	return services.Batch{}, apperrors.NewUpstreamError(source, "", fallback, err)
}

func (c *Controller) track(action model.SearchAction, state model.SourceState, city string, start time.Time, count int, fromCache bool, err error) {
	if c.observer == nil {
		return
	}
	event := model.SearchEvent{
		Action:       action,
		Source:       state,
		City:         city,
		ResponseTime: time.Since(start),
		ResultCount:  count,
		FromCache:    fromCache,
		Timestamp:    time.Now(),
	}
	if err != nil {
		event.Failed = true
		event.Error = err.Error()
	}
	c.observer.TrackSearchEvent(event)
}

// ownedListings copies the batch slice so later appends never alias upstream memory.
func ownedListings(hotels []model.Listing) []model.Listing {
	out := make([]model.Listing, len(hotels))
	copy(out, hotels)
	return out
}
