// Package upstream implements the data collaborators behind a search session:
// an HTTP client for the hotel backend and an in-process CSV dataset.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/gcbaptista/go-hotel-search/internal/errors"
	"github.com/gcbaptista/go-hotel-search/model"
	"github.com/gcbaptista/go-hotel-search/services"
)

// Default backend routes.
const (
	DefaultLivePath    = "/live_recommend"
	DefaultRefreshPath = "/refresh"
	DefaultLocalPath   = "/oyo_hotels"
)

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 64 << 10

// Client talks to the hotel backend over HTTP. It serves as both the live
// source and, when no local dataset is configured, the remote local source.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
	maxAttempts int
	retryDelay  time.Duration

	livePath    string
	refreshPath string
	localPath   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit throttles outgoing requests. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry retries transport failures and 5xx responses with exponential backoff.
func WithRetry(maxAttempts int, baseDelay time.Duration) ClientOption {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			c.retryDelay = baseDelay
		}
	}
}

// WithPaths overrides the backend routes. Empty values keep the defaults.
func WithPaths(live, refresh, local string) ClientOption {
	return func(c *Client) {
		if live != "" {
			c.livePath = live
		}
		if refresh != "" {
			c.refreshPath = refresh
		}
		if local != "" {
			c.localPath = local
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		logger:      slog.Default(),
		maxAttempts: 1,
		retryDelay:  200 * time.Millisecond,
		livePath:    DefaultLivePath,
		refreshPath: DefaultRefreshPath,
		localPath:   DefaultLocalPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type liveRequest struct {
	City         string `json:"city"`
	CheckInDate  string `json:"checkin_date"`
	CheckOutDate string `json:"checkout_date"`
	Adults       int    `json:"adults"`
}

type localRequest struct {
	City     string `json:"city"`
	CheckIn  string `json:"checkin,omitempty"`
	CheckOut string `json:"checkout,omitempty"`
	Adults   int    `json:"adults"`
}

type hotelsResponse struct {
	Hotels     []model.Listing `json:"hotels"`
	FromCache  bool            `json:"from_cache"`
	Refreshed  bool            `json:"refreshed"`
	HotelCount int             `json:"hotel_count"`
	Message    string          `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// FetchLive returns live listings, possibly served from the backend cache.
func (c *Client) FetchLive(ctx context.Context, params services.SearchParams) (services.Batch, error) {
	params = params.Normalized()
	return c.post(ctx, "live", c.livePath, liveRequest{
		City:         params.City,
		CheckInDate:  params.CheckIn,
		CheckOutDate: params.CheckOut,
		Adults:       params.Adults,
	})
}

// ForceRefresh returns live listings fetched past the backend cache.
func (c *Client) ForceRefresh(ctx context.Context, params services.SearchParams) (services.Batch, error) {
	params = params.Normalized()
	batch, err := c.post(ctx, "live", c.refreshPath, liveRequest{
		City:         params.City,
		CheckInDate:  params.CheckIn,
		CheckOutDate: params.CheckOut,
		Adults:       params.Adults,
	})
	batch.FromCache = false
	return batch, err
}

// FetchLocal returns the backend's static dataset listings for the city.
func (c *Client) FetchLocal(ctx context.Context, params services.SearchParams) (services.Batch, error) {
	params = params.Normalized()
	batch, err := c.post(ctx, "local", c.localPath, localRequest{
		City:     params.City,
		CheckIn:  params.CheckIn,
		CheckOut: params.CheckOut,
		Adults:   params.Adults,
	})
	batch.FromCache = false
	return batch, err
}

func (c *Client) post(ctx context.Context, source, path string, body interface{}) (services.Batch, error) {
	payload, err := gojson.Marshal(body)
	if err != nil {
		return services.Batch{}, fmt.Errorf("failed to encode %s request: %w", source, err)
	}

	var batch services.Batch
	err = retryWithBackoff(ctx, c.logger, c.maxAttempts, c.retryDelay, func() error {
		var attemptErr error
		batch, attemptErr = c.do(ctx, source, path, payload)
		return attemptErr
	})
	if err != nil {
		return services.Batch{}, err
	}
	return batch, nil
}

func (c *Client) do(ctx context.Context, source, path string, payload []byte) (services.Batch, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return services.Batch{}, errors.NewUpstreamError(source, "", "", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return services.Batch{}, fmt.Errorf("failed to build %s request: %w", source, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("upstream request failed", "source", source, "path", path, "error", err)
		return services.Batch{}, errors.NewUpstreamError(source, "", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var body errorResponse
		if len(raw) > 0 {
			_ = gojson.Unmarshal(raw, &body)
		}
		c.logger.Debug("upstream returned error status", "source", source, "path", path, "status", resp.StatusCode, "error", body.Error, "details", body.Details)
		upstreamErr := errors.NewUpstreamError(source, body.Error, "", nil)
		upstreamErr.StatusCode = resp.StatusCode
		return services.Batch{}, upstreamErr
	}

	var decoded hotelsResponse
	if err := gojson.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return services.Batch{}, errors.NewUpstreamError(source, "", "", fmt.Errorf("failed to decode response: %w", err))
	}

	hotels := decoded.Hotels
	if hotels == nil {
		hotels = []model.Listing{}
	}
	c.logger.Debug("upstream request completed", "source", source, "path", path, "hotels", len(hotels), "from_cache", decoded.FromCache, "took", time.Since(start))
	return services.Batch{Hotels: hotels, FromCache: decoded.FromCache}, nil
}
