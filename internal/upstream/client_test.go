package upstream

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-hotel-search/internal/errors"
	"github.com/gcbaptista/go-hotel-search/services"
)

var params = services.SearchParams{City: " Mumbai ", CheckIn: "2025-03-01", CheckOut: "2025-03-04"}

func TestClient_FetchLive(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/live_recommend", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, gojson.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"message": "Loaded cached data",
			"hotel_count": 2,
			"from_cache": true,
			"hotels": [
				{"hotelId": "MCBOM1", "Hotel_name": "Sea Palace", "Price": "4500.00", "Final_rating": 4.1},
				{"hotelId": 17, "Hotel_name": "Harbour Inn", "Price": null, "Final_rating": null}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	batch, err := client.FetchLive(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, "mumbai", received["city"])
	assert.Equal(t, "2025-03-01", received["checkin_date"])
	assert.Equal(t, "2025-03-04", received["checkout_date"])
	assert.Equal(t, float64(1), received["adults"])

	assert.True(t, batch.FromCache)
	require.Len(t, batch.Hotels, 2)
	id, ok := batch.Hotels[1].GetID()
	assert.True(t, ok)
	assert.Equal(t, "17", id)
	assert.Equal(t, "4500.00", batch.Hotels[0]["Price"])
	assert.Nil(t, batch.Hotels[1]["Price"])
}

func TestClient_ForceRefreshAndLocal(t *testing.T) {
	paths := make(chan string, 2)
	bodies := make(chan map[string]interface{}, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = gojson.NewDecoder(r.Body).Decode(&body)
		paths <- r.URL.Path
		bodies <- body
		_, _ = w.Write([]byte(`{"hotels": [{"hotelId": "x"}], "from_cache": true, "refreshed": true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	batch, err := client.ForceRefresh(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "/refresh", <-paths)
	assert.Equal(t, "mumbai", (<-bodies)["city"])
	assert.False(t, batch.FromCache, "refresh is never served from cache")

	batch, err = client.FetchLocal(context.Background(), services.SearchParams{City: "Goa", Adults: 2})
	require.NoError(t, err)
	assert.Equal(t, "/oyo_hotels", <-paths)
	body := <-bodies
	assert.Equal(t, "goa", body["city"])
	assert.Equal(t, float64(2), body["adults"])
	assert.NotContains(t, body, "checkin")
	assert.False(t, batch.FromCache)
	assert.Len(t, batch.Hotels, 1)
}

func TestClient_CustomPaths(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/live", r.URL.Path)
		_, _ = w.Write([]byte(`{"hotels": null}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithPaths("/api/live", "", ""))
	batch, err := client.FetchLive(context.Background(), params)
	require.NoError(t, err)
	assert.NotNil(t, batch.Hotels)
	assert.Empty(t, batch.Hotels)
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedMessage string
	}{
		{"error field surfaced", http.StatusBadRequest, `{"error": "Invalid or unsupported city"}`, "Invalid or unsupported city"},
		{"details are not the message", http.StatusInternalServerError, `{"error": "Failed fetching hotels", "details": "timeout"}`, "Failed fetching hotels"},
		{"non json body", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
		{"empty body", http.StatusInternalServerError, ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).FetchLive(context.Background(), params)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrUpstream)

			var upstream *errors.UpstreamError
			require.True(t, stderrors.As(err, &upstream))
			assert.Equal(t, tt.status, upstream.StatusCode)
			assert.Equal(t, tt.expectedMessage, upstream.Message)
			assert.Equal(t, "live", upstream.Source)
		})
	}
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hotels": [`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).FetchLocal(context.Background(), params)
	assert.ErrorIs(t, err, errors.ErrUpstream)
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).FetchLive(context.Background(), params)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUpstream)
	assert.True(t, errors.IsRetryable(err))
}

func TestClient_RetriesServerErrorsOnly(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"hotels": [{"hotelId": "ok"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRetry(3, time.Millisecond))
	batch, err := client.FetchLive(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, batch.Hotels, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	var badRequests int32
	badServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&badRequests, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer badServer.Close()

	_, err = NewClient(badServer.URL, WithRetry(3, time.Millisecond)).FetchLive(context.Background(), params)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&badRequests), "4xx responses are not retried")
}

func TestClient_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hotels": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRateLimit(20, 1))
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.FetchLive(context.Background(), params)
		require.NoError(t, err)
	}
	// burst of 1 at 20 rps: the 2nd and 3rd requests wait ~50ms each
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL, WithRetry(3, time.Millisecond)).FetchLive(ctx, params)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
