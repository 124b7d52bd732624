// Package testing provides fakes and helpers shared by the hotel search tests.
package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gcbaptista/go-hotel-search/model"
	"github.com/gcbaptista/go-hotel-search/services"
)

// Hotel builds a listing with the fields the ranking pipeline reads.
// Pass nil for rating or price to leave the field absent.
func Hotel(id interface{}, name string, rating, price interface{}) model.Listing {
	l := model.Listing{model.FieldID: id}
	if name != "" {
		l[model.FieldName] = name
	}
	if rating != nil {
		l[model.FieldFinalRating] = rating
	}
	if price != nil {
		l[model.FieldPrice] = price
	}
	return l
}

// IDs returns the canonical identifiers of listings in order; listings without
// an identifier contribute an empty string.
func IDs(listings []model.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		id, _ := l.GetID()
		out = append(out, id)
	}
	return out
}

// Call records one request received by a FakeSource.
type Call struct {
	Op     string
	Params services.SearchParams
}

// Operation names recorded by FakeSource.
const (
	OpLive    = "live"
	OpRefresh = "refresh"
	OpLocal   = "local"
)

type fakeResponse struct {
	batch services.Batch
	err   error
}

// FakeSource implements services.LiveSource and services.LocalSource with
// canned responses. When blocking is enabled every call announces itself on
// Started and waits for Unblock or context cancellation.
type FakeSource struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []Call
	block     chan struct{}

	Started chan string
}

// NewFakeSource creates a fake that answers every operation with an empty batch.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		responses: make(map[string]fakeResponse),
		Started:   make(chan string, 16),
	}
}

// SetLive sets the response of FetchLive.
func (f *FakeSource) SetLive(batch services.Batch, err error) { f.set(OpLive, batch, err) }

// SetRefresh sets the response of ForceRefresh.
func (f *FakeSource) SetRefresh(batch services.Batch, err error) { f.set(OpRefresh, batch, err) }

// SetLocal sets the response of FetchLocal.
func (f *FakeSource) SetLocal(batch services.Batch, err error) { f.set(OpLocal, batch, err) }

func (f *FakeSource) set(op string, batch services.Batch, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[op] = fakeResponse{batch: batch, err: err}
}

// Block makes subsequent calls wait until Unblock is called.
func (f *FakeSource) Block() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = make(chan struct{})
}

// Unblock releases every waiting call and stops blocking new ones.
func (f *FakeSource) Unblock() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.block != nil {
		close(f.block)
		f.block = nil
	}
}

// Calls returns a copy of the recorded calls.
func (f *FakeSource) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times op was requested.
func (f *FakeSource) CallCount(op string) int {
	count := 0
	for _, c := range f.Calls() {
		if c.Op == op {
			count++
		}
	}
	return count
}

func (f *FakeSource) FetchLive(ctx context.Context, params services.SearchParams) (services.Batch, error) {
	return f.respond(ctx, OpLive, params)
}

func (f *FakeSource) ForceRefresh(ctx context.Context, params services.SearchParams) (services.Batch, error) {
	return f.respond(ctx, OpRefresh, params)
}

func (f *FakeSource) FetchLocal(ctx context.Context, params services.SearchParams) (services.Batch, error) {
	return f.respond(ctx, OpLocal, params)
}

func (f *FakeSource) respond(ctx context.Context, op string, params services.SearchParams) (services.Batch, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Op: op, Params: params})
	resp := f.responses[op]
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case f.Started <- op:
		default:
		}
		select {
		case <-block:
		case <-ctx.Done():
			return services.Batch{}, ctx.Err()
		}
	}
	return resp.batch, resp.err
}

// WaitForOp waits until a blocked call for op has started.
func WaitForOp(t *testing.T, f *FakeSource, op string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case got := <-f.Started:
			if got == op {
				return
			}
		case <-deadline:
			t.Fatalf("operation %s did not start within %v", op, timeout)
		}
	}
}

// WaitFor polls cond until it holds or the timeout expires.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("condition not met within %v", timeout)
		case <-ticker.C:
		}
	}
}
