package analytics

import (
	"testing"
	"time"

	"github.com/gcbaptista/go-hotel-search/model"
)

type mockSessionCounter struct {
	count int
}

func (m *mockSessionCounter) Count() int { return m.count }

func TestAnalyticsService_TrackSearchEvent(t *testing.T) {
	service := NewService(nil)

	event := model.SearchEvent{
		Action:       model.ActionSearchLive,
		Source:       model.SourceLive,
		City:         "  Goa ",
		ResponseTime: 50 * time.Millisecond,
		ResultCount:  10,
	}
	service.TrackSearchEvent(event)

	if len(service.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(service.events))
	}

	stored := service.events[0]
	if stored.City != "goa" {
		t.Errorf("Expected city to be normalized to 'goa', got %q", stored.City)
	}
	if stored.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
	if stored.Action != model.ActionSearchLive {
		t.Errorf("Expected action %s, got %s", model.ActionSearchLive, stored.Action)
	}
}

func TestAnalyticsService_KeepsLatestEvents(t *testing.T) {
	service := NewService(nil)

	for i := 0; i < maxEventsToKeep+25; i++ {
		service.TrackSearchEvent(model.SearchEvent{Action: model.ActionSearchLocal, ResultCount: i})
	}

	if len(service.events) != maxEventsToKeep {
		t.Fatalf("Expected %d events, got %d", maxEventsToKeep, len(service.events))
	}
	if first := service.events[0].ResultCount; first != 25 {
		t.Errorf("Expected oldest events to be dropped first, oldest kept is %d", first)
	}
}

func TestAnalyticsService_GetDashboardData(t *testing.T) {
	sessions := &mockSessionCounter{count: 3}
	service := NewService(sessions)

	events := []model.SearchEvent{
		{Action: model.ActionSearchLive, City: "goa", ResponseTime: 100 * time.Millisecond, FromCache: true},
		{Action: model.ActionSearchLive, City: "Goa", ResponseTime: 300 * time.Millisecond},
		{Action: model.ActionSearchLocal, City: "delhi", ResponseTime: 2 * time.Second},
		{Action: model.ActionLoadMore, City: "goa", ResponseTime: 6 * time.Second, Failed: true, Error: "timeout"},
	}
	for _, event := range events {
		service.TrackSearchEvent(event)
	}
	// older than the dashboard window
	service.TrackSearchEvent(model.SearchEvent{Action: model.ActionRefresh, City: "pune", Timestamp: time.Now().Add(-48 * time.Hour)})

	dashboard := service.GetDashboardData()

	if dashboard.TotalOperations != 4 {
		t.Errorf("Expected 4 operations, got %d", dashboard.TotalOperations)
	}
	if dashboard.FailedOperations != 1 {
		t.Errorf("Expected 1 failed operation, got %d", dashboard.FailedOperations)
	}
	if dashboard.CacheHits != 1 {
		t.Errorf("Expected 1 cache hit, got %d", dashboard.CacheHits)
	}
	if dashboard.ActiveSessions != 3 {
		t.Errorf("Expected 3 active sessions, got %d", dashboard.ActiveSessions)
	}
	// (100 + 300 + 2000 + 6000) / 4
	if dashboard.AvgResponseTime != 2100 {
		t.Errorf("Expected average response time 2100ms, got %d", dashboard.AvgResponseTime)
	}
	if dashboard.OperationsByAction[model.ActionSearchLive] != 2 {
		t.Errorf("Expected 2 live searches, got %d", dashboard.OperationsByAction[model.ActionSearchLive])
	}
	if _, ok := dashboard.OperationsByAction[model.ActionRefresh]; ok {
		t.Error("Expected events outside the window to be ignored")
	}

	if len(dashboard.PopularCities) != 2 {
		t.Fatalf("Expected 2 popular cities, got %d", len(dashboard.PopularCities))
	}
	if dashboard.PopularCities[0].City != "goa" || dashboard.PopularCities[0].SearchCount != 3 {
		t.Errorf("Expected goa with 3 searches first, got %+v", dashboard.PopularCities[0])
	}

	dist := dashboard.ResponseTimes
	if dist.Bucket0To250ms != 1 || dist.Bucket250To1000ms != 1 || dist.Bucket1To5s != 1 || dist.Bucket5sPlus != 1 {
		t.Errorf("Unexpected response time buckets: %+v", dist)
	}
	if dist.Percentage0To250 != 25 {
		t.Errorf("Expected 25%% in the fastest bucket, got %f", dist.Percentage0To250)
	}
}

func TestAnalyticsService_EmptyDashboard(t *testing.T) {
	dashboard := NewService(nil).GetDashboardData()

	if dashboard.TotalOperations != 0 || dashboard.AvgResponseTime != 0 {
		t.Errorf("Expected empty dashboard, got %+v", dashboard)
	}
	if dashboard.PopularCities == nil {
		t.Error("Expected non-nil popular cities")
	}
	if dashboard.OperationsByAction == nil {
		t.Error("Expected non-nil operations map")
	}
}

func TestAnalyticsService_PopularCitiesLimit(t *testing.T) {
	service := NewService(nil)
	for i, city := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		for j := 0; j <= i; j++ {
			service.TrackSearchEvent(model.SearchEvent{Action: model.ActionSearchLocal, City: city})
		}
	}

	cities := service.GetDashboardData().PopularCities
	if len(cities) != popularCityLimit {
		t.Fatalf("Expected %d cities, got %d", popularCityLimit, len(cities))
	}
	if cities[0].City != "g" {
		t.Errorf("Expected most searched city first, got %s", cities[0].City)
	}
}

func TestAnalyticsService_SetSessionCounter(t *testing.T) {
	service := NewService(nil)
	if got := service.GetDashboardData().ActiveSessions; got != 0 {
		t.Errorf("Expected 0 active sessions without a counter, got %d", got)
	}

	service.SetSessionCounter(&mockSessionCounter{count: 7})
	if got := service.GetDashboardData().ActiveSessions; got != 7 {
		t.Errorf("Expected 7 active sessions, got %d", got)
	}
}
