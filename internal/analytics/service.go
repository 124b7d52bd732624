package analytics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gcbaptista/go-hotel-search/model"
)

const (
	maxEventsToKeep   = 10000 // Keep last 10k events for performance
	popularCityLimit  = 5
	dashboardLookback = 24 * time.Hour
)

// SessionCounter reports how many search sessions are alive.
type SessionCounter interface {
	Count() int
}

// Service implements analytics tracking and reporting
type Service struct {
	mutex    sync.RWMutex
	events   []model.SearchEvent
	sessions SessionCounter
	now      func() time.Time
}

// NewService creates a new analytics service. sessions may be nil.
func NewService(sessions SessionCounter) *Service {
	return &Service{
		events:   make([]model.SearchEvent, 0),
		sessions: sessions,
		now:      time.Now,
	}
}

// SetSessionCounter sets where ActiveSessions is read from. It lets the
// service be created before the session manager it observes.
func (s *Service) SetSessionCounter(sessions SessionCounter) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sessions = sessions
}

// TrackSearchEvent records a new search event
func (s *Service) TrackSearchEvent(event model.SearchEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	event.City = strings.ToLower(strings.TrimSpace(event.City))
	s.events = append(s.events, event)

	// Keep only the latest events to prevent unbounded growth
	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}
}

// GetDashboardData returns analytics for the last 24 hours
func (s *Service) GetDashboardData() model.AnalyticsDashboard {
	s.mutex.RLock()
	recent := s.filterEventsByTime(s.events, s.now().Add(-dashboardLookback))
	sessions := s.sessions
	s.mutex.RUnlock()

	dashboard := model.AnalyticsDashboard{
		TotalOperations:    len(recent),
		AvgResponseTime:    s.calculateAvgResponseTime(recent),
		OperationsByAction: make(map[model.SearchAction]int),
		PopularCities:      s.getPopularCities(recent),
		ResponseTimes:      s.getResponseTimeDistribution(recent),
	}
	for _, event := range recent {
		dashboard.OperationsByAction[event.Action]++
		if event.Failed {
			dashboard.FailedOperations++
		} else if event.FromCache {
			dashboard.CacheHits++
		}
	}
	if sessions != nil {
		dashboard.ActiveSessions = sessions.Count()
	}

	return dashboard
}

// filterEventsByTime returns events after the given time
func (s *Service) filterEventsByTime(events []model.SearchEvent, after time.Time) []model.SearchEvent {
	filtered := make([]model.SearchEvent, 0, len(events))
	for _, event := range events {
		if event.Timestamp.After(after) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// calculateAvgResponseTime calculates average response time for events in milliseconds
func (s *Service) calculateAvgResponseTime(events []model.SearchEvent) int64 {
	if len(events) == 0 {
		return 0
	}

	var total time.Duration
	for _, event := range events {
		total += event.ResponseTime
	}
	avgDuration := total / time.Duration(len(events))
	return avgDuration.Milliseconds()
}

// getPopularCities returns the most searched cities, most searched first
func (s *Service) getPopularCities(events []model.SearchEvent) []model.PopularCity {
	cityCounts := make(map[string]int)
	for _, event := range events {
		if event.City != "" {
			cityCounts[event.City]++
		}
	}

	cities := make([]model.PopularCity, 0, len(cityCounts))
	for city, count := range cityCounts {
		cities = append(cities, model.PopularCity{City: city, SearchCount: count})
	}

	// Sort by count descending, then by name for a stable dashboard
	sort.Slice(cities, func(i, j int) bool {
		if cities[i].SearchCount != cities[j].SearchCount {
			return cities[i].SearchCount > cities[j].SearchCount
		}
		return cities[i].City < cities[j].City
	})

	if len(cities) > popularCityLimit {
		cities = cities[:popularCityLimit]
	}
	return cities
}

// getResponseTimeDistribution returns response time distribution
func (s *Service) getResponseTimeDistribution(events []model.SearchEvent) model.ResponseTimeDistribution {
	dist := model.ResponseTimeDistribution{}
	total := len(events)

	if total == 0 {
		return dist
	}

	for _, event := range events {
		ms := event.ResponseTime.Milliseconds()
		switch {
		case ms <= 250:
			dist.Bucket0To250ms++
		case ms <= 1000:
			dist.Bucket250To1000ms++
		case ms <= 5000:
			dist.Bucket1To5s++
		default:
			dist.Bucket5sPlus++
		}
	}

	// Calculate percentages
	dist.Percentage0To250 = float64(dist.Bucket0To250ms) / float64(total) * 100
	dist.Percentage250To1000 = float64(dist.Bucket250To1000ms) / float64(total) * 100
	dist.Percentage1To5s = float64(dist.Bucket1To5s) / float64(total) * 100
	dist.Percentage5sPlus = float64(dist.Bucket5sPlus) / float64(total) * 100

	return dist
}
