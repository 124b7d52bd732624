package model

import "time"

// SearchAction names the controller operation behind a SearchEvent.
type SearchAction string

const (
	ActionSearchLive  SearchAction = "search_live"
	ActionSearchLocal SearchAction = "search_local"
	ActionRefresh     SearchAction = "refresh"
	ActionLoadMore    SearchAction = "load_more"
)

// SearchEvent represents a single upstream-backed operation for analytics tracking
type SearchEvent struct {
	Action       SearchAction  `json:"action"`
	Source       SourceState   `json:"source"` // state after the operation
	City         string        `json:"city"`
	ResponseTime time.Duration `json:"response_time"`
	ResultCount  int           `json:"result_count"`
	FromCache    bool          `json:"from_cache"`
	Failed       bool          `json:"failed"`
	Error        string        `json:"error,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// PopularCity represents aggregated data for frequently searched cities
type PopularCity struct {
	City        string `json:"city"`
	SearchCount int    `json:"search_count"`
}

// ResponseTimeDistribution represents response time distribution buckets
type ResponseTimeDistribution struct {
	Bucket0To250ms      int     `json:"bucket_0_250ms"`
	Bucket250To1000ms   int     `json:"bucket_250_1000ms"`
	Bucket1To5s         int     `json:"bucket_1_5s"`
	Bucket5sPlus        int     `json:"bucket_5s_plus"`
	Percentage0To250    float64 `json:"percentage_0_250"`
	Percentage250To1000 float64 `json:"percentage_250_1000"`
	Percentage1To5s     float64 `json:"percentage_1_5s"`
	Percentage5sPlus    float64 `json:"percentage_5s_plus"`
}

// AnalyticsDashboard represents the complete analytics dashboard data
type AnalyticsDashboard struct {
	TotalOperations    int                      `json:"total_operations"`
	FailedOperations   int                      `json:"failed_operations"`
	CacheHits          int                      `json:"cache_hits"`
	AvgResponseTime    int64                    `json:"avg_response_time"` // in milliseconds
	OperationsByAction map[SearchAction]int     `json:"operations_by_action"`
	PopularCities      []PopularCity            `json:"popular_cities"`
	ResponseTimes      ResponseTimeDistribution `json:"response_time_distribution"`
	ActiveSessions     int                      `json:"active_sessions"`
}
