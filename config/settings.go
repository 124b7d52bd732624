// Package config provides configuration structures for the hotel search service.
// Settings are read from a YAML file, completed with defaults and then
// overridden from the environment.
package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gcbaptista/go-hotel-search/model"
)

// Environment variables read by ApplyEnv.
const (
	EnvUpstreamURL = "HOTEL_SEARCH_UPSTREAM_URL"
	EnvDatasetPath = "HOTEL_SEARCH_DATASET"
	EnvPort        = "PORT"
)

// Settings is the complete service configuration.
type Settings struct {
	Server   ServerSettings   `yaml:"server" json:"server"`
	Upstream UpstreamSettings `yaml:"upstream" json:"upstream"`
	Ranking  RankingSettings  `yaml:"ranking" json:"ranking"`
	Sessions SessionSettings  `yaml:"sessions" json:"sessions"`
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Port           int      `yaml:"port" json:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"` // CORS origins; "*" allows any
	MaxBodyBytes   int64    `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// UpstreamSettings configures the hotel backend and the local dataset.
type UpstreamSettings struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	LivePath    string        `yaml:"live_path" json:"live_path"`
	RefreshPath string        `yaml:"refresh_path" json:"refresh_path"`
	LocalPath   string        `yaml:"local_path" json:"local_path"`
	DatasetPath string        `yaml:"dataset_path" json:"dataset_path"` // when set, local listings come from this CSV instead of LocalPath
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	RateLimit   float64       `yaml:"rate_limit" json:"rate_limit"` // requests per second, 0 disables throttling
	RateBurst   int           `yaml:"rate_burst" json:"rate_burst"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// RankingSettings holds the view every new session starts with.
type RankingSettings struct {
	TargetRating float64 `yaml:"target_rating" json:"target_rating"`
	TargetPrice  float64 `yaml:"target_price" json:"target_price"`
	K            int     `yaml:"k" json:"k"`
	PriceScale   float64 `yaml:"price_scale" json:"price_scale"`
	SortField    string  `yaml:"sort_field" json:"sort_field"`
	SortOrder    string  `yaml:"sort_order" json:"sort_order"`
	Theme        string  `yaml:"theme" json:"theme"`
}

// SessionSettings controls session expiry.
type SessionSettings struct {
	IdleTTL         time.Duration `yaml:"idle_ttl" json:"idle_ttl"` // 0 keeps sessions until deleted
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Port:           8080,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   1 << 20,
		},
		Upstream: UpstreamSettings{
			BaseURL:     "http://localhost:5000",
			LivePath:    "/live_recommend",
			RefreshPath: "/refresh",
			LocalPath:   "/oyo_hotels",
			Timeout:     30 * time.Second,
			RateLimit:   5,
			RateBurst:   5,
			MaxAttempts: 1,
			RetryDelay:  200 * time.Millisecond,
		},
		Ranking: RankingSettings{
			TargetRating: 4.0,
			TargetPrice:  1500,
			K:            15,
			PriceScale:   500,
			SortField:    string(model.SortFieldRating),
			SortOrder:    string(model.SortOrderDesc),
			Theme:        string(model.ThemeLight),
		},
		Sessions: SessionSettings{
			IdleTTL:         30 * time.Minute,
			CleanupInterval: time.Minute,
		},
	}
}

// LoadSettings reads a YAML file on top of DefaultSettings. Keys missing from
// the file keep their default values.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings.ApplyDefaults()
	return settings, nil
}

// ApplyDefaults fills in values that cannot be left at zero
func (s *Settings) ApplyDefaults() {
	defaults := DefaultSettings()

	if s.Server.Port == 0 {
		s.Server.Port = defaults.Server.Port
	}
	if s.Server.MaxBodyBytes <= 0 {
		s.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}
	if s.Server.AllowedOrigins == nil {
		s.Server.AllowedOrigins = []string{}
	}

	if s.Upstream.LivePath == "" {
		s.Upstream.LivePath = defaults.Upstream.LivePath
	}
	if s.Upstream.RefreshPath == "" {
		s.Upstream.RefreshPath = defaults.Upstream.RefreshPath
	}
	if s.Upstream.LocalPath == "" {
		s.Upstream.LocalPath = defaults.Upstream.LocalPath
	}
	if s.Upstream.Timeout <= 0 {
		s.Upstream.Timeout = defaults.Upstream.Timeout
	}
	if s.Upstream.MaxAttempts < 1 {
		s.Upstream.MaxAttempts = 1
	}
	if s.Upstream.RateLimit > 0 && s.Upstream.RateBurst < 1 {
		s.Upstream.RateBurst = 1
	}

	if s.Ranking.PriceScale <= 0 {
		s.Ranking.PriceScale = defaults.Ranking.PriceScale
	}
	if s.Ranking.SortField == "" {
		s.Ranking.SortField = defaults.Ranking.SortField
	}
	if s.Ranking.SortOrder == "" {
		s.Ranking.SortOrder = defaults.Ranking.SortOrder
	}
	if s.Ranking.Theme == "" {
		s.Ranking.Theme = defaults.Ranking.Theme
	}
	if s.Ranking.K < 0 {
		s.Ranking.K = 0
	}

	if s.Sessions.CleanupInterval <= 0 {
		s.Sessions.CleanupInterval = defaults.Sessions.CleanupInterval
	}
}

// ApplyEnv overrides settings from the environment
func (s *Settings) ApplyEnv() {
	s.Upstream.BaseURL = getEnv(EnvUpstreamURL, s.Upstream.BaseURL)
	s.Upstream.DatasetPath = getEnv(EnvDatasetPath, s.Upstream.DatasetPath)
	s.Server.Port = getEnvInt(EnvPort, s.Server.Port)
}

// Validate returns every problem found in the settings
func (s *Settings) Validate() []string {
	var problems []string

	if s.Server.Port < 1 || s.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port must be between 1 and 65535, got %d", s.Server.Port))
	}

	if strings.TrimSpace(s.Upstream.BaseURL) == "" {
		problems = append(problems, "upstream.base_url is required")
	} else if u, err := url.Parse(s.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("upstream.base_url '%s' is not an absolute URL", s.Upstream.BaseURL))
	}
	paths := []struct{ name, value string }{
		{"upstream.live_path", s.Upstream.LivePath},
		{"upstream.refresh_path", s.Upstream.RefreshPath},
		{"upstream.local_path", s.Upstream.LocalPath},
	}
	for _, path := range paths {
		if !strings.HasPrefix(path.value, "/") {
			problems = append(problems, fmt.Sprintf("%s must start with '/', got '%s'", path.name, path.value))
		}
	}
	if s.Upstream.RateLimit < 0 {
		problems = append(problems, "upstream.rate_limit cannot be negative")
	}

	if math.IsNaN(s.Ranking.TargetRating) || s.Ranking.TargetRating < 0 || s.Ranking.TargetRating > 5 {
		problems = append(problems, fmt.Sprintf("ranking.target_rating must be between 0 and 5, got %v", s.Ranking.TargetRating))
	}
	if math.IsNaN(s.Ranking.TargetPrice) || s.Ranking.TargetPrice < 0 {
		problems = append(problems, fmt.Sprintf("ranking.target_price cannot be negative, got %v", s.Ranking.TargetPrice))
	}
	if s.Ranking.SortField != string(model.SortFieldRating) && s.Ranking.SortField != string(model.SortFieldPrice) {
		problems = append(problems, fmt.Sprintf("Invalid sort_field '%s' in ranking (must be '%s' or '%s')", s.Ranking.SortField, model.SortFieldRating, model.SortFieldPrice))
	}
	if s.Ranking.SortOrder != string(model.SortOrderAsc) && s.Ranking.SortOrder != string(model.SortOrderDesc) {
		problems = append(problems, "Invalid sort_order '"+s.Ranking.SortOrder+"' in ranking (must be 'asc' or 'desc')")
	}
	if s.Ranking.Theme != string(model.ThemeLight) && s.Ranking.Theme != string(model.ThemeDark) {
		problems = append(problems, "Invalid theme '"+s.Ranking.Theme+"' in ranking (must be 'light' or 'dark')")
	}

	if s.Sessions.IdleTTL < 0 {
		problems = append(problems, "sessions.idle_ttl cannot be negative")
	}

	return problems
}

// View returns the view new sessions start with. Call it on validated settings.
func (r RankingSettings) View() model.View {
	return model.View{
		SortField: model.SortField(r.SortField),
		SortOrder: model.SortOrder(r.SortOrder),
		Target: model.RelevanceTarget{
			Rating:     r.TargetRating,
			Price:      r.TargetPrice,
			K:          r.K,
			PriceScale: r.PriceScale,
		},
		Theme: model.Theme(r.Theme),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
