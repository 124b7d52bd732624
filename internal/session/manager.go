// Package session keeps the per-user search sessions of the service.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-hotel-search/internal/errors"
	"github.com/gcbaptista/go-hotel-search/internal/source"
	"github.com/gcbaptista/go-hotel-search/model"
	"github.com/gcbaptista/go-hotel-search/services"
)

// Manager creates, tracks and expires search sessions
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	live           services.LiveSource
	local          services.LocalSource
	controllerOpts []source.Option
	defaultView    model.View
	logger         *slog.Logger

	idleTTL         time.Duration
	cleanupInterval time.Duration
	stopChan        chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
	}
}

// WithControllerOptions passes options to every session's source controller.
func WithControllerOptions(opts ...source.Option) Option {
	return func(m *Manager) {
		m.controllerOpts = append(m.controllerOpts, opts...)
	}
}

// WithDefaultView sets the view new sessions start with.
func WithDefaultView(view model.View) Option {
	return func(m *Manager) {
		m.defaultView = view
	}
}

// WithIdleTTL expires sessions unused for longer than ttl, checking every
// interval once Start is called. A zero ttl keeps sessions forever.
func WithIdleTTL(ttl, interval time.Duration) Option {
	return func(m *Manager) {
		m.idleTTL = ttl
		if interval > 0 {
			m.cleanupInterval = interval
		}
	}
}

// NewManager creates a session manager whose sessions query live and local.
func NewManager(live services.LiveSource, local services.LocalSource, opts ...Option) (*Manager, error) {
	if live == nil {
		return nil, source.ErrLiveSourceRequired
	}
	if local == nil {
		return nil, source.ErrLocalSourceRequired
	}

	m := &Manager{
		sessions:        make(map[string]*Session),
		live:            live,
		local:           local,
		defaultView:     DefaultView(),
		logger:          slog.Default(),
		cleanupInterval: time.Minute,
		stopChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start begins the background cleanup of idle sessions
func (m *Manager) Start() {
	if m.idleTTL <= 0 {
		m.logger.Info("session manager started", "idle_ttl", "none")
		return
	}
	m.logger.Info("session manager started", "idle_ttl", m.idleTTL, "cleanup_interval", m.cleanupInterval)

	m.wg.Add(1)
	go m.cleanupRoutine()
}

// Stop shuts down the cleanup routine. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	m.wg.Wait()
}

// Create starts a new session and returns it
func (m *Manager) Create() (*Session, error) {
	controller, err := source.NewController(m.live, m.local, m.controllerOpts...)
	if err != nil {
		return nil, err
	}

	s := newSession(uuid.New().String(), controller, m.defaultView)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("session created", "session_id", s.ID)
	return s, nil
}

// Get retrieves a session by ID
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, errors.NewSessionNotFoundError(id)
	}
	return s, nil
}

// Delete removes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return errors.NewSessionNotFoundError(id)
	}
	delete(m.sessions, id)
	m.logger.Debug("session deleted", "session_id", id)
	return nil
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// cleanupRoutine runs periodic idle session cleanup
func (m *Manager) cleanupRoutine() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupIdle(m.idleTTL)
		case <-m.stopChan:
			return
		}
	}
}

// CleanupIdle removes sessions not used within maxIdle and returns how many were removed
func (m *Manager) CleanupIdle(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	cleaned := 0
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) {
			delete(m.sessions, id)
			cleaned++
		}
	}

	if cleaned > 0 {
		m.logger.Info("cleaned up idle sessions", "count", cleaned)
	}
	return cleaned
}
