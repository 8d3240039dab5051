package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/fetch"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/firespot"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/forecast"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/observability"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/weather"
)

// ManagerConfig bundles the collaborators a Manager needs. Secrets and
// tunables arrive here from the config package; nothing below this layer
// reads the environment.
type ManagerConfig struct {
	Weather weather.Provider
	Spots   firespot.Provider
	Synth   *forecast.Synthesizer
	History weather.HistoryStore
	Metrics *observability.Metrics
	Clock   clockwork.Clock

	FetchTimeout     time.Duration
	SessionTTL       time.Duration
	DefaultViewPoint weather.ViewPoint
}

// Manager owns the live dashboard sessions. Each browser instance gets its
// own session so concurrent dashboards never share mutable state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	weather weather.Provider
	spots   firespot.Provider
	synth   *forecast.Synthesizer
	history weather.HistoryStore
	metrics *observability.Metrics
	clock   clockwork.Clock

	fetchTimeout time.Duration
	sessionTTL   time.Duration
	defaultVP    weather.ViewPoint
}

// NewManager creates a Manager. Nil clock and metrics fall back to real
// time and unregistered instruments so tests stay lightweight.
func NewManager(cfg ManagerConfig) *Manager {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	synth := cfg.Synth
	if synth == nil {
		synth = forecast.NewSynthesizer(nil)
	}
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}

	return &Manager{
		sessions:     make(map[string]*Session),
		weather:      cfg.Weather,
		spots:        cfg.Spots,
		synth:        synth,
		history:      cfg.History,
		metrics:      metrics,
		clock:        clock,
		fetchTimeout: fetchTimeout,
		sessionTTL:   sessionTTL,
		defaultVP:    cfg.DefaultViewPoint,
	}
}

// Create starts a new session at the given viewpoint (or the configured
// default when nil) and launches its initial fire-spot and weather fetches.
func (m *Manager) Create(vp *weather.ViewPoint) *Session {
	start := m.defaultVP
	if vp != nil {
		start = *vp
	}

	s := &Session{
		id:            uuid.NewString(),
		mgr:           m,
		viewPoint:     start,
		weatherStatus: fetch.StatusIdle,
		spotStatus:    fetch.StatusIdle,
		lastAccess:    m.clock.Now(),
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	// Fire spots load once per session; the weather query follows the
	// viewpoint. The two are independent and may resolve in any order.
	s.mu.Lock()
	s.spotStatus = fetch.StatusLoading
	s.mu.Unlock()
	go s.fetchSpots()

	s.SetViewPoint(start)

	return s
}

// Get returns a live session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete tears a session down.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.metrics.ActiveSessions.Set(float64(len(m.sessions)))
}

// RefreshAll re-fetches weather for every live session at its current
// viewpoint. Called by the periodic refresh job.
func (m *Manager) RefreshAll() {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.Refresh()
	}
}

// PruneExpired drops sessions without activity within the TTL and returns
// how many were removed.
func (m *Manager) PruneExpired() int {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var pruned int
	for id, s := range m.sessions {
		if s.expired(now, m.sessionTTL) {
			delete(m.sessions, id)
			pruned++
		}
	}
	if pruned > 0 {
		m.metrics.ActiveSessions.Set(float64(len(m.sessions)))
	}
	return pruned
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
