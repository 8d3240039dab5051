package dashboard

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/fetch"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/firespot"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/forecast"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/risk"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/weather"
)

// Session owns the aggregation state for one dashboard instance: the
// current viewpoint, the weather and fire-spot fetch lifecycles, and the
// synthesized forecast. State is never shared across sessions.
//
// The weather lifecycle per query is Idle -> Loading -> Succeeded | Failed.
// A viewpoint change supersedes (does not cancel) any in-flight fetch;
// every fetch carries the generation current at launch and resolutions
// whose generation is stale are discarded, so the last camera position
// always wins regardless of response ordering.
type Session struct {
	id  string
	mgr *Manager

	mu         sync.Mutex
	viewPoint  weather.ViewPoint
	generation uint64

	weatherStatus fetch.Status
	weatherErr    string
	reading       *weather.Reading
	samples       []forecast.Sample

	spotStatus fetch.Status
	spotErr    string
	spots      []firespot.Spot

	lastAccess time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// ViewPoint returns the current camera state.
func (s *Session) ViewPoint() weather.ViewPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewPoint
}

// SetViewPoint applies a camera-change event. The active reading and
// forecast are invalidated immediately and exactly one new fetch is
// started for the new coordinate.
func (s *Session) SetViewPoint(vp weather.ViewPoint) {
	s.mu.Lock()
	s.viewPoint = vp
	s.generation++
	gen := s.generation
	s.weatherStatus = fetch.StatusLoading
	s.weatherErr = ""
	s.reading = nil
	s.samples = nil
	s.lastAccess = s.mgr.clock.Now()
	s.mu.Unlock()

	go s.fetchWeather(gen, vp)
}

// Refresh re-fetches weather for the current viewpoint without discarding
// the visible reading; the snapshot keeps showing the old data until the
// new response lands. Used by the periodic refresh job.
func (s *Session) Refresh() {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	vp := s.viewPoint
	s.mu.Unlock()

	go s.fetchWeather(gen, vp)
}

// fetchWeather performs one upstream query and applies the result unless a
// newer generation superseded it while the request was in flight.
func (s *Session) fetchWeather(gen uint64, vp weather.ViewPoint) {
	ctx, cancel := context.WithTimeout(context.Background(), s.mgr.fetchTimeout)
	defer cancel()

	started := s.mgr.clock.Now()
	reading, err := s.mgr.weather.Fetch(ctx, vp.Latitude, vp.Longitude)
	s.mgr.metrics.FetchDuration.Observe(s.mgr.clock.Since(started).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// A newer viewpoint owns the state now; this response is stale.
		s.mgr.metrics.WeatherFetches.WithLabelValues("stale").Inc()
		log.Printf("session %s: discarding stale weather response (generation %d, current %d)", s.id, gen, s.generation)
		return
	}

	if err != nil {
		s.weatherStatus = fetch.StatusFailed
		s.weatherErr = err.Error()
		s.reading = nil
		s.samples = nil
		s.mgr.metrics.WeatherFetches.WithLabelValues("failure").Inc()
		log.Printf("session %s: weather fetch failed for %s: %v", s.id, vp.Key(), err)
		return
	}

	s.weatherStatus = fetch.StatusSucceeded
	s.weatherErr = ""
	s.reading = &reading
	s.samples = s.mgr.synth.Hourly(reading)
	s.mgr.metrics.WeatherFetches.WithLabelValues("success").Inc()

	if s.mgr.history != nil {
		s.mgr.history.Save(vp, reading)
	}
}

// fetchSpots runs the one-shot fire-spot fetch performed at session
// creation. Spots are global, so the result is independent of the
// viewpoint and is never re-fetched for camera changes.
func (s *Session) fetchSpots() {
	ctx, cancel := context.WithTimeout(context.Background(), s.mgr.fetchTimeout)
	defer cancel()

	spots, err := s.mgr.spots.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.spotStatus = fetch.StatusFailed
		s.spotErr = err.Error()
		s.mgr.metrics.FireSpotFetches.WithLabelValues("failure").Inc()
		log.Printf("session %s: fire spot fetch failed: %v", s.id, err)
		return
	}

	if id, dup := firespot.ValidateIDs(spots); dup {
		s.spotStatus = fetch.StatusFailed
		s.spotErr = fetch.Errorf("firespot", "duplicate spot id %d", id).Error()
		s.mgr.metrics.FireSpotFetches.WithLabelValues("failure").Inc()
		return
	}

	s.spotStatus = fetch.StatusSucceeded
	s.spotErr = ""
	s.spots = spots
	s.mgr.metrics.FireSpotFetches.WithLabelValues("success").Inc()
}

// Snapshot composes the current session state for the view collaborators.
// The risk level is always derived from the active reading at composition
// time; it is never stored, so it can never go stale relative to the
// reading it was computed from.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAccess = s.mgr.clock.Now()

	snap := Snapshot{
		SessionID: s.id,
		ViewPoint: s.viewPoint,
		Weather:   FetchReport{Status: s.weatherStatus, Message: s.weatherErr},
		FireSpots: FetchReport{Status: s.spotStatus, Message: s.spotErr},
		Loading:   !s.weatherStatus.Done() || !s.spotStatus.Done(),
	}

	if s.reading != nil {
		reading := *s.reading
		snap.Reading = &reading
		level := risk.Classify(reading.Temperature, reading.Humidity)
		snap.Risk = &RiskSummary{
			Level:      level,
			Score:      risk.Score(reading.Temperature, reading.Humidity),
			ColorClass: level.ColorClass(),
		}
		snap.Forecast = append([]forecast.Sample(nil), s.samples...)
	}

	snap.Markers = make([]Marker, 0, len(s.spots))
	for _, spot := range s.spots {
		snap.Markers = append(snap.Markers, Marker{
			ID:         spot.ID,
			Latitude:   spot.Latitude,
			Longitude:  spot.Longitude,
			ColorClass: spot.Risk.ColorClass(),
		})
	}

	return snap
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastAccess) > ttl
}

// Snapshot is the composed view handed to the map, card, and chart
// collaborators. Reading, Risk, and Forecast are nil until the weather
// fetch succeeds; after a failure only the message remains.
type Snapshot struct {
	SessionID string            `json:"sessionId"`
	ViewPoint weather.ViewPoint `json:"viewPoint"`
	Loading   bool              `json:"loading"`
	Weather   FetchReport       `json:"weather"`
	FireSpots FetchReport       `json:"fireSpots"`

	Reading  *weather.Reading  `json:"reading,omitempty"`
	Risk     *RiskSummary      `json:"risk,omitempty"`
	Markers  []Marker          `json:"markers"`
	Forecast []forecast.Sample `json:"forecast,omitempty"`
}

// FetchReport reports one provider's lifecycle state.
type FetchReport struct {
	Status  fetch.Status `json:"status"`
	Message string       `json:"message,omitempty"`
}

// RiskSummary is the classification derived from the active reading.
type RiskSummary struct {
	Level      risk.Level `json:"level"`
	Score      float64    `json:"score"`
	ColorClass string     `json:"colorClass"`
}

// Marker is the descriptor the map collaborator renders a fire spot with.
type Marker struct {
	ID         int     `json:"id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	ColorClass string  `json:"colorClass"`
}
