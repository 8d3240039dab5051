package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/weather"
)

// ErrNotFound is returned when no readings are retained for a coordinate.
var ErrNotFound = errors.New("no weather readings for viewpoint")

// MemoryStore is a concurrency-safe in-memory history of weather readings
// keyed by viewpoint coordinate. It backs the trend-chart collaborator;
// retention is bounded by count and age since nothing here is durable.
type MemoryStore struct {
	mu sync.RWMutex

	data map[string][]weather.Reading

	maxHistory int           // max readings per coordinate (<=0 = unlimited)
	maxAge     time.Duration // max reading age (0 = unlimited)
	clock      clockwork.Clock
}

// NewMemoryStore creates a MemoryStore with optional retention limits.
// A nil clock uses real time; tests inject a fake.
func NewMemoryStore(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:       make(map[string][]weather.Reading),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// Save appends a reading for the viewpoint's coordinate and enforces retention.
func (s *MemoryStore) Save(vp weather.ViewPoint, r weather.Reading) {
	key := vp.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	readings := append(s.data[key], r)

	if s.maxHistory > 0 && len(readings) > s.maxHistory {
		over := len(readings) - s.maxHistory
		readings = readings[over:]
	}

	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(readings); i++ {
			if !readings[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		readings = readings[i:]
	}

	s.data[key] = readings
}

// Latest returns the most recent retained reading for the coordinate.
func (s *MemoryStore) Latest(vp weather.ViewPoint) (weather.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := s.data[vp.Key()]
	if len(readings) == 0 {
		return weather.Reading{}, ErrNotFound
	}
	return readings[len(readings)-1], nil
}

// Range returns retained readings between from and to, inclusive.
func (s *MemoryStore) Range(vp weather.ViewPoint, from, to time.Time) ([]weather.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := s.data[vp.Key()]
	if len(readings) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Reading
	for _, r := range readings {
		if !r.FetchedAt.Before(from) && !r.FetchedAt.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
