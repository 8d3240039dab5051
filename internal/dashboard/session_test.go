package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/fetch"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/firespot"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/forecast"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/observability"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/risk"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/weather"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type weatherFunc func(ctx context.Context, lat, lon float64) (weather.Reading, error)

func (f weatherFunc) Name() string { return "stub" }
func (f weatherFunc) Fetch(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	return f(ctx, lat, lon)
}

type spotsFunc func(ctx context.Context) ([]firespot.Spot, error)

func (f spotsFunc) Fetch(ctx context.Context) ([]firespot.Spot, error) { return f(ctx) }

type fixedSource struct{}

func (fixedSource) Float64() float64 { return 0.5 }

func instantWeather(temp, humidity float64) weatherFunc {
	return func(ctx context.Context, lat, lon float64) (weather.Reading, error) {
		return weather.Reading{Temperature: temp, Humidity: humidity, WindSpeed: 2, FetchedAt: time.Now().UTC()}, nil
	}
}

func newTestManager(t *testing.T, w weather.Provider, sp firespot.Provider) (*Manager, *observability.Metrics) {
	t.Helper()
	if sp == nil {
		sp = firespot.NewStaticProvider()
	}
	metrics := observability.NewMetricsForTesting()
	m := NewManager(ManagerConfig{
		Weather:          w,
		Spots:            sp,
		Synth:            forecast.NewSynthesizer(fixedSource{}),
		Metrics:          metrics,
		Clock:            clockwork.NewRealClock(),
		FetchTimeout:     time.Second,
		SessionTTL:       time.Hour,
		DefaultViewPoint: weather.ViewPoint{Latitude: 42.6, Longitude: -8.1, Zoom: 9},
	})
	return m, metrics
}

func waitResolved(t *testing.T, s *Session) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool { return !s.Snapshot().Loading }, waitFor, tick)
	return s.Snapshot()
}

func TestSessionComposesRiskFromReading(t *testing.T) {
	m, _ := newTestManager(t, instantWeather(25, 60), nil)
	s := m.Create(nil)

	snap := waitResolved(t, s)

	require.Equal(t, fetch.StatusSucceeded, snap.Weather.Status)
	require.NotNil(t, snap.Reading)
	assert.Equal(t, 25.0, snap.Reading.Temperature)

	// score = 1.5*25 - 0.5*60 = 7.5 -> Low, green tier.
	require.NotNil(t, snap.Risk)
	assert.Equal(t, risk.Low, snap.Risk.Level)
	assert.InDelta(t, 7.5, snap.Risk.Score, 1e-9)
	assert.Equal(t, "risk-green", snap.Risk.ColorClass)

	require.Len(t, snap.Forecast, forecast.HoursPerDay)
	assert.Equal(t, "0:00", snap.Forecast[0].TimeLabel)
	assert.Equal(t, "23:00", snap.Forecast[23].TimeLabel)
}

func TestSessionWeatherFailure(t *testing.T) {
	failing := weatherFunc(func(ctx context.Context, lat, lon float64) (weather.Reading, error) {
		return weather.Reading{}, fetch.Errorf("openweather", "unexpected status code 503")
	})
	m, _ := newTestManager(t, failing, nil)
	s := m.Create(nil)

	snap := waitResolved(t, s)

	assert.Equal(t, fetch.StatusFailed, snap.Weather.Status)
	assert.Equal(t, "openweather: unexpected status code 503", snap.Weather.Message)

	// No reading means no cards, no risk banner, no forecast.
	assert.Nil(t, snap.Reading)
	assert.Nil(t, snap.Risk)
	assert.Empty(t, snap.Forecast)

	// Fire spots are independent and still render.
	assert.Equal(t, fetch.StatusSucceeded, snap.FireSpots.Status)
	assert.NotEmpty(t, snap.Markers)
}

func TestSessionFireSpotFailureIsIndependent(t *testing.T) {
	failingSpots := spotsFunc(func(ctx context.Context) ([]firespot.Spot, error) {
		return nil, errors.New("feed unavailable")
	})
	m, _ := newTestManager(t, instantWeather(50, 0), failingSpots)
	s := m.Create(nil)

	snap := waitResolved(t, s)

	assert.Equal(t, fetch.StatusFailed, snap.FireSpots.Status)
	assert.Contains(t, snap.FireSpots.Message, "feed unavailable")
	assert.Empty(t, snap.Markers)

	// Weather still succeeded: score 75 -> High.
	require.NotNil(t, snap.Risk)
	assert.Equal(t, risk.High, snap.Risk.Level)
	assert.Equal(t, "risk-red", snap.Risk.ColorClass)
}

func TestViewPointChangeInvalidatesReading(t *testing.T) {
	m, _ := newTestManager(t, instantWeather(20, 20), nil)
	s := m.Create(nil)
	waitResolved(t, s)

	// Gate subsequent fetches so the invalidation window is observable.
	release := make(chan struct{})
	m.weather = weatherFunc(func(ctx context.Context, lat, lon float64) (weather.Reading, error) {
		<-release
		return weather.Reading{Temperature: 30, Humidity: 10}, nil
	})

	s.SetViewPoint(weather.ViewPoint{Latitude: 40.0, Longitude: -3.7, Zoom: 11})

	snap := s.Snapshot()
	assert.Equal(t, fetch.StatusLoading, snap.Weather.Status)
	assert.Nil(t, snap.Reading, "viewpoint change must invalidate the active reading")
	assert.Nil(t, snap.Risk)
	assert.True(t, snap.Loading)
	assert.Equal(t, 40.0, snap.ViewPoint.Latitude)

	close(release)
	snap = waitResolved(t, s)
	require.NotNil(t, snap.Reading)
	assert.Equal(t, 30.0, snap.Reading.Temperature)
}

// A superseded in-flight fetch is not cancelled, but its late resolution
// must be discarded instead of overwriting the newer viewpoint's state.
func TestStaleResponseDiscarded(t *testing.T) {
	firstGate := make(chan struct{})
	m, metrics := newTestManager(t, weatherFunc(func(ctx context.Context, lat, lon float64) (weather.Reading, error) {
		if lat == 10 {
			<-firstGate // first viewpoint's response arrives last
			return weather.Reading{Temperature: 10, Humidity: 0}, nil
		}
		return weather.Reading{Temperature: 20, Humidity: 0}, nil
	}), nil)

	s := m.Create(&weather.ViewPoint{Latitude: 10, Longitude: 10, Zoom: 5})
	s.SetViewPoint(weather.ViewPoint{Latitude: 20, Longitude: 20, Zoom: 5})

	snap := waitResolved(t, s)
	require.NotNil(t, snap.Reading)
	assert.Equal(t, 20.0, snap.Reading.Temperature)

	// Let the superseded response land; it must be dropped.
	close(firstGate)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.WeatherFetches.WithLabelValues("stale")) == 1
	}, waitFor, tick)

	snap = s.Snapshot()
	require.NotNil(t, snap.Reading)
	assert.Equal(t, 20.0, snap.Reading.Temperature, "stale response must not overwrite newer state")
}

func TestRefreshKeepsReadingVisible(t *testing.T) {
	m, _ := newTestManager(t, instantWeather(20, 20), nil)
	s := m.Create(nil)
	waitResolved(t, s)

	release := make(chan struct{})
	m.weather = weatherFunc(func(ctx context.Context, lat, lon float64) (weather.Reading, error) {
		<-release
		return weather.Reading{Temperature: 22, Humidity: 20}, nil
	})

	s.Refresh()

	snap := s.Snapshot()
	require.NotNil(t, snap.Reading, "refresh must not blank the visible reading")
	assert.Equal(t, 20.0, snap.Reading.Temperature)

	close(release)
	require.Eventually(t, func() bool {
		cur := s.Snapshot()
		return cur.Reading != nil && cur.Reading.Temperature == 22.0
	}, waitFor, tick)
}

func TestManagerPruneExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewManager(ManagerConfig{
		Weather:      instantWeather(15, 50),
		Spots:        firespot.NewStaticProvider(),
		Synth:        forecast.NewSynthesizer(fixedSource{}),
		Metrics:      observability.NewMetricsForTesting(),
		Clock:        clock,
		FetchTimeout: time.Second,
		SessionTTL:   10 * time.Minute,
	})

	stale := m.Create(nil)
	require.Eventually(t, func() bool { return !stale.Snapshot().Loading }, waitFor, tick)

	clock.Advance(11 * time.Minute)
	fresh := m.Create(nil)

	assert.Equal(t, 1, m.PruneExpired())
	_, ok := m.Get(stale.ID())
	assert.False(t, ok)
	_, ok = m.Get(fresh.ID())
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestMarkersCarryRiskColorClasses(t *testing.T) {
	spots := spotsFunc(func(ctx context.Context) ([]firespot.Spot, error) {
		return []firespot.Spot{
			{ID: 1, Latitude: 1, Longitude: 1, Risk: risk.High},
			{ID: 2, Latitude: 2, Longitude: 2, Risk: risk.Medium},
			{ID: 3, Latitude: 3, Longitude: 3, Risk: risk.Low},
		}, nil
	})
	m, _ := newTestManager(t, instantWeather(15, 50), spots)
	s := m.Create(nil)

	snap := waitResolved(t, s)

	require.Len(t, snap.Markers, 3)
	assert.Equal(t, "risk-red", snap.Markers[0].ColorClass)
	assert.Equal(t, "risk-orange", snap.Markers[1].ColorClass)
	assert.Equal(t, "risk-green", snap.Markers[2].ColorClass)
}

func TestDuplicateSpotIDsRejected(t *testing.T) {
	spots := spotsFunc(func(ctx context.Context) ([]firespot.Spot, error) {
		return []firespot.Spot{
			{ID: 4, Latitude: 1, Longitude: 1, Risk: risk.Low},
			{ID: 4, Latitude: 2, Longitude: 2, Risk: risk.High},
		}, nil
	})
	m, _ := newTestManager(t, instantWeather(15, 50), spots)
	s := m.Create(nil)

	snap := waitResolved(t, s)

	assert.Equal(t, fetch.StatusFailed, snap.FireSpots.Status)
	assert.Contains(t, snap.FireSpots.Message, "duplicate spot id 4")
	assert.Empty(t, snap.Markers)
}
