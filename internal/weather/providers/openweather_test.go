package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/fetch"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenWeatherProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewOpenWeatherProvider(srv.Client(), "test-key")
	p.baseURL = srv.URL
	return p
}

func TestFetchSuccess(t *testing.T) {
	var gotQuery string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"main":{"temp":25.0,"humidity":60.0},"wind":{"speed":3.2}}`))
	})

	reading, err := p.Fetch(context.Background(), 42.5, -8.1)
	require.NoError(t, err)

	assert.Equal(t, 25.0, reading.Temperature)
	assert.Equal(t, 60.0, reading.Humidity)
	assert.Equal(t, 3.2, reading.WindSpeed)
	assert.False(t, reading.FetchedAt.IsZero())

	assert.Contains(t, gotQuery, "lat=42.5")
	assert.Contains(t, gotQuery, "lon=-8.1")
	assert.Contains(t, gotQuery, "appid=test-key")
	assert.Contains(t, gotQuery, "units=metric")
}

func TestFetchNonSuccessStatus(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":401,"message":"Invalid API key"}`, http.StatusUnauthorized)
	})

	_, err := p.Fetch(context.Background(), 0, 0)
	require.Error(t, err)

	var fe *fetch.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "openweather", fe.Source)
	assert.Contains(t, fe.Message, "401")
}

func TestFetchMissingFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing main", `{"wind":{"speed":1.0}}`},
		{"missing temp", `{"main":{"humidity":50.0},"wind":{"speed":1.0}}`},
		{"missing humidity", `{"main":{"temp":20.0},"wind":{"speed":1.0}}`},
		{"missing wind", `{"main":{"temp":20.0,"humidity":50.0}}`},
		{"not json", `<html>maintenance</html>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})

			_, err := p.Fetch(context.Background(), 1, 1)
			require.Error(t, err)

			var fe *fetch.Error
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe.Message, "malformed payload")
		})
	}
}

func TestFetchWithoutAPIKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "")

	_, err := p.Fetch(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

// A zero reading with explicit zero fields is still a valid payload; only
// absent fields are rejected.
func TestFetchExplicitZeroesAccepted(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"main":{"temp":0,"humidity":0},"wind":{"speed":0}}`))
	})

	reading, err := p.Fetch(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Zero(t, reading.Temperature)
	assert.Zero(t, reading.Humidity)
	assert.Zero(t, reading.WindSpeed)
}
