package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/fetch"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/weather"
)

const openWeatherName = "openweather"

// OpenWeatherProvider implements weather.Provider against the OpenWeatherMap
// current-weather endpoint. Each Fetch issues exactly one HTTP attempt; the
// circuit breaker can fail fast while the upstream is unhealthy but never
// re-issues a request.
type OpenWeatherProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider creates the provider with a shared HTTP client.
func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        openWeatherName,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenWeatherProvider{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		client:  client,
		circuit: cb,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return openWeatherName
}

// Fetch queries current weather for a coordinate. Any non-2xx response or
// payload missing a required field yields a *fetch.Error; there is no
// distinction between network, rate-limit, and schema failures.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, fetch.Errorf(openWeatherName, "api key is not configured")
	}

	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return weather.Reading{}, fetch.Wrap(openWeatherName, err)
	}

	result, err := p.circuit.Execute(func() (interface{}, error) {
		resp, execErr := p.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
		}

		reading, decErr := decodeCurrentWeather(resp.Body)
		if decErr != nil {
			return nil, decErr
		}
		return reading, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return weather.Reading{}, fetch.Errorf(openWeatherName, "upstream temporarily unavailable: %v", err)
		}
		return weather.Reading{}, fetch.Wrap(openWeatherName, err)
	}

	reading, ok := result.(weather.Reading)
	if !ok {
		return weather.Reading{}, fetch.Errorf(openWeatherName, "unexpected result type from circuit breaker")
	}
	return reading, nil
}

// currentWeatherPayload models only the fields the dashboard consumes.
// Pointers distinguish absent fields from zero values so a schema drift
// upstream fails fast instead of producing silent zeros.
type currentWeatherPayload struct {
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

func decodeCurrentWeather(body io.Reader) (weather.Reading, error) {
	var payload currentWeatherPayload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return weather.Reading{}, fmt.Errorf("malformed payload: %w", err)
	}

	if payload.Main == nil || payload.Main.Temp == nil || payload.Main.Humidity == nil {
		return weather.Reading{}, errors.New("malformed payload: missing main.temp or main.humidity")
	}
	if payload.Wind == nil || payload.Wind.Speed == nil {
		return weather.Reading{}, errors.New("malformed payload: missing wind.speed")
	}

	return weather.Reading{
		Temperature: *payload.Main.Temp,
		Humidity:    *payload.Main.Humidity,
		WindSpeed:   *payload.Wind.Speed,
		FetchedAt:   time.Now().UTC(),
	}, nil
}
