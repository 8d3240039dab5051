package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/weather"
)

// AppConfig is the process-wide configuration, resolved once at startup and
// injected into collaborators as explicit parameters. Business logic never
// reads the environment.
type AppConfig struct {
	// Secrets. A missing weather key is not a startup error: the upstream
	// rejects the request and the fetch surfaces as Failed, which is the
	// contract the UI expects. The map token is passed through to the
	// frontend untouched.
	OpenWeatherAPIKey string
	MapboxToken       string

	// Optional Google geocoder key for place search.
	GeocoderAPIKey string

	// Outbound HTTP client timeout.
	HTTPTimeout time.Duration

	// Per-fetch deadline inside a session.
	FetchTimeout time.Duration

	// RefreshInterval controls the periodic weather refresh of live sessions.
	RefreshInterval time.Duration

	// SessionTTL prunes sessions without activity.
	SessionTTL time.Duration

	// Reading history retention.
	HistoryMax    int           // max readings per coordinate (0 = unlimited)
	HistoryMaxAge time.Duration // max reading age (0 = unlimited)

	// DefaultViewPoint is the camera a new session starts at.
	DefaultViewPoint weather.ViewPoint

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.MapboxToken = os.Getenv("MAPBOX_TOKEN")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	if cfg.OpenWeatherAPIKey == "" {
		log.Println("WARN: OPENWEATHER_API_KEY is not set; weather fetches will fail upstream")
	}
	if cfg.MapboxToken == "" {
		log.Println("WARN: MAPBOX_TOKEN is not set; the map frontend will not render tiles")
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "10m"); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getenvDuration("SESSION_TTL", "30m"); err != nil {
		return nil, err
	}

	cfg.HistoryMax = getenvInt("HISTORY_MAX", 96)
	if cfg.HistoryMaxAge, err = getenvDuration("HISTORY_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.DefaultViewPoint = weather.ViewPoint{
		Latitude:  getenvFloat("DEFAULT_LAT", 42.6),
		Longitude: getenvFloat("DEFAULT_LON", -8.1),
		Zoom:      getenvFloat("DEFAULT_ZOOM", 9),
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
