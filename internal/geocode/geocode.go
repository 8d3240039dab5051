package geocode

import (
	"errors"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/weather"
)

// ErrNotConfigured is returned when no geocoder API key was supplied.
var ErrNotConfigured = errors.New("geocoder is not configured")

// ErrNoMatch is returned when the upstream finds nothing for a query.
var ErrNoMatch = errors.New("no location matches the query")

// Resolver turns a free-text place query into a map viewpoint so the
// frontend can move the camera by name. The feature is optional: without
// an API key every lookup returns ErrNotConfigured.
type Resolver struct {
	enabled     bool
	defaultZoom float64
}

// NewResolver configures the underlying geocoder once at startup. The
// library keys requests off a package-level API key, so this is the single
// place that global is written.
func NewResolver(apiKey string, defaultZoom float64) *Resolver {
	if apiKey == "" {
		return &Resolver{}
	}
	geocoder.ApiKey = apiKey
	return &Resolver{enabled: true, defaultZoom: defaultZoom}
}

// Enabled reports whether lookups can be served.
func (r *Resolver) Enabled() bool {
	return r.enabled
}

// Resolve geocodes a place name into a viewpoint at the default zoom.
func (r *Resolver) Resolve(query string) (weather.ViewPoint, error) {
	if !r.enabled {
		return weather.ViewPoint{}, ErrNotConfigured
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return weather.ViewPoint{}, ErrNoMatch
	}

	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	if err != nil {
		return weather.ViewPoint{}, err
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return weather.ViewPoint{}, ErrNoMatch
	}

	return weather.ViewPoint{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Zoom:      r.defaultZoom,
	}, nil
}
