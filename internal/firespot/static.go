package firespot

import (
	"context"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/fetch"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/risk"
)

// StaticProvider serves the simulated marker payload used until a live
// fire-detection feed is wired in. It satisfies the same contract a live
// provider must: ordered slice, unique stable IDs.
type StaticProvider struct {
	spots []Spot
}

// NewStaticProvider returns a provider over the built-in simulated spots.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{spots: defaultSpots()}
}

// NewStaticProviderWith returns a provider over a caller-supplied payload.
// Construction fails on duplicate IDs rather than letting marker keys
// collide downstream.
func NewStaticProviderWith(spots []Spot) (*StaticProvider, error) {
	if id, dup := ValidateIDs(spots); dup {
		return nil, fetch.Errorf("firespot", "duplicate spot id %d", id)
	}
	return &StaticProvider{spots: spots}, nil
}

// Fetch returns a defensive copy so callers cannot mutate the shared payload.
func (p *StaticProvider) Fetch(ctx context.Context) ([]Spot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetch.Wrap("firespot", err)
	}
	out := make([]Spot, len(p.spots))
	copy(out, p.spots)
	return out, nil
}

// defaultSpots mirrors the marker set the dashboard shipped with: a handful
// of reported locations across the Iberian northwest.
func defaultSpots() []Spot {
	return []Spot{
		{ID: 1, Latitude: 42.6000, Longitude: -8.1000, Risk: risk.High},
		{ID: 2, Latitude: 42.4500, Longitude: -8.3000, Risk: risk.Medium},
		{ID: 3, Latitude: 42.7000, Longitude: -7.9000, Risk: risk.Low},
		{ID: 4, Latitude: 42.3000, Longitude: -8.0500, Risk: risk.High},
		{ID: 5, Latitude: 42.5500, Longitude: -8.4500, Risk: risk.Medium},
	}
}
