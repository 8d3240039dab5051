package weather

import (
	"context"
	"time"
)

// Provider abstracts a current-weather data source (e.g. OpenWeatherMap).
// Coordinates are passed through unvalidated; the upstream service's own
// response decides success or failure for out-of-range values.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, lat, lon float64) (Reading, error)
}

// HistoryStore is the contract for retaining past readings per coordinate
// so the trend-chart collaborator can show real history alongside the
// synthetic forecast.
type HistoryStore interface {
	Save(vp ViewPoint, r Reading)
	Latest(vp ViewPoint) (Reading, error)
	Range(vp ViewPoint, from, to time.Time) ([]Reading, error)
}
