package weather

import (
	"fmt"
	"time"
)

// Reading is the normalized current-weather view for a single coordinate.
// A reading is immutable once received; a new fetch supersedes it wholesale
// rather than merging fields.
type Reading struct {
	Temperature float64   `json:"temperatureC"`
	Humidity    float64   `json:"humidityPercent"`
	WindSpeed   float64   `json:"windSpeedMs"`
	FetchedAt   time.Time `json:"fetchedAt"` // always UTC
}

// ViewPoint is the query coordinate plus map camera state. It is mutated
// only by camera-change events from the map collaborator; every mutation
// invalidates the active Reading.
type ViewPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoomLevel"`
}

// Key returns a canonical string key for indexing a viewpoint's coordinate
// in stores. Zoom does not participate: two cameras over the same spot
// share weather history.
func (v ViewPoint) Key() string {
	return fmt.Sprintf("%.4f:%.4f", v.Latitude, v.Longitude)
}
