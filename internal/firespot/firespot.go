package firespot

import (
	"context"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/risk"
)

// Spot is a known or reported wildfire-risk location overlaid on the map.
// Identity is ID; marker rendering keys on it, so IDs must stay stable
// across refreshes.
type Spot struct {
	ID        int        `json:"id"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Risk      risk.Level `json:"risk"`
}

// Provider supplies the global marker set. Today's scope is global rather
// than spatially filtered, so Fetch takes no viewpoint. Live feeds replace
// the static implementation behind this interface; the contract (ordered
// slice, unique stable IDs) must hold for any implementation.
type Provider interface {
	Fetch(ctx context.Context) ([]Spot, error)
}

// ValidateIDs reports the first duplicate ID in a spot collection, if any.
// Duplicate IDs would collide as marker keys downstream.
func ValidateIDs(spots []Spot) (int, bool) {
	seen := make(map[int]struct{}, len(spots))
	for _, s := range spots {
		if _, dup := seen[s.ID]; dup {
			return s.ID, true
		}
		seen[s.ID] = struct{}{}
	}
	return 0, false
}
