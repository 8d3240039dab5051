package risk

import "strings"

// Level represents an ordinal wildfire-risk classification.
// Levels are ordered: Low < Medium < High.
type Level int

const (
	Low Level = iota
	Medium
	High
)

// String returns the canonical label used in API payloads and alert banners.
func (l Level) String() string {
	switch l {
	case High:
		return "High"
	case Medium:
		return "Medium"
	default:
		return "Low"
	}
}

// ColorClass returns the stable styling class the map collaborator uses for
// marker tinting. Keys must not change across releases; the frontend binds
// CSS rules to them.
func (l Level) ColorClass() string {
	switch l {
	case High:
		return "risk-red"
	case Medium:
		return "risk-orange"
	default:
		return "risk-green"
	}
}

// MarshalJSON serializes a Level as its label so API payloads carry
// "High"/"Medium"/"Low" rather than ordinals.
func (l Level) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// UnmarshalJSON accepts the same labels MarshalJSON emits.
func (l *Level) UnmarshalJSON(data []byte) error {
	*l = ParseLevel(strings.Trim(string(data), `"`))
	return nil
}

// ParseLevel maps a wire label back to a Level. Unknown labels fall to Low.
func ParseLevel(s string) Level {
	switch s {
	case "High":
		return High
	case "Medium":
		return Medium
	default:
		return Low
	}
}

// Score computes the raw wildfire-risk score from a temperature in Celsius
// and a relative humidity percentage. Hotter and drier means higher risk.
func Score(temperatureC, humidityPct float64) float64 {
	return 1.5*temperatureC - 0.5*humidityPct
}

// Classify maps a (temperature, humidity) pair onto a Level.
//
// Thresholds: score > 60 is High, 40 < score <= 60 is Medium, everything
// else is Low. Boundary scores belong to the lower class. The function is
// total: any real-valued input classifies, and NaN falls through both
// strict comparisons to Low.
func Classify(temperatureC, humidityPct float64) Level {
	score := Score(temperatureC, humidityPct)
	switch {
	case score > 60:
		return High
	case score > 40:
		return Medium
	default:
		return Low
	}
}
