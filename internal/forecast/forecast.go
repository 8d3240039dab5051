// Package forecast derives a synthetic near-future trend from the current
// weather reading. It is a placeholder for a real forecast API: samples are
// the current values plus bounded random jitter, regenerated on every
// reading change and never persisted.
package forecast

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/weather"
)

// HoursPerDay is the fixed length of a synthesized series.
const HoursPerDay = 24

// Sample is one hour of the synthesized trend.
type Sample struct {
	TimeLabel   string  `json:"timeLabel"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// Source abstracts the random number generator so tests can assert the
// structural properties of a series deterministically. Float64 must return
// values in [0, 1).
type Source interface {
	Float64() float64
}

// Synthesizer produces hourly forecast series. Deliberately stochastic:
// two calls with the same reading differ in values but never in shape.
type Synthesizer struct {
	src Source
}

// NewSynthesizer creates a Synthesizer. A nil source falls back to a
// time-seeded math/rand generator.
func NewSynthesizer(src Source) *Synthesizer {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{src: src}
}

// Hourly synthesizes exactly 24 samples labeled "0:00" through "23:00" in
// order. Temperature jitters within ±2.5 °C of the reading and humidity
// within ±5 points, clamped to [0,100] so the chart never shows a physically
// impossible percentage.
func (s *Synthesizer) Hourly(r weather.Reading) []Sample {
	samples := make([]Sample, 0, HoursPerDay)
	for hour := 0; hour < HoursPerDay; hour++ {
		samples = append(samples, Sample{
			TimeLabel:   fmt.Sprintf("%d:00", hour),
			Temperature: r.Temperature + s.uniform(-2.5, 2.5),
			Humidity:    clampPct(r.Humidity + s.uniform(-5, 5)),
		})
	}
	return samples
}

// uniform draws from [min, max).
func (s *Synthesizer) uniform(min, max float64) float64 {
	return min + s.src.Float64()*(max-min)
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
