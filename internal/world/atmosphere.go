package world

import (
	"math"
	"math/rand"
)

// Atmosphere tracks time-of-day and a slowly shifting wind vector. The
// wind feeds drone drift; everything else about it is cosmetic.
type Atmosphere struct {
	TimeOfDay float64 // Hours, 0..24, wraps
	WindX     float64
	WindZ     float64

	dayLength float64 // Real seconds per in-game day
	phaseA    float64
	phaseB    float64
	elapsed   float64
}

// NewAtmosphere starts at dusk (the game's signature look) with seeded
// wind phases so replays match.
func NewAtmosphere(rng *rand.Rand) *Atmosphere {
	return &Atmosphere{
		TimeOfDay: 18.5,
		dayLength: 600, // 10 minute days
		phaseA:    rng.Float64() * 2 * math.Pi,
		phaseB:    rng.Float64() * 2 * math.Pi,
	}
}

// Update advances the clock and re-samples the wind. Two offset sine
// waves give gusty but smooth drift, max ~3 m/s.
func (a *Atmosphere) Update(dt float64) {
	a.elapsed += dt
	a.TimeOfDay += dt / a.dayLength * 24
	for a.TimeOfDay >= 24 {
		a.TimeOfDay -= 24
	}

	a.WindX = 2.0*math.Sin(a.elapsed*0.13+a.phaseA) + 1.0*math.Sin(a.elapsed*0.037+a.phaseB)
	a.WindZ = 2.0*math.Cos(a.elapsed*0.11+a.phaseB) + 1.0*math.Sin(a.elapsed*0.053+a.phaseA)
}
