// Package simulator is the reference GHG simulation behind cmd/simserver.
//
// The model is intentionally small: each knob contributes a yearly delta to
// the GHG level, reforestation pulls it down, travel and energy push it up.
package simulator

import (
	"math"

	"github.com/tatianab/ghg-game/internal/models"
)

// Yearly GHG contribution per knob unit.
const (
	SequestrationPerTree = 0.0002
	EmissionPerMile      = 0.002
	EmissionPerKWh       = 0.001
)

// Certificate tiers.
const (
	TierGold   = "Gold"
	TierSilver = "Silver"
	TierBronze = "Bronze"
)

// Model holds the fixed parameters of a simulated playthrough.
type Model struct {
	StartYear  int
	FinalYear  int
	InitialGHG float64
}

// YearlyDelta is the GHG change per simulated year under inputs.
func YearlyDelta(in models.PolicyInputs) float64 {
	return in.Travel*EmissionPerMile + in.Energy*EmissionPerKWh - in.Reforestation*SequestrationPerTree
}

// Step advances ghg by the given number of years. GHG never drops below zero.
func (m Model) Step(ghg float64, in models.PolicyInputs, years int) float64 {
	next := ghg + YearlyDelta(in)*float64(years)
	return math.Max(next, 0)
}

// Tier grades a final GHG level against the starting level.
func (m Model) Tier(ghg float64) string {
	ratio := ghg / m.InitialGHG
	switch {
	case ratio <= 0.9:
		return TierGold
	case ratio <= 1.1:
		return TierSilver
	default:
		return TierBronze
	}
}

// IsFinal reports whether year closes the playthrough.
func (m Model) IsFinal(year int) bool {
	return year >= m.FinalYear
}
