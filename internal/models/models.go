package models

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Knob describes one bounded policy parameter the player can adjust.
type Knob struct {
	Name    string
	Label   string
	Min     float64
	Max     float64
	Default float64
}

// Knob ranges accepted by the simulation service.
var (
	Reforestation = Knob{Name: "x_1", Label: "Trees Planted", Min: 0, Max: 1_000_000, Default: 0}
	Travel        = Knob{Name: "x_2", Label: "Flight Miles Traveled", Min: 0, Max: 50_000, Default: 0}
	Energy        = Knob{Name: "x_3", Label: "Energy Consumption (kW)", Min: 10_000, Max: 100_000, Default: 10_000}
)

// Knobs lists the policy knobs in wire order.
var Knobs = []Knob{Reforestation, Travel, Energy}

// Clamp bounds v to the knob's range.
func (k Knob) Clamp(v float64) float64 {
	return min(max(v, k.Min), k.Max)
}

// PolicyInputs is one round's player-chosen parameters.
type PolicyInputs struct {
	Reforestation float64 `yaml:"reforestation"`
	Travel        float64 `yaml:"travel"`
	Energy        float64 `yaml:"energy"`
}

// NewPolicyInputs clamps each value to its knob range.
func NewPolicyInputs(reforestation, travel, energy float64) PolicyInputs {
	return PolicyInputs{
		Reforestation: Reforestation.Clamp(reforestation),
		Travel:        Travel.Clamp(travel),
		Energy:        Energy.Clamp(energy),
	}
}

// DefaultPolicyInputs returns the starting knob positions.
func DefaultPolicyInputs() PolicyInputs {
	return NewPolicyInputs(Reforestation.Default, Travel.Default, Energy.Default)
}

// Values returns the inputs in knob order.
func (p PolicyInputs) Values() []float64 {
	return []float64{p.Reforestation, p.Travel, p.Energy}
}

// InitialState is the simulator's starting point for a playthrough.
type InitialState struct {
	StartYear  int     `yaml:"start_year"`
	InitialGHG float64 `yaml:"initial_ghg"`
}

// RoundResult is the simulator's response to one submitted round.
type RoundResult struct {
	GHG             float64 `yaml:"ghg"`
	Story           string  `yaml:"story"`
	Year            int     `yaml:"year"`
	CertificateTier string  `yaml:"certificate_tier,omitempty"` // empty when the service sent none
}

// RoundEntry is one completed round.
type RoundEntry struct {
	Year   int          `yaml:"year"`
	Inputs PolicyInputs `yaml:"inputs"`
	Result RoundResult  `yaml:"result"`
}

// RoundHistory is the chronological list of completed rounds.
type RoundHistory []RoundEntry

// Last returns the most recent entry.
func (h RoundHistory) Last() (RoundEntry, bool) {
	if len(h) == 0 {
		return RoundEntry{}, false
	}
	return h[len(h)-1], true
}

// Status is the lifecycle state of a GameSession.
type Status int

const (
	StatusInitializing Status = iota
	StatusAwaitingInput
	StatusSubmitting
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusAwaitingInput:
		return "awaiting_input"
	case StatusSubmitting:
		return "submitting"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalYAML stores the status by name.
func (s Status) MarshalYAML() (any, error) {
	return s.String(), nil
}

// UnmarshalYAML parses a status name.
func (s *Status) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	for _, candidate := range []Status{StatusInitializing, StatusAwaitingInput, StatusSubmitting, StatusCompleted, StatusFailed} {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown session status %q", name)
}

// GameSession aggregates all state of one playthrough.
type GameSession struct {
	ID          string       `yaml:"id"`
	PlayerName  string       `yaml:"player_name"`
	StartYear   int          `yaml:"start_year"`
	CurrentYear int          `yaml:"current_year"`
	InitialGHG  float64      `yaml:"initial_ghg"`
	Initialized bool         `yaml:"initialized"`
	History     RoundHistory `yaml:"history"`
	Status      Status       `yaml:"status"`
	Failure     string       `yaml:"failure,omitempty"`
	UpdatedAt   time.Time    `yaml:"updated_at"`
}

// Started reports whether the session received its initial state.
func (s *GameSession) Started() bool {
	return s.Initialized
}

// LatestGHG is the most recent GHG reading, falling back to the initial one.
func (s *GameSession) LatestGHG() float64 {
	if last, ok := s.History.Last(); ok {
		return last.Result.GHG
	}
	return s.InitialGHG
}

// FinalOutcome is the presentable result of a completed playthrough.
type FinalOutcome struct {
	FinalMetric      float64 `yaml:"final_metric"`
	CertificateTier  string  `yaml:"certificate_tier"`
	ClosingNarrative string  `yaml:"closing_narrative"`
}
