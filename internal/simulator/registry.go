package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tatianab/ghg-game/internal/models"
	"github.com/tatianab/ghg-game/internal/narrator"
)

// DefaultSession keys requests that arrive without a session id.
const DefaultSession = "default"

var (
	ErrNoSession        = errors.New("session not started")
	ErrNoRound          = errors.New("no round submitted")
	ErrYearOutOfRange   = errors.New("year out of range")
	ErrInvalidSessionID = errors.New("invalid session id")
)

// Output is the computed outcome of the most recent round.
type Output struct {
	GHG   float64
	Story string
	Year  int
	Tier  string // empty before the final year
}

// session holds one playthrough. base is the last committed round; pending is
// the round most recently submitted. Re-submitting the pending year replaces
// it, so a client retrying after a failed fetch does not advance twice.
type session struct {
	mu       sync.Mutex
	baseYear int
	baseGHG  float64
	pending  *Output
}

// Registry keeps per-session simulation state, evicting the least recently
// used sessions beyond its capacity.
type Registry struct {
	model    Model
	narrator narrator.Narrator
	log      *slog.Logger
	sessions *lru.Cache[string, *session]
}

func NewRegistry(model Model, n narrator.Narrator, maxSessions int, log *slog.Logger) (*Registry, error) {
	if model.FinalYear <= model.StartYear {
		return nil, fmt.Errorf("final year %d must be after start year %d", model.FinalYear, model.StartYear)
	}
	if log == nil {
		log = slog.Default()
	}
	cache, err := lru.NewWithEvict(maxSessions, func(id string, _ *session) {
		log.Info("session evicted", "session_id", id)
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Registry{model: model, narrator: n, log: log, sessions: cache}, nil
}

// Model returns the simulation parameters.
func (r *Registry) Model() Model {
	return r.model
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Len()
}

// Reset starts (or restarts) the session and returns its initial state.
func (r *Registry) Reset(id string) (models.InitialState, error) {
	if id == "" {
		return models.InitialState{}, ErrInvalidSessionID
	}
	r.sessions.Add(id, &session{baseYear: r.model.StartYear, baseGHG: r.model.InitialGHG})
	return models.InitialState{StartYear: r.model.StartYear, InitialGHG: r.model.InitialGHG}, nil
}

// Submit simulates the session forward to year under inputs.
func (r *Registry) Submit(ctx context.Context, id string, in models.PolicyInputs, year int) (Output, error) {
	s, ok := r.sessions.Get(id)
	if !ok {
		return Output{}, ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if year > r.model.FinalYear {
		return Output{}, fmt.Errorf("%w: %d is after final year %d", ErrYearOutOfRange, year, r.model.FinalYear)
	}
	if s.pending != nil && year > s.pending.Year {
		s.baseYear = s.pending.Year
		s.baseGHG = s.pending.GHG
		s.pending = nil
	}
	if year <= s.baseYear || (s.pending != nil && year < s.pending.Year) {
		return Output{}, fmt.Errorf("%w: %d not in (%d, %d]", ErrYearOutOfRange, year, s.baseYear, r.model.FinalYear)
	}

	out := Output{
		GHG:  r.model.Step(s.baseGHG, in, year-s.baseYear),
		Year: year,
	}
	if r.model.IsFinal(year) {
		out.Tier = r.model.Tier(out.GHG)
	}

	story, err := r.narrator.Narrate(ctx, narrator.Scene{Year: year, GHG: out.GHG, InitialGHG: r.model.InitialGHG, Tier: out.Tier})
	if err != nil {
		return Output{}, fmt.Errorf("narrate round %d: %w", year, err)
	}
	out.Story = story

	s.pending = &out
	return out, nil
}

// Output returns the most recently submitted round.
func (r *Registry) Output(id string) (Output, error) {
	s, ok := r.sessions.Get(id)
	if !ok {
		return Output{}, ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Output{}, ErrNoRound
	}
	return *s.pending, nil
}
