package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tatianab/ghg-game/internal/models"
	"github.com/tatianab/ghg-game/internal/outcome"
)

var (
	// ErrUnexpectedStartYear is returned when the service starts at or after the final year.
	ErrUnexpectedStartYear = fmt.Errorf("%w: unexpected start year", models.ErrServiceUnavailable)

	// ErrStaleResult is returned when the service reports a result for a different year
	// than the one just submitted.
	ErrStaleResult = fmt.Errorf("%w: result does not match submitted year", models.ErrServiceUnavailable)
)

// Simulator is the remote GHG simulation service.
type Simulator interface {
	FetchInitialState(ctx context.Context, sessionID string) (models.InitialState, error)
	SubmitRound(ctx context.Context, sessionID string, inputs models.PolicyInputs, year int) error
	FetchRoundResult(ctx context.Context, sessionID string) (models.RoundResult, error)
}

// Rules fix the temporal shape of a playthrough.
type Rules struct {
	FinalYear     int
	YearIncrement int
	RoundTimeout  time.Duration
}

// Engine drives one playthrough at a time through its rounds. It is safe to
// read from other goroutines while a round is in flight, but only one
// Initialize or SubmitRound may run at once.
type Engine struct {
	sim   Simulator
	rules Rules
	log   *slog.Logger
	newID func() string
	now   func() time.Time

	mu      sync.Mutex
	busy    bool
	session models.GameSession
	lastErr error
}

func NewEngine(sim Simulator, rules Rules, log *slog.Logger) (*Engine, error) {
	if rules.FinalYear <= 0 {
		return nil, fmt.Errorf("final year must be positive, got %d", rules.FinalYear)
	}
	if rules.YearIncrement <= 0 {
		return nil, fmt.Errorf("year increment must be positive, got %d", rules.YearIncrement)
	}
	if rules.RoundTimeout <= 0 {
		rules.RoundTimeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		sim:   sim,
		rules: rules,
		log:   log,
		newID: uuid.NewString,
		now:   time.Now,
	}, nil
}

// Initialize starts a fresh playthrough for player, discarding any previous one.
// A new session id is minted so the service starts from clean state too.
func (e *Engine) Initialize(ctx context.Context, player string) error {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return fmt.Errorf("%w: initialize while %s", models.ErrContractViolation, e.session.Status)
	}
	e.busy = true
	e.lastErr = nil
	e.session = models.GameSession{
		ID:         e.newID(),
		PlayerName: player,
		Status:     models.StatusInitializing,
		UpdatedAt:  e.now(),
	}
	id := e.session.ID
	e.mu.Unlock()

	log := e.log.With("session_id", id)
	log.Debug("fetching initial state")

	ctx, cancel := context.WithTimeout(ctx, e.rules.RoundTimeout)
	defer cancel()
	initial, err := e.sim.FetchInitialState(ctx, id)
	if err == nil && initial.StartYear >= e.rules.FinalYear {
		err = fmt.Errorf("%w: service starts at %d, final year is %d", ErrUnexpectedStartYear, initial.StartYear, e.rules.FinalYear)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false

	if err != nil {
		e.fail(err)
		log.Warn("initialize failed", "error", err)
		return err
	}

	e.session.Initialized = true
	e.session.StartYear = initial.StartYear
	e.session.CurrentYear = initial.StartYear
	e.session.InitialGHG = initial.InitialGHG
	e.transition(models.StatusAwaitingInput)
	log.Info("playthrough started", "start_year", initial.StartYear, "initial_ghg", initial.InitialGHG)
	return nil
}

// SubmitRound plays one round with inputs. The inputs are clamped to their
// knob ranges. Submission and result fetch run strictly in order; on any
// failure the history and current year are left as they were, and the same
// round can be submitted again.
func (e *Engine) SubmitRound(ctx context.Context, inputs models.PolicyInputs) (models.RoundEntry, error) {
	inputs = models.NewPolicyInputs(inputs.Reforestation, inputs.Travel, inputs.Energy)

	e.mu.Lock()
	if err := e.checkSubmittable(); err != nil {
		e.mu.Unlock()
		return models.RoundEntry{}, err
	}
	year := min(e.session.CurrentYear+e.rules.YearIncrement, e.rules.FinalYear)
	id := e.session.ID
	e.busy = true
	e.lastErr = nil
	e.session.Failure = ""
	e.transition(models.StatusSubmitting)
	e.mu.Unlock()

	log := e.log.With("session_id", id, "year", year)
	log.Debug("submitting round", "inputs", inputs.Values())

	result, err := e.playRound(ctx, id, inputs, year)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false

	if err != nil {
		e.fail(err)
		log.Warn("round failed", "error", err)
		return models.RoundEntry{}, err
	}

	entry := models.RoundEntry{Year: year, Inputs: inputs, Result: result}
	e.session.History = append(e.session.History, entry)
	e.session.CurrentYear = year

	if year == e.rules.FinalYear {
		e.transition(models.StatusCompleted)
		log.Info("playthrough completed", "ghg", result.GHG, "tier", result.CertificateTier, "rounds", len(e.session.History))
	} else {
		e.transition(models.StatusAwaitingInput)
		log.Info("round completed", "ghg", result.GHG)
	}
	return entry, nil
}

// playRound submits inputs and then fetches the result. The fetch depends on
// the submission having been processed, so the two never overlap.
func (e *Engine) playRound(ctx context.Context, id string, inputs models.PolicyInputs, year int) (models.RoundResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.rules.RoundTimeout)
	defer cancel()

	if err := e.sim.SubmitRound(ctx, id, inputs, year); err != nil {
		return models.RoundResult{}, fmt.Errorf("submit round %d: %w", year, err)
	}
	result, err := e.sim.FetchRoundResult(ctx, id)
	if err != nil {
		return models.RoundResult{}, fmt.Errorf("fetch round %d result: %w", year, err)
	}
	if result.Year != year {
		return models.RoundResult{}, fmt.Errorf("%w: got %d, submitted %d", ErrStaleResult, result.Year, year)
	}
	return result, nil
}

func (e *Engine) checkSubmittable() error {
	if e.busy {
		return fmt.Errorf("%w: round submitted while %s", models.ErrContractViolation, e.session.Status)
	}
	switch e.session.Status {
	case models.StatusAwaitingInput:
		return nil
	case models.StatusFailed:
		if e.session.Started() {
			return nil
		}
		return fmt.Errorf("%w: session failed to initialize; call Initialize", models.ErrContractViolation)
	default:
		return fmt.Errorf("%w: round submitted while %s", models.ErrContractViolation, e.session.Status)
	}
}

// fail records err and moves to Failed. Callers hold e.mu.
func (e *Engine) fail(err error) {
	e.lastErr = err
	e.session.Failure = err.Error()
	e.transition(models.StatusFailed)
}

// transition changes status. Callers hold e.mu.
func (e *Engine) transition(to models.Status) {
	e.log.Debug("session transition", "session_id", e.session.ID, "from", e.session.Status, "to", to)
	e.session.Status = to
	e.session.UpdatedAt = e.now()
}

// Status reports the current session status.
func (e *Engine) Status() models.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Status
}

// Err returns the reason for the Failed status, or nil.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Snapshot returns a copy of the session that callers may keep.
func (e *Engine) Snapshot() models.GameSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.session
	s.History = slices.Clone(e.session.History)
	return s
}

// History returns a copy of the completed rounds.
func (e *Engine) History() models.RoundHistory {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.session.History)
}

// Progress returns the 1-based number of the next round and the total round count,
// both derived from the year span.
func (e *Engine) Progress() (round, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.session.Started() {
		return 0, 0
	}
	total = e.roundsBetween(e.session.StartYear, e.rules.FinalYear)
	round = e.roundsBetween(e.session.StartYear, e.session.CurrentYear) + 1
	return min(round, total), total
}

// roundsBetween counts rounds needed to advance from one year to another.
func (e *Engine) roundsBetween(from, to int) int {
	inc := e.rules.YearIncrement
	return (to - from + inc - 1) / inc
}

// NextYear is the year the next round will simulate.
func (e *Engine) NextYear() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return min(e.session.CurrentYear+e.rules.YearIncrement, e.rules.FinalYear)
}

// Rules returns the rules the engine was built with.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Outcome aggregates the final result. It is only valid once the playthrough completed.
func (e *Engine) Outcome() (models.FinalOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.Status != models.StatusCompleted {
		return models.FinalOutcome{}, fmt.Errorf("%w: outcome requested while %s", models.ErrContractViolation, e.session.Status)
	}
	return outcome.Aggregate(e.session.History)
}

// IsRetryable reports whether err is a service failure the player can retry.
func IsRetryable(err error) bool {
	return errors.Is(err, models.ErrServiceUnavailable)
}
