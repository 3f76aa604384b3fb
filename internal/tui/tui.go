// Package tui is the terminal front end of the game. It only calls into the
// engine and renders what it reports.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/ghg-game/internal/engine"
	"github.com/tatianab/ghg-game/internal/models"
	"github.com/tatianab/ghg-game/internal/store"
)

type screen int

const (
	screenName screen = iota
	screenIntro
	screenInitializing
	screenRound
	screenSubmitting
	screenFailed
	screenFinal
)

const leaderboardSize = 5

// Ledger records finished playthroughs and ranks them.
type Ledger interface {
	RecordResult(ctx context.Context, r store.Result) error
	Top(ctx context.Context, n int) ([]store.Result, error)
}

// Options wires the TUI to the rest of the game.
type Options struct {
	Engine         *engine.Engine
	Ledger         Ledger // optional
	SaveDir        string // transcripts are not saved when empty
	CertificateDir string
	Log            *slog.Logger
}

type model struct {
	opts Options

	screen     screen
	nameInput  textinput.Model
	knobInputs []textinput.Model
	focused    int
	spinner    spinner.Model
	viewport   viewport.Model

	player   string
	storyLog []string
	inputErr string
	err      error
	report   *finalReport

	width  int
	height int
}

// finalReport is everything shown once the playthrough is complete.
type finalReport struct {
	outcome         models.FinalOutcome
	certificatePath string
	leaderboard     []store.Result
	notes           []string
}

func NewModel(opts Options) model {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "Your name"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	knobs := make([]textinput.Model, len(models.Knobs))
	for i, k := range models.Knobs {
		in := textinput.New()
		in.Prompt = fmt.Sprintf("%-24s ", k.Label)
		in.Placeholder = fmt.Sprintf("%s to %s", formatValue(k.Min), formatValue(k.Max))
		in.CharLimit = 16
		in.Width = 20
		knobs[i] = in
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	return model{
		opts:       opts,
		screen:     screenName,
		nameInput:  ti,
		knobInputs: knobs,
		spinner:    sp,
		viewport:   viewport.New(80, 10),
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

type initializedMsg struct {
	err error
}

type roundPlayedMsg struct {
	entry models.RoundEntry
	err   error
}

type finishedMsg struct {
	report finalReport
	err    error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-16, 4)
		m.refreshStories()
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case initializedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.screen = screenFailed
			return m, nil
		}
		snap := m.opts.Engine.Snapshot()
		m.storyLog = []string{fmt.Sprintf("It is %d. Greenhouse gases stand at %.1f.", snap.StartYear, snap.InitialGHG)}
		m.refreshStories()
		m.setKnobValues(models.DefaultPolicyInputs())
		cmd := m.enterRound()
		return m, cmd

	case roundPlayedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.screen = screenFailed
			return m, nil
		}
		m.storyLog = append(m.storyLog, fmt.Sprintf("%d: %s", msg.entry.Year, msg.entry.Result.Story))
		m.refreshStories()
		m.setKnobValues(msg.entry.Inputs)
		if m.opts.Engine.Status() == models.StatusCompleted {
			m.screen = screenFinal
			m.report = nil
			return m, tea.Batch(m.spinner.Tick, m.finish())
		}
		cmd := m.enterRound()
		return m, cmd

	case finishedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.screen = screenFailed
			return m, nil
		}
		m.report = &msg.report
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenName:
		if msg.Type == tea.KeyEnter {
			name := strings.TrimSpace(m.nameInput.Value())
			if name == "" {
				m.inputErr = "Please enter your name."
				return m, nil
			}
			m.player = name
			m.inputErr = ""
			m.nameInput.Blur()
			m.screen = screenIntro
			return m, nil
		}

	case screenIntro:
		if msg.Type == tea.KeyEnter {
			return m.startPlaythrough()
		}
		return m, nil

	case screenRound:
		switch msg.Type {
		case tea.KeyTab, tea.KeyDown:
			cmd := m.focusKnob(m.focused + 1)
			return m, cmd
		case tea.KeyShiftTab, tea.KeyUp:
			cmd := m.focusKnob(m.focused - 1)
			return m, cmd
		case tea.KeyEnter:
			inputs, err := m.readKnobs()
			if err != nil {
				m.inputErr = err.Error()
				return m, nil
			}
			m.inputErr = ""
			m.screen = screenSubmitting
			return m, tea.Batch(m.spinner.Tick, m.submit(inputs))
		}

	case screenFailed:
		switch msg.String() {
		case "r", "R":
			m.err = nil
			snap := m.opts.Engine.Snapshot()
			if !snap.Started() {
				return m.startPlaythrough()
			}
			if snap.Status == models.StatusCompleted {
				m.screen = screenFinal
				m.report = nil
				return m, tea.Batch(m.spinner.Tick, m.finish())
			}
			cmd := m.enterRound()
			return m, cmd
		case "q", "Q":
			return m, tea.Quit
		}
		return m, nil

	case screenFinal:
		switch msg.String() {
		case "n", "N":
			return m.startPlaythrough()
		case "q", "Q":
			return m, tea.Quit
		}
		return m, nil

	default:
		// Keys are ignored while a request is in flight.
		return m, nil
	}

	return m.updateInputs(msg)
}

// startPlaythrough begins a fresh session for the current player.
func (m model) startPlaythrough() (tea.Model, tea.Cmd) {
	m.screen = screenInitializing
	m.report = nil
	m.storyLog = nil
	m.refreshStories()
	return m, tea.Batch(m.spinner.Tick, m.initialize())
}

func (m *model) enterRound() tea.Cmd {
	m.screen = screenRound
	return m.focusKnob(m.focused)
}

func (m *model) focusKnob(i int) tea.Cmd {
	n := len(m.knobInputs)
	m.focused = (i%n + n) % n
	for j := range m.knobInputs {
		m.knobInputs[j].Blur()
	}
	return m.knobInputs[m.focused].Focus()
}

func (m *model) setKnobValues(inputs models.PolicyInputs) {
	for i, v := range inputs.Values() {
		m.knobInputs[i].SetValue(formatValue(v))
	}
}

// readKnobs parses the knob fields. Values outside a knob's range are
// accepted here and clamped by the engine.
func (m model) readKnobs() (models.PolicyInputs, error) {
	values := make([]float64, len(m.knobInputs))
	for i, in := range m.knobInputs {
		raw := strings.NewReplacer(",", "", "_", "").Replace(strings.TrimSpace(in.Value()))
		if raw == "" {
			values[i] = models.Knobs[i].Default
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.PolicyInputs{}, fmt.Errorf("%s: %q is not a number", models.Knobs[i].Label, in.Value())
		}
		values[i] = v
	}
	return models.NewPolicyInputs(values[0], values[1], values[2]), nil
}

func (m model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenName:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case screenRound:
		m.knobInputs[m.focused], cmd = m.knobInputs[m.focused].Update(msg)
	default:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) busy() bool {
	return m.screen == screenInitializing || m.screen == screenSubmitting || (m.screen == screenFinal && m.report == nil)
}

func (m *model) refreshStories() {
	width := m.viewport.Width
	var b strings.Builder
	for i, story := range m.storyLog {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(storyStyle.Width(width).Render(story))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Run starts the TUI and blocks until the player quits.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
