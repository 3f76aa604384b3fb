package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const introText = `Hello, %s, and welcome to the year 2080. The world is very different now. ` +
	`The air is hard to breathe, and the sky is always gray. Cities by the ocean are underwater, ` +
	`and many animals we once knew are gone. Wildfires, floods, and storms happen all the time, ` +
	`making it difficult to live in many places.

You have been sent back to change the course of history. Each round you decide how many trees ` +
	`are planted, how many flight miles are traveled, and how much energy is consumed. Choose well.`

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	storyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	statusStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	certificateStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#5F5F87")).
				Padding(1, 2)
)

func (m model) View() string {
	var s string

	switch m.screen {
	case screenName:
		s = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("2080"),
			"",
			"Please enter your name:",
			m.nameInput.View(),
			m.renderInputErr(),
			helpStyle.Render("Enter to continue, Esc to quit."),
		)

	case screenIntro:
		s = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("2080"),
			"",
			storyStyle.Width(m.textWidth()).Render(fmt.Sprintf(introText, m.player)),
			"",
			helpStyle.Render("Press Enter to start the game."),
		)

	case screenInitializing:
		s = fmt.Sprintf("%s Contacting the simulation...", m.spinner.View())

	case screenRound, screenSubmitting:
		s = m.renderRound()

	case screenFailed:
		s = lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render("Something went wrong."),
			"",
			storyStyle.Width(m.textWidth()).Render(fmt.Sprintf("%v", m.err)),
			"",
			helpStyle.Render("Press R to retry, Q to quit."),
		)

	case screenFinal:
		s = m.renderFinal()
	}

	return "\n" + s + "\n"
}

func (m model) renderRound() string {
	snap := m.opts.Engine.Snapshot()
	round, total := m.opts.Engine.Progress()

	status := statusStyle.Render(strings.Join([]string{
		titleStyle.Render("ROUND"),
		fmt.Sprintf("%d of %d", round, total),
		"",
		titleStyle.Render("YEAR"),
		fmt.Sprintf("%d → %d", snap.CurrentYear, m.opts.Engine.NextYear()),
		"",
		titleStyle.Render("GHG"),
		fmt.Sprintf("%.1f", snap.LatestGHG()),
	}, "\n"))

	knobs := make([]string, len(m.knobInputs))
	for i, in := range m.knobInputs {
		knobs[i] = in.View()
	}

	var footer string
	if m.screen == screenSubmitting {
		footer = fmt.Sprintf("%s Simulating %d...", m.spinner.View(), m.opts.Engine.NextYear())
	} else {
		footer = helpStyle.Render("Tab to move between fields, Enter to submit, Esc to quit.")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), status),
		"",
		strings.Join(knobs, "\n"),
		m.renderInputErr(),
		footer,
	)
}

func (m model) renderFinal() string {
	if m.report == nil {
		return fmt.Sprintf("%s Preparing your results...", m.spinner.View())
	}
	r := m.report

	lines := []string{
		titleStyle.Render(fmt.Sprintf("Congratulations, %s!", m.player)),
		"",
		"Your decisions have led to the following outcome:",
		storyStyle.Width(m.textWidth()).Render(r.outcome.ClosingNarrative),
		"",
		fmt.Sprintf("Final GHG (%d): %.1f", m.opts.Engine.Rules().FinalYear, r.outcome.FinalMetric),
		fmt.Sprintf("Certificate Level: %s", r.outcome.CertificateTier),
	}
	if r.certificatePath != "" {
		lines = append(lines, "", helpStyle.Render("Certificate saved to "+r.certificatePath))
	}
	for _, note := range r.notes {
		lines = append(lines, errorStyle.Render(note))
	}

	if len(r.leaderboard) > 0 {
		board := []string{titleStyle.Render("LOWEST GHG")}
		for i, res := range r.leaderboard {
			board = append(board, fmt.Sprintf("%d. %-16s %8.1f  %s", i+1, res.Player, res.FinalGHG, res.Tier))
		}
		lines = append(lines, "", certificateStyle.Render(strings.Join(board, "\n")))
	}

	lines = append(lines, "", helpStyle.Render("Press N to play again, Q to quit."))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m model) renderInputErr() string {
	if m.inputErr == "" {
		return ""
	}
	return errorStyle.Render(m.inputErr)
}

func (m model) textWidth() int {
	if m.width == 0 {
		return 76
	}
	return max(m.width-4, 20)
}
