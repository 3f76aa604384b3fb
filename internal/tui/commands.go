package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/ghg-game/internal/certificate"
	"github.com/tatianab/ghg-game/internal/models"
	"github.com/tatianab/ghg-game/internal/store"
)

func (m model) initialize() tea.Cmd {
	player := m.player
	return func() tea.Msg {
		err := m.opts.Engine.Initialize(context.Background(), player)
		m.saveTranscript()
		return initializedMsg{err: err}
	}
}

func (m model) submit(inputs models.PolicyInputs) tea.Cmd {
	return func() tea.Msg {
		entry, err := m.opts.Engine.SubmitRound(context.Background(), inputs)
		m.saveTranscript()
		return roundPlayedMsg{entry: entry, err: err}
	}
}

// finish aggregates the outcome, writes the certificate and updates the
// ledger. Only the outcome is required; the rest are reported as notes.
func (m model) finish() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		eng := m.opts.Engine

		out, err := eng.Outcome()
		if err != nil {
			return finishedMsg{err: err}
		}
		snap := eng.Snapshot()
		report := finalReport{outcome: out}

		cert := certificate.Certificate{
			Player:    snap.PlayerName,
			FinalYear: eng.Rules().FinalYear,
			Outcome:   out,
			Date:      time.Now(),
		}
		if path, err := cert.WriteFile(m.opts.CertificateDir); err != nil {
			m.opts.Log.Warn("failed to write certificate", "session_id", snap.ID, "error", err)
			report.notes = append(report.notes, "Certificate could not be saved.")
		} else {
			report.certificatePath = path
		}

		if m.opts.Ledger != nil {
			if err := m.opts.Ledger.RecordResult(ctx, store.ResultFromSession(snap, out)); err != nil {
				m.opts.Log.Warn("failed to record result", "session_id", snap.ID, "error", err)
				report.notes = append(report.notes, "Result could not be recorded.")
			}
			top, err := m.opts.Ledger.Top(ctx, leaderboardSize)
			if err != nil {
				m.opts.Log.Warn("failed to load leaderboard", "error", err)
			}
			report.leaderboard = top
		}
		return finishedMsg{report: report}
	}
}

func (m model) saveTranscript() {
	if m.opts.SaveDir == "" {
		return
	}
	snap := m.opts.Engine.Snapshot()
	if snap.ID == "" {
		return
	}
	if err := snap.Save(m.opts.SaveDir); err != nil {
		m.opts.Log.Warn("failed to save transcript", "session_id", snap.ID, "error", err)
	}
}
