// Package store keeps the ledger of completed playthroughs in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tatianab/ghg-game/internal/models"
)

// Result is one completed playthrough.
type Result struct {
	SessionID   string
	Player      string
	FinalGHG    float64
	Tier        string
	Rounds      int
	CompletedAt time.Time
}

// ResultFromSession builds the ledger row for a completed session.
func ResultFromSession(s models.GameSession, out models.FinalOutcome) Result {
	return Result{
		SessionID:   s.ID,
		Player:      s.PlayerName,
		FinalGHG:    out.FinalMetric,
		Tier:        out.CertificateTier,
		Rounds:      len(s.History),
		CompletedAt: s.UpdatedAt,
	}
}

// Store provides SQLite persistence for results.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the results database at dbPath and migrates it.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS results (
			session_id TEXT PRIMARY KEY,
			player TEXT NOT NULL,
			final_ghg REAL NOT NULL,
			tier TEXT NOT NULL DEFAULT '',
			rounds INTEGER NOT NULL,
			completed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_final_ghg ON results(final_ghg)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordResult adds r to the ledger. Recording the same session twice keeps
// the first row.
func (s *Store) RecordResult(ctx context.Context, r Result) error {
	if r.SessionID == "" {
		return fmt.Errorf("store: record result: empty session id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (session_id, player, final_ghg, tier, rounds, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		r.SessionID, r.Player, r.FinalGHG, r.Tier, r.Rounds, r.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store: record result: %w", err)
	}
	return nil
}

// Top returns up to n results with the lowest final GHG, earliest first on ties.
func (s *Store) Top(ctx context.Context, n int) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, player, final_ghg, tier, rounds, completed_at
		 FROM results
		 ORDER BY final_ghg ASC, completed_at ASC
		 LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("store: top results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r         Result
			completed string
		)
		if err := rows.Scan(&r.SessionID, &r.Player, &r.FinalGHG, &r.Tier, &r.Rounds, &completed); err != nil {
			return nil, fmt.Errorf("store: scan result: %w", err)
		}
		if r.CompletedAt, err = time.Parse(time.RFC3339Nano, completed); err != nil {
			return nil, fmt.Errorf("store: parse completed_at %q: %w", completed, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: top results: %w", err)
	}
	return results, nil
}

// Count is the number of recorded playthroughs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count results: %w", err)
	}
	return n, nil
}
