package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/ghg-game/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC)

func TestRecordAndTop(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, ghg := range []float64{1200, 800, 950, 1010, 600, 1500} {
		require.NoError(t, s.RecordResult(ctx, Result{
			SessionID:   string(rune('a' + i)),
			Player:      "player",
			FinalGHG:    ghg,
			Tier:        "Bronze",
			Rounds:      4,
			CompletedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	top, err := s.Top(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 5)

	var got []float64
	for _, r := range top {
		got = append(got, r.FinalGHG)
	}
	assert.Equal(t, []float64{600, 800, 950, 1010, 1200}, got)
	assert.Equal(t, "e", top[0].SessionID)
	assert.True(t, base.Add(4*time.Minute).Equal(top[0].CompletedAt))
	assert.Equal(t, 4, top[0].Rounds)
}

func TestRecordResultKeepsFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := Result{SessionID: "s1", Player: "Ada", FinalGHG: 900, Tier: "Gold", Rounds: 4, CompletedAt: base}
	require.NoError(t, s.RecordResult(ctx, r))
	r.FinalGHG = 100
	require.NoError(t, s.RecordResult(ctx, r))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	top, err := s.Top(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 900.0, top[0].FinalGHG)
}

func TestRecordResultRequiresSession(t *testing.T) {
	s := testStore(t)
	assert.Error(t, s.RecordResult(context.Background(), Result{Player: "Ada"}))
}

func TestTopEmpty(t *testing.T) {
	s := testStore(t)
	top, err := s.Top(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestReopenKeepsResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordResult(ctx, Result{SessionID: "s1", Player: "Ada", FinalGHG: 900, Rounds: 4, CompletedAt: base}))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResultFromSession(t *testing.T) {
	sess := models.GameSession{
		ID:         "s1",
		PlayerName: "Ada",
		History:    models.RoundHistory{{Year: 2005}, {Year: 2010}},
		UpdatedAt:  base,
	}
	r := ResultFromSession(sess, models.FinalOutcome{FinalMetric: 850, CertificateTier: "Gold"})
	assert.Equal(t, Result{SessionID: "s1", Player: "Ada", FinalGHG: 850, Tier: "Gold", Rounds: 2, CompletedAt: base}, r)
}
