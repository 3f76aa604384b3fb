package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewPolicyInputsClamps(t *testing.T) {
	in := NewPolicyInputs(-5, 60_000, 500)

	assert.Equal(t, 0.0, in.Reforestation)
	assert.Equal(t, 50_000.0, in.Travel)
	assert.Equal(t, 10_000.0, in.Energy)

	in = NewPolicyInputs(2_000_000, 100, 200_000)
	assert.Equal(t, 1_000_000.0, in.Reforestation)
	assert.Equal(t, 100.0, in.Travel)
	assert.Equal(t, 100_000.0, in.Energy)
}

func TestKnobWireNamesAndLabels(t *testing.T) {
	var names, labels []string
	for _, k := range Knobs {
		names = append(names, k.Name)
		labels = append(labels, k.Label)
	}
	assert.Equal(t, []string{"x_1", "x_2", "x_3"}, names)
	assert.Equal(t, []string{"Trees Planted", "Flight Miles Traveled", "Energy Consumption (kW)"}, labels)
}

func TestDefaultPolicyInputs(t *testing.T) {
	assert.Equal(t, []float64{0, 0, 10_000}, DefaultPolicyInputs().Values())
}

func TestLatestGHG(t *testing.T) {
	s := &GameSession{InitialGHG: 1000}
	assert.Equal(t, 1000.0, s.LatestGHG())

	s.History = append(s.History, RoundEntry{Year: 2005, Result: RoundResult{GHG: 870}})
	assert.Equal(t, 870.0, s.LatestGHG())
}

func TestStatusYAML(t *testing.T) {
	data, err := yaml.Marshal(struct {
		Status Status `yaml:"status"`
	}{StatusAwaitingInput})
	require.NoError(t, err)
	assert.Contains(t, string(data), "awaiting_input")

	var out struct {
		Status Status `yaml:"status"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("status: completed\n"), &out))
	assert.Equal(t, StatusCompleted, out.Status)

	assert.Error(t, yaml.Unmarshal([]byte("status: paused\n"), &out))
}

func TestSessionTranscript(t *testing.T) {
	dir := t.TempDir()
	session := &GameSession{
		ID:          "abc-123",
		PlayerName:  "Robin",
		StartYear:   2000,
		CurrentYear: 2005,
		InitialGHG:  1000,
		Initialized: true,
		History: RoundHistory{
			{Year: 2005, Inputs: NewPolicyInputs(1000, 200, 20_000), Result: RoundResult{GHG: 950, Story: "Cleaner air.", Year: 2005}},
		},
		Status:    StatusAwaitingInput,
		UpdatedAt: time.Date(2024, 10, 5, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, session.Save(dir))

	loaded, err := LoadSession(dir, "abc-123")
	require.NoError(t, err)
	assert.Equal(t, session.PlayerName, loaded.PlayerName)
	assert.Equal(t, StatusAwaitingInput, loaded.Status)
	assert.True(t, loaded.Started())
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "Cleaner air.", loaded.History[0].Result.Story)

	ids, err := ListSessions(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc-123"}, ids)
}

func TestListSessionsMissingDir(t *testing.T) {
	ids, err := ListSessions(t.TempDir() + "/nope")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
