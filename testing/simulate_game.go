package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tatianab/ghg-game/internal/config"
	"github.com/tatianab/ghg-game/internal/engine"
	"github.com/tatianab/ghg-game/internal/logger"
	"github.com/tatianab/ghg-game/internal/models"
	"github.com/tatianab/ghg-game/internal/simclient"
)

const playthroughs = 3

// Fixed strategies used when no Gemini key is configured.
var strategies = []struct {
	name   string
	inputs models.PolicyInputs
}{
	{"green", models.NewPolicyInputs(1_000_000, 0, 10_000)},
	{"balanced", models.NewPolicyInputs(250_000, 10_000, 40_000)},
	{"careless", models.NewPolicyInputs(0, 50_000, 100_000)},
}

type player func(ctx context.Context, session models.GameSession, fallback models.PolicyInputs) models.PolicyInputs

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client := simclient.New(simclient.Config{BaseURL: cfg.SimulatorURL, UserAgent: "ghg-harness/" + config.Version})
	eng, err := engine.NewEngine(client, engine.Rules{
		FinalYear:     cfg.FinalYear,
		YearIncrement: cfg.YearIncrement,
		RoundTimeout:  cfg.RoundTimeout,
	}, logger.New(cfg.Logger(), log.Writer()))
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	choose := player(func(_ context.Context, _ models.GameSession, fallback models.PolicyInputs) models.PolicyInputs {
		return fallback
	})
	if cfg.GeminiAPIKey != "" {
		playerClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			log.Fatalf("Failed to create player client: %v", err)
		}
		defer playerClient.Close()
		playerModel := playerClient.GenerativeModel(cfg.GeminiModel)
		playerModel.ResponseMIMEType = "application/json"
		choose = geminiPlayer(playerModel)
		fmt.Println("Knobs are chosen by the Player LLM.")
	}

	for i := range playthroughs {
		strategy := strategies[i%len(strategies)]
		fmt.Printf("=== Playthrough %d (%s) ===\n", i+1, strategy.name)

		if err := eng.Initialize(ctx, "harness-"+strategy.name); err != nil {
			fmt.Printf("Initialize failed: %v\n\n", err)
			continue
		}
		snap := eng.Snapshot()
		fmt.Printf("Session %s starts in %d at GHG %.1f\n", snap.ID, snap.StartYear, snap.InitialGHG)

		for eng.Status() != models.StatusCompleted {
			round, total := eng.Progress()
			inputs := choose(ctx, eng.Snapshot(), strategy.inputs)
			fmt.Printf("--- Round %d/%d (%d) ---\n", round, total, eng.NextYear())
			fmt.Printf("Inputs: trees=%.0f flight_miles=%.0f energy_kw=%.0f\n", inputs.Reforestation, inputs.Travel, inputs.Energy)

			entry, err := eng.SubmitRound(ctx, inputs)
			if err != nil {
				fmt.Printf("Round failed: %v\n", err)
				if !engine.IsRetryable(err) {
					break
				}
				// One retry of the same round, as a player pressing R would.
				if entry, err = eng.SubmitRound(ctx, inputs); err != nil {
					fmt.Printf("Retry failed: %v\n", err)
					break
				}
			}
			fmt.Printf("GHG: %.1f\nStory: %s\n", entry.Result.GHG, entry.Result.Story)
		}

		out, err := eng.Outcome()
		if err != nil {
			fmt.Printf("Playthrough did not complete: %v\n\n", err)
			continue
		}
		fmt.Printf("Final GHG: %.1f, certificate: %s\n%s\n\n", out.FinalMetric, out.CertificateTier, out.ClosingNarrative)
	}
}

// geminiPlayer asks the Player LLM for the next round's knob values.
func geminiPlayer(model *genai.GenerativeModel) player {
	return func(ctx context.Context, session models.GameSession, fallback models.PolicyInputs) models.PolicyInputs {
		var history strings.Builder
		for _, entry := range session.History {
			fmt.Fprintf(&history, "Year %d: trees=%.0f flight_miles=%.0f energy_kw=%.0f -> GHG %.1f\n",
				entry.Year, entry.Inputs.Reforestation, entry.Inputs.Travel, entry.Inputs.Energy, entry.Result.GHG)
		}

		prompt := fmt.Sprintf(`You are playing a climate policy game. Each round you choose:
%s

The starting GHG level was %.1f. The current GHG level is %.1f.
History:
%s
Pick values for the next round. Return ONLY JSON of the form {"x_1": number, "x_2": number, "x_3": number}.`,
			knobList(), session.InitialGHG, session.LatestGHG(), history.String(),
		)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return fallback
		}
		text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
		if !ok {
			return fallback
		}

		var choice struct {
			X1 float64 `json:"x_1"`
			X2 float64 `json:"x_2"`
			X3 float64 `json:"x_3"`
		}
		if err := json.Unmarshal([]byte(text), &choice); err != nil {
			return fallback
		}
		return models.NewPolicyInputs(choice.X1, choice.X2, choice.X3)
	}
}

// knobList describes each knob as "- x_1: Trees Planted, between 0 and 1000000".
func knobList() string {
	lines := make([]string, len(models.Knobs))
	for i, k := range models.Knobs {
		lines[i] = fmt.Sprintf("- %s: %s, between %.0f and %.0f", k.Name, k.Label, k.Min, k.Max)
	}
	return strings.Join(lines, "\n")
}
