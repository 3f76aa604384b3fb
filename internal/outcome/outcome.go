// Package outcome derives the final presentable result of a playthrough.
package outcome

import (
	"fmt"

	"github.com/tatianab/ghg-game/internal/models"
)

const (
	// NoTier is reported when the last round carried no certificate tier.
	NoTier = "None"
	// NoNarrative is reported when the last round carried no story.
	NoNarrative = "No story available"
)

// Aggregate computes the FinalOutcome from a completed round history.
// An empty history is a contract violation: it must only be called after completion.
func Aggregate(history models.RoundHistory) (models.FinalOutcome, error) {
	last, ok := history.Last()
	if !ok {
		return models.FinalOutcome{}, fmt.Errorf("%w: aggregate called on empty round history", models.ErrContractViolation)
	}

	out := models.FinalOutcome{
		FinalMetric:      last.Result.GHG,
		CertificateTier:  last.Result.CertificateTier,
		ClosingNarrative: last.Result.Story,
	}
	if out.CertificateTier == "" {
		out.CertificateTier = NoTier
	}
	if out.ClosingNarrative == "" {
		out.ClosingNarrative = NoNarrative
	}
	return out, nil
}
