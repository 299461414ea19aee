package pipeline

import (
	"fmt"

	"github.com/bisa-app/factcheck/internal/model"
)

// Reasoning summarizes a run as "Fact-checked: v/t claims verified." followed
// by a sentence for the validity status
func Reasoning(verdicts []model.ClaimVerdict, validity model.ValidityStatus) string {
	return fmt.Sprintf("Fact-checked: %d/%d claims verified. %s",
		model.CountVerified(verdicts), len(verdicts), statusSentence(validity))
}

func statusSentence(validity model.ValidityStatus) string {
	switch validity {
	case model.ValidityTrue:
		return "This post appears to contain factual information."
	case model.ValidityPartiallyTrue:
		return "Some claims are supported but others could not be verified."
	case model.ValidityFalse:
		return "Most claims could not be verified and may be inaccurate."
	case model.ValidityUnverifiable:
		return "No verifiable factual claims were found."
	default:
		return "Some information may be inaccurate or unverified."
	}
}

// Corrections lists one line per unverified claim, or the sentinel when
// there is nothing to correct
func Corrections(verdicts []model.ClaimVerdict) []string {
	var out []string
	for _, v := range verdicts {
		if !v.IsVerified {
			out = append(out, fmt.Sprintf("%q: %s", v.Claim.Text, v.Explanation))
		}
	}
	if len(out) == 0 {
		return []string{model.NoCorrections}
	}
	return out
}

func heuristicAnalysis(verdicts []model.ClaimVerdict, accuracy float64) string {
	if len(verdicts) == 0 {
		return "Heuristic analysis found no factual claims to check."
	}
	return fmt.Sprintf("Heuristic analysis of %d claims: %d verified, average confidence %.2f.",
		len(verdicts), model.CountVerified(verdicts), accuracy)
}
