package score

import "github.com/bisa-app/factcheck/internal/model"

// ValidityClassifier maps the aggregate judgment to a validity status.
//
// Table (defaults in parentheses):
//
//	no verdicts                                   -> UNVERIFIABLE
//	ratio >= TrueRatio (0.8) and level != LOW     -> TRUE
//	ratio <= FalseRatio (0.2)                     -> FALSE
//	FalseRatio < ratio < TrueRatio, score >= 0.5  -> PARTIALLY_TRUE
//	otherwise                                     -> MISLEADING
//
// where ratio is the share of verified claims.
type ValidityClassifier struct {
	trueRatio       float64
	falseRatio      float64
	partialMinScore float64
}

// NewValidityClassifier creates a classifier using the profile's thresholds
func NewValidityClassifier(profile model.Profile) *ValidityClassifier {
	return &ValidityClassifier{
		trueRatio:       profile.TrueRatio,
		falseRatio:      profile.FalseRatio,
		partialMinScore: profile.PartialMinScore,
	}
}

// Classify returns the validity status for an aggregated run
func (c *ValidityClassifier) Classify(accuracyScore float64, level model.ConfidenceLevel, verdicts []model.ClaimVerdict) model.ValidityStatus {
	if len(verdicts) == 0 {
		return model.ValidityUnverifiable
	}

	ratio := VerifiedRatio(verdicts)

	switch {
	case ratio >= c.trueRatio && level != model.ConfidenceLow:
		return model.ValidityTrue
	case ratio <= c.falseRatio:
		return model.ValidityFalse
	case ratio < c.trueRatio && accuracyScore >= c.partialMinScore:
		return model.ValidityPartiallyTrue
	default:
		return model.ValidityMisleading
	}
}

// VerifiedRatio is the share of verdicts marked verified (0 when empty)
func VerifiedRatio(verdicts []model.ClaimVerdict) float64 {
	if len(verdicts) == 0 {
		return 0
	}
	return float64(model.CountVerified(verdicts)) / float64(len(verdicts))
}
