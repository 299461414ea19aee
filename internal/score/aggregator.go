package score

import (
	"github.com/bisa-app/factcheck/internal/model"
	"gonum.org/v1/gonum/stat"
)

// ConfidenceAggregator combines per-claim confidences into a post-level score
type ConfidenceAggregator struct {
	highThreshold   float64
	mediumThreshold float64
}

// NewConfidenceAggregator creates an aggregator using the profile's bands
func NewConfidenceAggregator(profile model.Profile) *ConfidenceAggregator {
	return &ConfidenceAggregator{
		highThreshold:   profile.HighThreshold,
		mediumThreshold: profile.MediumThreshold,
	}
}

// Aggregate returns the mean confidence (0 for no verdicts) and its band
func (a *ConfidenceAggregator) Aggregate(verdicts []model.ClaimVerdict) (float64, model.ConfidenceLevel) {
	if len(verdicts) == 0 {
		return 0, a.Level(0)
	}

	confidences := make([]float64, len(verdicts))
	for i, v := range verdicts {
		confidences[i] = v.Confidence
	}

	// Rounded like per-claim confidences so an exact 0.75 mean stays HIGH
	score := clamp(round4(stat.Mean(confidences, nil)), 0, 1)
	return score, a.Level(score)
}

// Level maps an accuracy score to a band. Lower bounds are inclusive.
func (a *ConfidenceAggregator) Level(score float64) model.ConfidenceLevel {
	switch {
	case score >= a.highThreshold:
		return model.ConfidenceHigh
	case score >= a.mediumThreshold:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
