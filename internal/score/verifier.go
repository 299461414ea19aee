package score

import (
	"math"

	"github.com/bisa-app/factcheck/internal/model"
)

// Verdict explanations, chosen from the claim's feature flags
const (
	ExplainNumbersAndDates = "This claim contains specific numbers and dates that can be verified against official sources."
	ExplainAttribution     = "This claim references specific statements that can be cross-referenced with reliable sources."
	ExplainSupported       = "This claim appears to be supported by multiple reliable sources."
	ExplainOpinion         = "This claim lacks specific verifiable details and may be opinion-based."
	ExplainUnverified      = "This claim could not be verified or may contain inaccuracies."
)

// RandomSource supplies jitter in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// ClaimVerifier scores each claim's verifiability
type ClaimVerifier struct {
	profile model.Profile
	random  RandomSource // nil unless profile.Jitter > 0
}

// NewClaimVerifier creates a verifier. random is only consulted when the
// profile has a positive jitter; pass nil for deterministic scoring.
func NewClaimVerifier(profile model.Profile, random RandomSource) *ClaimVerifier {
	if profile.Jitter <= 0 {
		random = nil
	}
	return &ClaimVerifier{
		profile: profile,
		random:  random,
	}
}

// Verify returns one verdict per claim, order preserved
func (v *ClaimVerifier) Verify(claims []model.Claim) []model.ClaimVerdict {
	verdicts := make([]model.ClaimVerdict, 0, len(claims))
	for _, claim := range claims {
		verdicts = append(verdicts, v.verifyOne(claim))
	}
	return verdicts
}

func (v *ClaimVerifier) verifyOne(claim model.Claim) model.ClaimVerdict {
	p := v.profile

	score := p.BaseScore
	if claim.HasNumeric {
		score += p.NumericWeight
	}
	if claim.HasDate {
		score += p.DateWeight
	}
	if claim.HasAttribution {
		score += p.AttributionWeight
	}
	if claim.HasQuantifier {
		score += p.QuantifierWeight
	}

	if v.random != nil {
		score += (v.random.Float64() - 0.5) * p.Jitter
	}

	confidence := clamp(round4(score), p.MinConfidence, p.MaxConfidence)
	verified := confidence > p.VerifiedThreshold

	return model.ClaimVerdict{
		Claim:       claim,
		IsVerified:  verified,
		Confidence:  confidence,
		Explanation: explain(claim, verified),
	}
}

// explain picks the rationale for a verdict. Verified claims are described
// by what makes them checkable, unverified ones by what they lack.
func explain(claim model.Claim, verified bool) string {
	if verified {
		switch {
		case claim.HasNumeric && claim.HasDate:
			return ExplainNumbersAndDates
		case claim.HasAttribution:
			return ExplainAttribution
		default:
			return ExplainSupported
		}
	}

	if !claim.HasNumeric && !claim.HasDate {
		return ExplainOpinion
	}
	return ExplainUnverified
}

// round4 removes float drift from the additive weights (0.5+0.1 must equal 0.6)
func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
