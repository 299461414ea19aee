package score

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/bisa-app/factcheck/internal/model"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestClaimVerifier_Weights(t *testing.T) {
	verifier := NewClaimVerifier(model.DefaultProfile(), nil)

	tests := []struct {
		name        string
		claim       model.Claim
		confidence  float64
		verified    bool
		explanation string
	}{
		{"date only", model.Claim{HasDate: true}, 0.65, true, ExplainSupported},
		{"numeric and attribution", model.Claim{HasNumeric: true, HasAttribution: true}, 0.80, true, ExplainAttribution},
		{"numeric and date", model.Claim{HasNumeric: true, HasDate: true}, 0.85, true, ExplainNumbersAndDates},
		{"numeric only", model.Claim{HasNumeric: true}, 0.70, true, ExplainSupported},
		{"attribution only sits on threshold", model.Claim{HasAttribution: true}, 0.60, false, ExplainOpinion},
		{"quantifier only sits on threshold", model.Claim{HasQuantifier: true}, 0.60, false, ExplainOpinion},
		{"every flag is capped", model.Claim{HasNumeric: true, HasDate: true, HasAttribution: true, HasQuantifier: true}, 0.95, true, ExplainNumbersAndDates},
		{"no flags keeps base score", model.Claim{}, 0.5, false, ExplainOpinion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdicts := verifier.Verify([]model.Claim{tt.claim})
			if len(verdicts) != 1 {
				t.Fatalf("Expected 1 verdict, got %d", len(verdicts))
			}
			v := verdicts[0]
			if !approxEqual(v.Confidence, tt.confidence) {
				t.Errorf("confidence = %v, want %v", v.Confidence, tt.confidence)
			}
			if v.IsVerified != tt.verified {
				t.Errorf("isVerified = %v, want %v", v.IsVerified, tt.verified)
			}
			if v.Explanation != tt.explanation {
				t.Errorf("explanation = %q, want %q", v.Explanation, tt.explanation)
			}
		})
	}
}

func TestClaimVerifier_UnverifiedWithNumbers(t *testing.T) {
	profile := model.DefaultProfile()
	profile.VerifiedThreshold = 0.9
	verifier := NewClaimVerifier(profile, nil)

	v := verifier.Verify([]model.Claim{{HasNumeric: true}})[0]
	if v.IsVerified {
		t.Fatal("Expected claim to be unverified under a stricter threshold")
	}
	if v.Explanation != ExplainUnverified {
		t.Errorf("Expected unverified explanation, got %q", v.Explanation)
	}
}

func TestClaimVerifier_PreservesOrder(t *testing.T) {
	verifier := NewClaimVerifier(model.DefaultProfile(), nil)

	claims := []model.Claim{
		{Text: "a", HasDate: true},
		{Text: "b", HasNumeric: true},
		{Text: "c", HasQuantifier: true},
	}
	verdicts := verifier.Verify(claims)

	for i, v := range verdicts {
		if v.Claim.Text != claims[i].Text {
			t.Errorf("verdict %d is for %q, want %q", i, v.Claim.Text, claims[i].Text)
		}
	}
}

func TestClaimVerifier_DeterministicWithoutJitter(t *testing.T) {
	// A random source is ignored while jitter is zero
	verifier := NewClaimVerifier(model.DefaultProfile(), rand.New(rand.NewSource(1)))

	claims := []model.Claim{{HasDate: true}, {HasNumeric: true, HasQuantifier: true}}
	first := verifier.Verify(claims)
	for i := 0; i < 5; i++ {
		if again := verifier.Verify(claims); !reflect.DeepEqual(first, again) {
			t.Fatalf("Verification not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestClaimVerifier_SeededJitterStaysInBounds(t *testing.T) {
	profile := model.DefaultProfile()
	profile.Jitter = 0.2

	claims := []model.Claim{{}, {HasQuantifier: true}, {HasNumeric: true, HasDate: true, HasAttribution: true, HasQuantifier: true}}

	a := NewClaimVerifier(profile, rand.New(rand.NewSource(42))).Verify(claims)
	b := NewClaimVerifier(profile, rand.New(rand.NewSource(42))).Verify(claims)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Same seed should give identical verdicts: %+v vs %+v", a, b)
	}

	for i := 0; i < 200; i++ {
		verifier := NewClaimVerifier(profile, rand.New(rand.NewSource(int64(i))))
		for _, v := range verifier.Verify(claims) {
			if v.Confidence < 0.4 || v.Confidence > 0.95 {
				t.Fatalf("confidence %v out of [0.4, 0.95]", v.Confidence)
			}
		}
	}
}

func TestConfidenceAggregator_Empty(t *testing.T) {
	aggregator := NewConfidenceAggregator(model.DefaultProfile())

	score, level := aggregator.Aggregate(nil)
	if score != 0 {
		t.Errorf("Expected score 0, got %v", score)
	}
	if level != model.ConfidenceLow {
		t.Errorf("Expected LOW, got %s", level)
	}
}

func TestConfidenceAggregator_Mean(t *testing.T) {
	aggregator := NewConfidenceAggregator(model.DefaultProfile())

	score, level := aggregator.Aggregate([]model.ClaimVerdict{
		{Confidence: 0.65},
		{Confidence: 0.80},
	})
	if math.Abs(score-0.725) > 1e-9 {
		t.Errorf("Expected 0.725, got %v", score)
	}
	if level != model.ConfidenceMedium {
		t.Errorf("Expected MEDIUM, got %s", level)
	}
}

func TestConfidenceAggregator_MeanOnBandBoundary(t *testing.T) {
	aggregator := NewConfidenceAggregator(model.DefaultProfile())

	tests := []struct {
		name        string
		confidences []float64
		score       float64
		level       model.ConfidenceLevel
	}{
		{"mixed claims average to high edge", []float64{0.6, 0.6, 0.8, 0.85, 0.9}, 0.75, model.ConfidenceHigh},
		{"repeated claims average to high edge", []float64{0.65, 0.7, 0.75, 0.75, 0.9}, 0.75, model.ConfidenceHigh},
		{"two claims", []float64{0.65, 0.8}, 0.725, model.ConfidenceMedium},
		{"medium edge", []float64{0.4, 0.6}, 0.5, model.ConfidenceMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdicts := make([]model.ClaimVerdict, len(tt.confidences))
			for i, c := range tt.confidences {
				verdicts[i].Confidence = c
			}
			score, level := aggregator.Aggregate(verdicts)
			if score != tt.score {
				t.Errorf("score = %v, want exactly %v", score, tt.score)
			}
			if level != tt.level {
				t.Errorf("level = %s, want %s", level, tt.level)
			}
		})
	}
}

func TestConfidenceAggregator_LevelBoundaries(t *testing.T) {
	aggregator := NewConfidenceAggregator(model.DefaultProfile())

	tests := []struct {
		score float64
		want  model.ConfidenceLevel
	}{
		{1.0, model.ConfidenceHigh},
		{0.75, model.ConfidenceHigh},
		{0.749999, model.ConfidenceMedium},
		{0.5, model.ConfidenceMedium},
		{0.499999, model.ConfidenceLow},
		{0, model.ConfidenceLow},
	}

	for _, tt := range tests {
		if got := aggregator.Level(tt.score); got != tt.want {
			t.Errorf("Level(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestValidityClassifier_Table(t *testing.T) {
	classifier := NewValidityClassifier(model.DefaultProfile())

	verdicts := func(verified, total int) []model.ClaimVerdict {
		out := make([]model.ClaimVerdict, total)
		for i := 0; i < verified; i++ {
			out[i].IsVerified = true
		}
		return out
	}

	tests := []struct {
		name     string
		score    float64
		level    model.ConfidenceLevel
		verdicts []model.ClaimVerdict
		want     model.ValidityStatus
	}{
		{"no claims", 0, model.ConfidenceLow, nil, model.ValidityUnverifiable},
		{"all verified medium", 0.725, model.ConfidenceMedium, verdicts(2, 2), model.ValidityTrue},
		{"four of five verified", 0.8, model.ConfidenceHigh, verdicts(4, 5), model.ValidityTrue},
		{"all verified but low confidence", 0.45, model.ConfidenceLow, verdicts(3, 3), model.ValidityMisleading},
		{"none verified", 0.6, model.ConfidenceMedium, verdicts(0, 3), model.ValidityFalse},
		{"one of five verified", 0.62, model.ConfidenceMedium, verdicts(1, 5), model.ValidityFalse},
		{"half verified", 0.65, model.ConfidenceMedium, verdicts(1, 2), model.ValidityPartiallyTrue},
		{"half verified low accuracy", 0.45, model.ConfidenceLow, verdicts(1, 2), model.ValidityMisleading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.Classify(tt.score, tt.level, tt.verdicts); got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVerifiedRatio(t *testing.T) {
	if r := VerifiedRatio(nil); r != 0 {
		t.Errorf("Expected 0 for empty, got %v", r)
	}
	r := VerifiedRatio([]model.ClaimVerdict{{IsVerified: true}, {}, {IsVerified: true}, {}})
	if r != 0.5 {
		t.Errorf("Expected 0.5, got %v", r)
	}
}
