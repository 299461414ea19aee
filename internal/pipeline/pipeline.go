package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bisa-app/factcheck/internal/extract"
	"github.com/bisa-app/factcheck/internal/llm"
	"github.com/bisa-app/factcheck/internal/model"
	"github.com/bisa-app/factcheck/internal/score"
	"github.com/bisa-app/factcheck/internal/sources"
)

var (
	// ErrBackendTimeout is returned when the AI backend exceeds its deadline
	ErrBackendTimeout = errors.New("verification backend timed out")

	// ErrBackend is returned for any other AI backend failure
	ErrBackend = errors.New("verification backend failed")
)

const defaultAITimeout = 10 * time.Second

// Input is the content under analysis
type Input struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// Analysis is the outcome of one pipeline run
type Analysis struct {
	Claims          []model.ClaimVerdict  `json:"claims"`
	AccuracyScore   float64               `json:"accuracyScore"`
	ConfidenceLevel model.ConfidenceLevel `json:"confidenceLevel"`
	ValidityStatus  model.ValidityStatus  `json:"validityStatus"`
	Sources         []model.Source        `json:"sources"`
	Reasoning       string                `json:"reasoning"`
	Corrections     []string              `json:"corrections"`
	AIAnalysis      string                `json:"aiAnalysis"`
	AI              *llm.Suggestion       `json:"ai,omitempty"`
}

// Apply copies the analysis into a result row
func (a *Analysis) Apply(r *model.FactCheckResult) {
	r.Claims = append([]model.ClaimVerdict(nil), a.Claims...)
	r.AccuracyScore = a.AccuracyScore
	r.ConfidenceLevel = a.ConfidenceLevel
	r.ValidityStatus = a.ValidityStatus
	r.Sources = append([]model.Source(nil), a.Sources...)
	r.SourcesCited = model.FlattenSources(a.Sources)
	r.Reasoning = a.Reasoning
	r.Corrections = append([]string(nil), a.Corrections...)
	r.AIAnalysis = a.AIAnalysis
}

// Options wires the pipeline's collaborators
type Options struct {
	Profile   model.Profile
	Resolver  *sources.Resolver
	Authority *sources.AuthorityClassifier
	AI        llm.Provider       // nil disables AI enrichment
	AITimeout time.Duration      // bounds the AI call; defaults to 10s
	Random    score.RandomSource // only used with a positive profile jitter
}

// Pipeline runs extraction, verification, aggregation, classification,
// source resolution and optional AI enrichment
type Pipeline struct {
	extractor  *extract.ClaimExtractor
	verifier   *score.ClaimVerifier
	aggregator *score.ConfidenceAggregator
	classifier *score.ValidityClassifier
	resolver   *sources.Resolver
	authority  *sources.AuthorityClassifier
	ai         llm.Provider
	aiTimeout  time.Duration
}

// NewPipeline creates a pipeline; nil resolver and classifier use the built-ins
func NewPipeline(opts Options) *Pipeline {
	if opts.Resolver == nil {
		opts.Resolver = sources.NewResolver(sources.DefaultRules())
	}
	if opts.Authority == nil {
		opts.Authority = sources.NewAuthorityClassifier(nil)
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = defaultAITimeout
	}

	return &Pipeline{
		extractor:  extract.NewClaimExtractor(opts.Profile.MaxClaims, opts.Profile.MinSentenceLength),
		verifier:   score.NewClaimVerifier(opts.Profile, opts.Random),
		aggregator: score.NewConfidenceAggregator(opts.Profile),
		classifier: score.NewValidityClassifier(opts.Profile),
		resolver:   opts.Resolver,
		authority:  opts.Authority,
		ai:         opts.AI,
		aiTimeout:  opts.AITimeout,
	}
}

// Analyze runs the full pipeline. Only the AI call can fail; the heuristic
// steps are pure.
func (p *Pipeline) Analyze(ctx context.Context, in Input) (*Analysis, error) {
	claims := p.extractor.Extract(in.Content)
	verdicts := p.verifier.Verify(claims)
	accuracy, level := p.aggregator.Aggregate(verdicts)
	validity := p.classifier.Classify(accuracy, level, verdicts)

	analysis := &Analysis{
		Claims:          verdicts,
		AccuracyScore:   accuracy,
		ConfidenceLevel: level,
		ValidityStatus:  validity,
		Sources:         p.resolver.Resolve(in.Tags),
		Reasoning:       Reasoning(verdicts, validity),
		Corrections:     Corrections(verdicts),
		AIAnalysis:      heuristicAnalysis(verdicts, accuracy),
	}

	// Nothing to verify without claims
	if p.ai == nil || len(claims) == 0 {
		return analysis, nil
	}

	suggestion, err := p.verify(ctx, in.Content, claims)
	if err != nil {
		return nil, err
	}
	analysis.AI = suggestion
	analysis.AIAnalysis = suggestion.Summary()
	analysis.Sources = p.mergeCited(analysis.Sources, suggestion.CitedURLs)
	return analysis, nil
}

func (p *Pipeline) verify(ctx context.Context, content string, claims []model.Claim) (*llm.Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, p.aiTimeout)
	defer cancel()

	texts := make([]string, len(claims))
	for i, c := range claims {
		texts[i] = c.Text
	}

	suggestion, err := p.ai.Verify(ctx, llm.VerifyRequest{Content: content, Claims: texts})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %v", ErrBackendTimeout, p.aiTimeout, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrBackend, p.ai.Name(), err)
	}
	if suggestion == nil {
		return nil, fmt.Errorf("%w: %s returned no suggestion", ErrBackend, p.ai.Name())
	}
	return suggestion, nil
}

// mergeCited appends AI-cited URLs not already present, scored by authority tier
func (p *Pipeline) mergeCited(resolved []model.Source, cited []string) []model.Source {
	seen := make(map[string]bool, len(resolved))
	for _, s := range resolved {
		seen[s.URL] = true
	}
	for _, u := range cited {
		if seen[u] {
			continue
		}
		seen[u] = true
		resolved = append(resolved, p.authority.SourceFor(u))
	}
	return resolved
}
