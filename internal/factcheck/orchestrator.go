package factcheck

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bisa-app/factcheck/internal/model"
	"github.com/bisa-app/factcheck/internal/pipeline"
	"github.com/bisa-app/factcheck/internal/posts"
	"github.com/bisa-app/factcheck/internal/store"
	"github.com/google/uuid"
)

const (
	defaultCheckedBy  = "system"
	defaultPendingTTL = 5 * time.Minute
	abandonedDetail   = "abandoned: run did not finish before pending timeout"
)

// Analyzer turns content into an analysis
type Analyzer interface {
	Analyze(ctx context.Context, in pipeline.Input) (*pipeline.Analysis, error)
}

// Recorder observes run outcomes
type Recorder interface {
	RunStarted()
	RunFinished(status model.RunStatus, elapsed time.Duration)
	RunRejected(reason string)
}

type nopRecorder struct{}

func (nopRecorder) RunStarted() {}

func (nopRecorder) RunFinished(model.RunStatus, time.Duration) {}

func (nopRecorder) RunRejected(string) {}

// Request asks for one fact-check run
type Request struct {
	PostID    string
	Content   string
	Tags      []string
	CheckedBy string
}

// Options wires the orchestrator
type Options struct {
	Store      store.ResultStore
	Analyzer   Analyzer
	Posts      posts.Accessor // optional; required by CheckPost
	Guard      Guard          // defaults to a LocalGuard
	PendingTTL time.Duration  // PENDING rows older than this are abandoned
	Metrics    Recorder
	Now        func() time.Time
	NewID      func() string
}

// Orchestrator drives a post's fact-check runs through
// NONE -> PENDING -> COMPLETED | FAILED
type Orchestrator struct {
	store      store.ResultStore
	analyzer   Analyzer
	posts      posts.Accessor
	guard      Guard
	pendingTTL time.Duration
	metrics    Recorder
	now        func() time.Time
	newID      func() string
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		store:      opts.Store,
		analyzer:   opts.Analyzer,
		posts:      opts.Posts,
		guard:      opts.Guard,
		pendingTTL: opts.PendingTTL,
		metrics:    opts.Metrics,
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if o.guard == nil {
		o.guard = NewLocalGuard(0)
	}
	if o.pendingTTL <= 0 {
		o.pendingTTL = defaultPendingTTL
	}
	if o.metrics == nil {
		o.metrics = nopRecorder{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	return o
}

// RunCheck performs one fact-check run for a post.
// The returned result is final. A FAILED run is returned together with
// the error that failed it.
func (o *Orchestrator) RunCheck(ctx context.Context, req Request) (*model.FactCheckResult, error) {
	postID := strings.TrimSpace(req.PostID)
	if postID == "" {
		return nil, fmt.Errorf("%w: post id is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: post %s has no content", ErrInvalidInput, postID)
	}
	checkedBy := strings.TrimSpace(req.CheckedBy)
	if checkedBy == "" {
		checkedBy = defaultCheckedBy
	}

	release, ok, err := o.guard.TryAcquire(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("guard post %s: %w", postID, err)
	}
	if !ok {
		o.metrics.RunRejected("in_flight")
		return nil, fmt.Errorf("post %s: %w", postID, ErrAlreadyInProgress)
	}
	defer release()

	// Persistence must outlive a caller that gives up mid-run
	persistCtx := context.WithoutCancel(ctx)

	if err := o.expireStale(persistCtx, postID); err != nil {
		return nil, err
	}

	run := &model.FactCheckResult{
		ID:          o.newID(),
		PostID:      postID,
		Claims:      []model.ClaimVerdict{},
		Sources:     []model.Source{},
		Corrections: []string{},
		CheckedBy:   checkedBy,
		CheckedAt:   o.now().UTC(),
		RunStatus:   model.RunPending,
	}
	if err := o.store.Create(persistCtx, run); err != nil {
		if errors.Is(err, store.ErrPendingExists) {
			o.metrics.RunRejected("pending")
			return nil, fmt.Errorf("post %s: %w", postID, ErrAlreadyInProgress)
		}
		return nil, fmt.Errorf("create run: %w", err)
	}

	o.metrics.RunStarted()
	started := o.now()

	analysis, runErr := o.analyzer.Analyze(ctx, pipeline.Input{Content: req.Content, Tags: req.Tags})

	finished := o.now().UTC()
	run.FinishedAt = &finished
	if runErr != nil {
		run.RunStatus = model.RunFailed
		run.ErrorDetail = runErr.Error()
	} else {
		analysis.Apply(run)
		run.RunStatus = model.RunCompleted
	}

	if err := o.store.Finish(persistCtx, run); err != nil {
		o.metrics.RunFinished(model.RunFailed, o.now().Sub(started))
		return nil, fmt.Errorf("finish run %s: %w", run.ID, err)
	}
	o.metrics.RunFinished(run.RunStatus, o.now().Sub(started))

	if runErr != nil {
		log.Printf("fact-check %s for post %s failed: %v", run.ID, postID, runErr)
		return run.Clone(), fmt.Errorf("fact-check post %s: %w", postID, runErr)
	}
	return run.Clone(), nil
}

// expireStale fails a PENDING run left behind by a crashed process. A fresh
// PENDING run means another instance is still working on the post.
func (o *Orchestrator) expireStale(ctx context.Context, postID string) error {
	pending, err := o.store.Pending(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read pending run: %w", err)
	}

	now := o.now().UTC()
	if now.Sub(pending.CheckedAt) < o.pendingTTL {
		o.metrics.RunRejected("pending")
		return fmt.Errorf("post %s: %w", postID, ErrAlreadyInProgress)
	}

	pending.RunStatus = model.RunFailed
	pending.ErrorDetail = abandonedDetail
	pending.FinishedAt = &now
	if err := o.store.Finish(ctx, pending); err != nil && !errors.Is(err, store.ErrNotPending) {
		return fmt.Errorf("abandon run %s: %w", pending.ID, err)
	}
	log.Printf("abandoned stale run %s for post %s (pending since %s)", pending.ID, postID, pending.CheckedAt.Format(time.RFC3339))
	return nil
}

// CheckPost loads a post through the accessor and runs a check on it
func (o *Orchestrator) CheckPost(ctx context.Context, postID, checkedBy string) (*model.FactCheckResult, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, fmt.Errorf("%w: post id is empty", ErrInvalidInput)
	}
	if o.posts == nil {
		return nil, fmt.Errorf("check post %s: no post accessor configured", postID)
	}

	content, tags, err := o.posts.PostContent(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post %s: %w", postID, err)
	}
	return o.RunCheck(ctx, Request{PostID: postID, Content: content, Tags: tags, CheckedBy: checkedBy})
}

// Analyze runs the pipeline without persisting anything
func (o *Orchestrator) Analyze(ctx context.Context, in pipeline.Input) (*pipeline.Analysis, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrInvalidInput)
	}
	return o.analyzer.Analyze(ctx, in)
}

// GetLatest returns the post's most recent COMPLETED run
func (o *Orchestrator) GetLatest(ctx context.Context, postID string) (*model.FactCheckResult, error) {
	return o.store.Latest(ctx, postID)
}

// GetHistory returns every run for the post, newest first
func (o *Orchestrator) GetHistory(ctx context.Context, postID string, page, size int) ([]*model.FactCheckResult, error) {
	return o.store.History(ctx, postID, page, size)
}

// GetStatus reports the state of the most recent run alongside the
// latest completed judgment
func (o *Orchestrator) GetStatus(ctx context.Context, postID string) (*model.Status, error) {
	status := &model.Status{
		PostID:         postID,
		RunStatus:      model.RunNone,
		ValidityStatus: model.ValidityNotChecked,
	}

	recent, err := o.store.History(ctx, postID, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(recent) > 0 {
		status.RunStatus = recent[0].RunStatus
	}

	latest, err := o.store.Latest(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return status, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest: %w", err)
	}

	lastChecked := latest.CheckedAt
	if latest.FinishedAt != nil {
		lastChecked = *latest.FinishedAt
	}
	score := latest.AccuracyScore

	status.HasFactCheck = true
	status.LastChecked = &lastChecked
	status.ValidityStatus = latest.ValidityStatus
	status.AccuracyScore = &score
	status.ConfidenceLevel = latest.ConfidenceLevel
	return status, nil
}
