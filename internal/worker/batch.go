package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bisa-app/factcheck/internal/model"
)

// Checker runs a complete fact-check for one stored post
type Checker interface {
	CheckPost(ctx context.Context, postID, checkedBy string) (*model.FactCheckResult, error)
}

// CheckJob fact-checks a single post
type CheckJob struct {
	Index     int
	PostID    string
	CheckedBy string
	Checker   Checker
	Limiter   *Limiter // optional, shared by every job of a batch
}

// All jobs of a batch draw from one bucket
const batchLimiterKey = "batch"

// Execute runs the check, first waiting for a token when a limiter is set
func (j *CheckJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, batchLimiterKey); err != nil {
			return &CheckResult{index: j.Index, PostID: j.PostID, Error: fmt.Errorf("rate limit: %w", err)}
		}
	}
	result, err := j.Checker.CheckPost(ctx, j.PostID, j.CheckedBy)
	return &CheckResult{
		index:  j.Index,
		PostID: j.PostID,
		Result: result,
		Error:  err,
	}
}

// CheckResult is the outcome of one CheckJob. Result may be set alongside
// Error when the run was persisted as FAILED.
type CheckResult struct {
	index  int
	PostID string
	Result *model.FactCheckResult
	Error  error
}

// GetError returns the check error
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor fact-checks many posts concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
	checkedBy   string
	limiter     *Limiter
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(checker Checker, concurrency int, checkedBy string) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
		checkedBy:   checkedBy,
	}
}

// WithRateLimit caps the batch at requestsPerSecond checks overall.
// A non-positive rate leaves the batch unthrottled.
func (b *BatchProcessor) WithRateLimit(requestsPerSecond float64, burst int) *BatchProcessor {
	if requestsPerSecond > 0 {
		b.limiter = NewLimiter(requestsPerSecond, burst)
		// Pinned so a long batch keeps one bucket past the idle expiry
		b.limiter.SetKeyRate(batchLimiterKey, requestsPerSecond, burst)
	}
	return b
}

// ProcessIDs checks every post id and returns results in input order.
// Posts never started because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) ProcessIDs(ctx context.Context, ids []string) []*CheckResult {
	if len(ids) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	cancelled := false
	for i, id := range ids {
		job := &CheckJob{Index: i, PostID: id, CheckedBy: b.checkedBy, Checker: b.checker, Limiter: b.limiter}
		if !pool.Submit(job) {
			cancelled = true
			break
		}
	}

	var results []Result
	if cancelled {
		results = pool.Shutdown()
	} else {
		results = pool.Wait()
	}

	out := make([]*CheckResult, 0, len(ids))
	done := make(map[int]bool, len(results))
	for _, r := range results {
		cr := r.(*CheckResult)
		done[cr.index] = true
		out = append(out, cr)
	}
	for i, id := range ids {
		if !done[i] {
			out = append(out, &CheckResult{index: i, PostID: id, Error: fmt.Errorf("not started: %w", context.Cause(ctx))})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

// ProcessFile reads post ids from a file and checks them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	ids, err := ReadIDsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read post ids: %w", err)
	}
	return b.ProcessIDs(ctx, ids), nil
}

// ReadIDsFromFile reads one post id per line. Blank lines and #-comments
// are skipped and duplicates dropped.
func ReadIDsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ids, nil
}

// Summarize counts completed, failed and errored checks
func Summarize(results []*CheckResult) (completed, failed, errored int) {
	for _, r := range results {
		switch {
		case r.Error == nil && r.Result != nil && r.Result.RunStatus == model.RunCompleted:
			completed++
		case r.Result != nil && r.Result.RunStatus == model.RunFailed:
			failed++
		default:
			errored++
		}
	}
	return completed, failed, errored
}
