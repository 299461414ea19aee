package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bisa-app/factcheck/internal/model"
	"github.com/bisa-app/factcheck/internal/util"
)

const auditMaxRetries = 3

// auditSleepFunc is the sleep between retries (injectable for tests)
var auditSleepFunc = time.Sleep

// AuditResult is the reachability of one catalog source
type AuditResult struct {
	Source      model.Source `json:"source"`
	Accessible  bool         `json:"accessible"`
	StatusCode  int          `json:"statusCode,omitempty"`
	Dead        bool         `json:"dead"`       // 404 or 410
	Disallowed  bool         `json:"disallowed"` // robots.txt forbids probing
	RedirectURL string       `json:"redirectUrl,omitempty"`
	Authority   string       `json:"authority"`
	Error       string       `json:"error,omitempty"`
}

// Auditor probes catalog sources concurrently
type Auditor struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	authority  *AuthorityClassifier
	maxWorkers int
	userAgent  string
}

// NewAuditor creates an auditor from the sources config
func NewAuditor(cfg model.SourcesConfig, authority *AuthorityClassifier) *Auditor {
	workers := cfg.AuditWorkers
	if workers <= 0 {
		workers = 4
	}
	timeout := cfg.AuditTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if authority == nil {
		authority = NewAuthorityClassifier(nil)
	}

	client := util.NewHTTPClient(util.ClientOptions{Timeout: timeout})
	return &Auditor{
		httpClient: client,
		robots:     util.NewRobotsChecker(client, cfg.UserAgent),
		authority:  authority,
		maxWorkers: workers,
		userAgent:  cfg.UserAgent,
	}
}

// Audit probes every source; results keep the input order
func (a *Auditor) Audit(ctx context.Context, sources []model.Source) []AuditResult {
	results := make([]AuditResult, len(sources))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, a.maxWorkers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s model.Source) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = AuditResult{Source: s, Authority: a.authority.Classify(s.URL).String(), Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = a.auditWithRetry(ctx, s)
		}(i, src)
	}

	wg.Wait()
	return results
}

func (a *Auditor) auditSingle(ctx context.Context, src model.Source) AuditResult {
	result := AuditResult{
		Source:    src,
		Authority: a.authority.Classify(src.URL).String(),
	}

	allowed, err := a.robots.Allowed(ctx, src.URL)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if !allowed {
		result.Disallowed = true
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, src.URL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Accessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.Dead = true
	}
	if final := resp.Request.URL.String(); final != src.URL {
		result.RedirectURL = final
	}
	return result
}

// auditWithRetry retries transient failures with exponential backoff
func (a *Auditor) auditWithRetry(ctx context.Context, src model.Source) AuditResult {
	var result AuditResult
	for attempt := 0; attempt < auditMaxRetries; attempt++ {
		result = a.auditSingle(ctx, src)
		if !isRetryable(result) {
			return result
		}
		if attempt < auditMaxRetries-1 {
			auditSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

func isRetryable(result AuditResult) bool {
	if result.StatusCode >= 500 || result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	s := strings.ToLower(result.Error)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

// Summary counts accessible, dead and disallowed results
func Summary(results []AuditResult) (accessible, dead, disallowed int) {
	for _, r := range results {
		switch {
		case r.Accessible:
			accessible++
		case r.Disallowed:
			disallowed++
		case r.Dead:
			dead++
		}
	}
	return accessible, dead, disallowed
}
