package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bisa-app/factcheck/internal/model"
	"github.com/bisa-app/factcheck/internal/util"
)

const fetchMaxRetries = 3

// fetchSleepFunc is the sleep between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// HTTPAccessor reads posts from the Bisa backend at GET {base}/posts/{id}
type HTTPAccessor struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxBytes   int64
}

// NewHTTPAccessor creates an accessor for the backend at cfg.BaseURL
func NewHTTPAccessor(cfg model.PostsConfig) *HTTPAccessor {
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 1_000_000
	}
	return &HTTPAccessor{
		httpClient: util.NewHTTPClient(util.ClientOptions{
			Timeout:    cfg.Timeout,
			HTTPProxy:  cfg.HTTPProxy,
			HTTPSProxy: cfg.HTTPSProxy,
		}),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
	}
}

// statusError is a non-2xx reply
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.code, http.StatusText(e.code))
}

func (a *HTTPAccessor) PostContent(ctx context.Context, postID string) (string, []string, error) {
	post, err := a.fetchWithRetry(ctx, postID)
	if err != nil {
		return "", nil, err
	}
	return post.Content(), post.Tags, nil
}

// fetchWithRetry retries 5xx replies and 429 with exponential backoff
func (a *HTTPAccessor) fetchWithRetry(ctx context.Context, postID string) (*Post, error) {
	var lastErr error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		post, err := a.fetch(ctx, postID)
		if err == nil {
			return post, nil
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < fetchMaxRetries-1 {
			fetchSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", fetchMaxRetries, lastErr)
}

func (a *HTTPAccessor) fetch(ctx context.Context, postID string) (*Post, error) {
	endpoint := a.baseURL + "/posts/" + url.PathEscape(postID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch post %s: %w", postID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("post %s: %w", postID, ErrPostNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch post %s: %w", postID, &statusError{code: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read post %s: %w", postID, err)
	}

	var post Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", postID, err)
	}
	if post.ID == "" {
		post.ID = postID
	}
	return &post, nil
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return false
}
