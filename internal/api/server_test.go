package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bisa-app/factcheck/internal/factcheck"
	"github.com/bisa-app/factcheck/internal/metrics"
	"github.com/bisa-app/factcheck/internal/model"
	"github.com/bisa-app/factcheck/internal/pipeline"
	"github.com/bisa-app/factcheck/internal/posts"
	"github.com/bisa-app/factcheck/internal/store"
	"github.com/bisa-app/factcheck/internal/worker"
)

const volcanoAnswer = "Mount Etna erupted in 2024. Officials said 3,000 residents were evacuated."

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	dir := posts.NewDirectory(
		posts.Post{ID: "etna", Question: "What happened at Etna?", Answer: volcanoAnswer, Tags: []string{"volcano", "breaking-news"}},
		posts.Post{ID: "blank", Question: " ", Answer: ""},
	)
	orchestrator := factcheck.NewOrchestrator(factcheck.Options{
		Store:    store.NewMemoryStore(),
		Analyzer: pipeline.NewPipeline(pipeline.Options{Profile: model.DefaultProfile()}),
		Posts:    dir,
	})
	server := httptest.NewServer(NewServer(orchestrator, opts))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestServer_Health(t *testing.T) {
	server := newTestServer(t, Options{})
	resp := do(t, "GET", server.URL+"/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestServer_RunCheckLifecycle(t *testing.T) {
	server := newTestServer(t, Options{})

	resp := do(t, "GET", server.URL+"/posts/etna/fact-check", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 before any run, got %d", resp.StatusCode)
	}

	resp = do(t, "GET", server.URL+"/posts/etna/fact-check/status", "")
	var status map[string]interface{}
	decode(t, resp, &status)
	if status["validityStatus"] != "NOT_CHECKED" || status["hasFactCheck"] != false || status["runStatus"] != "NONE" {
		t.Errorf("Unexpected initial status: %v", status)
	}

	resp = do(t, "POST", server.URL+"/posts/etna/fact-check?checkedBy=moderator", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var result map[string]interface{}
	decode(t, resp, &result)
	if result["runStatus"] != "COMPLETED" || result["checkedBy"] != "moderator" {
		t.Errorf("Unexpected run: %v", result)
	}
	if result["sourcesCited"] != "US Geological Survey, BBC News" {
		t.Errorf("Unexpected sourcesCited: %v", result["sourcesCited"])
	}
	if _, ok := result["corrections"].([]interface{}); !ok {
		t.Errorf("Expected corrections array, got %T", result["corrections"])
	}

	resp = do(t, "GET", server.URL+"/posts/etna/fact-check", "")
	var latest map[string]interface{}
	decode(t, resp, &latest)
	if latest["id"] != result["id"] {
		t.Errorf("Expected latest %v, got %v", result["id"], latest["id"])
	}

	do(t, "POST", server.URL+"/posts/etna/fact-check", "")
	resp = do(t, "GET", server.URL+"/posts/etna/fact-check/history?page=0&size=1", "")
	var history []map[string]interface{}
	decode(t, resp, &history)
	if len(history) != 1 || history[0]["id"] == result["id"] {
		t.Errorf("Expected only the newest run on page 0 size 1, got %v", history)
	}

	resp = do(t, "GET", server.URL+"/posts/etna/fact-check/status", "")
	decode(t, resp, &status)
	if status["hasFactCheck"] != true || status["validityStatus"] != "TRUE" || status["runStatus"] != "COMPLETED" {
		t.Errorf("Unexpected status after runs: %v", status)
	}
}

func TestServer_RunCheckErrors(t *testing.T) {
	server := newTestServer(t, Options{})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"unknown post", "/posts/nope/fact-check", http.StatusNotFound},
		{"blank content", "/posts/blank/fact-check", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, "POST", server.URL+tt.path, "")
			if resp.StatusCode != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}

	resp := do(t, "GET", server.URL+"/posts/etna/fact-check/history?page=-1", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative page, got %d", resp.StatusCode)
	}
}

func TestServer_Analyze(t *testing.T) {
	server := newTestServer(t, Options{})

	resp := do(t, "POST", server.URL+"/fact-check/analyze", `{"content":"`+volcanoAnswer+`","tags":["volcano"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var analysis map[string]interface{}
	decode(t, resp, &analysis)
	if analysis["validityStatus"] != "TRUE" || analysis["accuracyScore"] != 0.725 {
		t.Errorf("Unexpected analysis: %v", analysis)
	}
	claims, _ := analysis["claims"].([]interface{})
	if len(claims) == 0 {
		t.Fatalf("Expected claims in analysis: %v", analysis)
	}
	verdict, _ := claims[0].(map[string]interface{})
	claim, _ := verdict["claim"].(map[string]interface{})
	if _, ok := verdict["isVerified"]; !ok {
		t.Errorf("Expected camelCase isVerified, got %v", verdict)
	}
	if claim["hasDate"] != true {
		t.Errorf("Expected camelCase hasDate on first claim, got %v", claim)
	}

	resp = do(t, "POST", server.URL+"/fact-check/analyze", `{"content":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", resp.StatusCode)
	}
	resp = do(t, "POST", server.URL+"/fact-check/analyze", `{"content":"  "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank content, got %d", resp.StatusCode)
	}

	// Dry runs persist nothing
	resp = do(t, "GET", server.URL+"/posts/etna/fact-check/history", "")
	var history []interface{}
	decode(t, resp, &history)
	if len(history) != 0 {
		t.Errorf("Expected empty history, got %d", len(history))
	}
}

func TestServer_RateLimit(t *testing.T) {
	server := newTestServer(t, Options{Limiter: worker.NewLimiter(0.01, 2)})

	for i := 0; i < 2; i++ {
		if resp := do(t, "GET", server.URL+"/posts/etna/fact-check/status", ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}
	resp := do(t, "GET", server.URL+"/posts/etna/fact-check/status", "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	if resp := do(t, "GET", server.URL+"/health", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("Health must not be rate limited, got %d", resp.StatusCode)
	}
}

func TestServer_Metrics(t *testing.T) {
	server := newTestServer(t, Options{Metrics: metrics.NewRecorder().Handler()})

	resp := do(t, "GET", server.URL+"/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

// conflictService always reports a run in flight
type conflictService struct {
	Service
}

func (conflictService) CheckPost(ctx context.Context, postID, checkedBy string) (*model.FactCheckResult, error) {
	return nil, factcheck.ErrAlreadyInProgress
}

func TestServer_Conflict(t *testing.T) {
	server := httptest.NewServer(NewServer(conflictService{}, Options{}))
	defer server.Close()

	resp := do(t, "POST", server.URL+"/posts/etna/fact-check", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409, got %d", resp.StatusCode)
	}
}

// failedService returns a persisted FAILED run
type failedService struct {
	Service
}

func (failedService) CheckPost(ctx context.Context, postID, checkedBy string) (*model.FactCheckResult, error) {
	return &model.FactCheckResult{ID: "r1", PostID: postID, RunStatus: model.RunFailed, ErrorDetail: "timeout"}, factcheck.ErrBackendTimeout
}

func TestServer_FailedRunReturnsResult(t *testing.T) {
	server := httptest.NewServer(NewServer(failedService{}, Options{}))
	defer server.Close()

	resp := do(t, "POST", server.URL+"/posts/etna/fact-check", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var result map[string]interface{}
	decode(t, resp, &result)
	if result["runStatus"] != "FAILED" || result["errorDetail"] != "timeout" {
		t.Errorf("Unexpected result: %v", result)
	}
}
