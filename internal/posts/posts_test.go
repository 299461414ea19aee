package posts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bisa-app/factcheck/internal/model"
)

func init() {
	fetchSleepFunc = func(d time.Duration) {}
}

func TestPost_Content(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want string
	}{
		{"question and answer", Post{Question: "Did Etna erupt?", Answer: "Yes, in 2024."}, "Did Etna erupt?\n\nYes, in 2024."},
		{"answer only", Post{Answer: "  Yes.  "}, "Yes."},
		{"empty", Post{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.post.Content(); got != tt.want {
				t.Errorf("Content() = %q, want %q", got, tt.want)
			}
		})
	}
}

func writePostsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDirectory_PostContent(t *testing.T) {
	path := writePostsFile(t, `posts:
  - id: "42"
    question: What happened at Mount Etna?
    answer: Mount Etna erupted in 2024. Officials said 3,000 residents were evacuated.
    tags: [volcano, breaking-news]
  - id: "7"
    question: Best pizza?
    answer: I think Naples has the best pizza.
`)
	d, err := LoadDirectory(path)
	if err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}

	content, tags, err := d.PostContent(context.Background(), "42")
	if err != nil {
		t.Fatalf("PostContent failed: %v", err)
	}
	if content != "What happened at Mount Etna?\n\nMount Etna erupted in 2024. Officials said 3,000 residents were evacuated." {
		t.Errorf("Unexpected content %q", content)
	}
	if !reflect.DeepEqual(tags, []string{"volcano", "breaking-news"}) {
		t.Errorf("Unexpected tags %v", tags)
	}

	if _, _, err := d.PostContent(context.Background(), "missing"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("Expected ErrPostNotFound, got %v", err)
	}

	if ids := d.IDs(); !reflect.DeepEqual(ids, []string{"42", "7"}) {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestDirectory_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing id":   "posts:\n  - question: x\n",
		"duplicate id": "posts:\n  - id: a\n  - id: a\n",
		"bad yaml":     "posts: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadDirectory(writePostsFile(t, content)); err == nil {
				t.Error("Expected error")
			}
		})
	}
	if _, err := LoadDirectory(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestNewDirectory(t *testing.T) {
	d := NewDirectory(Post{ID: "1", Answer: "Text.", Tags: []string{"space"}})
	content, tags, err := d.PostContent(context.Background(), "1")
	if err != nil || content != "Text." || len(tags) != 1 {
		t.Errorf("Unexpected result: %q %v %v", content, tags, err)
	}

	// Callers cannot mutate stored tags
	tags[0] = "changed"
	_, again, _ := d.PostContent(context.Background(), "1")
	if again[0] != "space" {
		t.Error("Tags were aliased")
	}
}

func newAccessor(url string) *HTTPAccessor {
	return NewHTTPAccessor(model.PostsConfig{
		BaseURL:   url + "/",
		Timeout:   5 * time.Second,
		UserAgent: "BisaFactCheck/0.1",
	})
}

func TestHTTPAccessor_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/42" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") != "BisaFactCheck/0.1" {
			t.Errorf("Unexpected User-Agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"id":"42","question":"Q?","answer":"A.","tags":["space"]}`)
	}))
	defer server.Close()

	content, tags, err := newAccessor(server.URL).PostContent(context.Background(), "42")
	if err != nil {
		t.Fatalf("PostContent failed: %v", err)
	}
	if content != "Q?\n\nA." || !reflect.DeepEqual(tags, []string{"space"}) {
		t.Errorf("Unexpected post: %q %v", content, tags)
	}
}

func TestHTTPAccessor_NotFound(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, _, err := newAccessor(server.URL).PostContent(context.Background(), "nope")
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("Expected ErrPostNotFound, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("404 should not be retried, got %d attempts", attempts.Load())
	}
}

func TestHTTPAccessor_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, `{"question":"Q?","answer":"A."}`)
	}))
	defer server.Close()

	content, _, err := newAccessor(server.URL).PostContent(context.Background(), "1")
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if content != "Q?\n\nA." {
		t.Errorf("Unexpected content %q", content)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPAccessor_AllRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, _, err := newAccessor(server.URL).PostContent(context.Background(), "1"); err == nil {
		t.Fatal("Expected error")
	}
	if attempts.Load() != fetchMaxRetries {
		t.Errorf("Expected %d attempts, got %d", fetchMaxRetries, attempts.Load())
	}
}

func TestHTTPAccessor_PermanentFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	if _, _, err := newAccessor(server.URL).PostContent(context.Background(), "1"); err == nil {
		t.Fatal("Expected error")
	}
	if attempts.Load() != 1 {
		t.Errorf("403 should not be retried, got %d attempts", attempts.Load())
	}
}

func TestNew(t *testing.T) {
	if _, err := New(model.PostsConfig{Source: "http"}); err == nil {
		t.Error("Expected error for http source without base_url")
	}
	if _, err := New(model.PostsConfig{Source: "ftp"}); err == nil {
		t.Error("Expected error for unknown source")
	}
	a, err := New(model.PostsConfig{Source: "http", BaseURL: "http://localhost"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.(*HTTPAccessor); !ok {
		t.Errorf("Expected HTTP accessor, got %T", a)
	}
}
