package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_Allowed(t *testing.T) {
	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusOK)
			return
		}
		atomic.AddInt32(&fetches, 1)
		_, _ = w.Write([]byte("User-agent: BisaFactCheck\nDisallow: /private\n"))
	}))
	defer server.Close()

	checker := NewRobotsChecker(NewHTTPClient(ClientOptions{Timeout: 5 * time.Second}), "BisaFactCheck/0.1 (+https://bisa.app)")
	ctx := context.Background()

	allowed, err := checker.Allowed(ctx, server.URL+"/news")
	if err != nil {
		t.Fatalf("Allowed failed: %v", err)
	}
	if !allowed {
		t.Error("Expected /news to be allowed")
	}

	allowed, err = checker.Allowed(ctx, server.URL+"/private/page")
	if err != nil {
		t.Fatalf("Allowed failed: %v", err)
	}
	if allowed {
		t.Error("Expected /private/page to be disallowed")
	}

	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("Expected robots.txt to be fetched once and cached, got %d fetches", n)
	}
}

func TestRobotsChecker_MissingRobotsAllowsEverything(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker(NewHTTPClient(ClientOptions{Timeout: 5 * time.Second}), "BisaFactCheck/0.1")
	allowed, err := checker.Allowed(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("Allowed failed: %v", err)
	}
	if !allowed {
		t.Error("Expected missing robots.txt to allow access")
	}
}

func TestRobotsChecker_InvalidURL(t *testing.T) {
	checker := NewRobotsChecker(NewHTTPClient(ClientOptions{}), "BisaFactCheck")
	if _, err := checker.Allowed(context.Background(), "::invalid"); err == nil {
		t.Error("Expected error for invalid URL")
	}
	if _, err := checker.Allowed(context.Background(), "/relative/path"); err == nil {
		t.Error("Expected error for URL without host")
	}
}

func TestProductToken(t *testing.T) {
	tests := map[string]string{
		"BisaFactCheck/0.1 (+https://bisa.app)": "BisaFactCheck",
		"curl":                                  "curl",
		"":                                      "",
	}
	for in, want := range tests {
		if got := productToken(in); got != want {
			t.Errorf("productToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewHTTPClient_StopsRedirectLoops(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	client := NewHTTPClient(ClientOptions{Timeout: 5 * time.Second, MaxRedirects: 2})
	resp, err := client.Get(server.URL + "/a")
	if err == nil {
		_ = resp.Body.Close()
		t.Fatal("Expected redirect loop to be stopped")
	}
}
