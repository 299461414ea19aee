package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bisa-app/factcheck/internal/cache"
	"github.com/bisa-app/factcheck/internal/model"
)

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Verify(ctx context.Context, req VerifyRequest) (*Suggestion, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &Suggestion{Verdict: VerdictTrue, Confidence: "Medium", Reasoning: req.Content}, nil
}

func TestCachedProvider_ServesRepeatsFromCache(t *testing.T) {
	next := &countingProvider{}
	provider := NewCachedProvider(next, "m", cache.NewMemoryCache(time.Minute, time.Minute), 0)
	ctx := context.Background()

	first, err := provider.Verify(ctx, VerifyRequest{Content: "Etna erupted."})
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("First call should not be cached")
	}

	second, err := provider.Verify(ctx, VerifyRequest{Content: "  Etna erupted.  "})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Reasoning != "Etna erupted." {
		t.Errorf("Expected cached copy, got %+v", second)
	}
	if next.calls != 1 {
		t.Errorf("Expected 1 backend call, got %d", next.calls)
	}

	if _, err := provider.Verify(ctx, VerifyRequest{Content: "Different post."}); err != nil {
		t.Fatal(err)
	}
	if next.calls != 2 {
		t.Errorf("Expected a backend call for new content, got %d", next.calls)
	}
}

func TestCachedProvider_ErrorsAreNotCached(t *testing.T) {
	next := &countingProvider{err: errors.New("backend down")}
	provider := NewCachedProvider(next, "m", cache.NewMemoryCache(time.Minute, time.Minute), 0)

	for i := 0; i < 2; i++ {
		if _, err := provider.Verify(context.Background(), VerifyRequest{Content: "x"}); err == nil {
			t.Fatal("Expected error")
		}
	}
	if next.calls != 2 {
		t.Errorf("Expected every failing call to reach the backend, got %d", next.calls)
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(model.LLMConfig{}, nil)
	if err != nil || p != nil {
		t.Errorf("Empty provider should disable AI verification, got %v, %v", p, err)
	}

	if _, err := NewProvider(model.LLMConfig{Provider: "unknown"}, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}

	p, err = NewProvider(model.LLMConfig{Provider: "ollama", Model: "llama3"}, nil)
	if err != nil {
		t.Fatalf("ollama should not need a key: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Name = %s, want ollama", p.Name())
	}

	p, err = NewProvider(model.LLMConfig{Provider: "OpenAI", APIKey: "k"}, cache.NewMemoryCache(time.Minute, time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*CachedProvider); !ok {
		t.Errorf("Expected cached provider, got %T", p)
	}
}
