package llm

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/bisa-app/factcheck/internal/cache"
)

// CachedProvider serves repeated verifications of the same content from cache
type CachedProvider struct {
	next  Provider
	model string
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps next. A zero ttl uses the cache's default.
func NewCachedProvider(next Provider, model string, c cache.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, model: model, cache: c, ttl: ttl}
}

func (p *CachedProvider) Name() string {
	return p.next.Name()
}

func (p *CachedProvider) Verify(ctx context.Context, req VerifyRequest) (*Suggestion, error) {
	key := cache.ReplyKey(p.model, strings.TrimSpace(req.Content))

	if data, ok := p.cache.Get(key); ok {
		var cached Suggestion
		if err := json.Unmarshal(data, &cached); err == nil {
			cached.Cached = true
			return &cached, nil
		}
		_ = p.cache.Delete(key)
	}

	suggestion, err := p.next.Verify(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(suggestion); err == nil {
		if err := p.cache.Set(key, data, p.ttl); err != nil {
			log.Printf("llm: cache reply: %v", err)
		}
	}
	return suggestion, nil
}
