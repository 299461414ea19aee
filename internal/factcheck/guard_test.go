package factcheck

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bisa-app/factcheck/internal/model"
	"github.com/redis/go-redis/v9"
)

func TestLocalGuard_ExclusivePerKey(t *testing.T) {
	g := NewLocalGuard(time.Minute)
	ctx := context.Background()

	release, ok, err := g.TryAcquire(ctx, "post-1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := g.TryAcquire(ctx, "post-1"); ok {
		t.Error("second acquire of a held key should fail")
	}
	if _, ok, _ := g.TryAcquire(ctx, "post-2"); !ok {
		t.Error("a different key should be free")
	}

	release()
	release()
	if _, ok, _ := g.TryAcquire(ctx, "post-1"); !ok {
		t.Error("key should be free after release")
	}
}

func TestLocalGuard_Expiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := NewLocalGuard(time.Minute)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	staleRelease, ok, _ := g.TryAcquire(ctx, "post-1")
	if !ok {
		t.Fatal("first acquire failed")
	}

	now = now.Add(2 * time.Minute)
	release, ok, _ := g.TryAcquire(ctx, "post-1")
	if !ok {
		t.Fatal("expired lease should be reclaimable")
	}

	// The expired holder must not free the new holder's lease
	staleRelease()
	if _, ok, _ := g.TryAcquire(ctx, "post-1"); ok {
		t.Error("stale release freed the current lease")
	}
	release()
}

func TestNewGuard(t *testing.T) {
	ctx := context.Background()

	g, err := NewGuard(ctx, model.GuardConfig{Backend: "local"})
	if err != nil {
		t.Fatalf("NewGuard(local) failed: %v", err)
	}
	if _, ok := g.(*LocalGuard); !ok {
		t.Errorf("Expected *LocalGuard, got %T", g)
	}

	if _, err := NewGuard(ctx, model.GuardConfig{Backend: "redis"}); err == nil {
		t.Error("Expected error for redis without url")
	}
	if _, err := NewGuard(ctx, model.GuardConfig{Backend: "redis", RedisURL: "://bad"}); err == nil {
		t.Error("Expected error for malformed redis url")
	}
	if _, err := NewGuard(ctx, model.GuardConfig{Backend: "zookeeper"}); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestRedisGuard(t *testing.T) {
	url := os.Getenv("FACTCHECK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FACTCHECK_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := redis.NewClient(opts)
	g := NewRedisGuard(client, 5*time.Second)
	g.prefix = "factcheck:test:" + time.Now().Format("150405.000000") + ":"
	defer func() { _ = g.Close() }()
	ctx := context.Background()

	release, ok, err := g.TryAcquire(ctx, "post-1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if _, ok, err := g.TryAcquire(ctx, "post-1"); err != nil || ok {
		t.Errorf("second acquire: ok=%v err=%v", ok, err)
	}

	release()
	release2, ok, err := g.TryAcquire(ctx, "post-1")
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
	release2()
}
