package factcheck

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bisa-app/factcheck/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultGuardTTL = time.Minute

// Guard admits at most one in-flight run per key. A held key expires after
// the guard's TTL so a crashed holder cannot block a post forever.
type Guard interface {
	// TryAcquire returns ok=false when key is already held. The release
	// func is safe to call more than once.
	TryAcquire(ctx context.Context, key string) (release func(), ok bool, err error)
	Close() error
}

// NewGuard builds the guard selected by cfg.Backend
func NewGuard(ctx context.Context, cfg model.GuardConfig) (Guard, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		return NewLocalGuard(cfg.TTL), nil
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis guard: redis_url is required")
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return NewRedisGuard(client, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown guard backend: %s", cfg.Backend)
	}
}

// LocalGuard is an in-process keyed lock
type LocalGuard struct {
	mu    sync.Mutex
	held  map[string]localLease
	ttl   time.Duration
	now   func() time.Time
	token uint64
}

type localLease struct {
	token   uint64
	expires time.Time
}

// NewLocalGuard creates an in-process guard
func NewLocalGuard(ttl time.Duration) *LocalGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &LocalGuard{
		held: make(map[string]localLease),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (g *LocalGuard) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if lease, ok := g.held[key]; ok && now.Before(lease.expires) {
		return func() {}, false, nil
	}

	g.token++
	token := g.token
	g.held[key] = localLease{token: token, expires: now.Add(g.ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.held[key].token == token {
				delete(g.held, key)
			}
		})
	}, true, nil
}

func (g *LocalGuard) Close() error {
	return nil
}

// Deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard shares the in-flight lock across service instances with
// SET NX PX
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisGuard wraps an existing client
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &RedisGuard{client: client, ttl: ttl, prefix: "factcheck:inflight:"}
}

func (g *RedisGuard) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	redisKey := g.prefix + key
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire %s: %w", redisKey, err)
	}
	if !ok {
		return func() {}, false, nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, g.client, []string{redisKey}, token).Err(); err != nil {
				log.Printf("release guard %s: %v", redisKey, err)
			}
		})
	}, true, nil
}

func (g *RedisGuard) Close() error {
	return g.client.Close()
}
