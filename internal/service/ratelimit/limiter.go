// Package ratelimit throttles the mutating API proxies per client.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Backends accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// maxIdleKeys bounds the memory backend before idle buckets are pruned.
const maxIdleKeys = 10000

// Limiter decides whether one more request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config selects and sizes a backend.
type Config struct {
	Backend string
	RPS     float64
	Burst   int
	Window  time.Duration
	Prefix  string
}

// New builds the configured limiter. rdb is only used by the redis backend.
func New(cfg Config, rdb redis.Cmdable) (Limiter, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(cfg.RPS, cfg.Burst), nil
	case BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("ratelimit: redis backend without client")
		}
		return NewRedis(rdb, cfg.Prefix, cfg.Burst, cfg.Window), nil
	default:
		return nil, fmt.Errorf("ratelimit: unknown backend %q", cfg.Backend)
	}
}

// Memory is a token bucket per key held in process.
type Memory struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

// NewMemory refills rps tokens per second up to burst.
func NewMemory(rps float64, burst int) *Memory {
	if burst < 1 {
		burst = 1
	}
	return &Memory{limit: rate.Limit(rps), burst: burst, buckets: make(map[string]*rate.Limiter)}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	b, ok := m.buckets[key]
	if !ok {
		if len(m.buckets) >= maxIdleKeys {
			m.pruneLocked()
		}
		b = rate.NewLimiter(m.limit, m.burst)
		m.buckets[key] = b
	}
	m.mu.Unlock()
	return b.Allow(), nil
}

// pruneLocked forgets buckets that have refilled, they behave like new ones.
func (m *Memory) pruneLocked() {
	for k, b := range m.buckets {
		if b.Tokens() >= float64(m.burst) {
			delete(m.buckets, k)
		}
	}
}

// Redis is a fixed window counter shared by every replica.
type Redis struct {
	rdb    redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
}

// NewRedis allows limit requests per key in each window.
func NewRedis(rdb redis.Cmdable, prefix string, limit int, window time.Duration) *Redis {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Redis{rdb: rdb, prefix: prefix, limit: int64(limit), window: window}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := r.prefix + ":ratelimit:" + key
	n, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit incr: %w", err)
	}
	if n == 1 {
		if err := r.rdb.Expire(ctx, k, r.window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit expire: %w", err)
		}
	}
	return n <= r.limit, nil
}

// NewRedisClient opens and pings a client.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		PoolTimeout:  30 * time.Second,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
