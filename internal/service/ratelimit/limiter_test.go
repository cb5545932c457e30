package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBurstThenDeny(t *testing.T) {
	l := NewMemory(0.001, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, ok, "keys are independent")
}

// counterStore is the slice of redis.Cmdable the redis backend touches.
type counterStore struct {
	redis.Cmdable
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Duration
}

func (c *counterStore) Incr(ctx context.Context, key string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return redis.NewIntResult(c.counts[key], nil)
}

func (c *counterStore) Expire(ctx context.Context, key string, d time.Duration) *redis.BoolCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires[key] = d
	return redis.NewBoolResult(true, nil)
}

func TestRedisFixedWindow(t *testing.T) {
	store := &counterStore{counts: map[string]int64{}, expires: map[string]time.Duration{}}
	l := NewRedis(store, "earnview", 2, 30*time.Second)
	ctx := context.Background()

	for _, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "client")
		require.NoError(t, err)
		assert.Equal(t, want, ok)
	}
	assert.Equal(t, 30*time.Second, store.expires["earnview:ratelimit:client"])
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "carrier-pigeon"}, nil)
	assert.Error(t, err)

	_, err = New(Config{Backend: BackendRedis}, nil)
	assert.Error(t, err)

	l, err := New(Config{RPS: 1, Burst: 1}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, l)
}
