package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand so refill is deterministic.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClockedLimiter(rps float64, burst int) (*MemoryLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2023, 11, 8, 10, 0, 0, 0, time.UTC)}
	return newMemoryLimiter(rps, burst, clock.Now), clock
}

func allowN(t *testing.T, m *MemoryLimiter, key string, n int) int {
	t.Helper()
	allowed := 0
	for range n {
		ok, err := m.Allow(context.Background(), key)
		require.NoError(t, err)
		if ok {
			allowed++
		}
	}
	return allowed
}

func TestMemoryLimiterBurst(t *testing.T) {
	m, _ := newClockedLimiter(10, 3)
	assert.Equal(t, 3, allowN(t, m, "user:u1001:engineer", 3), "burst is available immediately")
	assert.Equal(t, 0, allowN(t, m, "user:u1001:engineer", 1), "denied once the burst is spent")
}

func TestMemoryLimiterRefill(t *testing.T) {
	m, clock := newClockedLimiter(2, 2)
	require.Equal(t, 2, allowN(t, m, "k", 3))

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, allowN(t, m, "k", 2), "half a second at 2 rps refills one token")

	clock.Advance(time.Hour)
	assert.Equal(t, 2, allowN(t, m, "k", 5), "refill is capped at the burst")
}

func TestMemoryLimiterIndependentKeys(t *testing.T) {
	m, _ := newClockedLimiter(1, 1)
	assert.Equal(t, 1, allowN(t, m, "user:u1001:engineer", 2))
	assert.Equal(t, 1, allowN(t, m, "user:u1001:viewer", 1), "same user under another role has its own bucket")
	assert.Equal(t, 1, allowN(t, m, "user:u1002:engineer", 1))
	assert.Equal(t, 3, m.Len())
}

func TestMemoryLimiterConcurrent(t *testing.T) {
	m, _ := newClockedLimiter(100, 50)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Allow(context.Background(), "shared"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), allowed.Load())
}

func TestMemoryLimiterEvictStale(t *testing.T) {
	m, clock := newClockedLimiter(10, 5)
	allowN(t, m, "stale", 1)
	clock.Advance(staleThreshold - time.Minute)
	allowN(t, m, "recent", 1)

	clock.Advance(2 * time.Minute)
	m.evictStale()

	m.mu.Lock()
	_, staleKept := m.buckets["stale"]
	_, recentKept := m.buckets["recent"]
	m.mu.Unlock()
	assert.False(t, staleKept)
	assert.True(t, recentKept)
}

func TestMemoryLimiterCloseIdempotent(t *testing.T) {
	m := NewMemoryLimiter(10, 5)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestNoopLimiterAlwaysAllows(t *testing.T) {
	var l NoopLimiter
	for range 1000 {
		ok, err := l.Allow(context.Background(), "anything")
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.NoError(t, l.Close())
}
