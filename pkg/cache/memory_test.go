package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCacheWithConfig(MemoryConfig{Clock: clock.Now, CleanupInterval: time.Hour})
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	clock.Advance(59 * time.Second)
	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok, "entry expires exactly at its deadline")

	added, err := c.Add(ctx, "k", []byte("again"), time.Minute)
	require.NoError(t, err)
	assert.True(t, added, "Add succeeds over an expired entry")
}

func TestMemoryCache_IncrRestartsAfterExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCacheWithConfig(MemoryConfig{Clock: clock.Now, CleanupInterval: time.Hour})
	defer c.Close()

	first, err := c.Incr(ctx, "n", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Minute), first.ExpiresAt)

	clock.Advance(30 * time.Second)
	second, _ := c.Incr(ctx, "n", time.Minute)
	assert.Equal(t, int64(2), second.Value)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)

	clock.Advance(30 * time.Second)
	third, _ := c.Incr(ctx, "n", time.Minute)
	assert.Equal(t, int64(1), third.Value)
	assert.Equal(t, clock.Now().Add(time.Minute), third.ExpiresAt)
}

func TestMemoryCache_Cleanup(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCacheWithConfig(MemoryConfig{Clock: clock.Now, CleanupInterval: time.Hour})
	defer c.Close()

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "forever", []byte("1"), 0))

	clock.Advance(time.Minute)
	assert.Equal(t, 1, c.Cleanup())
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCache_Eviction(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCacheWithConfig(MemoryConfig{MaxEntries: 2, Clock: clock.Now, CleanupInterval: time.Hour})
	defer c.Close()

	require.NoError(t, c.Set(ctx, "soon", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "later", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "new", []byte("1"), time.Hour))

	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.Get(ctx, "soon")
	assert.False(t, ok, "entry closest to expiry is evicted first")
	_, ok, _ = c.Get(ctx, "later")
	assert.True(t, ok)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value[0] = 'x'

	got, _, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryCache_EvictionOrderAcrossUpdates(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCacheWithConfig(MemoryConfig{MaxEntries: 100, Clock: clock.Now, CleanupInterval: time.Hour})
	defer c.Close()

	require.NoError(t, c.Set(ctx, "pinned", []byte("1"), 0))
	for i := 0; i < 99; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%02d", i), []byte("1"), time.Duration(i+1)*time.Minute))
	}
	// Extending k00 moves k01 to the front.
	require.NoError(t, c.Set(ctx, "k00", []byte("1"), 2*time.Hour))
	counter, err := c.Incr(ctx, "k01", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counter.Value)
	assert.Equal(t, clock.Now().Add(2*time.Minute), counter.ExpiresAt, "incr keeps the deadline")

	require.NoError(t, c.Delete(ctx, "k02"))
	require.NoError(t, c.Set(ctx, "fill", []byte("1"), 3*time.Hour))
	require.NoError(t, c.Set(ctx, "extra", []byte("1"), 3*time.Hour))

	assert.Equal(t, 100, c.Len())
	_, ok, _ := c.Get(ctx, "k01")
	assert.False(t, ok, "nearest deadline is evicted")
	for _, key := range []string{"pinned", "k00", "k03", "fill", "extra"} {
		_, ok, _ := c.Get(ctx, key)
		assert.True(t, ok, key)
	}
}

func TestMemoryCache_CleanupSweepsBatch(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCacheWithConfig(MemoryConfig{Clock: clock.Now, CleanupInterval: time.Hour})
	defer c.Close()

	for i := 0; i < 1000; i++ {
		ttl := time.Minute
		if i%4 == 0 {
			ttl = time.Hour
		}
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), []byte("1"), ttl))
	}
	require.NoError(t, c.Set(ctx, "forever", []byte("1"), 0))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 750, c.Cleanup())
	assert.Equal(t, 251, c.Len())
	assert.Equal(t, 0, c.Cleanup())

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 250, c.Cleanup())
	_, ok, _ := c.Get(ctx, "forever")
	assert.True(t, ok)
}
