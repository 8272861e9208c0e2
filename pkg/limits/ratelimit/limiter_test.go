package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/bastion/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	c := cache.NewMemoryCacheWithConfig(cache.MemoryConfig{Clock: clock.Now, CleanupInterval: time.Hour})
	t.Cleanup(func() { c.Close() })

	if cfg.Scope == "" {
		cfg.Scope = "test"
	}
	cfg.Clock = clock.Now

	l, err := NewLimiter(c, cfg)
	require.NoError(t, err)
	return l, clock
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in      string
		want    Rate
		wantErr bool
	}{
		{in: "60/minute", want: Rate{60, time.Minute}},
		{in: "100/hour", want: Rate{100, time.Hour}},
		{in: "100/h", want: Rate{100, time.Hour}},
		{in: "5/s", want: Rate{5, time.Second}},
		{in: " 10 / day ", want: Rate{10, 24 * time.Hour}},
		{in: "1000/min", want: Rate{1000, time.Minute}},
		{in: "100", wantErr: true},
		{in: "0/minute", wantErr: true},
		{in: "-1/minute", wantErr: true},
		{in: "x/minute", wantErr: true},
		{in: "10/", wantErr: true},
		{in: "10/week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRate_String(t *testing.T) {
	assert.Equal(t, "60/minute", MustParseRate("60/m").String())
	assert.Equal(t, "1/day", MustParseRate("1/d").String())
}

func TestNewLimiter_Validation(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()

	_, err := NewLimiter(nil, Config{Scope: "x", Rate: MustParseRate("1/s")})
	assert.Error(t, err)

	_, err = NewLimiter(c, Config{Rate: MustParseRate("1/s")})
	assert.Error(t, err)

	_, err = NewLimiter(c, Config{Scope: "x"})
	assert.Error(t, err)
}

func TestLimiter_FixedWindow(t *testing.T) {
	l, clock := newTestLimiter(t, Config{Rate: MustParseRate("3/minute")})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, int64(3), d.Limit)
		assert.Equal(t, int64(3-i), d.Remaining)
		assert.Zero(t, d.RetryAfter)
	}

	clock.Advance(20 * time.Second)
	d, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
	assert.Equal(t, 40*time.Second, d.RetryAfter)

	// Other identities have their own bucket.
	d, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// The window expires and the identity is allowed again.
	clock.Advance(40 * time.Second)
	d, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(2), d.Remaining)
}

func TestLimiter_Burst(t *testing.T) {
	l, clock := newTestLimiter(t, Config{
		Rate:          MustParseRate("2/hour"),
		BurstRate:     MustParseRate("4/hour"),
		BurstDuration: 5 * time.Minute,
	})
	ctx := context.Background()

	// Inside the burst window the higher allowance applies.
	for i := 1; i <= 4; i++ {
		d, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "burst request %d", i)
		assert.True(t, d.Burst)
		assert.Equal(t, int64(4), d.Limit)
	}

	d, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, d.Allowed, "fifth request exceeds the burst allowance")

	// After the burst window the base allowance applies to the same counter.
	clock.Advance(6 * time.Minute)
	d, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, d.Burst)
	assert.Equal(t, int64(2), d.Limit)
	assert.False(t, d.Allowed)
}

func TestLimiter_BurstReopensAfterMarkerExpires(t *testing.T) {
	l, clock := newTestLimiter(t, Config{
		Rate:          MustParseRate("1/minute"),
		BurstRate:     MustParseRate("3/minute"),
		BurstDuration: 2 * time.Minute,
	})
	ctx := context.Background()

	d, _ := l.Allow(ctx, "ip")
	assert.True(t, d.Burst)

	// Burst window closed, marker still alive (TTL is 2 minutes).
	clock.Advance(2*time.Minute - time.Second)
	d, _ = l.Allow(ctx, "ip")
	assert.True(t, d.Burst)

	clock.Advance(time.Second)
	d, _ = l.Allow(ctx, "ip")
	assert.True(t, d.Burst, "marker expired, a new burst window opens")
}

func TestLimiter_BurstNormalizedToBasePeriod(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		Rate:          MustParseRate("100/hour"),
		BurstRate:     MustParseRate("5/minute"),
		BurstDuration: time.Minute,
	})

	d, err := l.Allow(context.Background(), "ip")
	require.NoError(t, err)
	assert.Equal(t, int64(300), d.Limit)
}

func TestLimiter_Key(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Scope: "ip", Rate: MustParseRate("1/s")})
	assert.Equal(t, "throttle_ip_10.0.0.1", l.Key("10.0.0.1"))
	assert.Equal(t, "ip", l.Scope())
}

func TestLimiter_ConcurrentRequestsAreCounted(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Rate: MustParseRate("50/minute")})
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(ctx, "same")
			assert.NoError(t, err)
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}
