package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"mercator-hq/bastion/pkg/cache"
)

// Limiter is a fixed-window request counter with an optional burst allowance,
// stored in a shared cache.
//
// Each identity gets one counter per window, incremented atomically by the
// cache. The window starts with the first request and lasts one base period;
// the counter then expires and the next request opens a new window.
//
// When a burst rate is configured, the first request from an identity also
// opens a burst window of BurstDuration. While it is open the (higher) burst
// allowance applies; afterwards the base allowance applies until the burst
// marker expires, at which point a new burst window can open.
type Limiter struct {
	cache cache.Cache
	scope string

	rate          Rate
	burstLimit    int64
	burstDuration time.Duration

	now func() time.Time
}

// Config configures a Limiter.
type Config struct {
	// Scope namespaces the cache keys, e.g. "ip" or "health_check".
	Scope string

	// Rate is the base allowance.
	Rate Rate

	// BurstRate, if non-zero, applies during the burst window.
	BurstRate Rate

	// BurstDuration is the length of the burst window. Zero disables bursting.
	BurstDuration time.Duration

	// Clock overrides time.Now. Used by tests.
	Clock func() time.Time
}

// NewLimiter creates a limiter over c.
func NewLimiter(c cache.Cache, cfg Config) (*Limiter, error) {
	if c == nil {
		return nil, errors.New("ratelimit: cache is required")
	}
	if cfg.Scope == "" {
		return nil, errors.New("ratelimit: scope is required")
	}
	if cfg.Rate.Requests <= 0 || cfg.Rate.Period <= 0 {
		return nil, fmt.Errorf("ratelimit: invalid base rate %s", cfg.Rate)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	l := &Limiter{
		cache: c,
		scope: cfg.Scope,
		rate:  cfg.Rate,
		now:   cfg.Clock,
	}

	if cfg.BurstRate.Requests > 0 && cfg.BurstRate.Period > 0 && cfg.BurstDuration > 0 {
		l.burstLimit = normalize(cfg.BurstRate, cfg.Rate.Period)
		l.burstDuration = cfg.BurstDuration
	}

	return l, nil
}

// Scope returns the key namespace of this limiter.
func (l *Limiter) Scope() string { return l.scope }

// Rate returns the base allowance.
func (l *Limiter) Rate() Rate { return l.rate }

// Key returns the cache key of the counter for identity.
func (l *Limiter) Key(identity string) string {
	return "throttle_" + l.scope + "_" + identity
}

// Allow counts one request for identity and reports whether it is permitted.
// Denied requests still count, so a client hammering the endpoint stays denied
// until the window ends.
func (l *Limiter) Allow(ctx context.Context, identity string) (Decision, error) {
	key := l.Key(identity)
	now := l.now()

	limit := l.rate.Requests
	burst := false
	if l.burstLimit > 0 {
		inBurst, err := l.inBurstWindow(ctx, key+"_burst", now)
		if err != nil {
			return Decision{}, err
		}
		if inBurst {
			limit = l.burstLimit
			burst = true
		}
	}

	counter, err := l.cache.Incr(ctx, key, l.rate.Period)
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: failed to count request: %w", err)
	}

	reset := counter.ExpiresAt
	if reset.IsZero() {
		reset = now.Add(l.rate.Period)
	}

	d := Decision{
		Allowed:   counter.Value <= limit,
		Limit:     limit,
		Remaining: max(limit-counter.Value, 0),
		Reset:     reset,
		Burst:     burst,
	}
	if !d.Allowed {
		d.RetryAfter = max(reset.Sub(now), 0)
	}

	return d, nil
}

// inBurstWindow opens a burst window for the identity if none exists and
// reports whether now falls inside the current one.
func (l *Limiter) inBurstWindow(ctx context.Context, key string, now time.Time) (bool, error) {
	ttl := max(l.burstDuration, l.rate.Period)
	stamp := []byte(strconv.FormatInt(now.UnixNano(), 10))

	added, err := l.cache.Add(ctx, key, stamp, ttl)
	if err != nil {
		return false, fmt.Errorf("ratelimit: failed to open burst window: %w", err)
	}
	if added {
		return true, nil
	}

	raw, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("ratelimit: failed to read burst window: %w", err)
	}
	if !ok {
		// Expired between Add and Get; the next request opens a new window.
		return false, nil
	}

	startNanos, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return false, nil
	}
	start := time.Unix(0, startNanos)

	return now.Before(start.Add(l.burstDuration)), nil
}

// normalize converts r into an allowance per period, rounding up.
func normalize(r Rate, period time.Duration) int64 {
	if r.Period == period {
		return r.Requests
	}
	scaled := float64(r.Requests) * float64(period) / float64(r.Period)
	return max(int64(math.Ceil(scaled)), 1)
}
