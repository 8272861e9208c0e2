// Package ratelimit provides cache-backed request throttling.
//
// # Overview
//
// A Limiter counts requests per identity in fixed windows stored in a shared
// cache.Cache. Counter increments are atomic in the cache, so concurrent
// requests from the same identity are never undercounted, and buckets are
// never deleted explicitly: they expire with the window.
//
//	limiter, err := ratelimit.NewLimiter(c, ratelimit.Config{
//	    Scope:         "ip",
//	    Rate:          ratelimit.MustParseRate("100/hour"),
//	    BurstRate:     ratelimit.MustParseRate("200/hour"),
//	    BurstDuration: 5 * time.Minute,
//	})
//	decision, err := limiter.Allow(ctx, remoteAddr)
//	if !decision.Allowed {
//	    // respond 429 with Retry-After: decision.RetryAfter
//	}
//
// # Rates
//
// Rates are written "N/period" with period second, minute, hour, or day
// (only the first letter counts). A burst rate with a different period is
// scaled to the base period, rounding up.
//
// # Burst Windows
//
// The first request from an identity opens a burst window. Until it closes
// the burst allowance applies; then the base allowance applies until the
// burst marker expires (after max(BurstDuration, base period)), and the next
// request opens a fresh burst window.
//
// # Cache Keys
//
//	throttle_<scope>_<identity>        request counter
//	throttle_<scope>_<identity>_burst  burst window start (unix nanoseconds)
//
// The limiter never writes HTTP responses; callers translate a Decision.
package ratelimit
