package ratelimit

import (
	"fmt"
	"time"
)

// Rate is an allowance of Requests per Period.
type Rate struct {
	// Requests is the number of requests allowed in one period.
	Requests int64

	// Period is the window length.
	Period time.Duration
}

// String formats the rate the way ParseRate accepts it.
func (r Rate) String() string {
	switch r.Period {
	case time.Second:
		return fmt.Sprintf("%d/second", r.Requests)
	case time.Minute:
		return fmt.Sprintf("%d/minute", r.Requests)
	case time.Hour:
		return fmt.Sprintf("%d/hour", r.Requests)
	case 24 * time.Hour:
		return fmt.Sprintf("%d/day", r.Requests)
	default:
		return fmt.Sprintf("%d/%s", r.Requests, r.Period)
	}
}

// Decision contains the result of a rate limit check.
// It is returned by Limiter.Allow; callers decide how to respond.
type Decision struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Limit is the allowance in effect for this request (burst or base).
	Limit int64

	// Remaining is how many requests remain in the current window.
	Remaining int64

	// Reset is when the current window ends.
	Reset time.Time

	// RetryAfter is how long to wait before retrying. Zero when allowed.
	RetryAfter time.Duration

	// Burst reports whether the burst allowance was in effect.
	Burst bool
}
