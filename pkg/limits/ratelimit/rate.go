package ratelimit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRate is returned by ParseRate for malformed rate strings.
var ErrInvalidRate = errors.New("invalid rate")

// ParseRate parses "N/period" where period is second, minute, hour, or day.
// Only the first letter of the period is significant, so "100/h", "100/hr",
// and "100/hour" are equivalent.
func ParseRate(s string) (Rate, error) {
	num, period, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Rate{}, fmt.Errorf("%w %q: expected N/period", ErrInvalidRate, s)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
	if err != nil || n <= 0 {
		return Rate{}, fmt.Errorf("%w %q: request count must be a positive integer", ErrInvalidRate, s)
	}

	period = strings.TrimSpace(period)
	if period == "" {
		return Rate{}, fmt.Errorf("%w %q: missing period", ErrInvalidRate, s)
	}

	var d time.Duration
	switch period[0] {
	case 's':
		d = time.Second
	case 'm':
		d = time.Minute
	case 'h':
		d = time.Hour
	case 'd':
		d = 24 * time.Hour
	default:
		return Rate{}, fmt.Errorf("%w %q: unknown period %q", ErrInvalidRate, s, period)
	}

	return Rate{Requests: n, Period: d}, nil
}

// MustParseRate is like ParseRate but panics on error. For constants and tests.
func MustParseRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}
