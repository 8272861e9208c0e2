package health

import (
	"context"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig configures WithBreaker.
type BreakerConfig struct {
	// Failures is the number of consecutive failures that opens the breaker.
	// Zero disables the breaker.
	Failures uint32

	// Timeout is how long the breaker stays open before a trial check.
	Timeout time.Duration

	Logger *slog.Logger
}

// WithBreaker wraps check in a circuit breaker named name. While the breaker
// is open the check fails immediately with gobreaker.ErrOpenState.
func WithBreaker(name string, check CheckFunc, cfg BreakerConfig) CheckFunc {
	if cfg.Failures == 0 {
		return check
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Health check breaker state changed",
				"check", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return func(ctx context.Context) error {
		_, err := cb.Execute(func() (struct{}, error) {
			return struct{}{}, check(ctx)
		})
		return err
	}
}
