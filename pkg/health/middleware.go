package health

import (
	"errors"
	"log/slog"
	"net/http"

	"mercator-hq/bastion/pkg/apierror"
	"mercator-hq/bastion/pkg/limits/ratelimit"
	"mercator-hq/bastion/pkg/middleware"
)

// ThrottleScope is the rate limiter scope of the health endpoint.
const ThrottleScope = "health_check"

// MiddlewareConfig configures Middleware.
type MiddlewareConfig struct {
	// Endpoint is the exact path that is answered, e.g. "/api/health_check/".
	Endpoint string

	Checker *Checker

	// Limiter throttles probes per client address. Nil disables throttling.
	Limiter *ratelimit.Limiter

	Errors *apierror.Handler
	Logger *slog.Logger

	// OnFailure is called with the name of the failed check.
	OnFailure func(check string)

	// OnThrottle is called with the limiter scope for each denied probe.
	OnThrottle func(scope string)
}

// Middleware answers requests to the health endpoint and passes every other
// request to next.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "health")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != cfg.Endpoint {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			if cfg.Limiter != nil {
				decision, err := cfg.Limiter.Allow(ctx, middleware.ClientIP(r))
				switch {
				case err != nil:
					logger.WarnContext(ctx, "Health check throttle failed, allowing request", "error", err)
				case !decision.Allowed:
					if cfg.OnThrottle != nil {
						cfg.OnThrottle(cfg.Limiter.Scope())
					}
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
			}

			if err := cfg.Checker.Run(ctx); err != nil {
				name := "unknown"
				var perr *ProbeError
				if errors.As(err, &perr) {
					name = perr.Name
				}
				logger.ErrorContext(ctx, "Health check failed", "check", name, "error", err)
				if cfg.OnFailure != nil {
					cfg.OnFailure(name)
				}
				cfg.Errors.Write(w, r, apierror.ServiceUnavailable(err.Error()).WithCause(err))
				return
			}

			w.WriteHeader(http.StatusOK)
		})
	}
}
