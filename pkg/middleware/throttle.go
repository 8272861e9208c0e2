package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"mercator-hq/bastion/pkg/apierror"
	"mercator-hq/bastion/pkg/limits/ratelimit"
	"mercator-hq/bastion/pkg/security/auth"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// ThrottleConfig configures ThrottleMiddleware.
type ThrottleConfig struct {
	// Read limits GET, HEAD, and OPTIONS requests.
	Read *ratelimit.Limiter

	// Write limits every other method.
	Write *ratelimit.Limiter

	Errors *apierror.Handler
	Logger *slog.Logger

	// OnThrottle is called with the limiter scope for each denied request.
	OnThrottle func(scope string)
}

// ThrottleMiddleware limits requests per client address. The limiter is
// chosen by route class so reads and writes have separate buckets.
//
// A cache failure is logged and the request is let through.
func ThrottleMiddleware(cfg ThrottleConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := cfg.Write
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				limiter = cfg.Read
			}
			limit(w, r, next, limiter, ClientIP(r), cfg.Errors, logger, cfg.OnThrottle)
		})
	}
}

// PrincipalThrottleConfig configures PrincipalThrottleMiddleware.
type PrincipalThrottleConfig struct {
	// User limits authenticated callers by subject.
	User *ratelimit.Limiter

	// Anon limits anonymous callers by client address.
	Anon *ratelimit.Limiter

	Errors     *apierror.Handler
	Logger     *slog.Logger
	OnThrottle func(scope string)
}

// PrincipalThrottleMiddleware applies the user rate to authenticated callers
// and the anonymous rate to everyone else.
func PrincipalThrottleMiddleware(cfg PrincipalThrottleConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := auth.PrincipalFrom(r.Context()); ok {
				limit(w, r, next, cfg.User, p.Subject, cfg.Errors, logger, cfg.OnThrottle)
				return
			}
			limit(w, r, next, cfg.Anon, ClientIP(r), cfg.Errors, logger, cfg.OnThrottle)
		})
	}
}

func limit(w http.ResponseWriter, r *http.Request, next http.Handler, limiter *ratelimit.Limiter,
	identity string, errs *apierror.Handler, logger *slog.Logger, onThrottle func(string)) {
	if limiter == nil {
		next.ServeHTTP(w, r)
		return
	}

	ctx := r.Context()
	decision, err := limiter.Allow(ctx, identity)
	if err != nil {
		logger.WarnContext(ctx, "Rate limit check failed, allowing request",
			"scope", limiter.Scope(),
			"error", err,
		)
		next.ServeHTTP(w, r)
		return
	}

	h := w.Header()
	h.Set(HeaderRateLimitLimit, strconv.FormatInt(decision.Limit, 10))
	h.Set(HeaderRateLimitRemaining, strconv.FormatInt(decision.Remaining, 10))
	h.Set(HeaderRateLimitReset, strconv.FormatInt(decision.Reset.Unix(), 10))

	if !decision.Allowed {
		if onThrottle != nil {
			onThrottle(limiter.Scope())
		}
		errs.Write(w, r, apierror.Throttled(decision.RetryAfter))
		return
	}

	next.ServeHTTP(w, r)
}
