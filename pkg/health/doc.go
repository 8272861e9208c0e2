// Package health answers the health-check endpoint.
//
// # Probes
//
// A Checker runs named checks in registration order, each under its own
// timeout, and stops at the first failure:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("database", health.WithBreaker("database", health.DatabaseProbe(db), bcfg))
//	checker.RegisterCheck("cache", health.WithBreaker("cache", health.CacheProbe(c, 5*time.Second), bcfg))
//
// A failed check is reported as a *ProbeError whose message reads
// "<name> unavailable: <cause>".
//
// # Middleware
//
// Middleware intercepts requests whose path equals the configured endpoint.
// It throttles them per client address, runs the checks, and answers:
//
//   - 200 OK with an empty body when every check passes
//   - 429 Too Many Requests with an empty body when throttled
//   - 503 Service Unavailable with an E0001 error envelope on failure
//
// Other paths pass through untouched.
//
// # Circuit Breakers
//
// WithBreaker wraps a check in a sony/gobreaker circuit breaker. After the
// configured number of consecutive failures the check fails fast until the
// breaker timeout passes, so a dead database is not dialed on every probe.
//
// # Liveness
//
// LivenessHandler always answers 200 and is mounted at /livez. It does not
// touch any dependency.
package health
