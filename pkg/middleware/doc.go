// Package middleware provides the HTTP stages of the Bastion request
// pipeline that sit between the router and the outside world.
//
// # Stages
//
//   - RequestIDMiddleware: correlation id, client address, start time, trace id
//   - LoggingMiddleware: start and end lines with the redacted request body
//   - CORSMiddleware: cross-origin headers and preflight answers (go-chi/cors)
//   - MaintenanceMiddleware: 503 for everyone outside the allow lists
//   - SecurityHeadersMiddleware: frame, XSS, sniffing, HSTS, and CSP headers
//   - ThrottleMiddleware and PrincipalThrottleMiddleware: fixed-window limits
//
// Panic recovery and error envelopes live in package apierror, health
// probing in package health. The server assembles the stages in order with
// package pipeline:
//
//	recovery, request_logger, metrics, health, cors, auth,
//	maintenance, security_headers, throttle, router
//
// Every stage is an ordinary func(http.Handler) http.Handler and can be used
// on its own.
package middleware
