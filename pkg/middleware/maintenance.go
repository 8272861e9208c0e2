package middleware

import (
	"net/http"
	"strings"

	"mercator-hq/bastion/pkg/apierror"
	"mercator-hq/bastion/pkg/config/runtime"
	"mercator-hq/bastion/pkg/security/auth"
)

// MaintenanceConfig configures MaintenanceMiddleware.
type MaintenanceConfig struct {
	// Accessor provides MAINTENANCE_* settings, read on every request.
	Accessor *runtime.Accessor

	// Errors writes the 503 and any lookup failure.
	Errors *apierror.Handler

	// AdminPath always bypasses maintenance, as does /<lang><AdminPath>
	// for each of Languages.
	AdminPath string
	Languages []string

	// OnReject is called for each rejected request. Optional.
	OnReject func()
}

// MaintenanceMiddleware rejects requests with 503 while MAINTENANCE_ENABLE is
// set. Staff callers, allow-listed path prefixes, and allow-listed client
// addresses pass through.
func MaintenanceMiddleware(cfg MaintenanceConfig) func(http.Handler) http.Handler {
	var adminPrefixes []string
	if cfg.AdminPath != "" {
		adminPrefixes = append(adminPrefixes, cfg.AdminPath)
		for _, lang := range cfg.Languages {
			adminPrefixes = append(adminPrefixes, "/"+lang+cfg.AdminPath)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			acc := cfg.Accessor

			enabled, err := acc.Bool(ctx, runtime.MaintenanceEnable)
			if err != nil {
				cfg.Errors.Write(w, r, err)
				return
			}
			if !enabled || auth.IsStaff(ctx) {
				next.ServeHTTP(w, r)
				return
			}

			allowedURLs, err := acc.Strings(ctx, runtime.MaintenanceAllowedURLs)
			if err != nil {
				cfg.Errors.Write(w, r, err)
				return
			}
			if hasAnyPrefix(r.URL.Path, allowedURLs) || hasAnyPrefix(r.URL.Path, adminPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			allowedIPs, err := acc.Strings(ctx, runtime.MaintenanceAllowedIPs)
			if err != nil {
				cfg.Errors.Write(w, r, err)
				return
			}
			ip := ClientIP(r)
			for _, allowed := range allowedIPs {
				if allowed == ip {
					next.ServeHTTP(w, r)
					return
				}
			}

			message, err := acc.String(ctx, runtime.MaintenanceMessage)
			if err != nil {
				cfg.Errors.Write(w, r, err)
				return
			}
			if cfg.OnReject != nil {
				cfg.OnReject()
			}
			cfg.Errors.Write(w, r, apierror.ServiceUnavailable(message))
		})
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
