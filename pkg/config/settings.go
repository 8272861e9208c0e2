package config

// Settings is the immutable static layer of the config accessor: a flat view
// of Config under the historical setting names.
type Settings map[string]any

// Lookup returns the static value for name.
func (s Settings) Lookup(name string) (any, bool) {
	v, ok := s[name]
	return v, ok
}

// Settings flattens the configuration into named static settings. The
// returned map is a copy; later changes to cfg are not reflected.
func (cfg *Config) Settings() Settings {
	return Settings{
		"DEBUG":                        cfg.App.Debug,
		"ENVIRONMENT":                  cfg.App.Environment,
		"LANGUAGES":                    cloneStrings(cfg.App.Languages),
		"HEALTH_CHECK_ENDPOINT":        cfg.App.HealthCheckEndpoint,
		"MAINTENANCE_ENABLE":           cfg.Maintenance.Enabled,
		"MAINTENANCE_MESSAGE":          cfg.Maintenance.Message,
		"MAINTENANCE_ALLOWED_URLS":     cloneStrings(cfg.Maintenance.AllowedURLs),
		"MAINTENANCE_ALLOWED_IPS":      cloneStrings(cfg.Maintenance.AllowedIPs),
		"RATE_LIMIT_RATE":              cfg.RateLimit.Rate,
		"RATE_LIMIT_BURST_RATE":        cfg.RateLimit.BurstRate,
		"RATE_LIMIT_BURST_DURATION":    cfg.RateLimit.BurstDuration,
		"REQUEST_LOG_MAX_BODY_SIZE":    cfg.RequestLogging.MaxBodySize,
		"REQUEST_LOG_SENSITIVE_FIELDS": cloneStrings(cfg.RequestLogging.SensitiveFields),
		"PAGE_SIZE":                    cfg.Pagination.PageSize,
		"MAX_PAGE_SIZE":                cfg.Pagination.MaxPageSize,
	}
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
