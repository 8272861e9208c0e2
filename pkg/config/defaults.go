package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultTLSMinVersion   = "1.3"
	DefaultTLSReload       = 5 * time.Minute

	// App defaults
	DefaultEnvironment         = "local"
	DefaultHealthCheckEndpoint = "/api/health_check/"

	// Maintenance defaults
	DefaultMaintenanceMessage = "We are currently undergoing maintenance. We will be back soon."
	DefaultAdminPath          = "/admin/"

	// Health defaults
	DefaultHealthThrottleRate    = "60/minute"
	DefaultHealthCheckTimeout    = 5 * time.Second
	DefaultHealthCacheProbeTTL   = 5 * time.Second
	DefaultHealthBreakerFailures = uint32(3)
	DefaultHealthBreakerTimeout  = 30 * time.Second

	// Rate limit defaults
	DefaultRate          = "100/hour"
	DefaultBurstRate     = "200/hour"
	DefaultBurstDuration = 5 * time.Minute
	DefaultUserRate      = "60/minute"
	DefaultAnonRate      = "30/minute"

	// Request logging defaults
	DefaultMaxBodySize = 1024 * 10 // 10KiB

	// Security header defaults
	DefaultCDNHost = "cdn.jsdelivr.net"

	// CORS defaults
	DefaultCORSMaxAge = 3600 // 1 hour

	// Auth defaults
	DefaultAuthIssuer   = "bastion"
	DefaultAuthLeeway   = 30 * time.Second
	DefaultAuthTokenTTL = time.Hour

	// Database defaults
	DefaultDatabaseDriver       = "sqlite"
	DefaultDatabaseDSN          = "data/bastion.db"
	DefaultDatabaseMaxOpenConns = 10
	DefaultDatabaseMaxIdleConns = 5

	// Cache defaults
	DefaultCacheBackend         = "memory"
	DefaultCachePath            = "data/cache"
	DefaultCacheMaxEntries      = 100000
	DefaultCacheCleanupInterval = time.Minute
	DefaultCacheGCSchedule      = "*/10 * * * *"
	DefaultCacheGCDiscardRatio  = 0.5

	// Runtime config defaults
	DefaultRuntimeConfigBackend  = "memory"
	DefaultRuntimeConfigDebounce = 500 * time.Millisecond

	// Pagination defaults
	DefaultPageSize      = 20
	DefaultMaxPageSize   = 100
	DefaultPageSizeParam = "page_size"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "bastion"

	// Secrets defaults
	DefaultSecretsEnvPrefix = "BASTION_SECRET_"
)

// Default list values. Functions return fresh slices so callers may mutate them.

// DefaultLanguages returns the default locale list.
func DefaultLanguages() []string { return []string{"en", "vi"} }

// DefaultSensitiveFields returns the body keys masked by the request logger.
func DefaultSensitiveFields() []string { return []string{"password", "token", "secret"} }

// DefaultCORSMethods returns the default CORS methods.
func DefaultCORSMethods() []string {
	return []string{"GET", "POST", "PUT", "PATCH", "DELETE"}
}

// DefaultCORSHeaders returns the default allowed CORS request headers.
func DefaultCORSHeaders() []string {
	return []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}
}

// Default returns a Config populated with every default, including the boolean
// switches that default to true. LoadConfig decodes YAML on top of it so an
// explicit "false" in the file survives.
func Default() *Config {
	cfg := &Config{
		Health: HealthConfig{
			Enabled:         true,
			ThrottleEnabled: true,
		},
		RateLimit:       RateLimitConfig{Enabled: true, BurstRate: DefaultBurstRate},
		RequestLogging:  RequestLoggingConfig{Enabled: true},
		SecurityHeaders: SecurityHeadersConfig{Enabled: true},
		CORS:            CORSConfig{Enabled: true},
		Auth:            AuthConfig{Enabled: true},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: true},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values. Boolean switches are
// left alone; use Default for a fully populated starting point.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.TLS.ReloadInterval == 0 {
		cfg.Server.TLS.ReloadInterval = DefaultTLSReload
	}
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}

	// App defaults
	if cfg.App.Environment == "" {
		cfg.App.Environment = DefaultEnvironment
	}
	if len(cfg.App.Languages) == 0 {
		cfg.App.Languages = DefaultLanguages()
	}
	if cfg.App.HealthCheckEndpoint == "" {
		cfg.App.HealthCheckEndpoint = DefaultHealthCheckEndpoint
	}

	// Maintenance defaults
	if cfg.Maintenance.Message == "" {
		cfg.Maintenance.Message = DefaultMaintenanceMessage
	}
	if cfg.Maintenance.AdminPath == "" {
		cfg.Maintenance.AdminPath = DefaultAdminPath
	}
	if cfg.Maintenance.AllowedURLs == nil {
		cfg.Maintenance.AllowedURLs = []string{}
	}
	if cfg.Maintenance.AllowedIPs == nil {
		cfg.Maintenance.AllowedIPs = []string{}
	}

	// Health defaults
	if cfg.Health.ThrottleRate == "" {
		cfg.Health.ThrottleRate = DefaultHealthThrottleRate
	}
	if cfg.Health.CheckTimeout == 0 {
		cfg.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
	if cfg.Health.CacheProbeTTL == 0 {
		cfg.Health.CacheProbeTTL = DefaultHealthCacheProbeTTL
	}
	if cfg.Health.BreakerFailures == 0 {
		cfg.Health.BreakerFailures = DefaultHealthBreakerFailures
	}
	if cfg.Health.BreakerTimeout == 0 {
		cfg.Health.BreakerTimeout = DefaultHealthBreakerTimeout
	}

	// Rate limit defaults. An empty burst rate is meaningful (no burst), so it
	// is only populated by Default.
	if cfg.RateLimit.Rate == "" {
		cfg.RateLimit.Rate = DefaultRate
	}
	if cfg.RateLimit.BurstDuration == 0 {
		cfg.RateLimit.BurstDuration = DefaultBurstDuration
	}
	if cfg.RateLimit.UserRate == "" {
		cfg.RateLimit.UserRate = DefaultUserRate
	}
	if cfg.RateLimit.AnonRate == "" {
		cfg.RateLimit.AnonRate = DefaultAnonRate
	}

	// Request logging defaults
	if cfg.RequestLogging.MaxBodySize == 0 {
		cfg.RequestLogging.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.RequestLogging.SensitiveFields == nil {
		cfg.RequestLogging.SensitiveFields = DefaultSensitiveFields()
	}

	// Security header defaults
	if cfg.SecurityHeaders.CDNHost == "" {
		cfg.SecurityHeaders.CDNHost = DefaultCDNHost
	}

	// CORS defaults
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = DefaultCORSMethods()
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = DefaultCORSHeaders()
	}
	if len(cfg.CORS.ExposedHeaders) == 0 {
		cfg.CORS.ExposedHeaders = []string{"X-Request-ID"}
	}
	if cfg.CORS.MaxAge == 0 {
		cfg.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Auth defaults
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = DefaultAuthIssuer
	}
	if cfg.Auth.Leeway == 0 {
		cfg.Auth.Leeway = DefaultAuthLeeway
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = DefaultAuthTokenTTL
	}

	// Database defaults
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDatabaseDriver
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = DefaultDatabaseDSN
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDatabaseMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = DefaultDatabaseMaxIdleConns
	}

	// Cache defaults
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Cache.CleanupInterval == 0 {
		cfg.Cache.CleanupInterval = DefaultCacheCleanupInterval
	}
	if cfg.Cache.GCSchedule == "" {
		cfg.Cache.GCSchedule = DefaultCacheGCSchedule
	}
	if cfg.Cache.GCDiscardRatio == 0 {
		cfg.Cache.GCDiscardRatio = DefaultCacheGCDiscardRatio
	}

	// Runtime config defaults
	if cfg.RuntimeConfig.Backend == "" {
		cfg.RuntimeConfig.Backend = DefaultRuntimeConfigBackend
	}
	if cfg.RuntimeConfig.Debounce == 0 {
		cfg.RuntimeConfig.Debounce = DefaultRuntimeConfigDebounce
	}

	// Pagination defaults
	if cfg.Pagination.PageSize == 0 {
		cfg.Pagination.PageSize = DefaultPageSize
	}
	if cfg.Pagination.MaxPageSize == 0 {
		cfg.Pagination.MaxPageSize = DefaultMaxPageSize
	}
	if cfg.Pagination.PageSizeParam == "" {
		cfg.Pagination.PageSizeParam = DefaultPageSizeParam
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}
