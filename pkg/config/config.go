package config

import "time"

// Config is the root configuration structure for Bastion.
// It holds the static settings layer: everything loaded once at process start
// from the YAML file, dotenv files, and BASTION_* environment variables.
type Config struct {
	// Server contains HTTP listener configuration.
	Server ServerConfig `yaml:"server"`

	// App contains application-wide settings such as debug mode and the
	// health-check endpoint.
	App AppConfig `yaml:"app"`

	// Maintenance contains the startup defaults for maintenance mode. The
	// runtime config layer may override these while the process runs.
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// Health configures the health-check responder.
	Health HealthConfig `yaml:"health"`

	// RateLimit configures the per-IP throttle and the admin API throttles.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// RequestLogging configures correlation ids and request body logging.
	RequestLogging RequestLoggingConfig `yaml:"request_logging"`

	// SecurityHeaders configures the response security header injector.
	SecurityHeaders SecurityHeadersConfig `yaml:"security_headers"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`

	// Auth configures bearer token authentication.
	Auth AuthConfig `yaml:"auth"`

	// Database selects the SQL driver probed by the health check and used by
	// the database runtime config backend.
	Database DatabaseConfig `yaml:"database"`

	// Cache selects the shared TTL cache backend.
	Cache CacheConfig `yaml:"cache"`

	// RuntimeConfig configures the mutable runtime settings layer.
	RuntimeConfig RuntimeConfigConfig `yaml:"runtime_config"`

	// Pagination configures list endpoint paging.
	Pagination PaginationConfig `yaml:"pagination"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Secrets configures resolution of ${secret:name} references.
	Secrets SecretsConfig `yaml:"secrets"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address" validate:"required,hostname_port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout" validate:"gte=0"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout" validate:"gte=0"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes" validate:"gte=0"`

	// TrustProxyHeaders resolves the remote address from X-Forwarded-For,
	// X-Real-IP, or True-Client-IP. Enable only behind a trusted proxy.
	// Default: false
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`

	// TLS enables HTTPS on the listener.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig configures TLS termination on the listener.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.3"
	MinVersion string `yaml:"min_version" validate:"omitempty,oneof=1.2 1.3"`

	// ReloadInterval is how often the certificate files are checked for
	// renewal.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval" validate:"gte=0"`
}

// SecretsConfig configures where ${secret:name} references are resolved.
// The file directory is consulted first, then the environment.
type SecretsConfig struct {
	// Dir holds one file per secret. Empty disables the file provider.
	Dir string `yaml:"dir"`

	// EnvPrefix is prepended to the upper-cased secret name.
	// Default: "BASTION_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`
}

// AppConfig contains application-wide settings.
type AppConfig struct {
	// Environment names the deployment environment. It also selects the
	// dotenv file (.env.<environment>).
	// Default: "local"
	Environment string `yaml:"environment"`

	// Debug enables development behavior: indented error envelopes and the
	// security header exemption for 404 and 500 responses.
	// Default: false
	Debug bool `yaml:"debug"`

	// SecretKey signs bearer tokens. Required when auth is enabled.
	SecretKey string `yaml:"secret_key"`

	// Languages lists the locale prefixes served by the application.
	// Default: ["en", "vi"]
	Languages []string `yaml:"languages" validate:"dive,alpha,min=2,max=5"`

	// HealthCheckEndpoint is the exact path answered by the health check.
	// Default: "/api/health_check/"
	HealthCheckEndpoint string `yaml:"health_check_endpoint" validate:"required,startswith=/"`
}

// MaintenanceConfig holds maintenance mode defaults.
type MaintenanceConfig struct {
	// Enabled turns maintenance mode on at startup.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Message is returned in the 503 envelope while maintenance is on.
	// Default: "We are currently undergoing maintenance. We will be back soon."
	Message string `yaml:"message"`

	// AllowedURLs lists path prefixes that bypass maintenance mode.
	AllowedURLs []string `yaml:"allowed_urls" validate:"dive,startswith=/"`

	// AllowedIPs lists remote addresses that bypass maintenance mode.
	AllowedIPs []string `yaml:"allowed_ips" validate:"dive,ip"`

	// AdminPath is the admin prefix that always bypasses maintenance,
	// together with its per-language variants.
	// Default: "/admin/"
	AdminPath string `yaml:"admin_path" validate:"required,startswith=/"`
}

// HealthConfig configures the health-check responder.
type HealthConfig struct {
	// Enabled mounts the health-check stage.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ThrottleEnabled rate-limits the endpoint per remote address.
	// Default: true
	ThrottleEnabled bool `yaml:"throttle_enabled"`

	// ThrottleRate is the endpoint rate, "N/period".
	// Default: "60/minute"
	ThrottleRate string `yaml:"throttle_rate"`

	// CheckTimeout bounds each probe.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout" validate:"gt=0"`

	// CacheProbeTTL is the TTL of the cache round-trip key.
	// Default: 5s
	CacheProbeTTL time.Duration `yaml:"cache_probe_ttl" validate:"gt=0"`

	// BreakerFailures is the consecutive failure count that opens a probe's
	// circuit breaker.
	// Default: 3
	BreakerFailures uint32 `yaml:"breaker_failures" validate:"gt=0"`

	// BreakerTimeout is how long an open breaker fails fast.
	// Default: 30s
	BreakerTimeout time.Duration `yaml:"breaker_timeout" validate:"gt=0"`
}

// RateLimitConfig configures request throttling.
type RateLimitConfig struct {
	// Enabled mounts the per-IP throttle stage.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Rate is the base per-IP rate.
	// Default: "100/hour"
	Rate string `yaml:"rate"`

	// BurstRate applies during the burst window. Empty disables bursting.
	// Default: "200/hour"
	BurstRate string `yaml:"burst_rate"`

	// BurstDuration is the length of the burst window.
	// Default: 5m
	BurstDuration time.Duration `yaml:"burst_duration" validate:"gte=0"`

	// UserRate throttles authenticated admin API callers.
	// Default: "60/minute"
	UserRate string `yaml:"user_rate"`

	// AnonRate throttles anonymous admin API callers.
	// Default: "30/minute"
	AnonRate string `yaml:"anon_rate"`
}

// RequestLoggingConfig configures the request logger.
type RequestLoggingConfig struct {
	// Enabled mounts the request logging stage. Correlation ids are always
	// assigned.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// MaxBodySize is the serialized body size above which the logged body is
	// replaced with "BODY TOO LARGE".
	// Default: 10240 (10KiB)
	MaxBodySize int `yaml:"max_body_size" validate:"gte=0"`

	// SensitiveFields are top-level body keys whose values are masked.
	// Default: ["password", "token", "secret"]
	SensitiveFields []string `yaml:"sensitive_fields"`
}

// SecurityHeadersConfig configures the security header injector.
type SecurityHeadersConfig struct {
	// Enabled mounts the security headers stage.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// CDNHost is allowed for scripts and styles in the content security policy.
	// Default: "cdn.jsdelivr.net"
	CDNHost string `yaml:"cdn_host" validate:"omitempty,hostname"`
}

// CORSConfig contains Cross-Origin Resource Sharing configuration.
type CORSConfig struct {
	// Enabled determines whether CORS headers are added to responses.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of origins allowed to make cross-origin requests.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of HTTP methods allowed for CORS requests.
	// Default: ["GET", "POST", "PUT", "PATCH", "DELETE"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of headers allowed in CORS requests.
	// Default: ["Accept", "Authorization", "Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers exposed to the browser.
	// Default: ["X-Request-ID"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// AllowCredentials indicates whether credentials are allowed.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`

	// MaxAge is how long preflight results may be cached, in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age" validate:"gte=0"`
}

// AuthConfig configures bearer token authentication.
type AuthConfig struct {
	// Enabled mounts the authentication stage.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Issuer is the expected "iss" claim.
	// Default: "bastion"
	Issuer string `yaml:"issuer"`

	// Leeway tolerates clock skew when validating time claims.
	// Default: 30s
	Leeway time.Duration `yaml:"leeway" validate:"gte=0"`

	// TokenTTL is the lifetime of tokens minted by "bastion token issue".
	// Default: 1h
	TokenTTL time.Duration `yaml:"token_ttl" validate:"gt=0"`
}

// DatabaseConfig selects the SQL database.
type DatabaseConfig struct {
	// Driver is one of "sqlite" (pure Go), "sqlite3" (cgo), or "postgres".
	// Default: "sqlite"
	Driver string `yaml:"driver" validate:"oneof=sqlite sqlite3 postgres"`

	// DSN is the data source name. For the sqlite drivers this is a file path.
	// Default: "data/bastion.db"
	DSN string `yaml:"dsn" validate:"required"`

	// MaxOpenConns limits open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns" validate:"gte=0"`

	// MaxIdleConns limits idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns" validate:"gte=0"`
}

// CacheConfig selects the shared cache backend.
type CacheConfig struct {
	// Backend is "memory" or "badger".
	// Default: "memory"
	Backend string `yaml:"backend" validate:"oneof=memory badger"`

	// Path is the badger data directory.
	// Default: "data/cache"
	Path string `yaml:"path"`

	// MaxEntries bounds the memory backend.
	// Default: 100000
	MaxEntries int `yaml:"max_entries" validate:"gte=0"`

	// CleanupInterval is how often expired memory entries are swept.
	// Default: 1m
	CleanupInterval time.Duration `yaml:"cleanup_interval" validate:"gte=0"`

	// GCSchedule is the cron schedule for badger value-log GC.
	// Default: "*/10 * * * *"
	GCSchedule string `yaml:"gc_schedule"`

	// GCDiscardRatio is passed to badger's RunValueLogGC.
	// Default: 0.5
	GCDiscardRatio float64 `yaml:"gc_discard_ratio" validate:"gte=0,lt=1"`
}

// RuntimeConfigConfig configures the runtime settings layer.
type RuntimeConfigConfig struct {
	// Backend is "memory" or "database".
	// Default: "memory"
	Backend string `yaml:"backend" validate:"oneof=memory database"`

	// OverridesFile is an optional YAML file of NAME: value pairs applied
	// to the runtime layer at startup.
	OverridesFile string `yaml:"overrides_file"`

	// Watch re-applies OverridesFile whenever it changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce coalesces bursts of file events.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// PaginationConfig configures list endpoint paging.
type PaginationConfig struct {
	// PageSize is the default page size.
	// Default: 20
	PageSize int `yaml:"page_size" validate:"gt=0"`

	// MaxPageSize caps the page_size query parameter.
	// Default: 100
	MaxPageSize int `yaml:"max_page_size" validate:"gtefield=PageSize"`

	// PageSizeParam is the query parameter name for the page size.
	// Default: "page_size"
	PageSizeParam string `yaml:"page_size_param" validate:"required"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format is the log output format.
	// Valid values: "json", "text"
	// Default: "json"
	Format string `yaml:"format" validate:"oneof=json text"`

	// AddSource includes file:line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled exposes metrics and mounts the metrics stage.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path" validate:"required,startswith=/"`

	// Namespace prefixes every metric name.
	// Default: "bastion"
	Namespace string `yaml:"namespace" validate:"required"`
}
