package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "BASTION_"

// trueValues is the set of strings treated as boolean true in environment
// variables. Anything else is false.
var trueValues = map[string]bool{
	"1": true, "t": true, "true": true, "True": true, "TRUE": true,
	"y": true, "yes": true, "Yes": true, "YES": true,
}

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of Default, then zero values are defaulted and the
// result is validated. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention BASTION_SECTION_FIELD (e.g., BASTION_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from defaults.
//
// The loading sequence is:
// 1. Load YAML from file on top of defaults
// 2. Apply environment variable overrides
// 3. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
		ApplyDefaults(cfg)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from dir/.env.<envName>, falling back to
// dir/.env, into the process environment. Variables that are already set are
// left untouched. It returns the path of the file that was loaded, or "" when
// neither file exists.
func LoadDotEnv(dir, envName string) (string, error) {
	var candidates []string
	if envName != "" {
		candidates = append(candidates, filepath.Join(dir, ".env."+envName))
	}
	candidates = append(candidates, filepath.Join(dir, ".env"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("failed to stat %q: %w", path, err)
		}

		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read env file %q: %w", path, err)
		}

		for _, key := range v.AllKeys() {
			name := strings.ToUpper(key)
			if _, set := os.LookupEnv(name); set {
				continue
			}
			if err := os.Setenv(name, v.GetString(key)); err != nil {
				return "", fmt.Errorf("failed to set %s: %w", name, err)
			}
		}
		return path, nil
	}

	return "", nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format BASTION_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envInt("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	envBool("SERVER_TRUST_PROXY_HEADERS", &cfg.Server.TrustProxyHeaders)
	envBool("SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	envString("SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	envString("SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)
	envString("SERVER_TLS_MIN_VERSION", &cfg.Server.TLS.MinVersion)

	// App overrides. DEBUG, SECRET_KEY, and HEALTH_CHECK_ENDPOINT are also
	// accepted without prefix so existing .env files keep working.
	envString("APP_ENVIRONMENT", &cfg.App.Environment)
	envBool("DEBUG", &cfg.App.Debug)
	envBool("APP_DEBUG", &cfg.App.Debug)
	envString("SECRET_KEY", &cfg.App.SecretKey)
	envString("APP_SECRET_KEY", &cfg.App.SecretKey)
	envList("APP_LANGUAGES", &cfg.App.Languages)
	envString("HEALTH_CHECK_ENDPOINT", &cfg.App.HealthCheckEndpoint)
	envString("APP_HEALTH_CHECK_ENDPOINT", &cfg.App.HealthCheckEndpoint)

	// Maintenance overrides
	envBool("MAINTENANCE_ENABLED", &cfg.Maintenance.Enabled)
	envString("MAINTENANCE_MESSAGE", &cfg.Maintenance.Message)
	envList("MAINTENANCE_ALLOWED_URLS", &cfg.Maintenance.AllowedURLs)
	envList("MAINTENANCE_ALLOWED_IPS", &cfg.Maintenance.AllowedIPs)
	envString("MAINTENANCE_ADMIN_PATH", &cfg.Maintenance.AdminPath)

	// Health overrides
	envBool("HEALTH_ENABLED", &cfg.Health.Enabled)
	envBool("HEALTH_THROTTLE_ENABLED", &cfg.Health.ThrottleEnabled)
	envString("HEALTH_THROTTLE_RATE", &cfg.Health.ThrottleRate)
	envDuration("HEALTH_CHECK_TIMEOUT", &cfg.Health.CheckTimeout)

	// Rate limit overrides
	envBool("RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled)
	envString("RATE_LIMIT_RATE", &cfg.RateLimit.Rate)
	envString("RATE_LIMIT_BURST_RATE", &cfg.RateLimit.BurstRate)
	envDuration("RATE_LIMIT_BURST_DURATION", &cfg.RateLimit.BurstDuration)
	envString("RATE_LIMIT_USER_RATE", &cfg.RateLimit.UserRate)
	envString("RATE_LIMIT_ANON_RATE", &cfg.RateLimit.AnonRate)

	// Request logging overrides
	envBool("REQUEST_LOGGING_ENABLED", &cfg.RequestLogging.Enabled)
	envInt("REQUEST_LOGGING_MAX_BODY_SIZE", &cfg.RequestLogging.MaxBodySize)
	envList("REQUEST_LOGGING_SENSITIVE_FIELDS", &cfg.RequestLogging.SensitiveFields)

	// Security header overrides
	envBool("SECURITY_HEADERS_ENABLED", &cfg.SecurityHeaders.Enabled)
	envString("SECURITY_HEADERS_CDN_HOST", &cfg.SecurityHeaders.CDNHost)

	// CORS overrides
	envBool("CORS_ENABLED", &cfg.CORS.Enabled)
	envList("CORS_ALLOWED_ORIGINS", &cfg.CORS.AllowedOrigins)

	// Auth overrides
	envBool("AUTH_ENABLED", &cfg.Auth.Enabled)
	envString("AUTH_ISSUER", &cfg.Auth.Issuer)

	// Database overrides
	envString("DATABASE_DRIVER", &cfg.Database.Driver)
	envString("DATABASE_DSN", &cfg.Database.DSN)

	// Cache overrides
	envString("CACHE_BACKEND", &cfg.Cache.Backend)
	envString("CACHE_PATH", &cfg.Cache.Path)

	// Runtime config overrides
	envString("RUNTIME_CONFIG_BACKEND", &cfg.RuntimeConfig.Backend)
	envString("RUNTIME_CONFIG_OVERRIDES_FILE", &cfg.RuntimeConfig.OverridesFile)
	envBool("RUNTIME_CONFIG_WATCH", &cfg.RuntimeConfig.Watch)

	// Secrets overrides
	envString("SECRETS_DIR", &cfg.Secrets.Dir)
	envString("SECRETS_ENV_PREFIX", &cfg.Secrets.EnvPrefix)

	// Telemetry overrides
	envString("LOG_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("LOG_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
}

func lookupEnv(name string) (string, bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		return val, true
	}
	// Unprefixed aliases are only honored for the historical names.
	switch name {
	case "DEBUG", "SECRET_KEY", "HEALTH_CHECK_ENDPOINT":
		if val := os.Getenv(name); val != "" {
			return val, true
		}
	}
	return "", false
}

func envString(name string, dst *string) {
	if val, ok := lookupEnv(name); ok {
		*dst = val
	}
}

func envBool(name string, dst *bool) {
	if val, ok := lookupEnv(name); ok {
		*dst = ParseBool(val)
	}
}

func envInt(name string, dst *int) {
	if val, ok := lookupEnv(name); ok {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val, ok := lookupEnv(name); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envList(name string, dst *[]string) {
	if val, ok := lookupEnv(name); ok {
		*dst = ParseList(val)
	}
}

// ParseBool reports whether s is one of the accepted truthy spellings.
func ParseBool(s string) bool {
	return trueValues[strings.TrimSpace(s)]
}

// ParseList splits a comma-separated value, trimming whitespace and dropping
// empty items.
func ParseList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
