package tls

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"
)

// DefaultReloadInterval is how often certificate files are checked for changes.
const DefaultReloadInterval = 5 * time.Minute

// Config configures TLS termination.
type Config struct {
	CertFile string
	KeyFile  string

	// MinVersion is "1.2" or "1.3". Empty means 1.3.
	MinVersion string

	// ReloadInterval is how often the files are checked. Zero uses
	// DefaultReloadInterval.
	ReloadInterval time.Duration

	Logger *slog.Logger
}

// ParseVersion converts a "1.2"/"1.3" version string.
func ParseVersion(s string) (uint16, error) {
	switch s {
	case "1.3", "":
		return tls.VersionTLS13, nil
	case "1.2":
		return tls.VersionTLS12, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q (want 1.2 or 1.3)", s)
	}
}

// NewServerConfig loads the certificate and returns a server tls.Config that
// serves it through a CertificateReloader. Call Run on the reloader to pick
// up renewed files.
func NewServerConfig(cfg Config) (*tls.Config, *CertificateReloader, error) {
	if cfg.CertFile == "" {
		return nil, nil, fmt.Errorf("cert_file is required when TLS is enabled")
	}
	if cfg.KeyFile == "" {
		return nil, nil, fmt.Errorf("key_file is required when TLS is enabled")
	}

	minVersion, err := ParseVersion(cfg.MinVersion)
	if err != nil {
		return nil, nil, err
	}

	interval := cfg.ReloadInterval
	if interval <= 0 {
		interval = DefaultReloadInterval
	}

	reloader := NewCertificateReloader(cfg.CertFile, cfg.KeyFile, interval, cfg.Logger)
	if err := reloader.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	return &tls.Config{
		MinVersion:     minVersion,
		GetCertificate: reloader.GetCertificateFunc(),
	}, reloader, nil
}
