package config

import (
	"context"
	"sync/atomic"
)

// current is the configuration the CLI loaded. Server components receive
// their settings by injection and never read it.
var current atomic.Pointer[Config]

// ReloadConfig loads path with environment overrides, resolves secret
// references and installs the result as the current configuration. On
// failure the previous configuration stays in place.
func ReloadConfig(ctx context.Context, path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}
	if err := ResolveSecrets(ctx, cfg); err != nil {
		return nil, err
	}
	current.Store(cfg)
	return cfg, nil
}

// GetConfig returns the current configuration, or nil before the first
// successful ReloadConfig or SetConfig.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig installs cfg as the current configuration. Tests use it to skip
// loading; nil clears it.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// MustGetConfig is GetConfig for commands that run after loading.
func MustGetConfig() *Config {
	cfg := current.Load()
	if cfg == nil {
		panic("config: not loaded")
	}
	return cfg
}
