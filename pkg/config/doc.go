// Package config provides the static configuration layer for Bastion.
//
// This package loads, validates, and exposes configuration from a YAML file,
// optional dotenv files, and environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// Call LoadDotEnv first to populate the environment from .env.<environment>
// or .env. Variables already present in the process environment win.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention BASTION_SECTION_FIELD.
// For example:
//
//   - BASTION_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - BASTION_MAINTENANCE_ALLOWED_IPS overrides maintenance.allowed_ips (comma-separated)
//   - BASTION_LOG_LEVEL overrides telemetry.logging.level
//
// DEBUG, SECRET_KEY, and HEALTH_CHECK_ENDPOINT are also read without prefix.
// Booleans accept 1, t, true, y, yes (and their capitalized forms).
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Static Settings
//
// Config.Settings flattens the configuration into the named settings used
// as the fallback layer of the runtime config accessor (package
// config/runtime): DEBUG, MAINTENANCE_ENABLE, HEALTH_CHECK_ENDPOINT, and so on.
//
// # Singleton Pattern
//
// The CLI loads into a process-wide current configuration and its commands
// read from it:
//
//	if _, err := config.ReloadConfig(ctx, "config.yaml"); err != nil {
//	    return err
//	}
//	cfg := config.MustGetConfig()
//
// Everything below the CLI receives values by injection.
package config
