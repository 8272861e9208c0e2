package config

import (
	"context"
	"fmt"

	"mercator-hq/bastion/pkg/security/secrets"
)

// ResolveSecrets expands ${secret:name} references in app.secret_key and
// database.dsn. The secrets directory, when set, is consulted before the
// environment.
func ResolveSecrets(ctx context.Context, cfg *Config) error {
	targets := map[string]*string{
		"app.secret_key": &cfg.App.SecretKey,
		"database.dsn":   &cfg.Database.DSN,
	}

	referenced := false
	for _, v := range targets {
		if secrets.HasReference(*v) {
			referenced = true
			break
		}
	}
	if !referenced {
		return nil
	}

	var providers []secrets.Provider
	if cfg.Secrets.Dir != "" {
		files, err := secrets.NewFileProvider(cfg.Secrets.Dir)
		if err != nil {
			return fmt.Errorf("secrets.dir: %w", err)
		}
		providers = append(providers, files)
	}
	providers = append(providers, secrets.NewEnvProvider(cfg.Secrets.EnvPrefix))

	if err := secrets.NewResolver(providers...).ExpandAll(ctx, targets); err != nil {
		return fmt.Errorf("failed to resolve secrets: %w", err)
	}
	return nil
}
