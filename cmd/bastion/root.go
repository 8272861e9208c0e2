package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/bastion/pkg/cli"
	"mercator-hq/bastion/pkg/config"
)

var (
	// Global flags
	cfgFile    string
	verbose    bool
	envFileDir string
)

var rootCmd = &cobra.Command{
	Use:   "bastion",
	Short: "Bastion - HTTP edge pipeline for API services",
	Long: `Bastion runs a fixed protection pipeline in front of API routes:
recovery, request logging, metrics, health check, CORS, authentication,
maintenance mode, security headers and rate limiting.

Maintenance mode and its allow-lists can be changed at runtime through the
admin API, an overrides file, or the config reset command.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and environment only when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&envFileDir, "env-file-dir", ".", "directory holding .env and .env.<environment>")
}

// loadConfig loads the dotenv file, then the configuration with secret
// references resolved, and installs it as the current configuration.
// Commands read it back with config.MustGetConfig.
func loadConfig(ctx context.Context) error {
	if _, err := config.LoadDotEnv(envFileDir, os.Getenv(config.EnvPrefix+"APP_ENVIRONMENT")); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	if _, err := config.ReloadConfig(ctx, cfgFile); err != nil {
		errs := cli.ConfigErrors(err)
		if len(errs) == 1 {
			return errs[0]
		}
		return err
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command runs without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
