package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/bastion/pkg/cli"
	"mercator-hq/bastion/pkg/config"
	"mercator-hq/bastion/pkg/server"
)

var configOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file with dotenv and environment overrides and
report every invalid field.

Examples:
  bastion config validate --config config.yaml
  bastion config validate --config config.yaml --output json`,
	RunE: validateConfig,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset runtime options to their defaults",
	Long: `Write every runtime option's default into the runtime config table of
the configured database. Requires runtime_config.backend: database.

Examples:
  bastion config reset --config config.yaml`,
	RunE: resetConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd, configResetCmd)

	configValidateCmd.Flags().StringVarP(&configOutput, "output", "o", "text", "output format: text, json")
}

type validationReport struct {
	Valid  bool               `json:"valid"`
	Errors []*cli.ConfigError `json:"errors,omitempty"`
}

func (r validationReport) String() string {
	if r.Valid {
		return "✓ Configuration valid"
	}
	s := fmt.Sprintf("✗ Configuration invalid (%d errors)", len(r.Errors))
	for _, e := range r.Errors {
		s += "\n  - " + e.Error()
	}
	return s
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(configOutput)
	if err != nil {
		return err
	}

	report := validationReport{Valid: true}
	if err := loadConfig(commandContext(cmd)); err != nil {
		report = validationReport{Errors: cli.ConfigErrors(err)}
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.Valid {
		return cli.NewCommandError("config validate", fmt.Errorf("%d invalid fields", len(report.Errors)))
	}
	return nil
}

func resetConfig(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	if err := loadConfig(ctx); err != nil {
		return err
	}
	cfg := config.MustGetConfig()
	if cfg.RuntimeConfig.Backend != "database" {
		return cli.NewConfigError("runtime_config.backend",
			fmt.Sprintf("reset needs the database backend, got %q", cfg.RuntimeConfig.Backend))
	}

	db, err := server.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return cli.NewCommandError("config reset", err)
	}
	defer db.Close()

	store, err := server.OpenRuntimeStore(ctx, cfg.RuntimeConfig, db, cfg.Database.Driver)
	if err != nil {
		return cli.NewCommandError("config reset", err)
	}
	defer store.Close()

	acc := server.NewAccessor(cfg, store)
	if err := acc.Reset(ctx); err != nil {
		return cli.NewCommandError("config reset", err)
	}

	entries, err := acc.Snapshot(ctx)
	if err != nil {
		return cli.NewCommandError("config reset", err)
	}
	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(out, "%s = %v\n", e.Name, e.Value)
	}
	fmt.Fprintln(out, "✓ Runtime config reset")
	return nil
}

