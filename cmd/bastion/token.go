package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/bastion/pkg/cli"
	"mercator-hq/bastion/pkg/config"
	"mercator-hq/bastion/pkg/server"
)

var tokenFlags struct {
	subject string
	staff   bool
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token",
	Long: `Mint an HS256 bearer token signed with app.secret_key.

Staff tokens pass the maintenance gate and may use the runtime config API.

Examples:
  bastion token issue --subject ops --staff
  curl -H "Authorization: Bearer $(bastion token issue --subject ops --staff)" \
    http://127.0.0.1:8080/admin/config`,
	RunE: issueToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)

	tokenIssueCmd.Flags().StringVar(&tokenFlags.subject, "subject", "", "token subject (required)")
	tokenIssueCmd.Flags().BoolVar(&tokenFlags.staff, "staff", false, "grant staff access")
	_ = tokenIssueCmd.MarkFlagRequired("subject")
}

func issueToken(cmd *cobra.Command, args []string) error {
	if err := loadConfig(commandContext(cmd)); err != nil {
		return err
	}
	cfg := config.MustGetConfig()
	if cfg.App.SecretKey == "" {
		return cli.NewConfigError("app.secret_key", "a secret key is required to sign tokens")
	}

	tokens, err := server.NewTokenManager(cfg)
	if err != nil {
		return cli.NewCommandError("token issue", err)
	}
	token, err := tokens.Issue(tokenFlags.subject, tokenFlags.staff)
	if err != nil {
		return cli.NewCommandError("token issue", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
