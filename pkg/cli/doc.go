/*
Package cli provides helpers shared by the bastion commands.

Output Formatting:

Commands that print results accept --output text|json:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

Errors:

ConfigError and CommandError give failures a consistent shape. ConfigErrors
splits a configuration validation error into one ConfigError per field.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
