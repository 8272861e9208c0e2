// Bastion is an HTTP edge pipeline for API services.
//
// It puts a fixed chain of protections in front of application routes:
//   - request correlation ids and body logging with redaction
//   - a throttled health check probing the database and cache
//   - a runtime-switchable maintenance gate
//   - security headers, CORS and bearer authentication
//   - fixed-window rate limiting with a startup burst allowance
//
// Usage:
//
//	# Start the server
//	bastion run --config config.yaml
//
//	# Check a configuration file
//	bastion config validate --config config.yaml
//
//	# Put every runtime option back to its default
//	bastion config reset --config config.yaml
//
//	# Mint an operator token for the admin API
//	bastion token issue --subject ops --staff
package main

func main() {
	Execute()
}
