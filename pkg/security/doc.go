/*
Package security groups the credential and transport packages used by the
bastion server.

# Authentication

Package auth issues and verifies HS256 bearer tokens and attaches the
resulting Principal to the request context:

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret: []byte(cfg.App.SecretKey),
		Issuer: "bastion",
		TTL:    time.Hour,
	})
	handler = auth.NewMiddleware(tokens, errs, logger).Handle(handler)

# TLS

Package tls loads the listener certificate and reloads it when the files
change on disk.

# Secrets

Package secrets expands ${secret:name} references in configuration values
from a mounted secrets directory or BASTION_SECRET_* environment variables.
*/
package security
