/*
Package auth provides bearer token authentication for Bastion.

Tokens are HS256 JWTs signed with the application secret key. Besides the
registered claims they carry a "staff" flag that grants access to the admin
API and bypasses maintenance mode.

# Basic Usage

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret: []byte(cfg.App.SecretKey),
		Issuer: cfg.Auth.Issuer,
		Leeway: cfg.Auth.Leeway,
		TTL:    cfg.Auth.TokenTTL,
	})

	mw := auth.NewMiddleware(tokens, errs, logger)
	handler = mw.Handle(handler)

A request without an Authorization header stays anonymous. A request with an
invalid or expired bearer token is rejected with 401 and a
WWW-Authenticate challenge.

# Principals

Inside a handler:

	if p, ok := auth.PrincipalFrom(r.Context()); ok && p.Staff {
		...
	}

RequireStaff guards routes: anonymous callers get 401, authenticated
non-staff callers get 403.
*/
package auth
