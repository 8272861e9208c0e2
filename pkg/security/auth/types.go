package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Staff   bool
}

// Claims are the JWT claims issued by Bastion.
type Claims struct {
	jwt.RegisteredClaims
	Staff bool `json:"staff"`
}

// Context key for the principal
type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores p in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom retrieves the principal from the context. ok is false for
// anonymous requests.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// IsStaff reports whether the request was made by a staff principal.
func IsStaff(ctx context.Context) bool {
	p, ok := PrincipalFrom(ctx)
	return ok && p.Staff
}
