package secrets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var referencePattern = regexp.MustCompile(`\$\{secret:([A-Za-z0-9._-]+)\}`)

// Resolver expands ${secret:name} references using providers in order.
type Resolver struct {
	providers []Provider
}

// NewResolver creates a resolver that consults providers in order.
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Get returns the first value any provider holds for name.
func (r *Resolver) Get(ctx context.Context, name string) (string, error) {
	var tried []string
	for _, p := range r.providers {
		v, err := p.GetSecret(ctx, name)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("%s provider: %w", p.Name(), err)
		}
		tried = append(tried, p.Name())
	}
	return "", fmt.Errorf("%w: %s (tried %s)", ErrNotFound, name, strings.Join(tried, ", "))
}

// Expand replaces every reference in s. Strings without references are
// returned unchanged.
func (r *Resolver) Expand(ctx context.Context, s string) (string, error) {
	var firstErr error
	out := referencePattern.ReplaceAllStringFunc(s, func(ref string) string {
		if firstErr != nil {
			return ref
		}
		name := referencePattern.FindStringSubmatch(ref)[1]
		v, err := r.Get(ctx, name)
		if err != nil {
			firstErr = err
			return ref
		}
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// ExpandAll expands each target in place. The first failure is returned with
// its label.
func (r *Resolver) ExpandAll(ctx context.Context, targets map[string]*string) error {
	for label, ptr := range targets {
		v, err := r.Expand(ctx, *ptr)
		if err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		*ptr = v
	}
	return nil
}

// HasReference reports whether s contains a ${secret:name} reference.
func HasReference(s string) bool {
	return referencePattern.MatchString(s)
}
