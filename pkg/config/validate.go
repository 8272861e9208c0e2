package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"mercator-hq/bastion/pkg/limits/ratelimit"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report yaml names so field paths match the configuration file.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate configuration: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{
				Field:   fieldPath(fe.Namespace()),
				Message: tagMessage(fe),
			})
		}
	}

	errs = append(errs, validateRates(&cfg.Health, &cfg.RateLimit)...)

	if cfg.Auth.Enabled && cfg.App.SecretKey == "" {
		errs = append(errs, FieldError{
			Field:   "app.secret_key",
			Message: "secret key is required when auth is enabled",
		})
	}

	if cfg.Server.TLS.Enabled {
		if cfg.Server.TLS.CertFile == "" {
			errs = append(errs, FieldError{Field: "server.tls.cert_file", Message: "is required when TLS is enabled"})
		}
		if cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, FieldError{Field: "server.tls.key_file", Message: "is required when TLS is enabled"})
		}
	}

	if cfg.RuntimeConfig.Watch && cfg.RuntimeConfig.OverridesFile == "" {
		errs = append(errs, FieldError{
			Field:   "runtime_config.watch",
			Message: "watch requires overrides_file",
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateRates checks every "N/period" rate string.
func validateRates(health *HealthConfig, rl *RateLimitConfig) []FieldError {
	var errs []FieldError

	check := func(field, value string, optional bool) {
		if value == "" && optional {
			return
		}
		if _, err := ratelimit.ParseRate(value); err != nil {
			errs = append(errs, FieldError{Field: field, Message: err.Error()})
		}
	}

	check("health.throttle_rate", health.ThrottleRate, !health.ThrottleEnabled)
	check("rate_limit.rate", rl.Rate, false)
	check("rate_limit.burst_rate", rl.BurstRate, true)
	check("rate_limit.user_rate", rl.UserRate, false)
	check("rate_limit.anon_rate", rl.AnonRate, false)

	return errs
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	case "hostname_port":
		return "must be host:port"
	case "ip":
		return "must be an IP address"
	case "gt", "gte", "lt", "lte":
		return fmt.Sprintf("must be %s %s", fe.Tag(), fe.Param())
	case "gtefield":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
