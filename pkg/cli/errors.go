package cli

import (
	"errors"
	"fmt"

	"mercator-hq/bastion/pkg/config"
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ConfigErrors converts a configuration load error into one ConfigError per
// invalid field. Errors that carry no field detail become a single
// ConfigError with an empty field.
func ConfigErrors(err error) []*ConfigError {
	if err == nil {
		return nil
	}
	var cerr *ConfigError
	if errors.As(err, &cerr) {
		return []*ConfigError{cerr}
	}
	var verr config.ValidationError
	if !errors.As(err, &verr) || len(verr.Errors) == 0 {
		return []*ConfigError{NewConfigError("", err.Error())}
	}
	out := make([]*ConfigError, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		out = append(out, NewConfigError(fe.Field, fe.Message))
	}
	return out
}
