package apierror

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"runtime/debug"

	"mercator-hq/bastion/pkg/cache"
)

// Normalize maps err to a client-facing Error. Unknown errors are logged at
// error level with a stack trace and replaced by Internal.
func Normalize(ctx context.Context, logger *slog.Logger, err error) *Error {
	if err == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	if e, ok := classify(err); ok {
		return e
	}

	logger.ErrorContext(ctx, "Unhandled error",
		"error", err.Error(),
		"stack", string(debug.Stack()),
	)
	return Internal(err)
}

// classify recognizes errors that already have a client meaning.
func classify(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	switch {
	case errors.Is(err, sql.ErrNoRows),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, cache.ErrNotFound):
		return NotFound(err.Error()).WithCause(err), true
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied(err.Error()).WithCause(err), true
	}

	return nil, false
}
