// Package logging builds the process slog.Logger and carries request
// correlation fields through context.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, id)
//	logger.InfoContext(ctx, "Processing") // includes request_id
//
// The handler returned by New is wrapped in a ContextHandler, so any record
// logged with a context carrying a request id or trace id gets the
// request_id and trace_id attributes without the caller passing them.
//
// # Redaction
//
// Redactor masks the values of sensitive top-level keys in structured
// payloads (request bodies) before they are logged.
package logging
