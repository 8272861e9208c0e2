// Package server assembles the protection pipeline and serves it over HTTP.
//
// New opens the backends named in the configuration (database, cache, runtime
// config store), builds the limiters, health checker, metrics collector and
// error handler, and composes the stages in a fixed order, outermost first:
//
//	recovery          request id, then panic recovery
//	request_logger    start/end log lines with the redacted body
//	metrics           request counters and latency
//	health            answers app.health_check_endpoint
//	cors
//	auth              bearer token to principal
//	maintenance       503 while MAINTENANCE_ENABLE is set
//	security_headers
//	throttle          per-client read/write limits
//
// Disabled stages are left out of the chain. The chi router behind the chain
// serves /livez, /version, the metrics endpoint and the runtime config API
// under <admin_path>config. Applications add their own routes through Router.
//
// # Basic Usage
//
//	srv, err := server.New(ctx, cfg, server.Options{Logger: logger, Version: version})
//	if err != nil {
//	    return err
//	}
//	defer srv.Close()
//
//	srv.Router().Get("/api/items/", listItems)
//
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled or Shutdown is called, then drains
// in-flight requests for at most server.shutdown_timeout. With server.tls
// enabled the certificate is loaded in New and polled for renewal while the
// server runs.
package server
