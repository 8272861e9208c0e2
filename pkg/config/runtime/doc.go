// Package runtime implements the config accessor: a mutable runtime layer of
// declared options stacked on top of the immutable static settings.
//
// # Lookup Order
//
//  1. The runtime Store. A stored non-nil value wins.
//  2. The static layer (config.Settings).
//  3. Otherwise the name is unknown: Lookup reports Found=false and Get
//     returns ErrUnknownKey.
//
// Every call reads the store again; nothing is cached, so a change made
// through the admin API or the overrides file is visible to the next request.
//
// # Options
//
// Only declared options can be changed at runtime. Each Option has a Kind
// (bool, string, or strings) and values are coerced to it on Set:
//
//	acc := runtime.NewAccessor(runtime.NewMemoryStore(), cfg.Settings(),
//	    runtime.DefaultOptions(cfg.Settings())...)
//	if err := acc.Set(ctx, runtime.MaintenanceEnable, "true"); err != nil {
//	    return err
//	}
//	on, err := acc.Bool(ctx, runtime.MaintenanceEnable)
//
// # Backends
//
// MemoryStore keeps values in process memory. DatabaseStore persists them in
// the runtime_config table of any database/sql connection, JSON-encoded.
//
// # Overrides File
//
// Watcher applies a YAML file of NAME: value pairs through Set, once at
// startup and again whenever the file changes.
package runtime
