package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"mercator-hq/bastion/pkg/cache"
	"mercator-hq/bastion/pkg/config"
	"mercator-hq/bastion/pkg/config/runtime"
	"mercator-hq/bastion/pkg/database"
	"mercator-hq/bastion/pkg/limits/ratelimit"
	"mercator-hq/bastion/pkg/security/auth"
)

// Limiter scopes.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeUser  = "user"
	ScopeAnon  = "anon"
)

// OpenCache opens the configured cache backend.
func OpenCache(cfg config.CacheConfig, logger *slog.Logger) (cache.Cache, error) {
	switch cfg.Backend {
	case "badger":
		return cache.NewBadgerCache(cache.BadgerConfig{
			Path:           cfg.Path,
			GCSchedule:     cfg.GCSchedule,
			GCDiscardRatio: cfg.GCDiscardRatio,
			Logger:         logger,
		})
	case "memory", "":
		return cache.NewMemoryCacheWithConfig(cache.MemoryConfig{
			MaxEntries:      cfg.MaxEntries,
			CleanupInterval: cfg.CleanupInterval,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}

// OpenDatabase opens the configured database.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	return database.Open(ctx, database.Config{
		Driver:       cfg.Driver,
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
}

// OpenRuntimeStore opens the runtime config backend. db is only used by the
// database backend.
func OpenRuntimeStore(ctx context.Context, cfg config.RuntimeConfigConfig, db *sql.DB, driver string) (runtime.Store, error) {
	switch cfg.Backend {
	case "database":
		if db == nil {
			return nil, fmt.Errorf("runtime config backend %q needs a database", cfg.Backend)
		}
		return runtime.NewDatabaseStore(ctx, db, driver)
	case "memory", "":
		return runtime.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported runtime config backend %q", cfg.Backend)
	}
}

// NewAccessor builds the runtime config accessor over cfg's static settings.
func NewAccessor(cfg *config.Config, store runtime.Store) *runtime.Accessor {
	static := cfg.Settings()
	return runtime.NewAccessor(store, static, runtime.DefaultOptions(static)...)
}

type limiters struct {
	read, write *ratelimit.Limiter
	user, anon  *ratelimit.Limiter
	health      *ratelimit.Limiter
}

func newLimiters(c cache.Cache, cfg *config.Config, healthScope string) (*limiters, error) {
	l := &limiters{}
	var err error

	build := func(scope, rate, burst string) (*ratelimit.Limiter, error) {
		lc := ratelimit.Config{Scope: scope}
		if lc.Rate, err = ratelimit.ParseRate(rate); err != nil {
			return nil, fmt.Errorf("%s rate: %w", scope, err)
		}
		if burst != "" {
			if lc.BurstRate, err = ratelimit.ParseRate(burst); err != nil {
				return nil, fmt.Errorf("%s burst rate: %w", scope, err)
			}
			lc.BurstDuration = cfg.RateLimit.BurstDuration
		}
		return ratelimit.NewLimiter(c, lc)
	}

	if cfg.RateLimit.Enabled {
		rl := cfg.RateLimit
		if l.read, err = build(ScopeRead, rl.Rate, rl.BurstRate); err != nil {
			return nil, err
		}
		if l.write, err = build(ScopeWrite, rl.Rate, rl.BurstRate); err != nil {
			return nil, err
		}
		if l.user, err = build(ScopeUser, rl.UserRate, ""); err != nil {
			return nil, err
		}
		if l.anon, err = build(ScopeAnon, rl.AnonRate, ""); err != nil {
			return nil, err
		}
	}

	if cfg.Health.Enabled && cfg.Health.ThrottleEnabled {
		if l.health, err = build(healthScope, cfg.Health.ThrottleRate, ""); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// NewTokenManager builds the bearer token manager from cfg.
func NewTokenManager(cfg *config.Config) (*auth.TokenManager, error) {
	return auth.NewTokenManager(auth.TokenConfig{
		Secret: []byte(cfg.App.SecretKey),
		Issuer: cfg.Auth.Issuer,
		Leeway: cfg.Auth.Leeway,
		TTL:    cfg.Auth.TokenTTL,
	})
}
