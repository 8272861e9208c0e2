package server

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/bastion/pkg/admin"
	"mercator-hq/bastion/pkg/apierror"
	"mercator-hq/bastion/pkg/cache"
	"mercator-hq/bastion/pkg/config"
	"mercator-hq/bastion/pkg/config/runtime"
	"mercator-hq/bastion/pkg/health"
	"mercator-hq/bastion/pkg/middleware"
	"mercator-hq/bastion/pkg/pagination"
	"mercator-hq/bastion/pkg/pipeline"
	"mercator-hq/bastion/pkg/security/auth"
	bastiontls "mercator-hq/bastion/pkg/security/tls"
	"mercator-hq/bastion/pkg/telemetry/metrics"
)

// Stage names, outermost first.
const (
	StageRecovery        = "recovery"
	StageRequestLogger   = "request_logger"
	StageMetrics         = "metrics"
	StageHealth          = "health"
	StageCORS            = "cors"
	StageAuth            = "auth"
	StageMaintenance     = "maintenance"
	StageSecurityHeaders = "security_headers"
	StageThrottle        = "throttle"
)

// Options carries build metadata and optional pre-built dependencies.
type Options struct {
	Logger *slog.Logger

	Version   string
	Commit    string
	BuildTime string

	// DB and Cache replace the configured backends when set. The server does
	// not close injected dependencies.
	DB    *sql.DB
	Cache cache.Cache

	// Registry receives the metrics. Nil creates a fresh registry.
	Registry *prometheus.Registry
}

// Server is the HTTP edge server: the protection pipeline in front of a chi
// router.
type Server struct {
	config *config.Config
	logger *slog.Logger

	db       *sql.DB
	cache    cache.Cache
	store    runtime.Store
	accessor *runtime.Accessor
	watcher  *runtime.Watcher
	errors   *apierror.Handler
	tokens   *auth.TokenManager
	checker  *health.Checker
	metrics  *metrics.Collector

	tlsConfig *tls.Config
	reloader  *bastiontls.CertificateReloader

	router  chi.Router
	chain   *pipeline.Chain
	handler http.Handler

	ownDB    bool
	ownCache bool

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New builds the server and its dependencies. The database is pinged and the
// overrides file, if any, is applied before New returns.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:       cfg,
		logger:       logger,
		db:           opts.DB,
		cache:        opts.Cache,
		shutdownChan: make(chan struct{}),
	}

	if err := s.openBackends(ctx); err != nil {
		s.Close()
		return nil, err
	}

	if err := s.build(ctx, opts); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Server) openBackends(ctx context.Context) error {
	var err error

	if s.db == nil {
		if s.db, err = OpenDatabase(ctx, s.config.Database); err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		s.ownDB = true
	}

	if s.cache == nil {
		if s.cache, err = OpenCache(s.config.Cache, s.logger); err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		s.ownCache = true
	}

	s.store, err = OpenRuntimeStore(ctx, s.config.RuntimeConfig, s.db, s.config.Database.Driver)
	if err != nil {
		return fmt.Errorf("failed to open runtime config store: %w", err)
	}
	s.accessor = NewAccessor(s.config, s.store)

	if t := s.config.Server.TLS; t.Enabled {
		s.tlsConfig, s.reloader, err = bastiontls.NewServerConfig(bastiontls.Config{
			CertFile:       t.CertFile,
			KeyFile:        t.KeyFile,
			MinVersion:     t.MinVersion,
			ReloadInterval: t.ReloadInterval,
			Logger:         s.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	if path := s.config.RuntimeConfig.OverridesFile; path != "" {
		s.watcher = runtime.NewWatcher(s.accessor, path, s.config.RuntimeConfig.Debounce, s.logger)
		if _, err := s.watcher.ApplyFile(ctx); err != nil {
			return fmt.Errorf("failed to apply runtime overrides: %w", err)
		}
	}

	return nil
}

func (s *Server) build(ctx context.Context, opts Options) error {
	cfg := s.config

	metricsCfg := cfg.Telemetry.Metrics
	s.metrics = metrics.NewCollector(&metricsCfg, opts.Registry)

	s.errors = apierror.NewHandler(apierror.Config{
		Logger:  s.logger,
		Debug:   s.debug,
		OnError: func(e *apierror.Error) { s.metrics.RecordError(e.Code()) },
	})

	if cfg.Auth.Enabled {
		tokens, err := NewTokenManager(cfg)
		if err != nil {
			return fmt.Errorf("failed to create token manager: %w", err)
		}
		s.tokens = tokens
	}

	lims, err := newLimiters(s.cache, cfg, health.ThrottleScope)
	if err != nil {
		return fmt.Errorf("failed to create rate limiters: %w", err)
	}

	s.checker = health.New(cfg.Health.CheckTimeout)
	breaker := health.BreakerConfig{
		Failures: cfg.Health.BreakerFailures,
		Timeout:  cfg.Health.BreakerTimeout,
		Logger:   s.logger,
	}
	s.checker.RegisterCheck("database", health.WithBreaker("database", health.DatabaseProbe(s.db), breaker))
	s.checker.RegisterCheck("cache", health.WithBreaker("cache", health.CacheProbe(s.cache, cfg.Health.CacheProbeTTL), breaker))

	s.router = s.newRouter(opts, lims)
	s.chain = s.newChain(lims)
	s.handler = s.chain.Then(s.router)

	s.logger.DebugContext(ctx, "pipeline built", "stages", s.chain.Names())
	return nil
}

func (s *Server) newChain(lims *limiters) *pipeline.Chain {
	cfg := s.config
	chain := pipeline.New()

	// The request id is assigned outside recovery so a panic response still
	// carries it.
	chain.Use(StageRecovery, func(next http.Handler) http.Handler {
		return middleware.RequestIDMiddleware(middleware.RequestIDConfig{
			TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
		})(s.errors.Recovery(next))
	})

	if cfg.RequestLogging.Enabled {
		chain.Use(StageRequestLogger, middleware.LoggingMiddleware(middleware.LoggingConfig{
			Logger:          s.logger,
			MaxBodySize:     cfg.RequestLogging.MaxBodySize,
			SensitiveFields: cfg.RequestLogging.SensitiveFields,
		}))
	}

	if s.metrics.Enabled() {
		chain.Use(StageMetrics, s.metrics.Middleware)
	}

	if cfg.Health.Enabled {
		chain.Use(StageHealth, health.Middleware(health.MiddlewareConfig{
			Endpoint:   cfg.App.HealthCheckEndpoint,
			Checker:    s.checker,
			Limiter:    lims.health,
			Errors:     s.errors,
			Logger:     s.logger,
			OnFailure:  s.metrics.RecordHealthCheckFailure,
			OnThrottle: s.metrics.RecordThrottled,
		}))
	}

	chain.Use(StageCORS, middleware.CORSMiddleware(middleware.CORSConfig{
		Enabled:          cfg.CORS.Enabled,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		MaxAge:           cfg.CORS.MaxAge,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}))

	if s.tokens != nil {
		chain.Use(StageAuth, auth.NewMiddleware(s.tokens, s.errors, s.logger).Handle)
	}

	chain.Use(StageMaintenance, middleware.MaintenanceMiddleware(middleware.MaintenanceConfig{
		Accessor:  s.accessor,
		Errors:    s.errors,
		AdminPath: cfg.Maintenance.AdminPath,
		Languages: cfg.App.Languages,
		OnReject:  s.metrics.RecordMaintenanceRejection,
	}))

	if cfg.SecurityHeaders.Enabled {
		chain.Use(StageSecurityHeaders, middleware.SecurityHeadersMiddleware(middleware.SecurityConfig{
			CDNHost: cfg.SecurityHeaders.CDNHost,
			Debug:   s.debug,
		}))
	}

	if cfg.RateLimit.Enabled {
		chain.Use(StageThrottle, middleware.ThrottleMiddleware(middleware.ThrottleConfig{
			Read:       lims.read,
			Write:      lims.write,
			Errors:     s.errors,
			Logger:     s.logger,
			OnThrottle: s.metrics.RecordThrottled,
		}))
	}

	return chain
}

func (s *Server) newRouter(opts Options, lims *limiters) chi.Router {
	r := chi.NewRouter()
	r.NotFound(s.errors.NotFound)
	r.MethodNotAllowed(s.errors.MethodNotAllowed)

	r.Get("/livez", health.LivenessHandler())
	r.Get("/version", health.VersionHandler(opts.Version, opts.Commit, opts.BuildTime))

	if s.metrics.Enabled() {
		r.Handle(s.config.Telemetry.Metrics.Path, s.metrics.Handler())
	}

	// The admin API needs a principal to authorize staff.
	if s.tokens != nil {
		var throttle func(http.Handler) http.Handler
		if lims.user != nil || lims.anon != nil {
			throttle = middleware.PrincipalThrottleMiddleware(middleware.PrincipalThrottleConfig{
				User:       lims.user,
				Anon:       lims.anon,
				Errors:     s.errors,
				Logger:     s.logger,
				OnThrottle: s.metrics.RecordThrottled,
			})
		}

		adm := admin.New(admin.Config{
			Accessor: s.accessor,
			Errors:   s.errors,
			Pagination: pagination.Config{
				PageSize:      s.config.Pagination.PageSize,
				MaxPageSize:   s.config.Pagination.MaxPageSize,
				PageSizeParam: s.config.Pagination.PageSizeParam,
			},
			Logger:   s.logger,
			Throttle: throttle,
		})
		r.Mount(AdminConfigPath(s.config.Maintenance.AdminPath), adm.Routes())
	}

	return r
}

// AdminConfigPath returns the mount point of the runtime config API below
// adminPath.
func AdminConfigPath(adminPath string) string {
	return strings.TrimSuffix(adminPath, "/") + "/config"
}

func (s *Server) debug(ctx context.Context) bool {
	on, err := s.accessor.Bool(ctx, "DEBUG")
	return err == nil && on
}

// Router returns the application router. Routes may be added until the
// server starts.
func (s *Server) Router() chi.Router { return s.router }

// Handler returns the full pipeline wrapped around the router.
func (s *Server) Handler() http.Handler { return s.handler }

// Stages returns the active pipeline stage names, outermost first.
func (s *Server) Stages() []string { return s.chain.Names() }

// Accessor returns the runtime config accessor.
func (s *Server) Accessor() *runtime.Accessor { return s.accessor }

// Errors returns the error envelope writer, for application handlers.
func (s *Server) Errors() *apierror.Handler { return s.errors }

// Tokens returns the token manager, or nil when auth is disabled.
func (s *Server) Tokens() *auth.TokenManager { return s.tokens }

// Start serves HTTP and blocks until ctx is cancelled, Shutdown is called,
// or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	cfg := s.config.Server
	s.httpServer = &http.Server{
		Addr:           cfg.ListenAddress,
		Handler:        s.handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
		TLSConfig:      s.tlsConfig,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if s.watcher != nil && s.config.RuntimeConfig.Watch {
		go func() {
			if err := s.watcher.Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("runtime overrides watcher stopped", "error", err)
			}
		}()
	}
	if s.reloader != nil {
		go s.reloader.Run(watchCtx)
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"address", cfg.ListenAddress,
			"stages", s.chain.Names(),
			"tls", s.tlsConfig != nil,
		)

		var err error
		if s.tlsConfig != nil {
			err = s.httpServer.ListenAndServeTLS("", "")
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the HTTP server within server.shutdown_timeout.
// Backends stay open until Close.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		close(s.shutdownChan)

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server shutdown complete")
	})

	return shutdownErr
}

// Close releases the runtime store and the backends the server opened.
func (s *Server) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.ownCache && s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	if s.ownDB && s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
