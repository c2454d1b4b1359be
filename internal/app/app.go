// Package app builds the resolver service from configuration and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/JakeFAU/charm-vin-resolver/internal/api"
	"github.com/JakeFAU/charm-vin-resolver/internal/cache"
	"github.com/JakeFAU/charm-vin-resolver/internal/config"
	collyfetcher "github.com/JakeFAU/charm-vin-resolver/internal/fetcher/colly"
	"github.com/JakeFAU/charm-vin-resolver/internal/logging"
	"github.com/JakeFAU/charm-vin-resolver/internal/match"
	"github.com/JakeFAU/charm-vin-resolver/internal/nhtsa"
	"github.com/JakeFAU/charm-vin-resolver/internal/policy/ratelimit"
	"github.com/JakeFAU/charm-vin-resolver/internal/policy/simple"
	"github.com/JakeFAU/charm-vin-resolver/internal/resolver"
	"github.com/JakeFAU/charm-vin-resolver/internal/telemetry"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// hopsPerResolution is the decode call plus the make, year and model listings.
const hopsPerResolution = 4

// App contains the application's dependencies.
type App struct {
	cfg            config.Config
	logger         *zap.Logger
	cache          *cache.LRU
	resolver       *resolver.Resolver
	lister         *resolver.CategoryLister
	apiServer      *api.Server
	tracerShutdown func(context.Context) error
}

// Build creates the logger, tracing and every service dependency.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	app, err := New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app init failed: %w", err)
	}

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.InitTracerProvider(ctx, telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: Version,
			Stdout:         cfg.Telemetry.Stdout,
		})
		if err != nil {
			return nil, fmt.Errorf("tracer init failed: %w", err)
		}
		app.tracerShutdown = tp.Shutdown
		logger.Info("tracing enabled", zap.String("service", cfg.Telemetry.ServiceName))
	}
	return app, nil
}

// New wires the resolver pipeline and HTTP API using logger.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("building application dependencies",
		zap.Int("port", cfg.Server.Port),
		zap.String("root_url", cfg.Directory.RootURL),
		zap.Int("cache_capacity", cfg.Cache.Capacity),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)

	timeout := cfg.RequestTimeout()
	// baseUrl is caller supplied, so only configured hosts get their own metric label.
	knownHosts := append([]string{cfg.Directory.RootURL}, cfg.Directory.AllowedHosts...)
	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.Directory.RateLimitRPS,
		DefaultBurst: cfg.Directory.RateLimitBurst,
		KnownHosts:   knownHosts,
	})
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Directory.UserAgent,
		RespectRobots: cfg.Directory.RespectRobots,
		Timeout:       timeout,
		KnownHosts:    knownHosts,
	}, limiter, logger.Named("fetcher"))
	decoderLimiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.Decoder.RateLimitRPS,
		DefaultBurst: cfg.Decoder.RateLimitBurst,
		KnownHosts:   []string{cfg.Decoder.BaseURL},
	})
	decoder := nhtsa.NewClient(nhtsa.Config{
		BaseURL: cfg.Decoder.BaseURL,
		Timeout: timeout,
	}, decoderLimiter, logger.Named("nhtsa"))
	matcher := match.New(cfg.Match.LowConfidenceThreshold, logger.Named("match"))
	resCache := cache.New(cache.Config{
		Capacity: cfg.Cache.Capacity,
		TTL:      cfg.Cache.TTL,
	})

	res := resolver.New(resolver.Config{
		RootURL:     cfg.Directory.RootURL,
		MakeAliases: cfg.Resolver.MakeAliases,
	}, decoder, fetcher, matcher, resCache, logger.Named("resolver"))
	hostPolicy := simple.New(cfg.Directory.AllowedHosts...)
	if hosts := hostPolicy.Hosts(); len(hosts) > 0 {
		logger.Info("restricting category base URLs", zap.Strings("hosts", hosts))
	}
	lister := resolver.NewCategoryLister(fetcher, hostPolicy, logger.Named("categories"))

	apiServer := api.NewServer(res, lister, api.Options{
		CORSOrigin:     cfg.Server.CORSOrigin,
		RequestTimeout: hopsPerResolution * timeout,
	}, logger.Named("api"))

	return &App{
		cfg:       cfg,
		logger:    logger,
		cache:     resCache,
		resolver:  res,
		lister:    lister,
		apiServer: apiServer,
	}, nil
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Cache returns the shared resolution cache.
func (a *App) Cache() *cache.LRU { return a.cache }

// Resolve resolves vin through the shared resolver and cache.
func (a *App) Resolve(ctx context.Context, vin string) (resolver.Resolution, error) {
	res, err := a.resolver.Resolve(ctx, vin)
	if err != nil {
		return resolver.Resolution{}, fmt.Errorf("resolve %s: %w", vin, err)
	}
	return res, nil
}

// ListCategories lists a documentation section below baseURL.
func (a *App) ListCategories(ctx context.Context, baseURL string, section resolver.Section) ([]resolver.Category, error) {
	categories, err := a.lister.List(ctx, baseURL, section)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", section, err)
	}
	return categories, nil
}

// Handler returns the traced HTTP handler.
func (a *App) Handler() http.Handler {
	return otelhttp.NewHandler(a.apiServer.Handler(), "charmresolver")
}

// Run listens on the configured port and blocks until ctx is canceled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", a.cfg.Server.Port, err)
	}
	return a.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then drains in-flight requests.
// The caller still owns Close.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown initiated")
	case err, ok := <-serveErr:
		if ok {
			a.logger.Error("http server error", zap.Error(err))
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	a.logger.Info("http server stopped")
	return runErr
}

// Close flushes tracing and logging.
func (a *App) Close(ctx context.Context) error {
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
	// Sync fails on terminals and pipes; nothing useful can be done about it.
	_ = a.logger.Sync()
	return nil
}
