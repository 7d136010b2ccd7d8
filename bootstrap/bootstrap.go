// Package bootstrap wires all dependencies and starts the application.
// The operation registry is built and frozen here, before the listener opens.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/artpar/wildgate/adapters/engine"
	apihttp "github.com/artpar/wildgate/adapters/http"
	"github.com/artpar/wildgate/adapters/metrics"
	"github.com/artpar/wildgate/config"
	"github.com/artpar/wildgate/core/api"
	"github.com/artpar/wildgate/ports"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	HTTPServer *http.Server
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry
	Service    *api.Service
	Domain     ports.Domain

	logCloser    io.Closer
	shutdownOnce sync.Once
	shutdownErr  error
}

// Options provides optional configuration for application initialization.
type Options struct {
	// ConfigPath is the YAML file. Empty reads the environment only.
	ConfigPath string
	Version    string
	Commit     string

	// Domain replaces the engine built from config.
	Domain ports.Domain
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	holder, err := config.NewHolder(opts.ConfigPath, zerolog.Nop())
	if err != nil {
		return nil, err
	}
	return NewWithConfig(holder, opts)
}

// NewWithConfig creates the application from an already loaded holder.
func NewWithConfig(holder *config.Holder, opts Options) (*App, error) {
	cfg := holder.Get()

	logger, closer, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	holder.SetLogger(logger)

	logger.Info().
		Str("environment", cfg.Environment).
		Str("config", holder.Path()).
		Msg("initializing wildgate")

	a := &App{
		Logger:    logger,
		Config:    holder,
		logCloser: closer,
	}

	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(a.Registry)
		holder.OnReload(a.Metrics.Reloaded)
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	holder.OnChange(func(c *config.Config) {
		if err := SetLevel(c.Logging.Level); err != nil {
			logger.Error().Err(err).Msg("failed to apply log level")
		}
	})

	a.Domain = opts.Domain
	if a.Domain == nil {
		a.Domain = NewEngine(cfg, opts.Version, a.Metrics)
	}

	if err := a.initHTTPServer(opts); err != nil {
		a.closeLog()
		return nil, fmt.Errorf("init http server: %w", err)
	}
	return a, nil
}

// NewEngine builds the random evaluation engine from config.
func NewEngine(cfg *config.Config, version string, m *metrics.Collector) *engine.Engine {
	engineOpts := []engine.Option{
		engine.WithTimeout(cfg.Engine.Timeout),
		engine.WithVersion(version),
	}
	if m != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(m))
	}
	return engine.New(engine.NewRandom(cfg.Engine.Seed), engineOpts...)
}

func (a *App) initHTTPServer(opts Options) error {
	cfg := a.Config.Get()

	svc, err := BuildService(cfg, a.Domain, opts.Version)
	if err != nil {
		return err
	}
	a.Service = svc
	a.Logger.Info().
		Int("operations", svc.Len()).
		Bool("strict", cfg.Validation.StrictUnknownFields).
		Bool("outbound_validation", cfg.OutboundEnabled()).
		Msg("operation registry frozen")

	handlerOpts := []apihttp.HandlerOption{
		apihttp.WithRequestTimeout(cfg.Server.RequestTimeout),
		apihttp.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	routerCfg := apihttp.RouterConfig{
		Version: apihttp.VersionResponse{Version: opts.Version, Commit: opts.Commit},
	}
	if a.Metrics != nil {
		handlerOpts = append(handlerOpts, apihttp.WithMetrics(a.Metrics))
		routerCfg.Metrics = a.Metrics
		routerCfg.MetricsPath = cfg.Metrics.Path
		routerCfg.Gatherer = a.Registry
	}
	if cfg.Docs.Enabled {
		docs, err := apihttp.NewDocsHandler(svc)
		if err != nil {
			return err
		}
		routerCfg.Docs = docs
	}

	handler := apihttp.NewAPIHandler(svc, a.Logger, handlerOpts...)
	health := apihttp.NewHealthHandler(Readiness(svc, a.Domain))
	router := apihttp.NewRouter(handler, health, a.Logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return nil
}

// Run listens on the configured address and blocks until ctx is done, a
// SIGINT or SIGTERM arrives, or the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.HTTPServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.HTTPServer.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Config.WatchSignals()
	if err := a.Config.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch disabled")
	}

	// Stopping the server by any path, including a direct Shutdown, ends the group.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		a.Logger.Info().
			Str("addr", ln.Addr().String()).
			Msg("starting http server")
		if err := a.HTTPServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info().Msg("shutting down")
		return a.Shutdown()
	})
	return g.Wait()
}

// Shutdown gracefully stops the application. Later calls return the first result.
func (a *App) Shutdown() error {
	a.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.Get().Server.ShutdownTimeout)
		defer cancel()

		a.Config.Stop()

		if a.HTTPServer != nil {
			if err := a.HTTPServer.Shutdown(ctx); err != nil {
				a.Logger.Error().Err(err).Msg("http server shutdown error")
				a.shutdownErr = fmt.Errorf("shutdown: %w", err)
			}
		}

		a.Logger.Info().Msg("shutdown complete")
		a.closeLog()
	})
	return a.shutdownErr
}

func (a *App) closeLog() {
	if a.logCloser == nil {
		return
	}
	if err := a.logCloser.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log: %v\n", err)
	}
}
