package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/proxy"
	"github.com/vk/flowgridgo/internal/registry"
)

// defaultCheckInterval spaces the background health sweeps when the grid
// does not set check_interval.
const defaultCheckInterval = 5 * time.Minute

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	registry  *registry.Registry
	model     *config.Model
	converter config.Converter
	services  *registry.Services

	checkInterval time.Duration
	httpServer    *http.Server
}

// NewApp is the constructor for the main application. It loads the grid,
// registers and validates all action modules, and builds the shared services
// (proxy pool, HTTP client) the actions will use.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, converter, err := loader.Load(ctx, appConfig.GridPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.ValidateModel(ctx, model); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")

	app := &App{
		outW:          outW,
		logger:        logger,
		config:        appConfig,
		registry:      reg,
		model:         model,
		converter:     converter,
		checkInterval: defaultCheckInterval,
	}
	app.services = &registry.Services{
		Client: &http.Client{Timeout: 30 * time.Second},
	}
	if model.ProxyPool != nil {
		app.services.Pool = buildPool(logger, model.ProxyPool)
		app.services.Strategy = proxy.Strategy(model.ProxyPool.Strategy)
		if model.ProxyPool.CheckInterval > 0 {
			app.checkInterval = model.ProxyPool.CheckInterval
		}
	}
	return app, nil
}

// buildPool maps the grid's proxy_pool block onto pool options, leaving the
// pool's own defaults in place for anything the user did not set.
func buildPool(logger *slog.Logger, cfg *config.ProxyPool) *proxy.Pool {
	opts := []proxy.Option{proxy.WithLogger(logger)}
	if cfg.CheckURL != "" {
		opts = append(opts, proxy.WithCheckURL(cfg.CheckURL))
	}
	if cfg.MaxFailures > 0 {
		opts = append(opts, proxy.WithMaxFailures(cfg.MaxFailures))
	}
	if cfg.ProbeTimeout > 0 {
		opts = append(opts, proxy.WithProbeTimeout(cfg.ProbeTimeout))
	}
	return proxy.New(cfg.Endpoints, opts...)
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Services returns the shared services handed to actions. This is primarily
// for testing.
func (a *App) Services() *registry.Services {
	return a.services
}
