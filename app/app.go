// Package app wires configuration, observability, the upstream client, the
// relay handler and the HTTP server into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gaborage/relay-bricks/config"
	"github.com/gaborage/relay-bricks/logger"
	"github.com/gaborage/relay-bricks/observability"
	"github.com/gaborage/relay-bricks/relay"
	"github.com/gaborage/relay-bricks/server"
)

// App represents the main application instance.
type App struct {
	cfg       *config.Config
	logger    logger.Logger
	server    *server.Server
	telemetry observability.Provider
}

// New builds the application. Observability comes first so that the relay
// metrics and the otelecho middleware pick up the configured providers.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Env).
		Str("version", cfg.App.Version).
		Msg("Starting application")

	telemetry, err := observability.NewProvider(cfg.Observability, cfg.App.Env, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	upstream := relay.NewUpstreamClient(cfg.Relay.Upstream,
		log.WithFields(map[string]any{"component": "upstream"}), nil)
	handler, err := relay.NewHandler(cfg.Relay, upstream, log,
		relay.WithMeterProvider(telemetry.MeterProvider()))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create relay handler: %w", err),
			telemetry.Shutdown(context.Background()))
	}

	srv := server.New(cfg, log)
	handler.Register(srv.Group(""), cfg.Server.Path.Relay)

	return &App{
		cfg:       cfg,
		logger:    log,
		server:    srv,
		telemetry: telemetry,
	}, nil
}

// Server returns the HTTP server, mainly for tests.
func (a *App) Server() *server.Server {
	return a.server
}

// Addr returns the bound listen address once Run has started the server.
func (a *App) Addr() net.Addr {
	return a.server.Addr()
}

// Run serves until ctx is canceled or the server fails, then shuts down
// gracefully within server.timeout.shutdown.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("Shutting down application")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown stops the HTTP server and flushes telemetry.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown server")
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown observability")
		errs = append(errs, fmt.Errorf("observability shutdown: %w", err))
	}

	a.logger.Info().Msg("Application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) shutdownTimeout() time.Duration {
	if d := a.cfg.Server.Timeout.Shutdown; d > 0 {
		return d
	}
	return server.DefaultShutdownTimeout
}
