// Package server provides the HTTP server the relay is mounted on, built on Echo.
// It includes middleware setup, error rendering, health probes and lifecycle.
package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/relay-bricks/config"
	"github.com/gaborage/relay-bricks/logger"
)

const hiddenErrorMessage = "An error occurred while processing your request"

// Server represents an HTTP server instance with Echo framework.
type Server struct {
	echo       *echo.Echo
	cfg        *config.Config
	logger     logger.Logger
	basePath   string
	healthPath string
	readyPath  string
	ready      atomic.Bool
}

// normalizeBasePath ensures the base path starts with "/" and doesn't end with "/"
// unless it's the root path. Empty string is returned as-is (no prefix).
func normalizeBasePath(basePath string) string {
	if basePath == "" {
		return ""
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if len(basePath) > 1 {
		basePath = strings.TrimRight(basePath, "/")
	}
	return basePath
}

// normalizeRoutePath ensures a route path starts with "/" and handles empty paths
func normalizeRoutePath(route, defaultRoute string) string {
	if route == "" {
		route = defaultRoute
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return route
}

// buildFullPath combines base path with route path
func (s *Server) buildFullPath(route string) string {
	if s.basePath == "" || s.basePath == "/" {
		return route
	}
	if route == "/" {
		return s.basePath
	}
	return s.basePath + route
}

// New creates a server with the middleware chain, error handler and probe routes installed.
func New(cfg *config.Config, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		customErrorHandler(err, c, cfg)
	}
	e.Validator = NewValidator()
	// Echo.Shutdown only stops e.Server, so the timeouts go on it rather than on a custom http.Server.
	e.Server.ReadTimeout = orDefault(cfg.Server.Timeout.Read, DefaultReadTimeout)
	e.Server.WriteTimeout = orDefault(cfg.Server.Timeout.Write, DefaultWriteTimeout)
	e.Server.IdleTimeout = orDefault(cfg.Server.Timeout.Idle, DefaultIdleTimeout)

	s := &Server{
		echo:     e,
		cfg:      cfg,
		logger:   log,
		basePath: normalizeBasePath(cfg.Server.Path.Base),
	}
	s.healthPath = s.buildFullPath(normalizeRoutePath(cfg.Server.Path.Health, DefaultHealthRoute))
	s.readyPath = s.buildFullPath(normalizeRoutePath(cfg.Server.Path.Ready, DefaultReadyRoute))
	s.ready.Store(true)

	SetupMiddlewares(e, log, cfg, s.healthPath, s.readyPath)

	e.GET(s.healthPath, s.healthCheck)
	e.GET(s.readyPath, s.readyCheck)

	log.Debug().
		Str("base_path", s.basePath).
		Str("health_path", s.healthPath).
		Str("ready_path", s.readyPath).
		Msg("Server paths configured")

	return s
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Group returns an Echo group rooted at the configured base path plus prefix.
func (s *Server) Group(prefix string) *echo.Group {
	p := prefix
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if s.basePath != "" && s.basePath != "/" {
		p = s.basePath + p
	}
	return s.echo.Group(p)
}

// SetReady flips the readiness probe. The app marks the server unready before shutdown.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Addr returns the listening address once Start has bound the socket, or nil.
func (s *Server) Addr() net.Addr {
	return s.echo.ListenerAddr()
}

// Start starts the HTTP server and blocks until it is shut down or fails.
// After Shutdown it returns http.ErrServerClosed.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.cfg.Server.Host, fmt.Sprint(s.cfg.Server.Port))

	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("version", s.cfg.App.Version).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Msg("Starting server...")

	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (s *Server) readyCheck(c echo.Context) error {
	if !s.ready.Load() {
		return NewServiceUnavailableError("not ready")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// customErrorHandler renders err as an ErrorResponse envelope.
func customErrorHandler(err error, c echo.Context, cfg *config.Config) {
	if c.Response().Committed {
		return
	}

	resp := errorResponse(err, cfg)
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(resp.Code)
		return
	}
	_ = c.JSON(resp.Code, resp)
}

// errorResponse maps err to an envelope. APIError messages are always shown;
// other 500s are masked in production unless debug is on.
func errorResponse(err error, cfg *config.Config) ErrorResponse {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Response()
	}

	var ve *ValidationError
	if goerrors.As(err, &ve) {
		return ErrorResponse{Code: http.StatusBadRequest, Message: ve.Error()}
	}

	if goerrors.Is(err, context.DeadlineExceeded) {
		return ErrorResponse{Code: http.StatusServiceUnavailable, Message: "Request timed out"}
	}
	if goerrors.Is(err, context.Canceled) {
		return ErrorResponse{Code: http.StatusServiceUnavailable, Message: "Request canceled"}
	}

	status := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if goerrors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = http.StatusText(status)
		}
	}

	if status == http.StatusInternalServerError && hideInternalErrors(cfg) {
		msg = hiddenErrorMessage
	}
	return ErrorResponse{Code: status, Message: msg}
}

func hideInternalErrors(cfg *config.Config) bool {
	return cfg.App.Env == config.EnvProduction && !cfg.App.Debug
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
