package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/relay-bricks/logger"
)

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	// SkipPaths are not logged (health and readiness probes).
	SkipPaths []string

	// SlowRequestThreshold marks 2xx requests slower than this with result_code WARN.
	// Zero disables slow request detection.
	SlowRequestThreshold time.Duration
}

// Logger returns a request logging middleware that skips the given probe paths.
func Logger(log logger.Logger, skipPaths ...string) echo.MiddlewareFunc {
	return LoggerWithConfig(log, LoggerConfig{
		SkipPaths:            skipPaths,
		SlowRequestThreshold: slowRequestThreshold,
	})
}

// LoggerWithConfig returns a request logging middleware emitting one summary
// event per request, at a level derived from the final status.
//
// A handler error is rendered here through the Echo error handler so the
// summary sees the real status code.
func LoggerWithConfig(log logger.Logger, cfg LoggerConfig) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			if _, ok := skip[path]; ok {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			latency := time.Since(start)

			status := http.StatusOK
			if resp := c.Response(); resp != nil && resp.Status != 0 {
				status = resp.Status
			}

			logLevel, resultCode := determineSeverity(status, latency, cfg.SlowRequestThreshold, err)
			event := createLogEvent(log.WithContext(c.Request().Context()), logLevel)
			if err != nil {
				event = event.Err(err)
			}

			req := c.Request()
			event.
				Str("request_id", requestIDOf(c)).
				Str("http.request.method", req.Method).
				Int("http.response.status_code", status).
				Int64("http.server.request.duration", latency.Nanoseconds()).
				Str("url.path", req.URL.Path).
				Str("http.route", c.Path()).
				Str("client.address", c.RealIP()).
				Str("user_agent.original", req.UserAgent()).
				Str("result_code", resultCode).
				Msg(createActionMessage(req.Method, req.URL.Path, latency, status))
			return nil
		}
	}
}

// determineSeverity calculates log severity and result_code from status, latency and error.
func determineSeverity(
	status int,
	latency, threshold time.Duration,
	err error,
) (logLevel, resultCode string) {
	const (
		levelError = "error"
		levelWarn  = "warn"
		levelInfo  = "info"
		codeError  = "ERROR"
		codeWarn   = "WARN"
		codeInfo   = "INFO"
	)

	if status >= http.StatusInternalServerError || (err != nil && status == 0) {
		return levelError, codeError
	}

	if status >= http.StatusBadRequest {
		return levelWarn, codeWarn
	}

	// Slow but successful: level stays INFO, result_code flags it.
	if threshold > 0 && latency > threshold {
		return levelInfo, codeWarn
	}

	return levelInfo, codeInfo
}

func createLogEvent(log logger.Logger, level string) logger.LogEvent {
	switch level {
	case "error":
		return log.Error()
	case "warn":
		return log.Warn()
	default:
		return log.Info()
	}
}

// createActionMessage renders e.g. "POST / completed in 1.2s with status 200".
func createActionMessage(method, path string, latency time.Duration, status int) string {
	return fmt.Sprintf("%s %s completed in %s with status %d", method, path, latency, status)
}
