package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/gaborage/relay-bricks/config"
	"github.com/gaborage/relay-bricks/logger"
)

const defaultBodyLimit = "1M"

// SetupMiddlewares registers the middleware chain. probePaths are excluded
// from tracing and request logs.
//
// CORS runs first so that every response, including OPTIONS short circuits,
// errors and recovered panics, carries the Access-Control-Allow-* headers.
func SetupMiddlewares(e *echo.Echo, log logger.Logger, cfg *config.Config, probePaths ...string) {
	e.Use(CORS(cfg.Server.CORS))

	e.Use(RequestID(log))

	e.Use(otelecho.Middleware(serviceName(cfg), otelecho.WithSkipper(func(c echo.Context) bool {
		return isProbePath(c, probePaths)
	})))

	e.Use(Logger(log, probePaths...))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.WithContext(c.Request().Context()).Error().
				Err(err).
				Str("request_id", requestIDOf(c)).
				Str("stack", string(stack)).
				Msg("Panic recovered")
			return err
		},
	}))

	bodyLimit := cfg.Server.BodyLimit
	if bodyLimit == "" {
		bodyLimit = defaultBodyLimit
	}
	e.Use(middleware.BodyLimit(bodyLimit))

	e.Use(Timeout(cfg.Server.Timeout.Middleware))

	e.Use(RateLimit(cfg.App.Rate))

	e.Use(Timing())
}

func serviceName(cfg *config.Config) string {
	if cfg.Observability.Service.Name != "" {
		return cfg.Observability.Service.Name
	}
	return cfg.App.Name
}

func isProbePath(c echo.Context, probePaths []string) bool {
	path := c.Path()
	if path == "" {
		path = c.Request().URL.Path
	}
	for _, p := range probePaths {
		if p == path {
			return true
		}
	}
	return false
}
