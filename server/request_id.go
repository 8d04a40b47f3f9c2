package server

import (
	"github.com/labstack/echo/v4"

	"github.com/gaborage/relay-bricks/logger"
	"github.com/gaborage/relay-bricks/trace"
)

// RequestID accepts a sane inbound X-Request-ID or generates one, echoes it on
// the response and stores it in the request context together with a
// request-scoped logger. Outbound clients pick it up from the context.
func RequestID(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := trace.SanitizeRequestID(req.Header.Get(trace.HeaderXRequestID))
			if id == "" {
				id = trace.NewRequestID()
			}

			req.Header.Set(trace.HeaderXRequestID, id)
			c.Response().Header().Set(trace.HeaderXRequestID, id)

			ctx := trace.WithRequestID(req.Context(), id)
			ctx = logger.ToContext(ctx, log, map[string]any{"request_id": id})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// requestIDOf returns the id assigned by RequestID, falling back to the inbound header.
func requestIDOf(c echo.Context) string {
	if id, ok := trace.RequestIDFromContext(c.Request().Context()); ok {
		return id
	}
	if resp := c.Response(); resp != nil {
		if id := resp.Header().Get(trace.HeaderXRequestID); id != "" {
			return id
		}
	}
	return c.Request().Header.Get(trace.HeaderXRequestID)
}
