package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// Timeout returns middleware that puts a deadline on the request context without
// swapping Echo's response writer. Handlers observe the cancellation through
// their context. A handler error always wins; when the handler returns nil
// after the deadline without writing, the error handler renders a 503.
//
// Echo's middleware.TimeoutWithConfig wraps net/http.TimeoutHandler, which
// replaces the response writer and leaves c.Response() unusable for the
// logging and CORS middlewares once it fires.
func Timeout(duration time.Duration) echo.MiddlewareFunc {
	if duration <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			parent := c.Request().Context()

			select {
			case <-parent.Done():
				return parent.Err()
			default:
			}

			ctx, cancel := context.WithTimeout(parent, duration)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil && !c.Response().Committed {
				return ctxErr
			}
			return nil
		}
	}
}
