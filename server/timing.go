package server

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Timing returns a middleware that reports the handler duration in X-Response-Time.
// The header is set just before the status line is written so it reaches the client.
func Timing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			resp := c.Response()
			resp.Before(func() {
				resp.Header().Set(HeaderXResponseTime, time.Since(start).String())
			})
			return next(c)
		}
	}
}
