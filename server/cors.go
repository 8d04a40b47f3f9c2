package server

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/relay-bricks/config"
)

// Fallback CORS values used for any list the config leaves empty.
var (
	defaultCORSOrigins = []string{"*"}
	defaultCORSMethods = []string{http.MethodPost, http.MethodOptions}
	defaultCORSHeaders = []string{echo.HeaderContentType, echo.HeaderAuthorization}
)

// CORS returns the relay CORS middleware.
//
// Every response carries the configured Access-Control-Allow-* headers, whatever
// the outcome of the handler. OPTIONS requests are answered here with an empty
// 200. A full preflight (Origin plus both Access-Control-Request-* headers) gets
// Access-Control-Max-Age when configured; any other OPTIONS gets an Allow header.
func CORS(cfg config.CORSConfig) echo.MiddlewareFunc {
	origins := cfg.Origins
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	methods := joinOrDefault(cfg.Methods, defaultCORSMethods)
	headers := joinOrDefault(cfg.Headers, defaultCORSHeaders)
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(HeaderAccessControlAllowOrigin, allowedOrigin(origins, c.Request().Header.Get(echo.HeaderOrigin)))
			if !slices.Contains(origins, "*") {
				h.Add(echo.HeaderVary, echo.HeaderOrigin)
			}
			h.Set(HeaderAccessControlAllowMethods, methods)
			h.Set(HeaderAccessControlAllowHeaders, headers)

			req := c.Request()
			if req.Method != http.MethodOptions {
				return next(c)
			}

			if isPreflight(req) {
				if maxAge != "" {
					h.Set(HeaderAccessControlMaxAge, maxAge)
				}
			} else {
				h.Set(HeaderAllow, methods)
			}
			return c.NoContent(http.StatusOK)
		}
	}
}

func isPreflight(req *http.Request) bool {
	return req.Header.Get(echo.HeaderOrigin) != "" &&
		req.Header.Get(HeaderAccessControlRequestMethod) != "" &&
		req.Header.Get(HeaderAccessControlRequestHeaders) != ""
}

// allowedOrigin picks the Access-Control-Allow-Origin value. A wildcard wins;
// otherwise a listed request origin is echoed back and unlisted ones get the
// first configured origin, which browsers will reject.
func allowedOrigin(origins []string, requestOrigin string) string {
	if slices.Contains(origins, "*") {
		return "*"
	}
	if requestOrigin != "" && slices.Contains(origins, requestOrigin) {
		return requestOrigin
	}
	return origins[0]
}

func joinOrDefault(values, fallback []string) string {
	if len(values) == 0 {
		values = fallback
	}
	return strings.Join(values, ", ")
}
