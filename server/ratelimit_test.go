package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/gaborage/relay-bricks/config"
)

const testIP = "192.168.1.100"

func newRateLimitedEcho(cfg config.RateConfig) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		customErrorHandler(err, c, &config.Config{})
	}
	e.Use(RateLimit(cfg))
	e.POST("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.OPTIONS("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e
}

func fire(e *echo.Echo, method, ip string) int {
	req := httptest.NewRequest(method, "/", http.NoBody)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name          string
		cfg           config.RateConfig
		requestCount  int
		expectAllowed int
		sleepBetween  time.Duration
	}{
		{
			name:          "requests_within_limit",
			cfg:           config.RateConfig{Limit: 10},
			requestCount:  5,
			expectAllowed: 5,
		},
		{
			name:          "default_burst_is_twice_the_limit",
			cfg:           config.RateConfig{Limit: 2},
			requestCount:  10,
			expectAllowed: 4,
		},
		{
			name:          "explicit_burst",
			cfg:           config.RateConfig{Limit: 1, Burst: 3},
			requestCount:  10,
			expectAllowed: 3,
		},
		{
			name:          "requests_with_delay_allowed",
			cfg:           config.RateConfig{Limit: 5, Burst: 1},
			requestCount:  3,
			expectAllowed: 3,
			sleepBetween:  250 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newRateLimitedEcho(tt.cfg)

			allowed, blocked := 0, 0
			for i := 0; i < tt.requestCount; i++ {
				switch fire(e, http.MethodPost, testIP) {
				case http.StatusOK:
					allowed++
				case http.StatusTooManyRequests:
					blocked++
				}
				if tt.sleepBetween > 0 {
					time.Sleep(tt.sleepBetween)
				}
			}

			assert.Equal(t, tt.expectAllowed, allowed)
			assert.Equal(t, tt.requestCount-tt.expectAllowed, blocked)
		})
	}
}

func TestRateLimitDifferentIPs(t *testing.T) {
	e := newRateLimitedEcho(config.RateConfig{Limit: 1, Burst: 1})

	assert.Equal(t, http.StatusOK, fire(e, http.MethodPost, testIP))
	assert.Equal(t, http.StatusTooManyRequests, fire(e, http.MethodPost, testIP))
	assert.Equal(t, http.StatusOK, fire(e, http.MethodPost, "10.0.0.1"))
}

func TestRateLimitErrorResponse(t *testing.T) {
	e := newRateLimitedEcho(config.RateConfig{Limit: 1, Burst: 1})
	fire(e, http.MethodPost, testIP)

	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	req.Header.Set(echo.HeaderXRealIP, testIP)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"code":429,"message":"Too many requests"}`, rec.Body.String())
}

func TestRateLimitSkipsOptions(t *testing.T) {
	e := newRateLimitedEcho(config.RateConfig{Limit: 1, Burst: 1})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, fire(e, http.MethodOptions, testIP))
	}
}

func TestRateLimitZeroDisabled(t *testing.T) {
	e := newRateLimitedEcho(config.RateConfig{})
	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, fire(e, http.MethodPost, testIP))
	}
}
