package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/relay-bricks/logger"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestRequestLoggerEmitsSummary(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info", false, nil)
	s := New(newTestConfig(t, ""), log)
	s.Echo().POST("/fail", func(echo.Context) error {
		return NewBadRequestError("content must not be empty")
	})

	req := httptest.NewRequest(http.MethodPost, "/fail", http.NoBody)
	req.Header.Set("X-Request-ID", "req-7")
	rec := serve(s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, "POST", entry["http.request.method"])
	assert.EqualValues(t, http.StatusBadRequest, entry["http.response.status_code"])
	assert.Equal(t, "WARN", entry["result_code"])
	assert.Equal(t, "content must not be empty", entry["error"])
	msg, _ := entry["message"].(string)
	assert.True(t, strings.HasPrefix(msg, "POST /fail completed in "), msg)
	assert.True(t, strings.HasSuffix(msg, "with status 400"), msg)
}

func TestRequestLoggerSkipsProbes(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", false, nil)
	s := New(newTestConfig(t, ""), log)
	buf.Reset()

	serve(s, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	serve(s, httptest.NewRequest(http.MethodGet, "/ready", http.NoBody))

	assert.Empty(t, buf.String())
}

func TestDetermineSeverity(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		latency   time.Duration
		err       error
		wantLevel string
		wantCode  string
	}{
		{"ok", 200, time.Millisecond, nil, "info", "INFO"},
		{"slow ok", 200, time.Minute, nil, "info", "WARN"},
		{"client error", 404, time.Millisecond, nil, "warn", "WARN"},
		{"server error", 502, time.Millisecond, nil, "error", "ERROR"},
		{"error without status", 0, time.Millisecond, assert.AnError, "error", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, code := determineSeverity(tt.status, tt.latency, slowRequestThreshold, tt.err)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestCreateActionMessage(t *testing.T) {
	assert.Equal(t, "POST / completed in 1.5s with status 200", createActionMessage("POST", "/", 1500*time.Millisecond, 200))
}
