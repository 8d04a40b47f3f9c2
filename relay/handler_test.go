package relay

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gaborage/relay-bricks/config"
	relayhttp "github.com/gaborage/relay-bricks/http"
	"github.com/gaborage/relay-bricks/logger"
	obtest "github.com/gaborage/relay-bricks/observability/testing"
	"github.com/gaborage/relay-bricks/server"
	"github.com/gaborage/relay-bricks/trace"
)

// upstreamCall is what the fake chat-completion API saw.
type upstreamCall struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Payload       ChatCompletionRequest
}

type fakeUpstream struct {
	*httptest.Server
	mu    sync.Mutex
	calls []upstreamCall
}

func newFakeUpstream(t *testing.T, status int, body string) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		call := upstreamCall{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get(trace.HeaderXRequestID),
		}
		_ = json.Unmarshal(raw, &call.Payload)

		f.mu.Lock()
		f.calls = append(f.calls, call)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeUpstream) Calls() []upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upstreamCall(nil), f.calls...)
}

type relayHarness struct {
	srv    *server.Server
	meters *obtest.TestMeterProvider
}

func newRelayHarness(t *testing.T, baseURL string, mutate ...func(*config.Config)) *relayHarness {
	t.Helper()
	cfg, err := config.LoadFromBytes(nil)
	require.NoError(t, err)
	cfg.Relay.Defaults.BaseURL = baseURL
	cfg.Relay.Upstream.Timeout = 2 * time.Second
	for _, m := range mutate {
		m(cfg)
	}

	meters := obtest.NewTestMeterProvider()
	client := NewUpstreamClient(cfg.Relay.Upstream, logger.Nop(), nil)
	h, err := NewHandler(cfg.Relay, client, logger.Nop(), WithMeterProvider(meters))
	require.NoError(t, err)

	srv := server.New(cfg, logger.Nop())
	h.Register(srv.Group(""), cfg.Server.Path.Relay)
	return &relayHarness{srv: srv, meters: meters}
}

func (h *relayHarness) do(method, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/", reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.srv.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestRelayAppliesDefaultsAndReturnsContent(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"hola"}}]}`)
	h := newRelayHarness(t, up.URL)

	rec := h.do(http.MethodPost, `{"content":"hello"}`, map[string]string{trace.HeaderXRequestID: "req-a"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 200, body["code"])
	assert.Equal(t, "hola", body["content"])
	assertCORS(t, rec)

	calls := up.Calls()
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, config.DefaultUpstreamPath, call.Path)
	assert.Equal(t, "Bearer "+config.DefaultRelayAPIKey, call.Authorization)
	assert.Equal(t, "req-a", call.RequestID)
	assert.Equal(t, NewChatCompletionRequest(config.DefaultRelayModel, config.DefaultRelayPrompt, "hello"), call.Payload)
}

func TestRelayHonoursCallerFields(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"done"}}]}`)
	h := newRelayHarness(t, "https://unused.example")

	body := `{"api_key":"sk-caller","base_url":"` + up.URL + `/custom/v1/chat/completions","model":"m-1","prompt":"be brief","content":"text"}`
	rec := h.do(http.MethodPost, body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	calls := up.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/custom/v1/chat/completions", calls[0].Path)
	assert.Equal(t, "Bearer sk-caller", calls[0].Authorization)
	assert.Equal(t, NewChatCompletionRequest("m-1", "be brief", "text"), calls[0].Payload)
}

func TestRelayEmptyStringsUseDefaults(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `{"content":"direct"}`)
	h := newRelayHarness(t, up.URL)

	rec := h.do(http.MethodPost, `{"api_key":"","base_url":"","model":"","prompt":"","content":"x"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "direct", decodeBody(t, rec)["content"])

	calls := up.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, config.DefaultRelayModel, calls[0].Payload.Model)
	assert.Equal(t, "Bearer "+config.DefaultRelayAPIKey, calls[0].Authorization)
}

func TestRelayMissingContent(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `{}`)
	h := newRelayHarness(t, up.URL)

	for _, body := range []string{`{}`, `{"content":""}`, `null`} {
		t.Run(body, func(t *testing.T) {
			rec := h.do(http.MethodPost, body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			got := decodeBody(t, rec)
			assert.EqualValues(t, 400, got["code"])
			assert.Equal(t, "content must not be empty", got["message"])
			assertCORS(t, rec)
		})
	}
	assert.Empty(t, up.Calls())
}

func TestRelaySurfacesUpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"openai style", http.StatusUnauthorized, `{"error":{"message":"Invalid API key"}}`, "Invalid API key"},
		{"flat message", http.StatusTooManyRequests, `{"message":"slow down"}`, "slow down"},
		{"no message", http.StatusBadGateway, `oops`, "upstream request failed with status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newFakeUpstream(t, tt.status, tt.body)
			h := newRelayHarness(t, up.URL)

			rec := h.do(http.MethodPost, `{"content":"hello"}`, nil)
			assert.Equal(t, tt.status, rec.Code)
			got := decodeBody(t, rec)
			assert.EqualValues(t, tt.status, got["code"])
			assert.Equal(t, tt.message, got["message"])
			assertCORS(t, rec)
		})
	}
}

func TestRelayPreflight(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `{}`)
	h := newRelayHarness(t, up.URL)

	rec := h.do(http.MethodOptions, "", map[string]string{
		"Origin":                         "https://app.example",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "content-type",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assertCORS(t, rec)
	assert.Empty(t, up.Calls())
}

func TestRelayMalformedJSON(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `{}`)
	h := newRelayHarness(t, up.URL)

	for _, body := range []string{`{"content":`, `not json`, `[1,2]`, ``} {
		t.Run(body, func(t *testing.T) {
			rec := h.do(http.MethodPost, body, nil)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			got := decodeBody(t, rec)
			assert.EqualValues(t, 500, got["code"])
			assert.Equal(t, "failed to process AI request: request body is not valid JSON", got["message"])
			assertCORS(t, rec)
		})
	}
	assert.Empty(t, up.Calls())
}

func TestRelayMistypedField(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `{}`)
	h := newRelayHarness(t, up.URL)

	tests := []struct {
		body    string
		message string
	}{
		{`{"content":123}`, "content must be a string"},
		{`{"content":"hi","model":true}`, "model must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			rec := h.do(http.MethodPost, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			got := decodeBody(t, rec)
			assert.EqualValues(t, 400, got["code"])
			assert.Equal(t, tt.message, got["message"])
			assertCORS(t, rec)
		})
	}
	assert.Empty(t, up.Calls())
}

func TestRelayRejectsOtherMethods(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `{}`)
	h := newRelayHarness(t, up.URL)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			rec := h.do(method, "", nil)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			got := decodeBody(t, rec)
			assert.EqualValues(t, 405, got["code"])
			assert.Equal(t, MsgMethodNotAllowed, got["message"])
			assertCORS(t, rec)
		})
	}
}

func TestRelayUnexpectedUpstreamShape(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"choices":[{"message":{}}]}`, `plain text`} {
		t.Run(body, func(t *testing.T) {
			up := newFakeUpstream(t, http.StatusOK, body)
			h := newRelayHarness(t, up.URL)

			rec := h.do(http.MethodPost, `{"content":"hello"}`, nil)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, MsgUnexpectedFormat, decodeBody(t, rec)["message"])
		})
	}
}

func TestRelayUpstreamUnreachable(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `{}`)
	deadURL := up.URL
	up.Close()

	h := newRelayHarness(t, deadURL)
	rec := h.do(http.MethodPost, `{"content":"hello"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg, _ := decodeBody(t, rec)["message"].(string)
	assert.True(t, strings.HasPrefix(msg, "failed to process AI request: "), msg)
	assertCORS(t, rec)
}

func TestRelayUpstreamTimeout(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(slow.Close)
	t.Cleanup(func() { close(release) })

	h := newRelayHarness(t, slow.URL, func(cfg *config.Config) {
		cfg.Relay.Upstream.Timeout = 50 * time.Millisecond
	})

	rec := h.do(http.MethodPost, `{"content":"hello"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to process AI request: "+relayhttp.TimeoutMessage, decodeBody(t, rec)["message"])
}

func TestRelayServerDeadlineKeepsRelayError(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(slow.Close)
	t.Cleanup(func() { close(release) })

	h := newRelayHarness(t, slow.URL, func(cfg *config.Config) {
		cfg.Server.Timeout.Middleware = 50 * time.Millisecond
		cfg.Relay.Upstream.Timeout = 5 * time.Second
	})

	rec := h.do(http.MethodPost, `{"content":"hello"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 500, body["code"])
	assert.Equal(t, "failed to process AI request: "+relayhttp.TimeoutMessage, body["message"])
	assertCORS(t, rec)

	served, found := obtest.SumInt64(h.meters.Collect(t), metricRequests, []attribute.KeyValue{attribute.Int(attrCode, 500)})
	require.True(t, found)
	assert.EqualValues(t, 1, served)
}

func TestRelayRecordsMetrics(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"hola"}}]}`)
	h := newRelayHarness(t, up.URL)

	h.do(http.MethodPost, `{"content":"one"}`, nil)
	h.do(http.MethodPost, `{"content":"two"}`, nil)
	h.do(http.MethodPost, `{}`, nil)

	rm := h.meters.Collect(t)

	ok, found := obtest.SumInt64(rm, metricRequests, []attribute.KeyValue{attribute.Int(attrCode, 200)})
	require.True(t, found)
	assert.EqualValues(t, 2, ok)

	bad, _ := obtest.SumInt64(rm, metricRequests, []attribute.KeyValue{attribute.Int(attrCode, 400)})
	assert.EqualValues(t, 1, bad)

	count, found := obtest.HistogramCount(rm, metricUpstreamDuration)
	require.True(t, found)
	assert.EqualValues(t, 2, count)
}

func TestRelayLogsRejectedCredentialsWithoutKey(t *testing.T) {
	up := newFakeUpstream(t, http.StatusUnauthorized, `{"error":{"message":"invalid api key"}}`)
	cfg, err := config.LoadFromBytes(nil)
	require.NoError(t, err)
	cfg.Relay.Defaults.BaseURL = up.URL

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", false, nil)
	h, err := NewHandler(cfg.Relay, NewUpstreamClient(cfg.Relay.Upstream, logger.Nop(), nil), log,
		WithMeterProvider(obtest.NewTestMeterProvider()))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"hi","api_key":"sk-secret-caller"}`))
	c := echo.New().NewContext(req, httptest.NewRecorder())
	err = h.Handle(c)

	apiErr, ok := server.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid api key", apiErr.Message)

	out := buf.String()
	assert.Contains(t, out, `"upstream_auth_rejected":true`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.NotContains(t, out, "sk-secret-caller")
}

func TestNewHandlerRequiresClient(t *testing.T) {
	_, err := NewHandler(config.RelayConfig{}, nil, nil)
	assert.Error(t, err)
}

func TestHandleBareOptions(t *testing.T) {
	h, err := NewHandler(config.RelayConfig{}, relayhttp.NewClient(nil), nil, WithMeterProvider(obtest.NewTestMeterProvider()))
	require.NoError(t, err)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodOptions, "/", http.NoBody), rec)
	require.NoError(t, h.Handle(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
