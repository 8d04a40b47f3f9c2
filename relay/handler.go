package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/relay-bricks/config"
	relayhttp "github.com/gaborage/relay-bricks/http"
	"github.com/gaborage/relay-bricks/logger"
	"github.com/gaborage/relay-bricks/server"
)

// Messages returned by the relay endpoint.
const (
	MsgMethodNotAllowed = "method not allowed, only POST is supported"
	MsgInvalidJSON      = "request body is not valid JSON"
	MsgUnexpectedFormat = "upstream returned an unexpected response format"
	MsgSucceeded        = "rewrite succeeded"

	processingPrefix = "failed to process AI request: "
)

// Router is the subset of *echo.Echo and *echo.Group the handler registers on.
type Router interface {
	Any(path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) []*echo.Route
}

// Handler serves the relay endpoint.
type Handler struct {
	defaults     config.RelayDefaults
	upstreamPath string
	client       relayhttp.Client
	log          logger.Logger
	validator    *server.Validator
	metrics      *relayMetrics
}

// HandlerOption customizes a Handler.
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	meterProvider metric.MeterProvider
}

// WithMeterProvider records relay metrics on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) HandlerOption {
	return func(o *handlerOptions) {
		o.meterProvider = mp
	}
}

// NewHandler creates the relay handler. client performs the upstream calls and
// owns their timeout and retry policy.
func NewHandler(cfg config.RelayConfig, client relayhttp.Client, log logger.Logger, opts ...HandlerOption) (*Handler, error) {
	if client == nil {
		return nil, errors.New("relay: upstream client is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	o := handlerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}

	m, err := newRelayMetrics(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("relay metrics: %w", err)
	}

	return &Handler{
		defaults:     cfg.Defaults,
		upstreamPath: cfg.Upstream.Path,
		client:       client,
		log:          log,
		validator:    server.NewValidator(),
		metrics:      m,
	}, nil
}

// Register mounts the handler for every method on path ("/" when empty).
func (h *Handler) Register(r Router, path string) {
	if path == "" {
		path = "/"
	}
	r.Any(path, h.Handle)
}

// Handle answers one relay request. Failures are returned as *server.APIError
// and rendered by the server error handler as {code, message}.
func (h *Handler) Handle(c echo.Context) error {
	if c.Request().Method == http.MethodOptions {
		return c.NoContent(http.StatusOK)
	}

	ctx := c.Request().Context()
	out, in, err := h.process(c)

	code := http.StatusOK
	if err != nil {
		code = statusOf(err)
		h.logFailure(ctx, code, in, err)
	}
	h.metrics.requests.Add(ctx, 1, metric.WithAttributes(attribute.Int(attrCode, code)))

	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) process(c echo.Context) (*Outcome, *Request, error) {
	req := c.Request()
	if req.Method != http.MethodPost {
		return nil, nil, server.NewMethodNotAllowedError(MsgMethodNotAllowed)
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, nil, he
		}
		return nil, nil, processingError(err)
	}

	var in Request
	if err := json.Unmarshal(body, &in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, nil, server.NewBadRequestError(fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type)).WithCause(err)
		}
		return nil, nil, server.NewInternalServerError(processingPrefix + MsgInvalidJSON).WithCause(err)
	}
	h.applyDefaults(&in)

	if err := h.validator.Validate(&in); err != nil {
		var ve *server.ValidationError
		if errors.As(err, &ve) {
			return nil, &in, server.NewBadRequestError(ve.Error())
		}
		return nil, &in, processingError(err)
	}

	out, err := h.forward(req.Context(), &in)
	return out, &in, err
}

func (h *Handler) applyDefaults(in *Request) {
	if in.APIKey == "" {
		in.APIKey = h.defaults.APIKey
	}
	if in.BaseURL == "" {
		in.BaseURL = h.defaults.BaseURL
	}
	if in.Model == "" {
		in.Model = h.defaults.Model
	}
	if in.Prompt == "" {
		in.Prompt = h.defaults.Prompt
	}
}

func (h *Handler) forward(ctx context.Context, in *Request) (*Outcome, error) {
	target := UpstreamURL(in.BaseURL, h.upstreamPath)
	payload := NewChatCompletionRequest(in.Model, in.Prompt, in.Content)

	start := time.Now()
	resp, err := h.client.Post(ctx, target, payload,
		relayhttp.WithBearerToken(in.APIKey))
	h.recordUpstream(ctx, start, resp, err)

	if err != nil {
		return nil, upstreamError(err)
	}

	content, ok := ExtractContent(resp.Data)
	if !ok {
		return nil, server.NewInternalServerError(MsgUnexpectedFormat)
	}
	return &Outcome{Code: http.StatusOK, Content: content, Message: MsgSucceeded}, nil
}

func (h *Handler) recordUpstream(ctx context.Context, start time.Time, resp *relayhttp.Response, err error) {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	} else if ce, ok := relayhttp.AsClientError(err); ok {
		status = ce.Status
	}
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	h.metrics.upstreamDuration.Record(ctx, elapsed, metric.WithAttributes(attribute.Int(attrStatus, status)))
}

func (h *Handler) logFailure(ctx context.Context, code int, in *Request, err error) {
	log := h.log.WithContext(ctx)
	event := log.Warn()
	if code >= http.StatusInternalServerError {
		event = log.Error()
	}
	event = event.Int("code", code).Err(err)
	if cause := errors.Unwrap(err); cause != nil {
		event = event.Str("cause", cause.Error())
	}
	switch {
	case relayhttp.IsHTTPStatusError(err, http.StatusUnauthorized):
		event = event.Bool("upstream_auth_rejected", true)
	case relayhttp.IsErrorType(err, relayhttp.TimeoutError):
		event = event.Bool("upstream_timeout", true)
	}
	if in != nil {
		event = event.
			Str("model", in.Model).
			Str("upstream", UpstreamURL(in.BaseURL, h.upstreamPath))
	}
	event.Msg("relay request failed")
}

// upstreamError maps a client failure to the relay answer: upstream HTTP
// errors keep their status, anything else is a 500.
func upstreamError(err error) error {
	ce, ok := relayhttp.AsClientError(err)
	if ok && ce.Kind == relayhttp.HTTPError {
		fallback := fmt.Sprintf("upstream request failed with status %d", ce.Status)
		return server.NewAPIError(ce.Status, ErrorMessage(ce.Body, fallback)).WithCause(err)
	}
	return processingError(err)
}

func processingError(err error) *server.APIError {
	return server.NewInternalServerError(processingPrefix + err.Error()).WithCause(err)
}

func statusOf(err error) int {
	if apiErr, ok := server.AsAPIError(err); ok {
		return apiErr.Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
