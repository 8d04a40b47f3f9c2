package http

import (
	"context"
	nethttp "net/http"
	"sync/atomic"
	"time"

	"github.com/gaborage/relay-bricks/config"
	"github.com/gaborage/relay-bricks/logger"
)

const (
	// DefaultTimeout is the default request timeout duration
	DefaultTimeout = 180 * time.Second

	// DefaultMaxRetries is the default maximum number of retries for failed requests
	DefaultMaxRetries = 0

	// DefaultRetryDelay is the default delay between retries
	DefaultRetryDelay = 1 * time.Second
)

// client implements the Client interface
type client struct {
	transport Transport
	logger    logger.Logger
	config    *Config
	pipeline  *Pipeline
	retry     RetryPolicy
	callCount atomic.Int64
}

// NewClient creates a new REST client with default configuration
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

// Builder provides a fluent interface for configuring the REST client
type Builder struct {
	config    *Config
	logger    logger.Logger
	pipeline  *Pipeline
	transport Transport
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		config: &Config{
			Timeout:        DefaultTimeout,
			MaxRetries:     DefaultMaxRetries,
			RetryDelay:     DefaultRetryDelay,
			DefaultHeaders: nethttp.Header{},
		},
		logger: log,
	}
}

// NewBuilderFromConfig seeds a builder with the client section of the
// application configuration. A zero timeout keeps DefaultTimeout.
func NewBuilderFromConfig(cfg config.ClientConfig, log logger.Logger) *Builder {
	b := NewBuilder(log).
		WithBaseURL(cfg.BaseURL).
		WithRetries(cfg.Retry.Max, cfg.Retry.Delay)
	if cfg.Timeout > 0 {
		b.WithTimeout(cfg.Timeout)
	}
	for key, value := range cfg.Headers {
		b.WithDefaultHeader(key, value)
	}
	return b
}

// WithBaseURL sets the prefix for relative request paths
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithTimeout sets the request timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetries sets the retry configuration
func (b *Builder) WithRetries(maxRetries int, retryDelay time.Duration) *Builder {
	b.config.MaxRetries = maxRetries
	b.config.RetryDelay = retryDelay
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders.Set(key, value)
	return b
}

// WithPipeline attaches an interceptor pipeline. The same pipeline may be
// shared by several clients.
func (b *Builder) WithPipeline(p *Pipeline) *Builder {
	b.pipeline = p
	return b
}

// WithTransport replaces the default net/http transport
func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t
	return b
}

// WithSleep replaces the wait between retries. Tests use it to avoid real delays.
func (b *Builder) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Builder {
	b.sleep = sleep
	return b
}

// Build creates the REST client with the configured options
func (b *Builder) Build() Client {
	transport := b.transport
	if transport == nil {
		transport = NewHTTPTransport(nil)
	}
	pipeline := b.pipeline
	if pipeline == nil {
		pipeline = NewPipeline()
	}
	cfg := *b.config
	cfg.DefaultHeaders = b.config.DefaultHeaders.Clone()

	return &client{
		transport: transport,
		logger:    b.logger,
		config:    &cfg,
		pipeline:  pipeline,
		retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			Delay:      cfg.RetryDelay,
			Sleep:      b.sleep,
		},
	}
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, path string, query Query, opts ...Option) (*Response, error) {
	return c.Do(ctx, &Request{Path: path, Method: MethodGet, Query: query}, opts...)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, path string, body any, opts ...Option) (*Response, error) {
	return c.Do(ctx, &Request{Path: path, Method: MethodPost, Body: body}, opts...)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, path string, body any, opts ...Option) (*Response, error) {
	return c.Do(ctx, &Request{Path: path, Method: MethodPut, Body: body}, opts...)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, path string, opts ...Option) (*Response, error) {
	return c.Do(ctx, &Request{Path: path, Method: MethodDelete}, opts...)
}

// Upload posts a multipart form
func (c *client) Upload(ctx context.Context, path string, form *Form, opts ...Option) (*Response, error) {
	if form == nil {
		return nil, NewValidationError("form cannot be nil", "body")
	}
	return c.Do(ctx, &Request{Path: path, Method: MethodPost, Body: form}, opts...)
}

// Do sends req, retrying whole attempts according to the client policy.
func (c *client) Do(ctx context.Context, req *Request, opts ...Option) (*Response, error) {
	base, err := c.prepare(req, collectOptions(opts))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	callCount := c.callCount.Add(1)

	var resp *Response
	attempts, err := c.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		r, attemptErr := c.attempt(ctx, base.Clone(), attempt)
		if attemptErr != nil {
			c.logFailure(base, attempt, attemptErr)
			return attemptErr
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.Stats = Stats{
		ElapsedTime: time.Since(start),
		CallCount:   callCount,
		Attempts:    attempts,
	}
	c.logResponse(resp)
	return resp, nil
}

// prepare validates req and resolves headers, timeout and base URL.
// Precedence, lowest first: client defaults, call options, fields set on req.
func (c *client) prepare(req *Request, opts *callOptions) (*Request, error) {
	if req == nil {
		return nil, NewValidationError("request cannot be nil", "request")
	}

	out := req.Clone()
	if out.Method == "" {
		out.Method = MethodGet
	}
	if !out.Method.Valid() {
		return nil, NewValidationError("unsupported method "+string(out.Method), "method")
	}

	headers := c.config.DefaultHeaders.Clone()
	if headers == nil {
		headers = nethttp.Header{}
	}
	mergeHeaders(headers, opts.headers)
	mergeHeaders(headers, req.Headers)
	out.Headers = headers

	if out.Timeout == 0 {
		out.Timeout = c.config.Timeout
		if opts.timeout != nil {
			out.Timeout = *opts.timeout
		}
	}
	if out.BaseURL == "" {
		out.BaseURL = c.config.BaseURL
		if opts.baseURL != nil {
			out.BaseURL = *opts.baseURL
		}
	}

	if buildURL(out.BaseURL, out.Path, nil) == "" {
		return nil, NewValidationError("URL cannot be empty", "path")
	}

	if err := bufferReaderBody(out); err != nil {
		return nil, err
	}
	return out, nil
}

// attempt runs one full pass: interceptors, encoding, guarded send, status
// check and response interceptors (skipped for 204).
func (c *client) attempt(ctx context.Context, req *Request, attempt int) (*Response, error) {
	req, err := c.pipeline.RunRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Headers == nil {
		req.Headers = nethttp.Header{}
	}

	body, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	out := &OutgoingRequest{
		Method: string(req.Method),
		URL:    buildURL(req.BaseURL, req.Path, req.Query),
		Header: req.Headers,
		Body:   body,
	}
	c.logRequest(out, attempt)

	raw, err := guard(ctx, req.Timeout, func(gctx context.Context) (*RawResponse, error) {
		return c.transport.Send(gctx, out)
	})
	if err != nil {
		if clientErr, ok := AsClientError(err); ok {
			return nil, clientErr
		}
		return nil, NewNetworkError("request failed", err)
	}

	if !IsSuccessStatus(raw.StatusCode) {
		return nil, NewHTTPError(raw.StatusCode, raw.StatusText, raw.Body)
	}

	resp := &Response{
		StatusCode: raw.StatusCode,
		Headers:    raw.Header,
	}
	// 204 carries no data, and response interceptors must not invent any.
	if raw.StatusCode == nethttp.StatusNoContent {
		return resp, nil
	}
	resp.Body = raw.Body
	resp.Data = parseBody(raw.Body)

	data, err := c.pipeline.RunResponse(ctx, resp.Data)
	if err != nil {
		return nil, err
	}
	resp.Data = data
	return resp, nil
}

func mergeHeaders(dst, src nethttp.Header) {
	for key, values := range src {
		if len(values) == 0 {
			continue
		}
		dst.Set(key, values[len(values)-1])
	}
}

// logRequest logs the outgoing request
func (c *client) logRequest(req *OutgoingRequest, attempt int) {
	logEvent := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL).
		Int("attempt", attempt)

	if len(req.Header) > 0 {
		logEvent = logEvent.Interface("headers", req.Header)
	}

	logEvent.Msg("REST client request")
}

// logFailure logs a failed attempt
func (c *client) logFailure(req *Request, attempt int, err error) {
	logEvent := c.logger.Warn().
		Str("direction", "outbound").
		Str("method", string(req.Method)).
		Str("path", req.Path).
		Int("attempt", attempt).
		Int("max_retries", c.retry.MaxRetries)

	if clientErr, ok := AsClientError(err); ok {
		logEvent = logEvent.Str("error_type", string(clientErr.Kind))
		if clientErr.Status != 0 {
			logEvent = logEvent.Int("status", clientErr.Status)
		}
	}

	logEvent.Err(err).Msg("REST client attempt failed")
}

// logResponse logs the incoming response
func (c *client) logResponse(resp *Response) {
	c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Int("attempts", resp.Stats.Attempts).
		Msg("REST client response")
}
