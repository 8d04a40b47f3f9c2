package http

import (
	"bytes"
	"context"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// OutgoingRequest is the fully prepared request handed to a Transport.
type OutgoingRequest struct {
	Method string
	URL    string
	Header nethttp.Header
	Body   []byte
}

// RawResponse is what a Transport returns: status, headers and the complete body.
type RawResponse struct {
	StatusCode int
	StatusText string
	Header     nethttp.Header
	Body       []byte
}

// Transport sends a prepared request. Implementations must stop when ctx is
// done.
type Transport interface {
	Send(ctx context.Context, req *OutgoingRequest) (*RawResponse, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *OutgoingRequest) (*RawResponse, error)

// Send calls f(ctx, req).
func (f TransportFunc) Send(ctx context.Context, req *OutgoingRequest) (*RawResponse, error) {
	return f(ctx, req)
}

// HTTPTransport sends requests with a net/http client. The client carries no
// timeout of its own; deadlines come from the context.
type HTTPTransport struct {
	client *nethttp.Client
}

// NewHTTPTransport wraps c. A nil client gets an OpenTelemetry-instrumented
// default transport.
func NewHTTPTransport(c *nethttp.Client) *HTTPTransport {
	if c == nil {
		c = &nethttp.Client{Transport: otelhttp.NewTransport(nethttp.DefaultTransport)}
	}
	return &HTTPTransport{client: c}
}

// Send performs the request and reads the whole response body.
func (t *HTTPTransport) Send(ctx context.Context, req *OutgoingRequest) (*RawResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for key, values := range req.Header {
		httpReq.Header[key] = append([]string(nil), values...)
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &RawResponse{
		StatusCode: httpResp.StatusCode,
		StatusText: reasonPhrase(httpResp),
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// reasonPhrase strips the numeric code from resp.Status ("404 Not Found").
func reasonPhrase(resp *nethttp.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}
