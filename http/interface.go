package http

import (
	"context"
	nethttp "net/http"
	"time"
)

// Client defines the REST client interface for making HTTP requests
type Client interface {
	Get(ctx context.Context, path string, query Query, opts ...Option) (*Response, error)
	Post(ctx context.Context, path string, body any, opts ...Option) (*Response, error)
	Put(ctx context.Context, path string, body any, opts ...Option) (*Response, error)
	Delete(ctx context.Context, path string, opts ...Option) (*Response, error)
	Upload(ctx context.Context, path string, form *Form, opts ...Option) (*Response, error)
	Do(ctx context.Context, req *Request, opts ...Option) (*Response, error)
}

// Method is one of the HTTP verbs the client sends.
type Method string

const (
	MethodGet    Method = nethttp.MethodGet
	MethodPost   Method = nethttp.MethodPost
	MethodPut    Method = nethttp.MethodPut
	MethodDelete Method = nethttp.MethodDelete
)

// Valid reports whether m is a supported method.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	default:
		return false
	}
}

// Request describes a single call. Path may be relative to the base URL or an
// absolute http(s) URL. A zero Timeout or empty BaseURL inherits the call
// options and then the client defaults.
type Request struct {
	Path    string
	Method  Method
	Headers nethttp.Header
	Body    any
	Query   Query
	Timeout time.Duration
	BaseURL string
}

// Clone returns a copy of r whose headers and query can be modified freely.
// The body value is shared.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Headers = r.Headers.Clone()
	if cp.Headers == nil {
		cp.Headers = nethttp.Header{}
	}
	if r.Query != nil {
		cp.Query = append(Query(nil), r.Query...)
	}
	return &cp
}

// Response represents an HTTP response with tracking information.
// Data holds the parsed body: a JSON value, the raw text when the body is not
// JSON, or nil for empty bodies and 204 responses.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte
	Data       any
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
	Attempts    int
}

// Config holds the REST client configuration
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	DefaultHeaders nethttp.Header
}
