package http

import (
	nethttp "net/http"
	"time"
)

// Option customizes a single call.
type Option func(*callOptions)

type callOptions struct {
	headers nethttp.Header
	timeout *time.Duration
	baseURL *string
}

// WithHeader sets a header for this call, overriding the client default.
func WithHeader(key, value string) Option {
	return func(o *callOptions) {
		o.headers.Set(key, value)
	}
}

// WithHeaders sets several headers for this call.
func WithHeaders(headers map[string]string) Option {
	return func(o *callOptions) {
		for k, v := range headers {
			o.headers.Set(k, v)
		}
	}
}

// WithBearerToken sets "Authorization: Bearer <token>" for this call. An empty
// token leaves the header untouched.
func WithBearerToken(token string) Option {
	return func(o *callOptions) {
		if token != "" {
			o.headers.Set(HeaderAuthorization, "Bearer "+token)
		}
	}
}

// WithTimeout replaces the client timeout for this call. A non-positive
// value makes the call fail immediately with a timeout error.
func WithTimeout(d time.Duration) Option {
	return func(o *callOptions) {
		o.timeout = &d
	}
}

// WithBaseURL replaces the client base URL for this call.
func WithBaseURL(baseURL string) Option {
	return func(o *callOptions) {
		o.baseURL = &baseURL
	}
}

func collectOptions(opts []Option) *callOptions {
	o := &callOptions{headers: nethttp.Header{}}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
