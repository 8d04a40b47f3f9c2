package http

import (
	"context"
	nethttp "net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/gaborage/relay-bricks/trace"
)

// RequestIDInterceptor sets X-Request-ID from the context, generating one when
// the context carries none. An explicit header is left untouched.
func RequestIDInterceptor() RequestInterceptorFunc {
	return func(ctx context.Context, req *Request) (*Request, error) {
		if req.Headers == nil {
			req.Headers = nethttp.Header{}
		}
		if req.Headers.Get(trace.HeaderXRequestID) != "" {
			return req, nil
		}
		req.Headers.Set(trace.HeaderXRequestID, trace.EnsureRequestID(ctx))
		return req, nil
	}
}

// TracePropagationInterceptor injects the active span context using the
// global propagator (W3C traceparent by default).
func TracePropagationInterceptor() RequestInterceptorFunc {
	return func(ctx context.Context, req *Request) (*Request, error) {
		if req.Headers == nil {
			req.Headers = nethttp.Header{}
		}
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Headers))
		return req, nil
	}
}
