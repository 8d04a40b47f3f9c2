package http

import (
	"context"
	"sync"
)

// RequestInterceptorFunc transforms an outgoing request. Returning a nil
// request keeps the input unchanged.
type RequestInterceptorFunc func(ctx context.Context, req *Request) (*Request, error)

// ResponseInterceptorFunc transforms the parsed body of a successful response.
type ResponseInterceptorFunc func(ctx context.Context, data any) (any, error)

// RequestInterceptor is a named request stage.
type RequestInterceptor struct {
	Name string
	Fn   RequestInterceptorFunc
}

// ResponseInterceptor is a named response stage.
type ResponseInterceptor struct {
	Name string
	Fn   ResponseInterceptorFunc
}

// Pipeline is an append-only list of interceptors shared by every client it
// is given to. Stages run strictly in registration order. Registration is
// safe while requests are in flight, although registering at startup is the
// expected pattern.
type Pipeline struct {
	mu       sync.RWMutex
	request  []RequestInterceptor
	response []ResponseInterceptor
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// UseRequest registers a request interceptor.
func (p *Pipeline) UseRequest(name string, fn RequestInterceptorFunc) *Pipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.request = append(p.request, RequestInterceptor{Name: name, Fn: fn})
	return p
}

// UseResponse registers a response interceptor.
func (p *Pipeline) UseResponse(name string, fn ResponseInterceptorFunc) *Pipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.response = append(p.response, ResponseInterceptor{Name: name, Fn: fn})
	return p
}

// Len returns the total number of registered interceptors.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.request) + len(p.response)
}

// RunRequest folds req through the request interceptors. The first failing
// stage aborts the fold with an InterceptorError wrapping its error.
func (p *Pipeline) RunRequest(ctx context.Context, req *Request) (*Request, error) {
	if p == nil {
		return req, nil
	}
	p.mu.RLock()
	stages := p.request
	p.mu.RUnlock()

	current := req
	for _, stage := range stages {
		next, err := stage.Fn(ctx, current)
		if err != nil {
			return nil, NewInterceptorError("request", stage.Name, err)
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}

// RunResponse folds data through the response interceptors.
func (p *Pipeline) RunResponse(ctx context.Context, data any) (any, error) {
	if p == nil {
		return data, nil
	}
	p.mu.RLock()
	stages := p.response
	p.mu.RUnlock()

	current := data
	for _, stage := range stages {
		next, err := stage.Fn(ctx, current)
		if err != nil {
			return nil, NewInterceptorError("response", stage.Name, err)
		}
		current = next
	}
	return current, nil
}
