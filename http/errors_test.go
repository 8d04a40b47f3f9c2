package http

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientErrorKinds(t *testing.T) {
	cause := errors.New("dial failed")

	network := NewNetworkError("request failed", cause)
	assert.Equal(t, NetworkError, network.Kind)
	assert.Equal(t, "request failed: dial failed", network.Error())
	assert.ErrorIs(t, network, cause)
	assert.Zero(t, network.Status)

	timeout := NewTimeoutError()
	assert.Equal(t, TimeoutError, timeout.Kind)
	assert.Equal(t, "Request timed out", timeout.Error())
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)

	validation := NewValidationError("bad", "method")
	assert.Equal(t, "bad (field: method)", validation.Error())
	assert.Nil(t, validation.Unwrap())

	interceptor := NewInterceptorError("request", "auth", cause)
	assert.Equal(t, `request interceptor "auth" failed: dial failed`, interceptor.Error())
	assert.ErrorIs(t, interceptor, cause)
}

func TestErrorHelpersThroughWrapping(t *testing.T) {
	httpErr := NewHTTPError(404, "Not Found", []byte(`{"message":"missing"}`))
	wrapped := fmt.Errorf("calling upstream: %w", httpErr)

	assert.True(t, IsErrorType(wrapped, HTTPError))
	assert.False(t, IsErrorType(wrapped, NetworkError))
	assert.True(t, IsHTTPStatusError(wrapped, 404))
	assert.False(t, IsHTTPStatusError(wrapped, 500))
	assert.False(t, IsErrorType(nil, HTTPError))
	assert.False(t, IsHTTPStatusError(errors.New("plain"), 404))

	extracted, ok := AsClientError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"message":"missing"}`), extracted.RawBody)
}

func TestIsSuccessStatus(t *testing.T) {
	assert.True(t, IsSuccessStatus(200))
	assert.True(t, IsSuccessStatus(299))
	assert.False(t, IsSuccessStatus(199))
	assert.False(t, IsSuccessStatus(300))
}
