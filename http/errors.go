package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorType defines the category of client error
type ErrorType string

const (
	NetworkError     ErrorType = "network"
	TimeoutError     ErrorType = "timeout"
	HTTPError        ErrorType = "http"
	ValidationError  ErrorType = "validation"
	InterceptorError ErrorType = "interceptor"
)

// TimeoutMessage is the message carried by every timeout error.
const TimeoutMessage = "Request timed out"

// ClientError is the single error type returned by the client. Status is zero
// unless Kind is HTTPError. Body holds the parsed error body (JSON value or
// text) and RawBody the bytes as received.
type ClientError struct {
	Kind    ErrorType
	Status  int
	Body    any
	RawBody []byte
	Message string
	Err     error
}

func (e *ClientError) Error() string {
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, wrapped error) *ClientError {
	msg := message
	if wrapped != nil {
		msg = fmt.Sprintf("%s: %v", message, wrapped)
	}
	return &ClientError{Kind: NetworkError, Message: msg, Err: wrapped}
}

// NewTimeoutError creates a new timeout error wrapping context.DeadlineExceeded.
func NewTimeoutError() *ClientError {
	return &ClientError{Kind: TimeoutError, Message: TimeoutMessage, Err: context.DeadlineExceeded}
}

// NewHTTPError creates an error for a non-2xx response. The message is taken
// from a JSON "message" field, then the reason phrase, then "HTTP Error: N".
func NewHTTPError(status int, statusText string, rawBody []byte) *ClientError {
	body := parseBody(rawBody)
	return &ClientError{
		Kind:    HTTPError,
		Status:  status,
		Body:    body,
		RawBody: rawBody,
		Message: httpErrorMessage(status, statusText, body),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) *ClientError {
	msg := message
	if field != "" {
		msg = fmt.Sprintf("%s (field: %s)", message, field)
	}
	return &ClientError{Kind: ValidationError, Message: msg}
}

// NewInterceptorError creates a new interceptor error
func NewInterceptorError(stage, name string, wrapped error) *ClientError {
	return &ClientError{
		Kind:    InterceptorError,
		Message: fmt.Sprintf("%s interceptor %q failed: %v", stage, name, wrapped),
		Err:     wrapped,
	}
}

func httpErrorMessage(status int, statusText string, body any) string {
	if m, ok := body.(map[string]any); ok {
		if msg, ok := m["message"].(string); ok && msg != "" {
			return msg
		}
	}
	if statusText != "" {
		return statusText
	}
	return fmt.Sprintf("HTTP Error: %d", status)
}

// parseBody decodes raw as JSON, falling back to the raw text. Empty input
// yields nil.
func parseBody(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return string(raw)
}

// AsClientError extracts a *ClientError from err's chain.
func AsClientError(err error) (*ClientError, bool) {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr, true
	}
	return nil, false
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	clientErr, ok := AsClientError(err)
	return ok && clientErr.Kind == errorType
}

// IsHTTPStatusError checks if an error is an HTTP error with a specific status code
func IsHTTPStatusError(err error, statusCode int) bool {
	clientErr, ok := AsClientError(err)
	return ok && clientErr.Kind == HTTPError && clientErr.Status == statusCode
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
