package server

import (
	"errors"
	"net/http"
)

// ErrorResponse is the JSON envelope written for every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError is an error whose status and message are safe to return to the
// caller verbatim. Handlers return it and the server error handler renders it.
type APIError struct {
	Status  int
	Message string
	Err     error
}

// NewAPIError creates an APIError with the given status and message.
func NewAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithCause attaches the underlying error, reachable through errors.Is/As.
func (e *APIError) WithCause(err error) *APIError {
	e.Err = err
	return e
}

// Response returns the envelope for this error.
func (e *APIError) Response() ErrorResponse {
	return ErrorResponse{Code: e.Status, Message: e.Message}
}

// NewBadRequestError creates a 400 error.
func NewBadRequestError(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, message)
}

// NewMethodNotAllowedError creates a 405 error.
func NewMethodNotAllowedError(message string) *APIError {
	if message == "" {
		message = http.StatusText(http.StatusMethodNotAllowed)
	}
	return NewAPIError(http.StatusMethodNotAllowed, message)
}

// NewInternalServerError creates a 500 error whose message is shown as is.
func NewInternalServerError(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, message)
}

// NewTooManyRequestsError creates a 429 error.
func NewTooManyRequestsError(message string) *APIError {
	if message == "" {
		message = "Too many requests"
	}
	return NewAPIError(http.StatusTooManyRequests, message)
}

// NewServiceUnavailableError creates a 503 error.
func NewServiceUnavailableError(message string) *APIError {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return NewAPIError(http.StatusServiceUnavailable, message)
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr, true
	}
	return nil, false
}
