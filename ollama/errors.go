package ollama

import (
	"errors"
	"fmt"
)

// Error codes classifying failures of a generation exchange.
const (
	// CodeTransport marks a transient transport failure (connection refused,
	// timeout, malformed response body). Retried inside the client.
	CodeTransport = "TRANSPORT"

	// CodeBackendUnavailable is returned once the retry budget is exhausted.
	// It carries the last underlying transport error.
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"

	// CodeBackendRejected marks a well-formed error response from the backend
	// indicating a permanent failure (e.g. unknown model). Never retried.
	CodeBackendRejected = "BACKEND_REJECTED"

	// CodeInvalidRequest marks a request that failed local validation before
	// any network exchange took place.
	CodeInvalidRequest = "INVALID_REQUEST"
)

// BackendError represents a failure talking to the generation backend.
type BackendError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, enabling errors.Is and errors.As
func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError creates a new BackendError with the given code and message
func NewBackendError(code, message string, err error) *BackendError {
	return &BackendError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsUnavailable reports whether err is a BackendError with code
// BACKEND_UNAVAILABLE, i.e. the retry budget was exhausted.
func IsUnavailable(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Code == CodeBackendUnavailable
}

// IsRejected reports whether err is a permanent backend-side rejection.
func IsRejected(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Code == CodeBackendRejected
}
