package apiclient

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is the cause of a RequestFailedError whose request stayed
// unauthorized after refreshing; the stored session has been cleared.
var ErrUnauthorized = errors.New("session expired, please log in again")

// ErrEmptyResponse is returned when a call succeeded but carried no usable data.
var ErrEmptyResponse = errors.New("no suggestion data returned")

// RequestFailedError is a non-success response. Message is the response body text,
// or a per-endpoint fallback when the body was empty.
type RequestFailedError struct {
	Operation string
	Status    int
	Message   string
	Cause     error
}

func (e *RequestFailedError) Error() string {
	return e.Message
}

func (e *RequestFailedError) Unwrap() error {
	return e.Cause
}

// Describe includes the operation and status for logs.
func (e *RequestFailedError) Describe() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Operation, e.Status, e.Message)
}

// TransportError wraps failures that happened before a response was received.
type TransportError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ValidationError reports a request rejected locally, before anything was sent.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
