package http

import (
	"errors"
	"fmt"
)

// maxErrBodySize caps how much of an unexpected response is kept for the error.
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrUnexpectedStatus is the sentinel wrapped by StatusError.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrNetwork wraps failures to send a request or read its response.
	ErrNetwork = errors.New("network failure")
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: %d", ErrUnexpectedStatus, e.StatusCode)
	}
	return fmt.Sprintf("%v: %d, body: %s", ErrUnexpectedStatus, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}
