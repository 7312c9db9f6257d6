package billingapi

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a billing API failure.
type ErrorKind string

const (
	// KindNetwork means the request never produced an HTTP response.
	KindNetwork ErrorKind = "network"
	// KindHTTPStatus means the API answered with a non-2xx status.
	KindHTTPStatus ErrorKind = "http_status"
	// KindDecode means the response body could not be decoded or failed
	// validation.
	KindDecode ErrorKind = "decode"
)

// Error is returned by every Client operation that fails.
type Error struct {
	Kind ErrorKind
	// Op names the failed operation, e.g. "submit payment".
	Op string
	// StatusCode is set for KindHTTPStatus.
	StatusCode int
	// Body holds a truncated response body for KindHTTPStatus.
	Body string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		if e.Body != "" {
			return fmt.Sprintf("billing api: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("billing api: %s: status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("billing api: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a billing API error, or "" when err is not one.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}
