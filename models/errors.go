package models

import (
	"errors"
	"fmt"
)

// Error codes used in logs and internal error handling.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeTimeout      = "FETCH_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeParse        = "PARSE_FAILED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeNoResults    = "NO_RESULTS"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// Error is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type Error struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error.
func NewError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the error code for an error, or ErrCodeInternal for
// untyped errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// IsFatal reports whether an error must abort the whole run. Only invalid
// input (bad target URL, malformed search terms) qualifies; every other
// failure is contained at the request, strategy, or term scope.
func IsFatal(err error) bool {
	return CodeOf(err) == ErrCodeInvalidInput
}

// RetryableStatus reports whether an HTTP status code indicates a transient
// condition worth retrying. 5xx and 429 are retried; other 4xx are not.
func RetryableStatus(status int) bool {
	return status >= 500 || status == 429
}
