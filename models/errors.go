package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeSession           = "SESSION_ERROR"
	ErrCodeNavigationTimeout = "NAVIGATION_TIMEOUT"
	ErrCodeNavigation        = "NAVIGATION_FAILED"
	ErrCodeInvalidPage       = "INVALID_PAGE"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInternal          = "INTERNAL_ERROR"

	// API-only codes, never produced by the extractor.
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// ExtractError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ExtractError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// NewExtractError creates a new ExtractError.
func NewExtractError(code, message string, err error) *ExtractError {
	return &ExtractError{Code: code, Message: message, Err: err}
}

// AsExtractError returns err as an *ExtractError, wrapping unknown errors as
// INTERNAL_ERROR.
func AsExtractError(err error) *ExtractError {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee
	}
	return NewExtractError(ErrCodeInternal, err.Error(), err)
}

// CodeOf returns the taxonomy code of err, or "" for a nil error.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return AsExtractError(err).Code
}
