package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeFetchFailed  = "FETCH_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeStore        = "STORE_FAILURE"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// NewFetchError reports a page fetch that failed either in transport or
// with a non-200 response. The stored record must not be touched.
func NewFetchError(message string, err error) *ScrapeError {
	return &ScrapeError{Code: ErrCodeFetchFailed, Message: message, Err: err}
}

// IsFetchError reports whether err carries the FETCH_FAILED code.
func IsFetchError(err error) bool {
	return HasCode(err, ErrCodeFetchFailed)
}

// HasCode reports whether any ScrapeError in err's chain has the given code.
func HasCode(err error, code string) bool {
	var se *ScrapeError
	return errors.As(err, &se) && se.Code == code
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
