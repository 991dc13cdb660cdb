package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
//
// The scraping engine classifies failures close to their source and carries
// the code through the call stack, so the API boundary does a single
// exhaustive code→status mapping instead of matching on message substrings.
const (
	// Terminal: further attempts cannot change the outcome.
	ErrCodeProfileNotFound = "PROFILE_NOT_FOUND"
	ErrCodeProfilePrivate  = "PROFILE_PRIVATE"

	// Retryable: a different proxy or a later attempt may succeed.
	ErrCodeProxyConnection   = "PROXY_CONNECTION_FAILED"
	ErrCodeConnectionTimeout = "CONNECTION_TIMED_OUT"
	ErrCodeConnectionRefused = "CONNECTION_REFUSED"
	ErrCodeNetwork           = "NETWORK_ERROR"
	ErrCodeNavigationTimeout = "NAVIGATION_TIMEOUT"
	ErrCodeBotDetected       = "BOT_DETECTED"

	// Raised after every attempt failed; wraps the last underlying cause.
	ErrCodeScrapeExhausted = "SCRAPE_EXHAUSTED"

	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInvalidInput = "INVALID_INPUT"
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

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// Terminal reports whether the error class cannot be fixed by retrying:
// a profile that does not exist or is private stays that way on attempt 2.
func (e *ScrapeError) Terminal() bool {
	switch e.Code {
	case ErrCodeProfileNotFound, ErrCodeProfilePrivate, ErrCodeInvalidInput:
		return true
	}
	return false
}

// Retryable reports whether another scrape attempt may succeed. Unclassified
// errors count as retryable; the retry controller gives them the benefit of
// the doubt, matching how transient browser failures surface.
func Retryable(err error) bool {
	var se *ScrapeError
	if errors.As(err, &se) {
		return !se.Terminal()
	}
	return true
}

// CodeOf extracts the error code, unwrapping SCRAPE_EXHAUSTED to its last
// underlying cause so the API can report the status of what actually failed.
// Unclassified errors map to INTERNAL_ERROR.
func CodeOf(err error) string {
	var se *ScrapeError
	if !errors.As(err, &se) {
		return ErrCodeInternal
	}
	if se.Code == ErrCodeScrapeExhausted && se.Err != nil {
		var inner *ScrapeError
		if errors.As(se.Err, &inner) {
			return inner.Code
		}
	}
	return se.Code
}
