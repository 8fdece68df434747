package models

import (
	"errors"
	"fmt"
)

// Error codes attached to every failure a run can produce.
const (
	ErrCodeBrowserLaunch  = "BROWSER_LAUNCH_FAILED"
	ErrCodeInvalidURL     = "INVALID_URL"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeNoChapters     = "NO_CHAPTERS"
	ErrCodeNavigation     = "NAVIGATION_FAILED"
	ErrCodeTimeout        = "TIMEOUT"
	ErrCodeNoNewTab       = "NO_NEW_TAB"
	ErrCodeContentMissing = "CONTENT_NOT_FOUND"
	ErrCodeEmptyContent   = "EMPTY_CONTENT"
	ErrCodeWriteFailed    = "WRITE_FAILED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error
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

// CodeOf returns the code of the first ScrapeError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsFatal reports whether err must abort the whole run rather than a
// single chapter.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ErrCodeBrowserLaunch, ErrCodeInvalidURL, ErrCodeInvalidInput, ErrCodeNoChapters:
		return true
	}
	return false
}
