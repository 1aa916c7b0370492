// Package apperrors defines the error taxonomy shared by the pipeline, the
// CLI and the HTTP server.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code categorizes errors for consistent handling across the application.
type Code int

const (
	// CodeInternal indicates an unexpected failure
	CodeInternal Code = iota
	// CodeLoad indicates a source that is missing, unreadable or decodes empty
	CodeLoad
	// CodeValidation indicates a shape or parameter precondition was violated
	CodeValidation
	// CodeLimitExceeded indicates a duration or size policy threshold was exceeded
	CodeLimitExceeded
	// CodeURLFetch indicates a remote audio download failed
	CodeURLFetch
)

// String returns the string representation of the error code.
func (c Code) String() string {
	switch c {
	case CodeInternal:
		return "internal"
	case CodeLoad:
		return "load"
	case CodeValidation:
		return "validation"
	case CodeLimitExceeded:
		return "limit_exceeded"
	case CodeURLFetch:
		return "url_fetch"
	default:
		return fmt.Sprintf("unknown_code_%d", c)
	}
}

// Error is a categorized error. Message always carries the offending values
// so callers can act on it without inspecting Err.
type Error struct {
	Code    Code
	Message string
	Field   string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithField records which input field caused the error.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// Sentinels usable with errors.Is.
var (
	ErrLoad          = &Error{Code: CodeLoad, Message: "audio load failed"}
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrLimitExceeded = &Error{Code: CodeLimitExceeded, Message: "limit exceeded"}
	ErrURLFetch      = &Error{Code: CodeURLFetch, Message: "url fetch failed"}
)

// Load creates a load error wrapping err (which may be nil).
func Load(message string, err error) *Error {
	return &Error{Code: CodeLoad, Message: message, Err: err}
}

// Validation creates a validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// AudioTooLong reports a duration over the serving limit.
func AudioTooLong(durationS, limitS float64) *Error {
	return &Error{
		Code:    CodeLimitExceeded,
		Message: fmt.Sprintf("Audio is %.1fs but the limit is %.1fs", durationS, limitS),
		Field:   "duration",
	}
}

// AudioTooLarge reports a file over the upload limit.
func AudioTooLarge(sizeMB, limitMB float64) *Error {
	return &Error{
		Code:    CodeLimitExceeded,
		Message: fmt.Sprintf("File is %.1f MB but the limit is %.0f MB", sizeMB, limitMB),
		Field:   "size",
	}
}

// URLFetch creates a remote fetch error wrapping err (which may be nil).
func URLFetch(message string, err error) *Error {
	return &Error{Code: CodeURLFetch, Message: message, Err: err}
}

func IsLoad(err error) bool          { return errors.Is(err, ErrLoad) }
func IsValidation(err error) bool    { return errors.Is(err, ErrValidation) }
func IsLimitExceeded(err error) bool { return errors.Is(err, ErrLimitExceeded) }
func IsURLFetch(err error) bool      { return errors.Is(err, ErrURLFetch) }

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatus maps err to the status code the server responds with.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeLimitExceeded:
		if appErr.Field == "size" {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case CodeLoad:
		return http.StatusUnprocessableEntity
	case CodeURLFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
