// Package errors provides coded domain errors for the conversion pipeline.
//
// Usage:
//
//	// In parsers - return typed errors
//	if off >= len(buf) {
//	    return 0, off, errors.TruncatedDataf("varint at offset %d", off)
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrTruncatedData) {
//	    continue
//	}
//
//	// Or switch on the Code for reporting
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeWriteError:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the pipeline.
const (
	CodeTruncatedData   Code = "TRUNCATED_DATA"
	CodeWriteError      Code = "WRITE_ERROR"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidation      Code = "VALIDATION"
	CodeProbeFailed     Code = "PROBE_FAILED"
	CodeTranscodeFailed Code = "TRANSCODE_FAILED"
	CodeDownloadFailed  Code = "DOWNLOAD_FAILED"
	CodeInternal        Code = "INTERNAL"
)

// Degraded reports whether a failure with this code still lets the file be
// converted, only with less information.
func (c Code) Degraded() bool {
	switch c {
	case CodeProbeFailed, CodeDownloadFailed, CodeNotFound:
		return true
	default:
		return false
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Details any    `json:"details,omitempty" yaml:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrTruncatedData   = &Error{Code: CodeTruncatedData, Message: "truncated data"}
	ErrWriteError      = &Error{Code: CodeWriteError, Message: "write error"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation error"}
	ErrProbeFailed     = &Error{Code: CodeProbeFailed, Message: "silence probe failed"}
	ErrTranscodeFailed = &Error{Code: CodeTranscodeFailed, Message: "transcode failed"}
	ErrDownloadFailed  = &Error{Code: CodeDownloadFailed, Message: "download failed"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
)

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Constructor functions for creating errors with custom messages.

// TruncatedData creates a truncated data error.
func TruncatedData(msg string) *Error {
	return &Error{Code: CodeTruncatedData, Message: msg}
}

// TruncatedDataf creates a truncated data error with formatted message.
func TruncatedDataf(format string, args ...any) *Error {
	return &Error{Code: CodeTruncatedData, Message: fmt.Sprintf(format, args...)}
}

// WriteError wraps a destination failure.
func WriteError(err error, path string) *Error {
	return &Error{Code: CodeWriteError, Message: "write " + path, cause: err}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
