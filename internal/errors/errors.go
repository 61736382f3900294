// Package errors provides unified error handling with structured codes.
// Codes map one-to-one onto the failure taxonomy the orchestrators act on.
package errors

import "fmt"

// Code identifies a failure class.
type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeInternal          Code = "INTERNAL"
	CodeUnavailable       Code = "UNAVAILABLE"
	CodeTimeout           Code = "TIMEOUT"
	CodePermissionDenied  Code = "PERMISSION_DENIED"
	CodeNetworkFailure    Code = "NETWORK_FAILURE"
	CodeMalformedResponse Code = "MALFORMED_RESPONSE"
	CodeEmptyTranscript   Code = "EMPTY_TRANSCRIPT"
	CodeStorageCorrupt    Code = "STORAGE_CORRUPT"
	CodeInvalidState      Code = "INVALID_STATE"
)

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// IsCode checks if an error or any of its causes carries the given code.
func IsCode(err error, code Code) bool {
	for err != nil {
		appErr, ok := err.(*AppError)
		if !ok {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// CodeOf returns the code of the outermost AppError, or CodeUnknown.
func CodeOf(err error) Code {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeUnknown
}

// IsRetryable returns true if the error is potentially retryable.
func IsRetryable(err error) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	switch appErr.Code {
	case CodeUnavailable, CodeTimeout, CodeNetworkFailure:
		return true
	default:
		return false
	}
}
