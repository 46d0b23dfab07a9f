// Package apperr provides coded errors for business-rule and validation
// failures. Infrastructure failures stay plain wrapped errors.
package apperr

import "errors"

// Error is a domain error with a stable code
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Internal message for logs
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code of the first domain error in the chain
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries code
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Terminal errors describe a business rule rejection, never a transient fault
func Terminal(err error) bool {
	return CodeOf(err) != CodeUnknown
}
