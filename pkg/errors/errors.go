package errors

import (
	"errors"
	"fmt"
)

// AppError is the error type carried across layer boundaries. It wraps an
// optional cause and carries a code for transport mapping.
type AppError struct {
	Code    ErrorCode
	Message string
	Detail  string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// HTTPStatus returns the transport status for this error's code.
func (e *AppError) HTTPStatus() int { return HTTPStatusForCode(e.Code) }

// WithDetail attaches free-form diagnostic detail and returns the error.
func (e *AppError) WithDetail(format string, args ...any) *AppError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// New creates an AppError with no cause.
func New(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates a cause with a code and message. Returns nil for a nil
// cause so call sites can wrap unconditionally.
func Wrap(cause error, code ErrorCode, format string, args ...any) *AppError {
	if cause == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// GetCode extracts the ErrorCode from err, unwrapping as needed.
// Non-application errors report ErrCodeInternal.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var app *AppError
	return errors.As(err, &app) && app.Code == code
}

// As is a convenience re-export so callers need only this package.
func As(err error, target any) bool { return errors.As(err, target) }

// Is re-exports errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }
