package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeHTTPStatus ErrorType = "http_status"
	ErrorTypeParsing    ErrorType = "parsing"
	ErrorTypeStructure  ErrorType = "structure"
	ErrorTypeAPI        ErrorType = "api"
	ErrorTypeFilesystem ErrorType = "filesystem"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a failure with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error wrapping err
func New(t ErrorType, code int, err error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    t,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
		Err:     err,
	}
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given error type
func Is(err error, t ErrorType) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Type == t
}

// StatusCode returns the HTTP status attached to err, or 0
func StatusCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsSuccessStatus checks if an HTTP status code is in the 2xx range
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
