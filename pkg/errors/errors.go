// Package errors provides structured error types for flowdesk.
//
// Errors carry a machine-readable [Code] next to a human-readable message so
// the CLI, the terminal editor and the HTTP API can react to a failure
// without matching on strings. The editor turns coded errors into inline
// notices; the server maps them onto HTTP status codes.
//
// # Error Codes
//
// Codes follow a loose category prefix:
//   - INVALID_*: input validation failures (ids, paths, options)
//   - *_FAILURE: collaborator I/O failures (reading or writing a flowchart)
//   - NOT_FOUND: a node, edge or file does not exist
//   - INTERNAL_ERROR: anything unexpected
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDuplicateID, "node %q already exists", id)
//	if errors.Is(err, errors.ErrCodeDuplicateID) {
//	    // keep the old id, show a notice
//	}
//
//	err := errors.Wrap(errors.ErrCodeReadFailure, cause, "read %s", path)
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidID      Code = "INVALID_ID"
	ErrCodeInvalidKind    Code = "INVALID_KIND"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeInvalidOptions Code = "INVALID_OPTIONS"
	ErrCodeDuplicateID    Code = "DUPLICATE_ID"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Collaborator failures
	ErrCodeReadFailure  Code = "READ_FAILURE"
	ErrCodeWriteFailure Code = "WRITE_FAILURE"
	ErrCodeLayout       Code = "LAYOUT_FAILURE"
	ErrCodeTimeout      Code = "TIMEOUT"

	// Editor state errors
	ErrCodeSaveInProgress Code = "SAVE_IN_PROGRESS"
	ErrCodeWrongMode      Code = "WRONG_MODE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface. The cause is appended unless the
// message already quotes it.
func (e *Error) Error() string {
	if e.Cause != nil && !strings.Contains(e.Message, e.Cause.Error()) {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps a code onto the HTTP status the API answers with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidID, ErrCodeInvalidKind,
		ErrCodeInvalidPath, ErrCodeInvalidOptions:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeFileNotFound, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeDuplicateID, ErrCodeSaveInProgress, ErrCodeWrongMode:
		return http.StatusConflict
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeReadFailure, ErrCodeWriteFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
