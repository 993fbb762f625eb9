// Package errors defines the typed error vocabulary shared across the
// engine, its persistence layer, and its surfaces. Every fallible
// boundary wraps failures in an *AppError so callers can branch on the
// code without string-matching messages.
package errors

import (
	"errors"
	"fmt"
)

// Error codes. The core's own failure modes come first; the rest cover
// the service stack around it.
const (
	CodeUnknown            = "UNKNOWN_ERROR"
	CodeParseError         = "PARSE_ERROR"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
	CodeGasExhausted       = "GAS_EXHAUSTED"
	CodeUnknownTag         = "UNKNOWN_TAG"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeConfigError        = "CONFIG_ERROR"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeStorageError       = "STORAGE_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeTimeout            = "TIMEOUT_ERROR"
)

// AppError pairs an error code with a human-readable message and an
// optional wrapped cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code alone, so a wrapped instance compares
// equal to its sentinel regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an AppError with no wrapped cause.
func New(code string, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap creates an AppError around an underlying cause.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Sentinels for errors.Is checks.
var (
	ErrParseError         = New(CodeParseError, "parse error")
	ErrInvariantViolation = New(CodeInvariantViolation, "graph invariant violation")
	ErrGasExhausted       = New(CodeGasExhausted, "gas exhausted before reaching normal form")
	ErrUnknownTag         = New(CodeUnknownTag, "unknown node tag")
	ErrInvalidInput       = New(CodeInvalidInput, "invalid input")
	ErrConfigError        = New(CodeConfigError, "configuration error")
	ErrDatabaseError      = New(CodeDatabaseError, "database error")
	ErrStorageError       = New(CodeStorageError, "storage error")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrTimeout            = New(CodeTimeout, "operation timeout")
)

// IsParseError reports whether err carries CodeParseError.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParseError)
}

// IsInvariantViolation reports whether err carries
// CodeInvariantViolation — the fatal "a rewrite corrupted the graph"
// class that aborts the current reduction.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsGasExhausted reports whether err carries CodeGasExhausted. Gas
// exhaustion is a normal terminal outcome, not a fault; it is an error
// value only for callers that asked for strict completion.
func IsGasExhausted(err error) bool {
	return errors.Is(err, ErrGasExhausted)
}

// IsDatabaseError reports whether err carries CodeDatabaseError.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabaseError)
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// GetErrorCode extracts the code from any error, CodeUnknown if it
// carries none.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the message from an AppError, falling back
// to Error() for plain errors.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
