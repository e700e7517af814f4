package docstore

import (
	"context"
	"errors"
)

// Code classifies a failed remote operation. The values follow the canonical codes that
// managed document databases report, so UI layers can map them to fixed sentences.
type Code string

const (
	CodeCancelled         Code = "cancelled"
	CodeUnknown           Code = "unknown"
	CodeInvalidArgument   Code = "invalid-argument"
	CodeDeadlineExceeded  Code = "deadline-exceeded"
	CodeNotFound          Code = "not-found"
	CodeAlreadyExists     Code = "already-exists"
	CodePermissionDenied  Code = "permission-denied"
	CodeResourceExhausted Code = "resource-exhausted"
	CodeUnavailable       Code = "unavailable"
	CodeInternal          Code = "internal"
)

// Error is the normalized failure returned by every document client engine.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// NewError creates an *Error with the given code, message and optional cause.
func NewError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}

	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the Code of the first *Error in err's chain.
// Context errors map to cancelled/deadline-exceeded, everything else to unknown.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	var docErr *Error
	if errors.As(err, &docErr) {
		return docErr.Code
	}

	if errors.Is(err, context.Canceled) {
		return CodeCancelled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CodeDeadlineExceeded
	}

	return CodeUnknown
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// FromContextError converts a context error into an *Error, or returns nil for other errors.
func FromContextError(err error) *Error {
	switch {
	case errors.Is(err, context.Canceled):
		return NewError(CodeCancelled, "operation cancelled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(CodeDeadlineExceeded, "operation deadline exceeded", err)
	default:
		return nil
	}
}
