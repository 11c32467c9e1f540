// Package errors provides structured error types for seafoam.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the decoder, the graph model and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Precise reporting: decode failures carry the byte offset at which they
//     were detected, graph integrity failures carry the offending node id
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The taxonomy mirrors the stages that can fail:
//   - FORMAT: bad magic or an unrecognized record tag
//   - VERSION: unsupported format version (only when version checking is on)
//   - DECODE: truncation, invalid pool reference, malformed varint, dangling edge
//   - DUPLICATE_NODE / UNKNOWN_NODE: graph-model integrity violations
//   - CONFIGURATION: malformed annotator option values
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDecode, "truncated string").WithOffset(128)
//	if errors.Is(err, errors.ErrCodeDecode) {
//	    // Handle decode error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Decoder errors
	ErrCodeFormat  Code = "FORMAT"
	ErrCodeVersion Code = "VERSION"
	ErrCodeDecode  Code = "DECODE"

	// Graph model errors
	ErrCodeDuplicateNode Code = "DUPLICATE_NODE"
	ErrCodeUnknownNode   Code = "UNKNOWN_NODE"

	// Annotator configuration errors
	ErrCodeConfiguration Code = "CONFIGURATION"

	// Parser driven in the wrong order, or used after a failure
	ErrCodeInvalidState Code = "INVALID_STATE"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
	Offset  int64  // Byte offset into the input, -1 when not applicable
	NodeID  int    // Offending node id, -1 when not applicable
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s (at byte %d)", msg, e.Offset)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithOffset returns a copy of e positioned at the given byte offset.
func (e *Error) WithOffset(offset int64) *Error {
	c := *e
	c.Offset = offset
	return &c
}

// WithNode returns a copy of e that names the offending node.
func (e *Error) WithNode(id int) *Error {
	c := *e
	c.NodeID = id
	return &c
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Offset:  -1,
		NodeID:  -1,
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
		Offset:  -1,
		NodeID:  -1,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// OffsetOf returns the byte offset recorded on the first positioned *Error
// in the chain.
func OffsetOf(err error) (int64, bool) {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return 0, false
		}
		if e.Offset >= 0 {
			return e.Offset, true
		}
		err = e.Cause
	}
	return 0, false
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
