// Package errors provides structured error types for devtoys.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library packages
//   - Machine-readable error codes for programmatic handling
//   - Source positions for malformed documents
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (bad flags, parameters)
//   - *_ERROR: Failures of one transformation attempt (syntax, structure, image codecs)
//   - UNSUPPORTED: A requested capability that is not available
//
// No error in this package is fatal to the process. Every error is scoped to a single
// transformation or encode attempt.
//
// # Usage
//
//	err := errors.Syntax(errors.Position{Offset: 12, Line: 1}, "unexpected %q", ",")
//	if errors.Is(err, errors.ErrCodeSyntax) {
//	    pos, _ := errors.GetPosition(err)
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDecode, origErr, "decode %s image", format)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Document errors
	ErrCodeSyntax     Code = "SYNTAX_ERROR"
	ErrCodeStructural Code = "STRUCTURAL_ERROR"

	// Image errors
	ErrCodeDecode   Code = "DECODE_ERROR"
	ErrCodeEncode   Code = "ENCODE_ERROR"
	ErrCodeReleased Code = "ARTIFACT_RELEASED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Position locates an error inside source text.
// Offset is a byte offset (-1 when unknown); Line is 1-based (0 when unknown).
type Position struct {
	Offset int64
	Line   int
}

// UnknownPosition is the zero-information position.
var UnknownPosition = Position{Offset: -1}

// Known reports whether any part of the position is available.
func (p Position) Known() bool {
	return p.Offset >= 0 || p.Line > 0
}

// String renders the position as "line 3, offset 41".
func (p Position) String() string {
	var parts []string
	if p.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", p.Line))
	}
	if p.Offset >= 0 {
		parts = append(parts, fmt.Sprintf("offset %d", p.Offset))
	}
	return strings.Join(parts, ", ")
}

// Error is a structured error with a code, optional position and optional cause.
type Error struct {
	Code    Code      // Machine-readable error code
	Message string    // Human-readable message
	Cause   error     // Underlying error (optional)
	Pos     *Position // Location in the source text (syntax errors only)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Pos != nil && e.Pos.Known() {
		msg = fmt.Sprintf("%s (%s)", msg, e.Pos)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
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

// Syntax creates a SYNTAX_ERROR for malformed source text at pos.
func Syntax(pos Position, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeSyntax,
		Message: fmt.Sprintf(format, args...),
		Pos:     &pos,
	}
}

// Structural creates a STRUCTURAL_ERROR for a value whose shape cannot be
// represented in the target format.
func Structural(format string, args ...any) *Error {
	return New(ErrCodeStructural, format, args...)
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

// GetPosition extracts the source position from an error, if one was recorded.
func GetPosition(err error) (Position, bool) {
	var e *Error
	if errors.As(err, &e) && e.Pos != nil && e.Pos.Known() {
		return *e.Pos, true
	}
	return UnknownPosition, false
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message and position without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Pos != nil && e.Pos.Known() {
			return fmt.Sprintf("%s (%s)", e.Message, e.Pos)
		}
		return e.Message
	}
	return err.Error()
}
