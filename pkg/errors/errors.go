// Package errors provides structured error types for prfstim.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP preview API and the
//     session runner
//   - Machine-readable error codes for programmatic handling
//   - Enough context (condition, trial, region) to log a failed frame and stop
//
// # Error Codes
//
// The codes mirror the stimulus error taxonomy:
//   - CONFIGURATION, COUNT_MISMATCH: impossible or inconsistent layout requests
//   - INVALID_RANGE: jitter or attribute bounds out of order
//   - GEOMETRY_INVARIANT: a partition that does not cover the grid exactly once
//   - UNKNOWN_CONDITION: a condition name missing from the settings table
//   - INVALID_*, NOT_FOUND, INTERNAL_ERROR: input and plumbing failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidRange, "jitter min %v > max %v", lo, hi)
//	if errors.Is(err, errors.ErrCodeInvalidRange) {
//	    // Handle validation error
//	}
//
//	// Attach frame context before returning
//	return errors.Wrap(errors.ErrCodeGeometryInvariant, err, "frame rejected").
//	    WithTrial(trial).WithRegion("crossing0")
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Layout and scheduling errors
	ErrCodeConfiguration     Code = "CONFIGURATION"
	ErrCodeCountMismatch     Code = "COUNT_MISMATCH"
	ErrCodeInvalidRange      Code = "INVALID_RANGE"
	ErrCodeGeometryInvariant Code = "GEOMETRY_INVARIANT"
	ErrCodeUnknownCondition  Code = "UNKNOWN_CONDITION"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource errors
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

	// Frame context, set with the With* helpers. Trial is -1 when unset.
	Condition string
	Trial     int
	Region    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if ctx := e.context(); ctx != "" {
		fmt.Fprintf(&b, " (%s)", ctx)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) context() string {
	var parts []string
	if e.Condition != "" {
		parts = append(parts, "condition="+e.Condition)
	}
	if e.Trial >= 0 {
		parts = append(parts, fmt.Sprintf("trial=%d", e.Trial))
	}
	if e.Region != "" {
		parts = append(parts, "region="+e.Region)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCondition records the condition being resolved when the error occurred.
func (e *Error) WithCondition(name string) *Error {
	e.Condition = name
	return e
}

// WithTrial records the trial index.
func (e *Error) WithTrial(trial int) *Error {
	e.Trial = trial
	return e
}

// WithRegion records the region key (background, bar<i>, crossing<k>).
func (e *Error) WithRegion(key string) *Error {
	e.Region = key
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Trial:   -1,
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
		Trial:   -1,
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

// IsCanceled reports whether err stems from a canceled context, which
// covers both an interrupt and the session abort key.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsConfiguration reports whether err is a configuration error. A bar count
// mismatch is a kind of configuration error.
func IsConfiguration(err error) bool {
	code := GetCode(err)
	return code == ErrCodeConfiguration || code == ErrCodeCountMismatch
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
