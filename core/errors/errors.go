// Package errors provides the structured error type shared by every bindx package.
//
// Overview:
//   - Responsibility: Classify binding failures with codes and keep the cause chain
//   - Key Types: Code for error classification, E for structured errors
//   - Concurrency Model: All functions are safe for concurrent use
//   - Error Semantics: Compatible with standard library wrapping (errors.Is / errors.As)
//   - Performance Notes: Errors are only built on failure paths
//
// Usage:
//
//	err := errors.New(errors.CodeRequiredMissing, "required configuration not found")
//	wrapped := errors.Wrap(errors.CodeAssignment, "bindx.scalar", cause)
//	code := errors.CodeOf(err)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents an error classification code.
type Code string

// Binding error taxonomy. Every failure surfaced by a configurator carries
// exactly one of these codes.
const (
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeNameResolution      Code = "NAME_RESOLUTION"
	CodeNoConverter         Code = "NO_CONVERTER"
	CodeMarkerCompatibility Code = "MARKER_COMPATIBILITY"
	CodeRequiredMissing     Code = "REQUIRED_MISSING"
	CodeConversion          Code = "CONVERSION"
	CodeAssignment          Code = "ASSIGNMENT"
	CodeSource              Code = "SOURCE"
	CodeInternal            Code = "INTERNAL"
)

// E represents a structured error with code, operation, message, and details.
type E struct {
	Code    Code   // Error classification code
	Op      string // Operation that failed
	Err     error  // Underlying error (may be nil)
	Msg     string // Human-readable message
	Details []any  // Additional structured details (e.g. field context, raw values)
}

// Error implements the error interface.
func (e *E) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	e.writeMessage(&b)
	return b.String()
}

// writeMessage appends the message and the cause. A directly wrapped *E
// with the same code is written without repeating its code.
func (e *E) writeMessage(b *strings.Builder) {
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err == nil {
		return
	}
	if inner, ok := e.Err.(*E); ok && inner.Code == e.Code {
		inner.writeMessage(b)
		return
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
}

// Unwrap returns the underlying error for error unwrapping.
func (e *E) Unwrap() error {
	return e.Err
}

// New creates a new structured error with the given code and message.
func New(code Code, msg string) error {
	return &E{
		Code: code,
		Msg:  msg,
	}
}

// Newf creates a new structured error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &E{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new structured error wrapping an existing error.
// The operation name helps identify where the error occurred.
func Wrap(code Code, op string, err error) error {
	return &E{
		Code: code,
		Op:   op,
		Err:  err,
	}
}

// Wrapf creates a new structured error wrapping an existing error with formatted message.
func Wrapf(code Code, op string, err error, format string, args ...any) error {
	return &E{
		Code: code,
		Op:   op,
		Err:  err,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// CodeOf extracts the error code from the outermost structured error.
// Returns empty string if the error doesn't have a code.
func CodeOf(err error) Code {
	var e *E
	if err != nil && errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// As is a convenience wrapper around the standard library's errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is a convenience wrapper around the standard library's errors.Is.
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// DetailOf walks the error chain and returns the first detail of type T
// attached to any structured error.
func DetailOf[T any](err error) (T, bool) {
	var zero T
	for err != nil {
		if e, ok := err.(*E); ok {
			for _, d := range e.Details {
				if v, ok := d.(T); ok {
					return v, true
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return zero, false
}

// Builder provides a fluent interface for constructing errors.
type Builder struct {
	code    Code
	op      string
	err     error
	msg     string
	details []any
}

// Build constructs a new error with the builder's configuration.
func Build(code Code) *Builder {
	return &Builder{code: code}
}

// WithOp sets the operation that failed.
func (b *Builder) WithOp(op string) *Builder {
	b.op = op
	return b
}

// WithErr wraps an underlying error.
func (b *Builder) WithErr(err error) *Builder {
	b.err = err
	return b
}

// WithMsg sets a human-readable message.
func (b *Builder) WithMsg(msg string) *Builder {
	b.msg = msg
	return b
}

// WithMsgf sets a formatted human-readable message.
func (b *Builder) WithMsgf(format string, args ...any) *Builder {
	b.msg = fmt.Sprintf(format, args...)
	return b
}

// WithDetails adds structured details to the error.
func (b *Builder) WithDetails(details ...any) *Builder {
	b.details = append(b.details, details...)
	return b
}

// Err builds and returns the error.
func (b *Builder) Err() error {
	return &E{
		Code:    b.code,
		Op:      b.op,
		Err:     b.err,
		Msg:     b.msg,
		Details: b.details,
	}
}
