package cdr

import (
	"errors"
	"fmt"
)

/*
Errors that can be returned by the cdr package. Every error carries the
structured context needed to locate the failing byte, exposed for structured
logging through LogFields.
*/

////////////////////////////////////////////////////////////////////////////////

var (
	// ErrInvalidUTF8 is returned when a decoded string is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8 in string")

	// ErrTypeMismatch is wrapped by encode errors for values of the wrong kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrOverflow is wrapped by encode errors for values that do not fit the
	// target type.
	ErrOverflow = errors.New("value overflows target type")

	// ErrMaxDepthExceeded is wrapped by encode errors when nesting is deeper
	// than MaxDepth.
	ErrMaxDepthExceeded = errors.New("maximum nesting depth exceeded")
)

// BufferTooShortError is returned when a read or alignment runs past the end
// of the buffer.
type BufferTooShortError struct {
	Requested int
	Available int
	Position  int
}

// Error returns a string representation of the error.
func (e BufferTooShortError) Error() string {
	return fmt.Sprintf("buffer too short: requested %d bytes at position %d, %d available",
		e.Requested, e.Position, e.Available)
}

// Is returns true if the target error is a BufferTooShortError.
func (e BufferTooShortError) Is(target error) bool {
	_, ok := target.(BufferTooShortError)
	return ok
}

// LogFields returns the structured fields of the error.
func (e BufferTooShortError) LogFields() []any {
	return []any{
		"error_kind", "buffer_too_short",
		"requested", e.Requested,
		"available", e.Available,
		"position", e.Position,
	}
}

func NewBufferTooShortError(requested, available, position int) error {
	return BufferTooShortError{Requested: requested, Available: available, Position: position}
}

// AlignmentError is returned for an alignment that is not a positive power of
// two.
type AlignmentError struct {
	Expected int
	Actual   int
}

// Error returns a string representation of the error.
func (e AlignmentError) Error() string {
	return fmt.Sprintf("alignment error: expected power of two up to %d, got %d", e.Expected, e.Actual)
}

// Is returns true if the target error is an AlignmentError.
func (e AlignmentError) Is(target error) bool {
	_, ok := target.(AlignmentError)
	return ok
}

// LogFields returns the structured fields of the error.
func (e AlignmentError) LogFields() []any {
	return []any{"error_kind", "alignment", "expected", e.Expected, "actual", e.Actual}
}

// LengthExceededError is returned when a length prefix is larger than
// MaxArrayLength.
type LengthExceededError struct {
	Length       int
	Position     int
	BufferLength int
}

// Error returns a string representation of the error.
func (e LengthExceededError) Error() string {
	return fmt.Sprintf("length %d at position %d exceeds maximum of %d (buffer length %d)",
		e.Length, e.Position, MaxArrayLength, e.BufferLength)
}

// Is returns true if the target error is a LengthExceededError.
func (e LengthExceededError) Is(target error) bool {
	_, ok := target.(LengthExceededError)
	return ok
}

// LogFields returns the structured fields of the error.
func (e LengthExceededError) LogFields() []any {
	return []any{
		"error_kind", "length_exceeded",
		"length", e.Length,
		"position", e.Position,
		"buffer_length", e.BufferLength,
	}
}

// FieldDecodeError adds field context to a lower-level decode failure.
type FieldDecodeError struct {
	Field    string
	Type     string
	Position int
	Cause    error
}

// Error returns a string representation of the error.
func (e FieldDecodeError) Error() string {
	return fmt.Sprintf("failed to decode field %s (%s) at position %d: %v", e.Field, e.Type, e.Position, e.Cause)
}

// Unwrap returns the underlying failure.
func (e FieldDecodeError) Unwrap() error {
	return e.Cause
}

// Is returns true if the target error is a FieldDecodeError.
func (e FieldDecodeError) Is(target error) bool {
	_, ok := target.(FieldDecodeError)
	return ok
}

// LogFields returns the structured fields of the error, including those of
// the underlying failure.
func (e FieldDecodeError) LogFields() []any {
	fields := []any{"field", e.Field, "field_type", e.Type, "field_position", e.Position}
	return append(fields, LogFields(e.Cause)...)
}

func newFieldDecodeError(field, typ string, position int, cause error) error {
	var fde FieldDecodeError
	if errors.As(cause, &fde) {
		return cause
	}
	return FieldDecodeError{Field: field, Type: typ, Position: position, Cause: cause}
}

// UnsupportedError is returned for features the codec does not handle.
type UnsupportedError struct {
	Feature string
}

// Error returns a string representation of the error.
func (e UnsupportedError) Error() string {
	return "unsupported: " + e.Feature
}

// Is returns true if the target error is an UnsupportedError.
func (e UnsupportedError) Is(target error) bool {
	_, ok := target.(UnsupportedError)
	return ok
}

// LogFields returns the structured fields of the error.
func (e UnsupportedError) LogFields() []any {
	return []any{"error_kind", "unsupported", "feature", e.Feature}
}

func NewUnsupportedError(format string, args ...any) error {
	return UnsupportedError{Feature: fmt.Sprintf(format, args...)}
}

// EncodeError is returned when a message cannot be encoded. It wraps one of
// ErrTypeMismatch, ErrOverflow or ErrMaxDepthExceeded.
type EncodeError struct {
	Codec   string
	Field   string
	Message string
	Err     error
}

// Error returns a string representation of the error.
func (e EncodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s encode error: %s", e.Codec, e.Message)
	}
	return fmt.Sprintf("%s encode error in field %s: %s", e.Codec, e.Field, e.Message)
}

// Unwrap returns the error class.
func (e EncodeError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is an EncodeError.
func (e EncodeError) Is(target error) bool {
	_, ok := target.(EncodeError)
	return ok
}

// LogFields returns the structured fields of the error.
func (e EncodeError) LogFields() []any {
	return []any{"error_kind", "encode", "codec", e.Codec, "field", e.Field}
}

func newEncodeError(field string, class error, format string, args ...any) error {
	return EncodeError{Codec: "CDR", Field: field, Message: fmt.Sprintf(format, args...), Err: class}
}

// InvariantViolationError indicates a bug: a malformed plan or a plan that
// disagrees with its schema.
type InvariantViolationError struct {
	Message string
}

// Error returns a string representation of the error.
func (e InvariantViolationError) Error() string {
	return "invariant violation: " + e.Message
}

// Is returns true if the target error is an InvariantViolationError.
func (e InvariantViolationError) Is(target error) bool {
	_, ok := target.(InvariantViolationError)
	return ok
}

// LogFields returns the structured fields of the error.
func (e InvariantViolationError) LogFields() []any {
	return []any{"error_kind", "invariant_violation"}
}

func newInvariantViolationError(format string, args ...any) error {
	return InvariantViolationError{Message: fmt.Sprintf(format, args...)}
}

// LogFields returns the structured fields of the first error in the chain
// that has any, suitable for passing to log.Errorw.
func LogFields(err error) []any {
	var fielder interface{ LogFields() []any }
	if errors.As(err, &fielder) {
		return fielder.LogFields()
	}
	return nil
}
