package schema

import (
	"fmt"
)

/*
Errors that can be returned by the schema package and the message definition
parsers built on top of it.
*/

////////////////////////////////////////////////////////////////////////////////

// ParseError is returned when message definition text cannot be parsed.
type ParseError struct {
	Context string
	Message string
	Cause   error
}

// Error returns a string representation of the error.
func (e ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to parse %s: %s: %v", e.Context, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Context, e.Message)
}

// Unwrap returns the underlying parser error, if any.
func (e ParseError) Unwrap() error {
	return e.Cause
}

// Is returns true if the target error is a ParseError.
func (e ParseError) Is(target error) bool {
	_, ok := target.(ParseError)
	return ok
}

// LogFields returns the structured fields of the error.
func (e ParseError) LogFields() []any {
	return []any{"error_kind", "parse", "context", e.Context}
}

func NewParseError(context string, message string, cause error) error {
	return ParseError{Context: context, Message: message, Cause: cause}
}

// InvalidSchemaError is returned when a schema is structurally invalid.
type InvalidSchemaError struct {
	Message string
}

// Error returns a string representation of the error.
func (e InvalidSchemaError) Error() string {
	return "invalid schema: " + e.Message
}

// Is returns true if the target error is an InvalidSchemaError.
func (e InvalidSchemaError) Is(target error) bool {
	_, ok := target.(InvalidSchemaError)
	return ok
}

// LogFields returns the structured fields of the error.
func (e InvalidSchemaError) LogFields() []any {
	return []any{"error_kind", "invalid_schema"}
}

func NewInvalidSchemaError(format string, args ...any) error {
	return InvalidSchemaError{Message: fmt.Sprintf(format, args...)}
}

// TypeNotFoundError is returned when a type name does not resolve to any type
// in a schema, under any of its name variants.
type TypeNotFoundError struct {
	Name string
}

// Error returns a string representation of the error.
func (e TypeNotFoundError) Error() string {
	return fmt.Sprintf("type not found: '%s'", e.Name)
}

// Is returns true if the target error is a TypeNotFoundError.
func (e TypeNotFoundError) Is(target error) bool {
	_, ok := target.(TypeNotFoundError)
	return ok
}

// LogFields returns the structured fields of the error.
func (e TypeNotFoundError) LogFields() []any {
	return []any{"error_kind", "type_not_found", "type", e.Name}
}

func NewTypeNotFoundError(name string) error {
	return TypeNotFoundError{Name: name}
}
