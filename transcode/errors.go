package transcode

import "fmt"

/*
Errors returned when JSON documents do not fit the schema they are converted
against.
*/

////////////////////////////////////////////////////////////////////////////////

// ConversionError is returned when a JSON value cannot be converted to the
// type of the field it is found in.
type ConversionError struct {
	Field    string
	Expected string
	Got      string
}

// Error returns a string representation of the error.
func (e ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s in field %s", e.Got, e.Expected, e.Field)
}

// Is returns true if the target error is a ConversionError.
func (e ConversionError) Is(target error) bool {
	_, ok := target.(ConversionError)
	return ok
}

// LogFields returns the structured fields of the error.
func (e ConversionError) LogFields() []any {
	return []any{"error_kind", "conversion", "field", e.Field, "expected", e.Expected}
}

// UnknownFieldError is returned for JSON object keys that are not fields of
// the message type.
type UnknownFieldError struct {
	Type  string
	Field string
}

// Error returns a string representation of the error.
func (e UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %s in %s", e.Field, e.Type)
}

// Is returns true if the target error is an UnknownFieldError.
func (e UnknownFieldError) Is(target error) bool {
	_, ok := target.(UnknownFieldError)
	return ok
}

// LogFields returns the structured fields of the error.
func (e UnknownFieldError) LogFields() []any {
	return []any{"error_kind", "unknown_field", "type", e.Type, "field", e.Field}
}
