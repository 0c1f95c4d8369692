package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is returned when a line cannot be unwrapped or has no discriminator.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrMissingField is returned when a record is shorter than its type requires.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidNumber is returned when a field is not a number of the expected width.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrOutOfRange is returned when a field is outside its declared domain.
	ErrOutOfRange = errors.New("value out of range")
)

// ParseError describes the field that failed to parse.
type ParseError struct {
	Index int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("field %d (%s): %v", e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("field %d (%s) %q: %v", e.Index, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
