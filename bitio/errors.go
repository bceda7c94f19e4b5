package bitio

import "errors"

var (
	// ErrOutOfRange is returned when a value does not fit the width or range it
	// was declared with. The value is never truncated.
	ErrOutOfRange = errors.New("value out of declared range")
	// ErrInvalidWidth is returned for bit widths outside of 1..64.
	ErrInvalidWidth = errors.New("invalid bit width")
	// ErrTruncated is returned when a read needs more bits than the buffer holds.
	ErrTruncated = errors.New("truncated input")
	// ErrMalformed is returned when the input is long enough but doesn't decode
	// to a valid value.
	ErrMalformed = errors.New("malformed input")
)
