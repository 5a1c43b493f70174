package srec

import (
	"errors"
	"fmt"
)

// Record decode errors. Decode wraps one of these with details; test with
// errors.Is.
var (
	ErrInvalidHeader   = errors.New("invalid record header")
	ErrInvalidChar     = errors.New("invalid character")
	ErrInvalidType     = errors.New("invalid record type")
	ErrTooShort        = errors.New("record too short")
	ErrTooLong         = errors.New("record too long")
	ErrInvalidChecksum = errors.New("invalid record checksum")
)

// Image build errors.
var (
	ErrAddressOutOfRange = errors.New("address out of range")
	ErrEmptyImage        = errors.New("image is empty")
)

// LineError carries the line number of a record that could not be used.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
