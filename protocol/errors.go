package protocol

import (
	"errors"
	"fmt"
)

// ErrUnknownVariant is returned when a zero Variant is used.
var ErrUnknownVariant = errors.New("unknown frame variant")

// ProtocolError reports an exchange whose reply was not OK.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// Outcome is the classification of the last attempt
	Outcome Outcome
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Outcome.Message())
}

// IsProtocolError returns true if err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// PayloadTooLargeError is returned by Encode when the frame for a payload
// would not fit in MaxFrameSize.
type PayloadTooLargeError struct {
	Size int
	Max  int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload too large: %d bytes (max %d)", e.Size, e.Max)
}
