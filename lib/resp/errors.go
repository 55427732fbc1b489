package resp

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocol is matched (errors.Is) by every *ProtocolError
	ErrProtocol = errors.New("protocol error")

	// ErrUnsupported is returned by the Serializer for values it can not represent
	ErrUnsupported = errors.New("unsupported value")
)

// ProtocolError is returned by the Parser for malformed input.
// The position of the underlying stream is undefined after a ProtocolError,
// the connection should be considered unreliable.
type ProtocolError struct {
	Msg string
	Err error // optional cause (e.g. io.ErrUnexpectedEOF)
}

func newProtocolError(format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Msg, e.Err)
	}
	return "protocol error: " + e.Msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}
