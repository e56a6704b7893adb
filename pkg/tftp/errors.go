package tftp

import (
	"errors"
	"fmt"
)

// Decode failure reasons wrapped by DecodeError.
var (
	ErrPacketTooShort = errors.New("packet too short")
	ErrUnknownOpcode  = errors.New("unknown opcode")
)

// DecodeError reports a datagram that could not be parsed as a TFTP packet.
// hasOpcode separates "opcode 0 on the wire" (itself invalid) from a
// datagram too short to carry an opcode at all.
type DecodeError struct {
	Opcode    uint16
	hasOpcode bool
	Err       error
}

func newDecodeError(op uint16, err error) *DecodeError {
	return &DecodeError{Opcode: op, hasOpcode: true, Err: err}
}

func (e *DecodeError) Error() string {
	if !e.hasOpcode {
		return fmt.Sprintf("tftp: decode: %v", e.Err)
	}
	return fmt.Sprintf("tftp: decode opcode %d: %v", e.Opcode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TFTP error codes, RFC 1350 §5 and RFC 2347.
const (
	ErrCodeNotDefined       uint16 = 0
	ErrCodeFileNotFound     uint16 = 1
	ErrCodeAccessViolation  uint16 = 2
	ErrCodeDiskFull         uint16 = 3
	ErrCodeIllegalOperation uint16 = 4
	ErrCodeUnknownTID       uint16 = 5
	ErrCodeFileExists       uint16 = 6
	ErrCodeNoSuchUser       uint16 = 7
	ErrCodeOptionRefused    uint16 = 8
)

var errCodeNames = map[uint16]string{
	ErrCodeNotDefined:       "not defined",
	ErrCodeFileNotFound:     "file not found",
	ErrCodeAccessViolation:  "access violation",
	ErrCodeDiskFull:         "disk full or allocation exceeded",
	ErrCodeIllegalOperation: "illegal TFTP operation",
	ErrCodeUnknownTID:       "unknown transfer ID",
	ErrCodeFileExists:       "file already exists",
	ErrCodeNoSuchUser:       "no such user",
	ErrCodeOptionRefused:    "option negotiation refused",
}

// ErrCodeName returns the canonical name of a TFTP error code.
func ErrCodeName(code uint16) string {
	if name, ok := errCodeNames[code]; ok {
		return name
	}
	return "unknown error code"
}

// RemoteError is an ERROR packet received from the peer. It aborts the
// transfer immediately; nothing is retried.
type RemoteError struct {
	Code    uint16
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tftp: remote error %d (%s)", e.Code, ErrCodeName(e.Code))
	}
	return fmt.Sprintf("tftp: remote error %d (%s): %s", e.Code, ErrCodeName(e.Code), e.Message)
}
