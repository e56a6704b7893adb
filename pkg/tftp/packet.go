package tftp

import (
	"encoding/binary"
	"fmt"
)

// TFTP opcodes as defined by RFC 1350 and RFC 2347.
const (
	opRRQ   uint16 = 1
	opWRQ   uint16 = 2
	opDATA  uint16 = 3
	opACK   uint16 = 4
	opERROR uint16 = 5
	opOACK  uint16 = 6
)

// ModeOctet is the only transfer mode this client speaks. Netascii newline
// translation is deliberately unsupported.
const ModeOctet = "octet"

// Packet is the closed set of TFTP wire packets. Every kind knows how to
// marshal itself into a datagram payload; decoding is done by Parse, which
// dispatches on the leading opcode.
type Packet interface {
	// Opcode returns the 2-byte operation code identifying the packet kind.
	Opcode() uint16
	// Marshal encodes the packet into a fresh datagram payload.
	Marshal() []byte
}

// ReadRequest is an RRQ packet asking the server to send a file.
type ReadRequest struct {
	Filename string
	Mode     string
	Options  Options
}

// WriteRequest is a WRQ packet asking the server to accept a file.
type WriteRequest struct {
	Filename string
	Mode     string
	Options  Options
}

// Data is a DATA packet carrying one block of file content. A payload
// shorter than the negotiated block size marks the end of the transfer.
type Data struct {
	Block   uint16
	Payload []byte
}

// Ack acknowledges a single DATA block. Block 0 acknowledges a WRQ.
type Ack struct {
	Block uint16
}

// Error is an ERROR packet; receiving one terminates the transfer.
type Error struct {
	Code    uint16
	Message string
}

// OptionAck is an OACK packet (RFC 2347) confirming which of the requested
// options the server granted.
type OptionAck struct {
	Options Options
}

func (p *ReadRequest) Opcode() uint16  { return opRRQ }
func (p *WriteRequest) Opcode() uint16 { return opWRQ }
func (p *Data) Opcode() uint16         { return opDATA }
func (p *Ack) Opcode() uint16          { return opACK }
func (p *Error) Opcode() uint16        { return opERROR }
func (p *OptionAck) Opcode() uint16    { return opOACK }

func appendUint16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func appendRequest(b []byte, op uint16, filename, mode string, opts Options) []byte {
	b = appendUint16(b, op)
	b = append(b, filename...)
	b = append(b, 0)
	b = append(b, mode...)
	b = append(b, 0)
	return opts.appendWire(b)
}

func (p *ReadRequest) Marshal() []byte {
	return appendRequest(nil, opRRQ, p.Filename, p.Mode, p.Options)
}

func (p *WriteRequest) Marshal() []byte {
	return appendRequest(nil, opWRQ, p.Filename, p.Mode, p.Options)
}

func (p *Data) Marshal() []byte {
	b := make([]byte, 0, 4+len(p.Payload))
	b = appendUint16(b, opDATA)
	b = appendUint16(b, p.Block)
	return append(b, p.Payload...)
}

func (p *Ack) Marshal() []byte {
	b := make([]byte, 0, 4)
	b = appendUint16(b, opACK)
	return appendUint16(b, p.Block)
}

func (p *Error) Marshal() []byte {
	b := make([]byte, 0, 4+len(p.Message)+1)
	b = appendUint16(b, opERROR)
	b = appendUint16(b, p.Code)
	b = append(b, p.Message...)
	return append(b, 0)
}

func (p *OptionAck) Marshal() []byte {
	b := appendUint16(nil, opOACK)
	return p.Options.appendWire(b)
}

// Parse decodes a received datagram into one of the six packet kinds.
// Malformed datagrams are reported as a *DecodeError.
func Parse(b []byte) (Packet, error) {
	if len(b) < 2 {
		return nil, &DecodeError{Err: ErrPacketTooShort}
	}
	op := binary.BigEndian.Uint16(b)
	switch op {
	case opRRQ, opWRQ:
		return parseRequest(op, b)
	case opDATA:
		return parseData(b)
	case opACK:
		return parseAck(b)
	case opERROR:
		return parseError(b)
	case opOACK:
		return parseOptionAck(b)
	default:
		return nil, newDecodeError(op, ErrUnknownOpcode)
	}
}

// nextString consumes the NUL-terminated ASCII string starting at b and
// returns it along with the remaining bytes after the terminator.
func nextString(b []byte) (string, []byte, error) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:], nil
		}
	}
	return "", nil, ErrPacketTooShort
}

func parseRequest(op uint16, b []byte) (Packet, error) {
	filename, rest, err := nextString(b[2:])
	if err != nil {
		return nil, newDecodeError(op, err)
	}
	mode, rest, err := nextString(rest)
	if err != nil {
		return nil, newDecodeError(op, err)
	}
	opts, err := parseOptions(rest)
	if err != nil {
		return nil, newDecodeError(op, err)
	}
	if op == opRRQ {
		return &ReadRequest{Filename: filename, Mode: mode, Options: opts}, nil
	}
	return &WriteRequest{Filename: filename, Mode: mode, Options: opts}, nil
}

func parseData(b []byte) (Packet, error) {
	if len(b) < 4 {
		return nil, newDecodeError(opDATA, ErrPacketTooShort)
	}
	return &Data{
		Block:   blockNumber(b),
		Payload: b[4:],
	}, nil
}

func parseAck(b []byte) (Packet, error) {
	if len(b) < 4 {
		return nil, newDecodeError(opACK, ErrPacketTooShort)
	}
	return &Ack{Block: blockNumber(b)}, nil
}

func parseError(b []byte) (Packet, error) {
	if len(b) < 4 {
		return nil, newDecodeError(opERROR, ErrPacketTooShort)
	}
	msg := b[4:]
	// The trailing NUL is not required on receive, but strip it when present
	// so the message round-trips cleanly.
	if n := len(msg); n > 0 && msg[n-1] == 0 {
		msg = msg[:n-1]
	}
	return &Error{Code: blockNumber(b), Message: string(msg)}, nil
}

func parseOptionAck(b []byte) (Packet, error) {
	opts, err := parseOptions(b[2:])
	if err != nil {
		return nil, newDecodeError(opOACK, err)
	}
	return &OptionAck{Options: opts}, nil
}

// blockNumber combines bytes 2 and 3 of a datagram into the 16-bit field
// shared by DATA, ACK and ERROR packets. Block numbers are modular: 65535
// wraps to 0.
func blockNumber(b []byte) uint16 {
	return uint16(b[2])*256 + uint16(b[3])
}

func packetName(p Packet) string {
	switch p.(type) {
	case *ReadRequest:
		return "RRQ"
	case *WriteRequest:
		return "WRQ"
	case *Data:
		return "DATA"
	case *Ack:
		return "ACK"
	case *Error:
		return "ERROR"
	case *OptionAck:
		return "OACK"
	default:
		return fmt.Sprintf("opcode %d", p.Opcode())
	}
}
