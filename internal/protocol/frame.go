package protocol

import (
	"errors"
	"fmt"
)

// Frame constants.
const (
	// HeaderSize is the size of the message header: type + 24-bit size.
	HeaderSize = 4

	// MaxPayloadSize is the largest payload the 24-bit size field can carry.
	MaxPayloadSize = 1<<24 - 1
)

// MessageType is the first byte of every message.
type MessageType uint8

const (
	MessageControls MessageType = 'b' // client → server button state
	MessageState    MessageType = 's' // server → client full game state
)

// String returns the string representation of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageControls:
		return "Controls"
	case MessageState:
		return "State"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", uint8(t))
	}
}

// ParseResult tells the caller what TryParse did with the receive buffer.
type ParseResult int

const (
	// Incomplete means the message at the head of the buffer is not fully
	// buffered yet. Nothing was consumed; retry after the next poll.
	Incomplete ParseResult = iota
	// NotThisType means another message type is at the head of the buffer.
	NotThisType
	// Consumed means one message was decoded and removed from the buffer.
	Consumed
)

func (r ParseResult) String() string {
	switch r {
	case Incomplete:
		return "Incomplete"
	case NotThisType:
		return "NotThisType"
	case Consumed:
		return "Consumed"
	default:
		return "Unknown"
	}
}

// Protocol errors.
var (
	ErrSizeMismatch    = errors.New("protocol: declared size does not match message layout")
	ErrTrailingData    = errors.New("protocol: trailing data after message fields")
	ErrPayloadTooLarge = errors.New("protocol: payload exceeds 24-bit size field")
	ErrTooMany         = errors.New("protocol: count exceeds 8-bit length field")
	ErrUnexpectedType  = errors.New("protocol: unexpected message type")
)

// ProtocolError is a fatal decoding failure for a fully buffered message.
// The connection that produced it should be closed.
type ProtocolError struct {
	Type MessageType
	Size int
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: malformed %s message (size %d): %v", e.Type, e.Size, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// DecodeFunc decodes a single message payload.
type DecodeFunc func(d *Decoder) error

// PeekHeader decodes the header at the front of buf without consuming it.
// ok is false when fewer than HeaderSize bytes are buffered.
func PeekHeader(buf []byte) (t MessageType, size int, ok bool) {
	if len(buf) < HeaderSize {
		return 0, 0, false
	}
	size = int(buf[1]) | int(buf[2])<<8 | int(buf[3])<<16
	return MessageType(buf[0]), size, true
}

// TryParse attempts to decode a message of type want from the front of buf.
//
// The payload must be consumed exactly by decode: short payloads and
// trailing bytes both yield a *ProtocolError. On success exactly
// HeaderSize+size bytes are removed from the front of *buf.
func TryParse(buf *[]byte, want MessageType, decode DecodeFunc) (ParseResult, error) {
	return tryParse(buf, want, -1, decode)
}

// TryParseFixed is TryParse for messages with a fixed payload size. A
// declared size other than size is fatal as soon as the header is buffered.
func TryParseFixed(buf *[]byte, want MessageType, size int, decode DecodeFunc) (ParseResult, error) {
	return tryParse(buf, want, size, decode)
}

func tryParse(buf *[]byte, want MessageType, fixed int, decode DecodeFunc) (ParseResult, error) {
	t, size, ok := PeekHeader(*buf)
	if !ok {
		return Incomplete, nil
	}
	if t != want {
		return NotThisType, nil
	}
	if fixed >= 0 && size != fixed {
		return Incomplete, &ProtocolError{Type: t, Size: size, Err: ErrSizeMismatch}
	}
	total := HeaderSize + size
	if len(*buf) < total {
		return Incomplete, nil
	}

	d := NewDecoder((*buf)[HeaderSize:total])
	if err := decode(d); err != nil {
		return Incomplete, &ProtocolError{Type: t, Size: size, Err: err}
	}
	if !d.EOF() {
		return Incomplete, &ProtocolError{Type: t, Size: size, Err: ErrTrailingData}
	}

	n := copy(*buf, (*buf)[total:])
	*buf = (*buf)[:n]
	return Consumed, nil
}
