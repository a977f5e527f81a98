package protocol

import "math"

// Encoder appends little-endian fixed-size values to a byte buffer.
// It never fails on its own; size limits are checked by Finish.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder that appends to buf.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

// Bytes returns the buffer with everything encoded so far.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the length of the underlying buffer.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteUint8 appends a single byte.
func (e *Encoder) WriteUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// WriteBytes appends raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteBool appends a boolean as 0x00 or 0x01.
func (e *Encoder) WriteBool(b bool) {
	if b {
		e.buf = append(e.buf, 0x01)
	} else {
		e.buf = append(e.buf, 0x00)
	}
}

// WriteUint32 appends a uint32 in little-endian byte order.
func (e *Encoder) WriteUint32(v uint32) {
	e.buf = append(e.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// WriteInt32 appends an int32 in little-endian byte order.
func (e *Encoder) WriteInt32(v int32) {
	e.WriteUint32(uint32(v))
}

// WriteFloat32 appends a float32 in IEEE 754 format (little-endian).
func (e *Encoder) WriteFloat32(v float32) {
	e.WriteUint32(math.Float32bits(v))
}

// Begin starts a framed message of type t. It appends the type byte and
// three placeholder size bytes and returns the mark Finish needs to patch
// the size in.
func (e *Encoder) Begin(t MessageType) int {
	e.buf = append(e.buf, byte(t), 0, 0, 0)
	return len(e.buf)
}

// Finish patches the payload size of the message started at mark.
func (e *Encoder) Finish(mark int) error {
	size := len(e.buf) - mark
	if size > MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	e.buf[mark-3] = byte(size)
	e.buf[mark-2] = byte(size >> 8)
	e.buf[mark-1] = byte(size >> 16)
	return nil
}
