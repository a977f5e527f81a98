package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// encodeTestMessage frames payload as a message of type t.
func encodeTestMessage(t *testing.T, mt MessageType, payload []byte) []byte {
	t.Helper()
	e := NewEncoder(nil)
	mark := e.Begin(mt)
	e.WriteBytes(payload)
	if err := e.Finish(mark); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return e.Bytes()
}

func readAll(n int) DecodeFunc {
	return func(d *Decoder) error {
		_, err := d.ReadBytes(n)
		return err
	}
}

func TestPeekHeader(t *testing.T) {
	data := []byte{byte(MessageState), 0x01, 0x02, 0x03}

	mt, size, ok := PeekHeader(data)
	if !ok {
		t.Fatal("PeekHeader() ok = false, want true")
	}
	if mt != MessageState {
		t.Errorf("Type = %v, want State", mt)
	}
	if size != 0x030201 {
		t.Errorf("Size = %#x, want 0x030201", size)
	}

	if _, _, ok := PeekHeader(data[:3]); ok {
		t.Error("PeekHeader() on 3 bytes ok = true, want false")
	}
}

func TestTryParseByteByByte(t *testing.T) {
	payload := []byte("hello, solitaire")
	msg := encodeTestMessage(t, MessageState, payload)
	trailer := []byte{0xAA, 0xBB}
	stream := append(append([]byte{}, msg...), trailer...)

	var buf []byte
	consumed := 0
	for i, b := range stream {
		buf = append(buf, b)

		var got []byte
		res, err := TryParse(&buf, MessageState, func(d *Decoder) error {
			p, err := d.ReadBytes(len(payload))
			got = append([]byte{}, p...)
			return err
		})
		if err != nil {
			t.Fatalf("byte %d: TryParse() error = %v", i, err)
		}

		switch {
		case i+1 < len(msg):
			if res != Incomplete {
				t.Fatalf("byte %d: result = %v, want Incomplete", i, res)
			}
			if len(buf) != i+1 {
				t.Fatalf("byte %d: buffer shrank to %d before message complete", i, len(buf))
			}
		case i+1 == len(msg):
			if res != Consumed {
				t.Fatalf("byte %d: result = %v, want Consumed", i, res)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("payload = %q, want %q", got, payload)
			}
			if len(buf) != 0 {
				t.Errorf("buffer len after consume = %d, want 0", len(buf))
			}
			consumed++
		default:
			if res != Incomplete {
				t.Fatalf("byte %d: trailing byte parsed as %v", i, res)
			}
		}
	}

	if consumed != 1 {
		t.Fatalf("consumed %d messages, want 1", consumed)
	}
	if !bytes.Equal(buf, trailer) {
		t.Errorf("leftover = %v, want %v", buf, trailer)
	}
}

func TestTryParseCoalesced(t *testing.T) {
	first := encodeTestMessage(t, MessageState, []byte{1, 2, 3})
	second := encodeTestMessage(t, MessageState, []byte{4, 5})
	buf := append(append([]byte{}, first...), second...)

	res, err := TryParse(&buf, MessageState, readAll(3))
	if err != nil || res != Consumed {
		t.Fatalf("first TryParse() = %v, %v; want Consumed", res, err)
	}
	if !bytes.Equal(buf, second) {
		t.Fatalf("buffer after first = %v, want %v", buf, second)
	}

	res, err = TryParse(&buf, MessageState, readAll(2))
	if err != nil || res != Consumed {
		t.Fatalf("second TryParse() = %v, %v; want Consumed", res, err)
	}
	if len(buf) != 0 {
		t.Errorf("buffer len = %d, want 0", len(buf))
	}
}

func TestTryParseNotThisType(t *testing.T) {
	msg := encodeTestMessage(t, MessageControls, make([]byte, 16))
	buf := append([]byte{}, msg...)

	res, err := TryParse(&buf, MessageState, func(d *Decoder) error {
		t.Fatal("decode called for wrong message type")
		return nil
	})
	if err != nil {
		t.Fatalf("TryParse() error = %v", err)
	}
	if res != NotThisType {
		t.Errorf("result = %v, want NotThisType", res)
	}
	if !bytes.Equal(buf, msg) {
		t.Error("buffer modified for wrong message type")
	}
}

func TestTryParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		decode  DecodeFunc
		wantErr error
	}{
		{
			name:    "short_payload",
			payload: []byte{1, 2},
			decode:  readAll(3),
			wantErr: io.ErrUnexpectedEOF,
		},
		{
			name:    "trailing_data",
			payload: []byte{1, 2, 3, 4},
			decode:  readAll(3),
			wantErr: ErrTrailingData,
		},
		{
			name:    "decoder_error",
			payload: []byte{1},
			decode:  func(d *Decoder) error { return ErrTooMany },
			wantErr: ErrTooMany,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := encodeTestMessage(t, MessageState, tc.payload)
			before := len(buf)

			_, err := TryParse(&buf, MessageState, tc.decode)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("TryParse() error = %v, want %v", err, tc.wantErr)
			}
			var perr *ProtocolError
			if !errors.As(err, &perr) {
				t.Fatalf("error %T is not *ProtocolError", err)
			}
			if perr.Type != MessageState || perr.Size != len(tc.payload) {
				t.Errorf("ProtocolError = %+v", perr)
			}
			if len(buf) != before {
				t.Error("buffer consumed on fatal error")
			}
		})
	}
}

func TestTryParseFixedSizeMismatch(t *testing.T) {
	// Only the header is buffered: the size is already known to be wrong.
	buf := []byte{byte(MessageControls), 5, 0, 0}

	_, err := TryParseFixed(&buf, MessageControls, 16, readAll(16))
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("TryParseFixed() error = %v, want ErrSizeMismatch", err)
	}
}

func TestTryParseEmptyBuffer(t *testing.T) {
	var buf []byte
	res, err := TryParse(&buf, MessageState, readAll(0))
	if err != nil || res != Incomplete {
		t.Fatalf("TryParse(empty) = %v, %v; want Incomplete, nil", res, err)
	}
}
