// Package controls accumulates per-player button state between ticks and
// carries it over the wire as the Controls message.
package controls

import (
	"duel/internal/protocol"
)

// MessageSize is the fixed payload size of a Controls message: one byte per button.
const MessageSize = 16

// Button tracks whether a button is held and how many new presses happened
// since the last tick.
type Button struct {
	Pressed bool
	Downs   uint8
}

// Press records a new press edge. Downs saturates at 255.
func (b *Button) Press() {
	if b.Downs < 255 {
		b.Downs++
	}
	b.Pressed = true
}

// Release records the button going up.
func (b *Button) Release() {
	b.Pressed = false
}

func (b *Button) encode() uint8 {
	v := b.Downs & 0x7f
	if b.Pressed {
		v |= 0x80
	}
	return v
}

// merge folds an incoming wire byte into the button: pressed is
// overwritten, downs is accumulated and saturates at 255.
func (b *Button) merge(v uint8) {
	b.Pressed = v&0x80 != 0
	d := uint32(b.Downs) + uint32(v&0x7f)
	if d > 255 {
		d = 255
	}
	b.Downs = uint8(d)
}

// Controls is the full button set of one player.
type Controls struct {
	Left, Right, Up, Down Button
	Jump                  Button

	// One..Nine and Zero select piles: 1 stock, 2-5 active piles,
	// 6-9 foundations, 0 the browsable pile.
	One, Two, Three, Four, Five Button
	Six, Seven, Eight, Nine     Button
	Zero                        Button

	Quit Button
}

// buttons returns the buttons in wire order.
func (c *Controls) buttons() [MessageSize]*Button {
	return [MessageSize]*Button{
		&c.Left, &c.Right, &c.Up, &c.Down,
		&c.Jump,
		&c.One, &c.Two, &c.Three, &c.Four, &c.Five,
		&c.Six, &c.Seven, &c.Eight, &c.Nine,
		&c.Zero,
		&c.Quit,
	}
}

// ResetDowns zeroes every press counter. The game engine calls it once the
// tick has consumed the controls.
func (c *Controls) ResetDowns() {
	for _, b := range c.buttons() {
		b.Downs = 0
	}
}

// Send appends a Controls message to buf.
// Downs above 127 are truncated to their low 7 bits on the wire.
func (c *Controls) Send(buf *[]byte) error {
	e := protocol.NewEncoder(*buf)
	mark := e.Begin(protocol.MessageControls)
	for _, b := range c.buttons() {
		e.WriteUint8(b.encode())
	}
	if err := e.Finish(mark); err != nil {
		return err
	}
	*buf = e.Bytes()
	return nil
}

// Recv merges a Controls message from the front of buf into c. It reports
// whether a message was consumed. A declared size other than MessageSize is
// a fatal *protocol.ProtocolError.
func (c *Controls) Recv(buf *[]byte) (bool, error) {
	res, err := protocol.TryParseFixed(buf, protocol.MessageControls, MessageSize, func(d *protocol.Decoder) error {
		var raw [MessageSize]uint8
		for i := range raw {
			v, err := d.ReadUint8()
			if err != nil {
				return err
			}
			raw[i] = v
		}
		for i, b := range c.buttons() {
			b.merge(raw[i])
		}
		return nil
	})
	return res == protocol.Consumed, err
}
