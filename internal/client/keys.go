package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"duel/internal/controls"
)

var ErrBadKeyLine = errors.New("client: bad key line")

// KeyEvent is one key going down or up.
type KeyEvent struct {
	Key  string
	Down bool
}

// ParseKeyLine reads "+key" (press) or "-key" (release).
func ParseKeyLine(line string) (KeyEvent, error) {
	line = strings.TrimSpace(line)
	if len(line) < 2 {
		return KeyEvent{}, fmt.Errorf("%w: %q", ErrBadKeyLine, line)
	}
	ev := KeyEvent{Key: strings.ToLower(line[1:])}
	switch line[0] {
	case '+':
		ev.Down = true
	case '-':
	default:
		return KeyEvent{}, fmt.Errorf("%w: %q", ErrBadKeyLine, line)
	}
	if button(&controls.Controls{}, ev.Key) == nil {
		return KeyEvent{}, fmt.Errorf("%w: unknown key %q", ErrBadKeyLine, ev.Key)
	}
	return ev, nil
}

// button maps a key name to its button, or nil.
func button(c *controls.Controls, key string) *controls.Button {
	switch key {
	case "a":
		return &c.Left
	case "d":
		return &c.Right
	case "w":
		return &c.Up
	case "s":
		return &c.Down
	case "space":
		return &c.Jump
	case "1":
		return &c.One
	case "2":
		return &c.Two
	case "3":
		return &c.Three
	case "4":
		return &c.Four
	case "5":
		return &c.Five
	case "6":
		return &c.Six
	case "7":
		return &c.Seven
	case "8":
		return &c.Eight
	case "9":
		return &c.Nine
	case "0":
		return &c.Zero
	case "x":
		return &c.Quit
	}
	return nil
}

// ApplyKey folds ev into c. A press of a key that is already held is an
// auto-repeat and is ignored.
func ApplyKey(c *controls.Controls, ev KeyEvent) bool {
	b := button(c, ev.Key)
	if b == nil {
		return false
	}
	if ev.Down {
		if b.Pressed {
			return false
		}
		b.Press()
		return true
	}
	b.Release()
	return true
}

// ReadKeys parses key lines from r into out until r ends or ctx is done.
// Unparseable lines are reported through onError and skipped.
func ReadKeys(ctx context.Context, r io.Reader, out chan<- KeyEvent, onError func(error)) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		ev, err := ParseKeyLine(line)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return sc.Err()
}
