// Package client runs the player side: it turns key events into Controls
// messages and mirrors the server's State messages.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"duel/internal/controls"
	"duel/internal/game"
	"duel/internal/model"
	"duel/internal/protocol"
	"duel/internal/transport"
)

var ErrDisconnected = errors.New("client: server closed the connection")

type Options struct {
	TickInterval time.Duration
	Logger       *slog.Logger
}

// Session is one connection to a game server. It is driven by a single
// goroutine.
type Session struct {
	client   *transport.Client
	game     *game.Game
	controls controls.Controls
	keys     <-chan KeyEvent

	tickInterval time.Duration
	logger       *slog.Logger

	closed bool
	over   bool
	states int
}

func NewSession(c *transport.Client, keys <-chan KeyEvent, opts Options) *Session {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 30
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default().With("component", "client")
	}
	return &Session{
		client:       c,
		game:         game.New(),
		keys:         keys,
		tickInterval: opts.TickInterval,
		logger:       opts.Logger,
	}
}

// Players is the last received player list; the local player comes first.
func (s *Session) Players() []*model.Player {
	return s.game.Players()
}

// Self is the local player, or nil before the first state arrives.
func (s *Session) Self() *model.Player {
	if ps := s.game.Players(); len(ps) > 0 {
		return ps[0]
	}
	return nil
}

// Over reports whether a received state showed a finished player.
func (s *Session) Over() bool {
	return s.over
}

// Run steps the session once per tick until the game is over, ctx is
// done or the connection fails.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		if err := s.Step(0); err != nil {
			return err
		}
		if s.over {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Step sends the current controls, polls the connection for up to wait and
// applies every buffered State message.
func (s *Session) Step(wait time.Duration) error {
	s.applyKeys()

	conn := s.client.Conn
	if err := s.controls.Send(&conn.Send); err != nil {
		return err
	}
	s.controls.ResetDowns()

	if err := s.client.Poll(wait, s.handleEvent); err != nil {
		return err
	}
	if err := s.drain(); err != nil {
		conn.Close()
		return err
	}
	if s.closed && !s.over {
		return ErrDisconnected
	}
	return nil
}

func (s *Session) applyKeys() {
	for {
		select {
		case ev, ok := <-s.keys:
			if !ok {
				s.keys = nil
				return
			}
			ApplyKey(&s.controls, ev)
		default:
			return
		}
	}
}

func (s *Session) handleEvent(c *transport.Connection, ev transport.Event) {
	switch ev {
	case transport.EventOpen:
		s.logger.Info("connected", "remote", c.RemoteAddr)
	case transport.EventClose:
		s.closed = true
	}
}

func (s *Session) drain() error {
	conn := s.client.Conn
	for {
		got, err := s.game.RecvState(&conn.Recv)
		if err != nil {
			return fmt.Errorf("client: %w", err)
		}
		if !got {
			break
		}
		s.states++
	}
	if t, size, ok := protocol.PeekHeader(conn.Recv); ok && t != protocol.MessageState {
		return fmt.Errorf("client: %w", &protocol.ProtocolError{Type: t, Size: size, Err: protocol.ErrUnexpectedType})
	}

	if !s.over && s.game.Done() {
		s.over = true
		self := s.Self()
		s.logger.Info("game over",
			"player", self.Name,
			"score", self.Score,
			"left", len(self.Neg),
			"scores", game.ScoreLine(s.game.Players()))
	}
	return nil
}
