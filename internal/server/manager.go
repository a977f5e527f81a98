package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"duel/internal/database"
	"duel/internal/game"
	"duel/internal/metrics"
	"duel/internal/model"
	"duel/internal/protocol"
	"duel/internal/transport"
)

const tracerName = "duel/server"

// Poller is the transport side of the tick loop.
type Poller interface {
	Poll(timeout time.Duration, cb transport.Callback) error
}

// Manager runs the authoritative game: it maps connections to players,
// feeds their controls into the game and sends state back every tick.
// Everything except Run's Poll wait happens on the goroutine calling Run.
type Manager struct {
	game    *game.Game
	hub     Poller
	store   *database.Store
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger

	tickInterval time.Duration
	maxPlayers   int

	players map[*transport.Connection]*model.Player
	conns   map[*model.Player]*transport.Connection
}

type Options struct {
	TickInterval time.Duration
	MaxPlayers   int
	Logger       *slog.Logger
}

func NewManager(g *game.Game, hub Poller, store *database.Store, m *metrics.Metrics, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default().With("component", "server")
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 30
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = 2
	}
	return &Manager{
		game:         g,
		hub:          hub,
		store:        store,
		metrics:      m,
		tracer:       otel.Tracer(tracerName),
		logger:       opts.Logger,
		tickInterval: opts.TickInterval,
		maxPlayers:   opts.MaxPlayers,
		players:      make(map[*transport.Connection]*model.Player),
		conns:        make(map[*model.Player]*transport.Connection),
	}
}

// Run polls the transport between ticks until ctx is done or the
// transport is closed.
func (m *Manager) Run(ctx context.Context) error {
	next := time.Now().Add(m.tickInterval)
	for ctx.Err() == nil {
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		if err := m.hub.Poll(wait, m.HandleEvent); err != nil {
			if errors.Is(err, transport.ErrClosed) {
				return nil
			}
			return err
		}

		now := time.Now()
		if now.Before(next) {
			continue
		}
		m.Tick(ctx, m.tickInterval)
		next = next.Add(m.tickInterval)
		if next.Before(now) {
			// Fell behind; skip the missed ticks.
			next = now.Add(m.tickInterval)
		}
	}
	return nil
}

// HandleEvent is the transport callback.
func (m *Manager) HandleEvent(c *transport.Connection, ev transport.Event) {
	switch ev {
	case transport.EventOpen:
		m.join(c)
	case transport.EventRecv:
		m.drain(c)
	case transport.EventClose:
		m.leave(c)
	}
}

func (m *Manager) join(c *transport.Connection) {
	if len(m.players) >= m.maxPlayers {
		m.logger.Warn("game full, turning connection away", "conn", c.ID, "remote", c.RemoteAddr)
		m.metrics.Connection("rejected")
		c.Close()
		return
	}

	p := m.game.SpawnPlayer()
	m.players[c] = p
	m.conns[p] = c

	if err := m.store.OpenSession(c.ID.String(), p.Name, c.RemoteAddr, time.Now()); err != nil {
		m.logger.Error("record session", "conn", c.ID, "error", err)
	}
	m.metrics.Connection("accepted")
	m.metrics.SetPlayers(len(m.players))
	m.logger.Info("player joined", "player", p.Name, "conn", c.ID, "remote", c.RemoteAddr)
}

// drain merges every complete Controls message buffered on c. Any other
// message type, or a malformed Controls message, drops the connection.
func (m *Manager) drain(c *transport.Connection) {
	p, ok := m.players[c]
	if !ok {
		c.Recv = c.Recv[:0]
		return
	}
	for !c.Closed() {
		got, err := p.Controls.Recv(&c.Recv)
		if err != nil {
			m.fail(c, err)
			return
		}
		if got {
			continue
		}
		if t, size, ok := protocol.PeekHeader(c.Recv); ok && t != protocol.MessageControls {
			m.fail(c, &protocol.ProtocolError{Type: t, Size: size, Err: protocol.ErrUnexpectedType})
		}
		return
	}
}

func (m *Manager) fail(c *transport.Connection, err error) {
	msgType := "unknown"
	var perr *protocol.ProtocolError
	if errors.As(err, &perr) {
		msgType = perr.Type.String()
	}
	m.logger.Warn("dropping connection", "conn", c.ID, "error", err)
	m.metrics.ProtocolError(msgType)
	c.Close()
}

func (m *Manager) leave(c *transport.Connection) {
	p, ok := m.players[c]
	if !ok {
		return
	}
	delete(m.players, c)
	delete(m.conns, p)

	if err := m.game.RemovePlayer(p); err != nil {
		m.logger.Error("remove player", "player", p.Name, "error", err)
	}
	if err := m.store.CloseSession(c.ID.String()); err != nil {
		m.logger.Error("close session", "conn", c.ID, "error", err)
	}
	m.metrics.Connection("closed")
	m.metrics.SetPlayers(len(m.players))
	m.logger.Info("player left", "player", p.Name, "conn", c.ID)
}

// Tick advances the game once and queues the new state for every player.
func (m *Manager) Tick(ctx context.Context, elapsed time.Duration) game.TickReport {
	start := time.Now()
	_, span := m.tracer.Start(ctx, "game.tick",
		trace.WithAttributes(attribute.Int("duel.players", len(m.players))))
	defer span.End()

	report := m.game.Update(elapsed)

	for _, mv := range report.Moves {
		m.metrics.Move(mv.OK)
		m.logger.Debug("move", "player", mv.Player.Name, "from", mv.From, "to", mv.To, "card", mv.Card, "ok", mv.OK)
		if mv.OK {
			m.syncSession(mv.Player)
		}
	}
	for _, p := range report.Finished {
		m.metrics.PlayerFinished()
		m.syncSession(p)
		m.logger.Info("player finished", "player", p.Name, "score", p.Score)
	}
	if len(report.Finished) > 0 {
		m.logger.Info("game over", "scores", game.ScoreLine(m.game.Players()))
	}

	span.SetAttributes(
		attribute.Bool("duel.frozen", report.Frozen),
		attribute.Int("duel.actions", report.Actions),
		attribute.Int("duel.moves", len(report.Moves)),
	)

	m.broadcast()
	m.metrics.ObserveTick(time.Since(start))
	return report
}

func (m *Manager) syncSession(p *model.Player) {
	c, ok := m.conns[p]
	if !ok {
		return
	}
	if err := m.store.UpdateSession(c.ID.String(), p.Score, p.Done); err != nil {
		m.logger.Error("update session", "player", p.Name, "error", err)
	}
}
