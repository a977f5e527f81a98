// Package transport moves raw bytes between peers over websockets.
//
// Each websocket binary message carries an arbitrary chunk of a byte
// stream; framing is the protocol package's job. All callbacks fire from
// Poll, so connection buffers are only ever touched by the goroutine that
// polls.
package transport

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is what happened to a connection.
type Event int

const (
	EventOpen Event = iota
	EventRecv
	EventClose
)

func (e Event) String() string {
	switch e {
	case EventOpen:
		return "open"
	case EventRecv:
		return "recv"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Callback is invoked by Poll for every connection event.
type Callback func(c *Connection, ev Event)

var ErrClosed = errors.New("transport: closed")

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadLimit    = 1 << 20
)

// Connection is one peer. Send is flushed by the next Poll; Recv
// accumulates everything received and is consumed by the caller.
type Connection struct {
	ID         uuid.UUID
	RemoteAddr string

	Send []byte
	Recv []byte

	ws     *websocket.Conn
	closed bool
}

// Close shuts the socket down. The matching EventClose is still delivered
// by a later Poll.
func (c *Connection) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.ws.Close()
}

// Closed reports whether Close was called or the peer went away.
func (c *Connection) Closed() bool {
	return c.closed
}

type inbound struct {
	conn *Connection
	ev   Event
	data []byte
	err  error
}

// Options tune a Hub.
type Options struct {
	// WriteTimeout bounds each socket write. Writes happen inside Poll, so
	// a stalled peer holds up every caller of Poll for up to this long.
	WriteTimeout time.Duration
	ReadLimit    int64
	Logger       *slog.Logger
}

// Hub owns a set of connections and turns their socket activity into
// events delivered by Poll.
type Hub struct {
	events chan inbound
	done   chan struct{}
	once   sync.Once

	conns map[*Connection]struct{}

	writeTimeout time.Duration
	readLimit    int64
	logger       *slog.Logger
}

func newHub(opts Options) *Hub {
	h := &Hub{
		events:       make(chan inbound, 64),
		done:         make(chan struct{}),
		conns:        make(map[*Connection]struct{}),
		writeTimeout: opts.WriteTimeout,
		readLimit:    opts.ReadLimit,
		logger:       opts.Logger,
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = defaultWriteTimeout
	}
	if h.readLimit <= 0 {
		h.readLimit = defaultReadLimit
	}
	if h.logger == nil {
		h.logger = slog.Default().With("component", "transport")
	}
	return h
}

// Connections returns the number of open connections Poll knows about.
func (h *Hub) Connections() int {
	return len(h.conns)
}

// Poll flushes pending sends, then waits up to timeout for socket activity
// and delivers every event that is ready to cb. A zero timeout only drains
// what is already queued.
func (h *Hub) Poll(timeout time.Duration, cb Callback) error {
	select {
	case <-h.done:
		return ErrClosed
	default:
	}

	h.flush()

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		select {
		case in := <-h.events:
			timer.Stop()
			h.deliver(in, cb)
		case <-timer.C:
			return nil
		case <-h.done:
			timer.Stop()
			return ErrClosed
		}
	}

	for {
		select {
		case in := <-h.events:
			h.deliver(in, cb)
		default:
			return nil
		}
	}
}

func (h *Hub) flush() {
	for c := range h.conns {
		if c.closed || len(c.Send) == 0 {
			continue
		}
		c.ws.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.ws.WriteMessage(websocket.BinaryMessage, c.Send); err != nil {
			h.logger.Warn("write failed", "conn", c.ID, "error", err)
			c.Close()
			continue
		}
		c.Send = c.Send[:0]
	}
}

func (h *Hub) deliver(in inbound, cb Callback) {
	c := in.conn
	switch in.ev {
	case EventOpen:
		h.conns[c] = struct{}{}
	case EventRecv:
		c.Recv = append(c.Recv, in.data...)
	case EventClose:
		delete(h.conns, c)
		c.closed = true
		if in.err != nil && !websocket.IsCloseError(in.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			h.logger.Debug("connection ended", "conn", c.ID, "error", in.err)
		}
	}
	cb(c, in.ev)
}

// readLoop reports the connection as open, then forwards every received
// chunk until the socket fails. It must be the only reader of c.ws.
func (h *Hub) readLoop(c *Connection) {
	defer c.ws.Close()

	c.ws.SetReadLimit(h.readLimit)
	if !h.post(inbound{conn: c, ev: EventOpen}) {
		return
	}
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			h.post(inbound{conn: c, ev: EventClose, err: err})
			return
		}
		if !h.post(inbound{conn: c, ev: EventRecv, data: data}) {
			return
		}
	}
}

func (h *Hub) post(in inbound) bool {
	select {
	case h.events <- in:
		return true
	case <-h.done:
		return false
	}
}

// Close stops the hub and closes every connection. It must not run
// concurrently with Poll. Poll returns ErrClosed afterwards.
func (h *Hub) Close() error {
	h.once.Do(func() {
		close(h.done)
	})
	for c := range h.conns {
		c.Close()
	}
	for {
		select {
		case in := <-h.events:
			in.conn.ws.Close()
		default:
			return nil
		}
	}
}

func newConnection(ws *websocket.Conn, remote string) *Connection {
	return &Connection{
		ID:         uuid.New(),
		RemoteAddr: remote,
		ws:         ws,
	}
}
