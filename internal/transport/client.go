package transport

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

// Client is a hub with a single outgoing connection.
type Client struct {
	*Hub
	Conn *Connection
}

// Dial connects to a game socket. The connection's EventOpen is delivered
// by the first Poll.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	h := newHub(opts)
	c := newConnection(ws, ws.RemoteAddr().String())
	go h.readLoop(c)
	return &Client{Hub: h, Conn: c}, nil
}
