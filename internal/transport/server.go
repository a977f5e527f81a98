package transport

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// Server accepts peers through HTTP upgrades. Mount it on the game socket
// route and drive it with Poll.
type Server struct {
	*Hub
	upgrader websocket.Upgrader
}

func NewServer(opts Options) *Server {
	return &Server{
		Hub: newHub(opts),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and reads from the socket until it
// closes. The connection shows up in Poll as EventOpen.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.readLoop(newConnection(ws, r.RemoteAddr))
}
