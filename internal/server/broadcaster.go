package server

// broadcast queues a State message on every live connection. Each client
// gets its own player first.
func (m *Manager) broadcast() {
	for c, p := range m.players {
		if c.Closed() {
			continue
		}
		before := len(c.Send)
		if err := m.game.SendState(&c.Send, p); err != nil {
			m.logger.Error("encode state", "player", p.Name, "error", err)
			c.Close()
			continue
		}
		m.metrics.StateBytes(len(c.Send) - before)
	}
}
