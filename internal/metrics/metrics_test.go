package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// value returns the counter, gauge or histogram-count value of the series
// name{label=labelValue} gathered from reg.
func value(t *testing.T, reg *prometheus.Registry, name, label, labelValue string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == label && lp.GetValue() == labelValue {
						found = true
					}
				}
				if !found {
					continue
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("series %s{%s=%q} not found", name, label, labelValue)
	return 0
}

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveTick(2 * time.Millisecond)
	m.ObserveTick(3 * time.Millisecond)
	m.Move(true)
	m.Move(false)
	m.Move(false)
	m.SetPlayers(2)
	m.Connection("accepted")
	m.Connection("rejected")
	m.ProtocolError("Controls")
	m.PlayerFinished()
	m.StateBytes(120)
	m.StateBytes(80)

	tests := []struct {
		name       string
		label, val string
		want       float64
	}{
		{"duel_ticks_total", "", "", 2},
		{"duel_tick_duration_seconds", "", "", 2},
		{"duel_moves_total", "result", "ok", 1},
		{"duel_moves_total", "result", "rejected", 2},
		{"duel_players", "", "", 2},
		{"duel_connections_total", "outcome", "accepted", 1},
		{"duel_connections_total", "outcome", "rejected", 1},
		{"duel_protocol_errors_total", "type", "Controls", 1},
		{"duel_players_finished_total", "", "", 1},
		{"duel_state_bytes_total", "", "", 200},
	}
	for _, tc := range tests {
		t.Run(tc.name+"_"+tc.val, func(t *testing.T) {
			if got := value(t, reg, tc.name, tc.label, tc.val); got != tc.want {
				t.Errorf("value = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewWithoutRegistry(t *testing.T) {
	a := New(nil)
	b := New(nil)
	if a.Registry == nil || a.Registry == b.Registry {
		t.Error("nil registry not replaced by a private one")
	}
}
