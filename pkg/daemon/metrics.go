package daemon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks managed capability server states for the daemon's
// optional /metrics surface (§4.4 EXPANSION, A4).
type Metrics struct {
	// ServerState is 1 for the server's current state, 0 otherwise.
	// Labels: server, state
	ServerState *prometheus.GaugeVec
}

// NewMetrics registers the daemon's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ServerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "binks_daemon_server_state",
			Help: "Current lifecycle state of each managed capability server (1 = current state).",
		}, []string{"server", "state"}),
	}
}

func (m *Metrics) observe(name string, current State) {
	if m == nil {
		return
	}
	for _, s := range []State{StateIdle, StateStarting, StateRunning, StateFailed, StateStopped} {
		value := 0.0
		if s == current {
			value = 1.0
		}
		m.ServerState.WithLabelValues(name, string(s)).Set(value)
	}
}
