package daemon

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPHandler builds the daemon's optional read-only surface
// (§4.4 EXPANSION): /healthz and /metrics only, never the control
// protocol, which stays on the Unix socket.
func (d *Daemon) HTTPHandler(reg prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", d.handleHealthz)
	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	return r
}

func (d *Daemon) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"servers": d.status(),
	})
}
