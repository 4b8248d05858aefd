package api

import (
	"net/http"

	"github.com/okian/medalboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler serves /healthz: the Prometheus registry while the session
// holds a loaded table, 503 otherwise.
type HealthHandler struct {
	session StatsProvider
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(session StatsProvider) *HealthHandler {
	return &HealthHandler{
		session: session,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if started, _ := h.session.GetStats()["started"].(bool); !started {
		writeError(w, http.StatusServiceUnavailable, "not_started", NewKind("healthz", ErrUnavailable))
		return
	}
	h.metrics.ServeHTTP(w, r)
}
