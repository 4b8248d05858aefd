package api

import (
	"net/http"
)

// dashboardHandler serves the single page of the dashboard.
type dashboardHandler struct{}

func newDashboardHandler() *dashboardHandler {
	return &dashboardHandler{}
}

// HandleDashboard handles GET /dashboard. The page pulls its data from
// /api/options, /api/table and /api/views, so it is never cached: a save
// must show up on the next reload.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFileFS(w, r, dashboardFS, "dashboard.html")
}
