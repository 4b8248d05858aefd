// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/medalboard/internal/domain/filter"
	"github.com/okian/medalboard/internal/domain/model"
	"github.com/okian/medalboard/internal/domain/reconcile"
	"github.com/okian/medalboard/internal/domain/views"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the session implementation.
type Dependencies interface {
	// Options returns the filter domain of the canonical table.
	Options() filter.Domain

	// Read operations over the session table.
	Canonical() model.Table
	Table(sel filter.Selection) model.Table
	Views(sel filter.Selection) views.Dashboard
	TopN() int

	// Write operations back to the remote store.
	Save(ctx context.Context, key string, sel filter.Selection, edited []model.Record) (reconcile.Result, error)
	RetrySave(ctx context.Context) (reconcile.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	optionsHandler   *OptionsHandler
	tableHandler     *TableHandler
	viewsHandler     *ViewsHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(statsProvider),
		statsHandler:     NewStatsHandler(statsProvider),
		optionsHandler:   NewOptionsHandler(deps),
		tableHandler:     NewTableHandler(deps),
		viewsHandler:     NewViewsHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/options", MetricsMiddleware(s.optionsHandler.HandleGetOptions, "options"))
	mux.HandleFunc("/api/table", MetricsMiddleware(s.tableHandler.HandleTable, "table"))
	mux.HandleFunc("/api/table/retry", MetricsMiddleware(s.tableHandler.HandleRetry, "table_retry"))
	mux.HandleFunc("/api/views", MetricsMiddleware(s.viewsHandler.HandleGetViews, "views"))
	mux.HandleFunc("/api/views/", MetricsMiddleware(s.viewsHandler.HandleGetView, "view"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
