// Package site serves the dashboard's static assets and the root redirect.
package site

import (
	"context"
	"net/http"
)

// DashboardPath is where the root path redirects.
const DashboardPath = "/dashboard"

// Register attaches the asset routes and the root redirect to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	// Serve the embedded scripts and styles under /assets/
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(FS())))

	// Exact root only; other unknown paths stay 404.
	mux.HandleFunc("/{$}", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests
type RootHandler struct{}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / requests by redirecting to the dashboard.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, DashboardPath, http.StatusFound)
}
