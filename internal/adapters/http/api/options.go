package api

import (
	"net/http"

	"github.com/okian/medalboard/internal/domain/filter"
)

// OptionsDependencies defines the interface for reading the filter domain.
type OptionsDependencies interface {
	Options() filter.Domain
}

// OptionsHandler serves the selectable years and countries.
type OptionsHandler struct {
	deps OptionsDependencies
}

// NewOptionsHandler creates a new options handler.
func NewOptionsHandler(deps OptionsDependencies) *OptionsHandler {
	return &OptionsHandler{deps: deps}
}

// HandleGetOptions handles GET /api/options requests.
func (h *OptionsHandler) HandleGetOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Options())
}
