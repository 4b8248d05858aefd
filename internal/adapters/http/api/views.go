package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/medalboard/internal/domain/views"
	"github.com/okian/medalboard/pkg/metrics"
)

// ViewsHandler serves the chart views of the filtered table.
type ViewsHandler struct {
	deps Dependencies
}

// NewViewsHandler creates a new views handler.
func NewViewsHandler(deps Dependencies) *ViewsHandler {
	return &ViewsHandler{deps: deps}
}

// viewResponse is one chart: its title and its data series.
type viewResponse struct {
	Title string `json:"title"`
	Data  any    `json:"data"`
}

// HandleGetViews handles GET /api/views, returning all five views.
func (h *ViewsHandler) HandleGetViews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sel, err := selection(r, h.deps.Options())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Views(sel))
}

// HandleGetView handles GET /api/views/{bar|trend|top|heatmap|treemap}.
func (h *ViewsHandler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_view"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/views/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	sel, err := selection(r, h.deps.Options())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	t := h.deps.Table(sel)
	titles := views.TitlesFor(h.deps.TopN(), nil)
	start := time.Now()

	var resp viewResponse
	switch name {
	case "bar":
		resp = viewResponse{Title: titles.Bar, Data: views.BarFrames(t)}
	case "trend":
		resp = viewResponse{Title: titles.Trend, Data: views.Trend(t)}
	case "top":
		ranked := views.TopN(t, h.deps.TopN())
		resp = viewResponse{Title: titles.Top, Data: views.Top{
			Ranked: ranked,
			Long:   views.TopNLong(ranked),
			Radar:  views.TopNRadar(ranked),
		}}
	case "heatmap":
		resp = viewResponse{Title: titles.Heatmap, Data: views.Heatmap(t)}
	case "treemap":
		tm := views.Latest(t)
		resp = viewResponse{Title: views.TitlesFor(h.deps.TopN(), tm.Year).Treemap, Data: tm}
	default:
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, unknownView(name)))
		return
	}
	metrics.RecordViewBuild(name, float64(time.Since(start).Microseconds())/1000)
	writeJSON(w, http.StatusOK, resp)
}

type unknownView string

func (u unknownView) Error() string { return "unknown view " + string(u) }
