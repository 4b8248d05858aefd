package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/medalboard/internal/domain/model"
	"github.com/okian/medalboard/internal/domain/reconcile"
)

// maxSaveBody bounds POST /api/table bodies.
const maxSaveBody = 8 << 20

// IdempotencyHeader carries the client key that makes a save replay-safe.
const IdempotencyHeader = "Idempotency-Key"

// TableHandler serves and saves the editable medal table.
type TableHandler struct {
	deps Dependencies
}

// NewTableHandler creates a new table handler.
func NewTableHandler(deps Dependencies) *TableHandler {
	return &TableHandler{deps: deps}
}

type tableResponse struct {
	Columns []string       `json:"columns"`
	Extras  []string       `json:"extras"`
	Count   int            `json:"count"`
	Rows    []model.Record `json:"rows"`
}

type saveRequest struct {
	Rows []model.Record `json:"rows"`
}

type saveResponse struct {
	Status string `json:"status"`
	reconcile.Result
}

func newTableResponse(t model.Table) tableResponse {
	cols := make([]string, 0, len(model.RequiredColumns)+1+len(t.Extras))
	cols = append(cols, model.ColNOC, "Country")
	cols = append(cols, model.RequiredColumns[1:]...)
	cols = append(cols, t.Extras...)

	rows := t.Records
	if rows == nil {
		rows = []model.Record{}
	}
	extras := t.Extras
	if extras == nil {
		extras = []string{}
	}
	return tableResponse{Columns: cols, Extras: extras, Count: len(rows), Rows: rows}
}

// HandleTable handles GET and POST /api/table.
//
// GET returns the rows matching ?years=&countries= (or the canonical table
// with ?raw=1). POST writes the edited rows of that same filtered view back
// to the store.
func (h *TableHandler) HandleTable(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPost:
		h.handleSave(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *TableHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("raw") == "1" {
		writeJSON(w, http.StatusOK, newTableResponse(h.deps.Canonical()))
		return
	}
	sel, err := selection(r, h.deps.Options())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, newTableResponse(h.deps.Table(sel)))
}

func (h *TableHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_table"
	sel, err := selection(r, h.deps.Options())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req saveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSaveBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Rows == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing rows")))
		return
	}

	res, err := h.deps.Save(r.Context(), r.Header.Get(IdempotencyHeader), sel, req.Rows)
	if err != nil {
		writeSaveError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Status: "saved", Result: res})
}

// HandleRetry handles POST /api/table/retry, replaying the last failed save.
func (h *TableHandler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	const op = "api.retry_save"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	res, err := h.deps.RetrySave(r.Context())
	if err != nil {
		writeSaveError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Status: "saved", Result: res})
}

func writeSaveError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, reconcile.ErrInvalidEdit):
		writeError(w, http.StatusBadRequest, "invalid_rows", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, reconcile.ErrPersist):
		writeError(w, http.StatusBadGateway, "persist_failed", Wrap(op, err))
	case errors.Is(err, reconcile.ErrNoPending):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	default:
		// A full save queue, a stopped session or a caller deadline.
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	}
}
