package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CreateTemplate handles POST /templates.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	t, err := h.store.Create(r.Context(), req.toConfig())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTemplateResponse(t))
}

// GetTemplate handles GET /templates/{templateID}.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Get(r.Context(), chi.URLParam(r, "templateID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTemplateResponse(t))
}

// RetireTemplate handles DELETE /templates/{templateID}. Templates are
// soft-retired, never deleted, so existing issuances stay resolvable.
func (h *Handler) RetireTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Retire(r.Context(), chi.URLParam(r, "templateID")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
