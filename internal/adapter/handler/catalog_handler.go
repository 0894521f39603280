package handler

import (
	"log/slog"
	"net/http"

	"github.com/srgjo27/event_ledger/internal/core/services"
)

type CatalogHandler struct {
	svc *services.CatalogService
	log *slog.Logger
}

func NewCatalogHandler(svc *services.CatalogService, log *slog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, log: log}
}

func (h *CatalogHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *CatalogHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	spec, err := parseSpec(r.URL.Query())
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.svc.ListEvents(r.Context(), spec)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(res, spec))
}

func (h *CatalogHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	spec, err := parseSpec(r.URL.Query())
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.svc.ListUsers(r.Context(), spec)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(res, spec))
}
