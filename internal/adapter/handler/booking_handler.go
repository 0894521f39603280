package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/srgjo27/event_ledger/internal/core/services"
)

const maxBodyBytes = 1 << 20

type BookingHandler struct {
	svc *services.BookingService
	log *slog.Logger
}

func NewBookingHandler(svc *services.BookingService, log *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, log: log}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req services.CreateBookingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	resp, err := h.svc.CreateBooking(r.Context(), user.ID, req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	if err := h.svc.CancelBooking(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	spec, err := parseSpec(r.URL.Query())
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.svc.ListBookings(r.Context(), user.ID, spec)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, newPage(res, spec))
}
