package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/srgjo27/event_ledger/internal/core/domain"
	"github.com/srgjo27/event_ledger/internal/core/query"
)

type errorResponse struct {
	Error string `json:"error"`
}

type pageResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	PageCount  int `json:"pageCount"`
}

func newPage[T any](res query.Result[T], spec query.Spec) pageResponse[T] {
	return pageResponse[T]{
		Items:      res.Page,
		TotalCount: res.TotalCount,
		Page:       spec.Page,
		PageSize:   spec.PageSize,
		PageCount:  res.PageCount(spec.PageSize),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and reported as a 500 without leaking its text.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case domain.IsValidationError(err), domain.IsConfigurationError(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPaymentDeclined):
		writeMessage(w, http.StatusPaymentRequired, err.Error())
	default:
		log.Error("request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
