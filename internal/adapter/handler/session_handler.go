package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/srgjo27/event_ledger/internal/adapter/session"
	"github.com/srgjo27/event_ledger/internal/core/domain"
)

type contextKey struct{}

// UserFromContext returns the user attached by RequireSession.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*domain.User)
	return user, ok && user != nil
}

type SessionHandler struct {
	sessions *session.Store
	log      *slog.Logger
}

func NewSessionHandler(sessions *session.Store, log *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&user); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	token, err := h.sessions.Login(r.Context(), user)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, loginResponse{Token: token, User: user})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}

// RequireSession rejects requests whose bearer token does not belong to the
// active session.
func (h *SessionHandler) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := h.sessions.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		if user == nil {
			writeMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, user)))
	}
}
