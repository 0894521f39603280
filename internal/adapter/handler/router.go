package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/srgjo27/event_ledger/internal/adapter/session"
	"github.com/srgjo27/event_ledger/internal/core/services"
	"github.com/srgjo27/event_ledger/internal/platform/monitoring"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Bookings *services.BookingService
	Catalog  *services.CatalogService
	Sessions *session.Store
	Checks   map[string]HealthCheck
	Monitor  *monitoring.Monitor
	Log      *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	sessions := NewSessionHandler(cfg.Sessions, log)
	bookings := NewBookingHandler(cfg.Bookings, log)
	catalog := NewCatalogHandler(cfg.Catalog, log)
	auth := sessions.RequireSession

	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, instrument(pattern, h, cfg.Monitor, log))
	}

	handle("POST /session", sessions.Login)
	handle("GET /session", auth(sessions.Current))
	handle("DELETE /session", auth(sessions.Logout))

	handle("GET /bookings", auth(bookings.ListBookings))
	handle("POST /bookings", auth(bookings.CreateBooking))
	handle("POST /bookings/{id}/cancel", auth(bookings.CancelBooking))

	handle("GET /events", catalog.ListEvents)
	handle("GET /events/{id}", catalog.GetEvent)
	handle("GET /users", auth(catalog.ListUsers))

	handle("GET /healthz", healthHandler(cfg.Checks))
	if cfg.Monitor != nil {
		mux.Handle("GET /metrics", cfg.Monitor.Handler())
	}

	return mux
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		writeJSON(w, status, resp)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(route string, next http.Handler, monitor *monitoring.Monitor, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		monitor.TrackHTTPRequest(r.Method, route, rec.status)
		log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(started),
		)
	})
}
