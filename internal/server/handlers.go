package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"duel/internal/database"
	"duel/internal/metrics"
)

type Handler struct {
	Store   *database.Store
	Metrics *metrics.Metrics
	Socket  http.Handler
	logger  *slog.Logger
}

func NewHandler(store *database.Store, m *metrics.Metrics, socket http.Handler) *Handler {
	return &Handler{
		Store:   store,
		Metrics: m,
		Socket:  socket,
		logger:  slog.Default().With("component", "http"),
	}
}

// Routes mounts the game socket and the operational endpoints.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", h.Socket.ServeHTTP)
	r.Get("/healthz", h.HealthHandler)
	r.Get("/sessions", h.SessionsHandler)
	r.Handle("/metrics", promhttp.HandlerFor(h.Metrics.Registry, promhttp.HandlerOpts{}))
	return r
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

// SessionsHandler lists the live sessions as JSON.
func (h *Handler) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListSessions()
	if err != nil {
		h.logger.Error("list sessions", "error", err)
		http.Error(w, "session store unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}
