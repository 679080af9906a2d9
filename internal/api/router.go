package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Shares  ShareService
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter wires the admin endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	shares := NewShareHandler(deps.Shares, deps.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/shares/{id}", func(r chi.Router) {
		r.Get("/", shares.GetShare)
		r.Post("/approve", shares.ApproveShare)
		r.Post("/dismiss", shares.DismissShare)
	})

	return r
}
