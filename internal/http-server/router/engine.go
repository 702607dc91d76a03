package router

import (
	"net/http"

	"buildcheck/internal/http-server/handler/engine"
	"buildcheck/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

// SetupEngineRouter serves the stub analysis engine.
func SetupEngineRouter(h *engine.EngineHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RecoveryMiddleware)

	r.Route("/engine", func(r chi.Router) {
		r.Post("/analyze", h.Analyze)
		r.Get("/health", h.Health)
	})

	return r
}
