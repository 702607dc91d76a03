package router

import (
	"net/http"

	"buildcheck/internal/http-server/handler/analyze"
	"buildcheck/internal/http-server/handler/contact"
	"buildcheck/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

const serviceName = "BuildCheck API"

type Handler struct {
	AnalyzeHandler *analyze.AnalyzeHandler
	ContactHandler *contact.ContactHandler
	AdminHandler   *contact.AdminHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RecoveryMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","service":"` + serviceName + `"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/property/analyze", h.AnalyzeHandler.Analyze)
		r.Options("/property/analyze", h.AnalyzeHandler.Preflight)

		r.Post("/contact", h.ContactHandler.Submit)
		r.Options("/contact", h.ContactHandler.Preflight)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.AdminHandler.Login)
			r.Options("/login", h.AdminHandler.LoginPreflight)
			r.Post("/logout", h.AdminHandler.Logout)
			r.Options("/logout", h.AdminHandler.LoginPreflight)
			r.Get("/contact/submissions", h.AdminHandler.Submissions)
			r.Options("/contact/submissions", h.AdminHandler.SubmissionsPreflight)
		})
	})

	return r
}
