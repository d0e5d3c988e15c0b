package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lojf/pairsurvey/internal/handlers"
)

func Router(h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/survey-sessions", func(sr chi.Router) {
		sr.Post("/initiate", h.Initiate)
		sr.Post("/join", h.Join)

		// QR image of a join code
		sr.Get("/join/{code}.png", h.JoinQR)

		sr.Post("/{sessionId}/participants/{participantId}/answers", h.SubmitAnswers)
		sr.Get("/{sessionId}/report", h.Report)
	})

	return r
}
