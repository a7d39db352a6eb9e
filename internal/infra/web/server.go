package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	uc "ai-tools-platform/internal/domain/ports/usecase"
	"ai-tools-platform/internal/infra/metrics"
)

// Server exposes the uniform job surface: one submit/status/result route
// triple per tool.
type Server struct {
	orchestrator uc.JobOrchestrator
	auth         *AuthManager
	log          *zerolog.Logger
}

func NewServer(orchestrator uc.JobOrchestrator, auth *AuthManager, logger *zerolog.Logger) *Server {
	webLog := logger.With().Str("component", "web").Logger()
	return &Server{orchestrator: orchestrator, auth: auth, log: &webLog}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	metrics.MustRegister()
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/results", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Get("/", s.handleListResults)
	})

	r.Route("/api/{tool}", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/", s.handleSubmit)
		r.Get("/status", s.handleStatus)
		r.Get("/result", s.handleResult)
	})

	return r
}
