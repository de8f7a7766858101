// Package server exposes the upload, query and insights workflows over
// HTTP. Handlers decode and validate, delegate to the usecases, and
// map typed errors to status codes; all failures share the
// {"error": msg} envelope.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/usecase/insights"
	"github.com/m-mizutani/recallos/pkg/usecase/orchestrator"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
)

// Server holds the usecase dependencies of the HTTP surface
type Server struct {
	orchestrator *orchestrator.UseCase
	insights     *insights.UseCase
}

// New creates a new HTTP server instance
func New(orch *orchestrator.UseCase, insightsUC *insights.UseCase) *Server {
	return &Server{
		orchestrator: orch,
		insights:     insightsUC,
	}
}

// Router builds the chi router with all routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.healthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/query", s.handleQuery)
		r.Post("/query/intelligent", s.handleIntelligentQuery)
		r.Post("/insights", s.handleInsights)
		r.Get("/insights/evolution", s.handleEvolution)
		r.Get("/sessions", s.handleSessionList)
		r.Get("/sessions/{id}", s.handleSession)
	})

	return r
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "recallos"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Default().Warn("failed to encode response", "error", err)
	}
}

// writeError maps usecase errors to HTTP status codes: invalid input
// and unparsable model output are the client's or upstream's problem
// (400), missing resources are 404, everything else is 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidArgument),
		errors.Is(err, model.ErrPlanParse),
		errors.Is(err, model.ErrAnalysisParse):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrSessionNotFound),
		errors.Is(err, model.ErrAudioNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
