package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kriskaiqi/okgym/internal/session"
	"github.com/kriskaiqi/okgym/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessions *session.Manager
	db       *storage.DB
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(sessions *session.Manager, db *storage.DB, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		sessions: sessions,
		db:       db,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		r.Post("/plans/{planID}/sessions", s.handleStartSession)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/exercises/{exerciseID}/attempts", s.handleRecordAttempt)
		r.Post("/sessions/{id}/exercises/{exerciseID}/skip", s.handleSkipExercise)
		r.Post("/sessions/{id}/results", s.handleSaveResults)
		r.Post("/sessions/{id}/pause", s.handlePauseSession)
		r.Post("/sessions/{id}/resume", s.handleResumeSession)
		r.Post("/sessions/{id}/complete", s.handleCompleteSession)
		r.Post("/sessions/{id}/cancel", s.handleCancelSession)
	})
}
