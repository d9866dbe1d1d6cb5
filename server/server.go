// Package server exposes a bridge.Session over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aqua777/go-treebridge/bridge"
)

// DefaultMaxUploadBytes limits uploaded documents.
const DefaultMaxUploadBytes = 32 << 20

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	session   *bridge.Session
	log       *slog.Logger
	maxUpload int64
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes sets the largest accepted upload.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		s.maxUpload = n
	}
}

// NewServer creates and configures the HTTP server.
func NewServer(session *bridge.Session, log *slog.Logger, opts ...Option) *Server {
	s := &Server{
		session:   session,
		log:       log,
		maxUpload: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/languages", s.handleListLanguages)
		r.Get("/language", s.handleGetLanguage)
		r.Put("/language", s.handleLoadLanguage)

		r.Post("/parse", s.handleParse)
		r.Post("/parse/file", s.handleParseFile)
		r.Post("/constituents", s.handleConstituents)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
