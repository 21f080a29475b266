// Package server exposes the assistant over a small HTTP API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/carebridge/companiond/assistant"
	"github.com/carebridge/companiond/reminders"
	"github.com/carebridge/companiond/summaries"
)

// Server is the HTTP API server for companiond.
type Server struct {
	service   *assistant.Service
	reminders *reminders.Store
	summaries *summaries.Store
	router    *chi.Mux
	addr      string
	logger    zerolog.Logger

	httpServer *http.Server
}

// New creates the HTTP server and wires its routes.
func New(addr string, service *assistant.Service, reminderStore *reminders.Store, summaryStore *summaries.Store, logger zerolog.Logger) *Server {
	s := &Server{
		service:   service,
		reminders: reminderStore,
		summaries: summaryStore,
		addr:      addr,
		logger:    logger.With().Str("component", "http_server").Logger(),
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		// Generation can legitimately take a while; the gateway applies its
		// own per-call timeout below this bound.
		r.Use(middleware.Timeout(3 * time.Minute))

		r.Post("/chat", s.handleChat)
		r.Post("/chat/welcome", s.handleWelcome)
		r.Get("/chat/history", s.handleChatHistory)

		r.Post("/reminders", s.handleCreateReminder)
		r.Get("/reminders", s.handleListReminders)
		r.Post("/reminders/extract", s.handleExtractReminders)
		r.Patch("/reminders/{id}/complete", s.handleCompleteReminder)
		r.Delete("/reminders/{id}", s.handleDeleteReminder)

		r.Post("/summaries/generate", s.handleGenerateSummary)
		r.Get("/summaries", s.handleListSummaries)
		r.Delete("/summaries", s.handleDeleteSummary)

		r.Post("/memory/core", s.handleMergeCoreInformation)
		r.Post("/memory/context", s.handleAddContextualMemory)
	})

	s.router = r
}

// requestLogger logs each request with zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Handled request")
	})
}

// Serve starts the HTTP server and blocks until it stops.
func (s *Server) Serve() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info().Str("addr", s.addr).Msg("HTTP server listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
