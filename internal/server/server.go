package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"fundfaq/internal/domain"
)

// Asker answers a single question.
type Asker interface {
	Handle(ctx context.Context, question string) (domain.AnswerResult, error)
}

type Config struct {
	Addr           string
	AllowedOrigins []string
	Disclaimer     string
	RefusalLink    string
}

// Server manages the HTTP server and routes
type Server struct {
	cfg      Config
	asker    Asker
	logger   arbor.ILogger
	validate *validator.Validate
	router   *http.ServeMux
	server   *http.Server
}

// New creates the HTTP server. It does not start listening.
func New(cfg Config, asker Asker, logger arbor.ILogger) *Server {
	s := &Server{
		cfg:      cfg,
		asker:    asker,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.router)
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.cfg.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("HTTP server stopped")
	return nil
}
