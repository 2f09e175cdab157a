package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"clustering-service/internal/config"
	"clustering-service/internal/encoder"
	"clustering-service/internal/logger"
	"clustering-service/internal/orchestrator"
)

// Server is the HTTP adapter (C12): a chi router plus the collaborators
// every handler needs, built once at startup — the same shape as the
// teacher's Server, with the database/template-renderer fields
// replaced by the orchestrator and encoder this service actually runs.
type Server struct {
	router       *chi.Mux
	httpServer   *http.Server
	orchestrator *orchestrator.Orchestrator
	encoder      encoder.Encoder
	config       *config.Config
	log          *slog.Logger
}

// New creates a new HTTP server instance.
func New(orch *orchestrator.Orchestrator, enc encoder.Encoder, cfg *config.Config) *Server {
	log := logger.Get()

	s := &Server{
		router:       chi.NewRouter(),
		orchestrator: orch,
		encoder:      enc,
		config:       cfg,
		log:          log,
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(securityHeaders)

	if s.config.CORSEnabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Token", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/", s.handleRoot)
	s.router.Get("/ping", s.handlePing)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAPIToken)
		r.Post("/embeddings", s.handleEmbeddings)
		r.Post("/ai-worker/clustering", s.handleAIWorkerClustering)
		r.Post("/clustering/auto", s.handleClusteringAuto)
		r.Post("/embeddings-and-clustering", s.handleEmbeddingsAndClustering)
	})
}

func (s *Server) Start() error {
	s.log.Info("starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.config.ReadTimeout,
		"write_timeout", s.config.WriteTimeout,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server gracefully")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

// probeEncoder is used by the health handler to check whether the
// configured Encoder is reachable without running a full request.
func probeEncoder(enc encoder.Encoder) (string, bool) {
	if enc == nil {
		return "", false
	}
	return enc.ModelName(), true
}
