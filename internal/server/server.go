// Package server carries the HTTP front door: a chi router with the
// shared middleware stack. Feature packages mount their endpoints via
// RegisterRoutes against the exposed router.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/queryflow/internal/db"
	"github.com/ziadkadry99/queryflow/internal/llm"
	"github.com/ziadkadry99/queryflow/internal/resolver"
	"github.com/ziadkadry99/queryflow/internal/session"
	"github.com/ziadkadry99/queryflow/internal/turnlog"
)

// Config holds server configuration.
type Config struct {
	Port     int
	DataDir  string // directory for the SQLite DB and fewshot store
	AllowAll bool   // allow all CORS origins (dev mode)
}

// Server is the query-resolution HTTP service.
type Server struct {
	cfg         Config
	db          *db.DB
	engine      *resolver.Engine
	sessions    *session.Store
	turns       *turnlog.Store
	llmProvider llm.Provider
	router      chi.Router
	httpServer  *http.Server
}

// New creates a server with all dependencies.
func New(cfg Config, database *db.DB, engine *resolver.Engine, sessions *session.Store, turns *turnlog.Store, llmProvider llm.Provider) *Server {
	s := &Server{
		cfg:         cfg,
		db:          database,
		engine:      engine,
		sessions:    sessions,
		turns:       turns,
		llmProvider: llmProvider,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes are registered by feature packages via RegisterRoutes.
	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.db }

// Engine returns the turn resolver.
func (s *Server) Engine() *resolver.Engine { return s.engine }

// Sessions returns the session store.
func (s *Server) Sessions() *session.Store { return s.sessions }

// Turns returns the turn log store.
func (s *Server) Turns() *turnlog.Store { return s.turns }

// LLMProvider returns the completion provider.
func (s *Server) LLMProvider() llm.Provider { return s.llmProvider }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("queryflow server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
