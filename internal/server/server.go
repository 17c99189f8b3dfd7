// Package server implements the schemasnap HTTP API.
//
// The API accepts snapshot documents in the portable JSON format, renders
// them, and archives them for later retrieval:
//
//	POST   /api/render              render a document without storing it
//	POST   /api/snapshots           import, render, and archive a document
//	GET    /api/snapshots           list archived snapshots
//	GET    /api/snapshots/{id}      fetch one archive (JSON)
//	GET    /api/snapshots/{id}/text fetch the rendered document
//	GET    /api/snapshots/{id}/dot  fetch a Graphviz DOT diagram
//	DELETE /api/snapshots/{id}
//	GET    /healthz
//
// Routing uses chi; rendered snapshots are cached by snapshot ID and
// expand depth.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/schemasnap/schemasnap/pkg/cache"
	"github.com/schemasnap/schemasnap/pkg/store"
)

// Config carries server dependencies. Zero-value fields fall back to
// in-memory storage, a null cache, and the default logger.
type Config struct {
	Addr    string
	Store   store.Store
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Version string
}

// Server is the schemasnap HTTP API server.
type Server struct {
	addr    string
	router  chi.Router
	server  *http.Server
	store   store.Store
	cache   cache.Cache
	keyer   cache.Keyer
	logger  *log.Logger
	version string
}

// New creates a server with its routes registered.
func New(cfg Config) *Server {
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNullCache()
	}
	if cfg.Keyer == nil {
		cfg.Keyer = cache.NewDefaultKeyer()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{
		addr:    cfg.Addr,
		router:  chi.NewRouter(),
		store:   cfg.Store,
		cache:   cfg.Cache,
		keyer:   cfg.Keyer,
		logger:  cfg.Logger,
		version: cfg.Version,
	}

	s.router.Use(requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(recoveryMiddleware(s.logger))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Route("/snapshots", func(r chi.Router) {
			r.Post("/", s.handleCreate)
			r.Get("/", s.handleList)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Get("/text", s.handleText)
				r.Get("/dot", s.handleDOT)
				r.Delete("/", s.handleDelete)
			})
		})
	})

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start runs the server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler; used by tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
