// Package server exposes the engine to a desktop front end over JSON on
// localhost, with an SSE stream of engine events.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"

	"github.com/bantamhq/gitdesk/internal/engine"
)

// Server is the local HTTP bridge.
type Server struct {
	engine    *engine.Engine
	tokenHash string
	router    *chi.Mux
	// base is the context workers started over HTTP run under.
	base context.Context
}

// NewServer returns a bridge for eng. Requests must carry a bearer token
// matching tokenHash.
func NewServer(eng *engine.Engine, tokenHash string) *Server {
	s := &Server{
		engine:    eng,
		tokenHash: tokenHash,
		router:    chi.NewRouter(),
		base:      context.Background(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(s.tokenHash))

		// Repositories
		r.Get("/repos", s.handleListRepos)
		r.Post("/repos", s.handleAddRepo)
		r.Post("/repos/{id}/open", s.handleOpenRepo)
		r.Get("/repos/current", s.handleCurrentRepo)
		r.Put("/repos/current/profile", s.handleAssignProfile)

		// Profiles
		r.Get("/profiles", s.handleListProfiles)
		r.Post("/profiles", s.handleCreateProfile)
		r.Put("/profiles/{id}", s.handleUpdateProfile)
		r.Delete("/profiles/{id}", s.handleDeleteProfile)

		// Changes
		r.Get("/changes", s.handleGetChanges)
		r.Post("/changes/refresh", s.handleRefreshChanges)
		r.Put("/changes/files/*", s.handleSelectFile)
		r.Put("/changes/folders/*", s.handleUpdateFolder)
		r.Put("/changes/all", s.handleSelectAll)
		r.Put("/changes/viewed", s.handleViewFile)

		// History
		r.Get("/commits", s.handleListCommits)
		r.Post("/commits", s.handleCommit)
		r.Get("/status", s.handleStatus)

		// Branches
		r.Get("/branches", s.handleListBranches)
		r.Post("/branches", s.handleCreateBranch)
		r.Post("/branches/checkout", s.handleCheckout)
		r.Delete("/branches/*", s.handleDeleteBranch)

		// Remote operations
		r.Post("/actions/{action}", s.handleStartAction)
		r.Get("/actions/running", s.handleRunningAction)

		r.Get("/events", s.handleEvents)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.base = ctx

	server := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No write timeout: /events streams for the life of the client.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("server shutdown")
		}
	}()

	logger.WithField("addr", addr).Info("starting bridge")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
