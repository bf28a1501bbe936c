// Package server exposes the job listing over HTTP: server-rendered pages,
// fragments, the withdraw action and the live websocket session.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/rsilvagit/joblist/internal/config"
	"github.com/rsilvagit/joblist/internal/i18n"
	"github.com/rsilvagit/joblist/internal/jobapi"
	"github.com/rsilvagit/joblist/internal/listing"
	"github.com/rsilvagit/joblist/internal/session"
	"github.com/rsilvagit/joblist/internal/web"
)

// Deps are the collaborators the server renders and acts through.
type Deps struct {
	Logger   arbor.ILogger
	API      jobapi.API
	Sessions session.Store
	Bundle   *i18n.Bundle
	Renderer *web.Renderer
}

// Server manages the HTTP server and routes
type Server struct {
	cfg      *config.Config
	logger   arbor.ILogger
	api      jobapi.API
	sessions session.Store
	bundle   *i18n.Bundle
	renderer *web.Renderer
	applied  *listing.AppliedPanel
	upgrader websocket.Upgrader

	router *mux.Router
	server *http.Server
	stop   context.CancelFunc
}

// New creates a server for the given configuration.
func New(cfg *config.Config, deps Deps) *Server {
	base, stop := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		logger:   deps.Logger,
		api:      deps.API,
		sessions: deps.Sessions,
		bundle:   deps.Bundle,
		renderer: deps.Renderer,
		applied:  listing.NewAppliedPanel(deps.API, deps.Logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		stop: stop,
	}

	s.router = s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	s.server.RegisterOnShutdown(stop)

	return s
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.router)
}

// Run serves until ctx is cancelled, then shuts down gracefully. Live
// sessions are closed when shutdown begins.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("address", s.server.Addr).
			Msg("HTTP server starting")

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server: listen: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.stop()
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}
