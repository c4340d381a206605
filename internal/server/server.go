// Package server runs the static HTTP server in development or
// production-like mode.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/slidekit/internal/config"
	"github.com/mtlprog/slidekit/internal/domain"
	"github.com/mtlprog/slidekit/internal/handler"
	"github.com/mtlprog/slidekit/internal/livereload"
	"github.com/mtlprog/slidekit/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

// Opener opens a URL in a browser.
type Opener func(url string) error

// Option configures a Server.
type Option func(*Server)

// WithOpener opens the served URL once the listener is bound (dev mode only).
func WithOpener(open Opener) Option {
	return func(s *Server) { s.open = open }
}

// WithHistory exposes recorded builds under /__builds.
func WithHistory(history handler.BuildHistory) Option {
	return func(s *Server) { s.history = history }
}

// WithWatchPatterns overrides the dev-mode watch globs.
func WithWatchPatterns(patterns ...string) Option {
	return func(s *Server) { s.patterns = patterns }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// Server serves the project root over HTTP.
type Server struct {
	cfg      config.Config
	mode     domain.ServerMode
	hub      *livereload.Hub
	history  handler.BuildHistory
	patterns []string
	open     Opener
	logger   *slog.Logger

	ready chan struct{}
	addr  string
}

// New creates a Server for the given mode.
func New(cfg config.Config, mode domain.ServerMode, opts ...Option) (*Server, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}

	s := &Server{
		cfg:      cfg,
		mode:     mode,
		patterns: watcher.DefaultPatterns,
		logger:   slog.Default(),
		ready:    make(chan struct{}),
	}
	if mode == domain.ServerModeDev {
		s.hub = livereload.NewHub()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address. Valid after Ready is closed.
func (s *Server) Addr() string {
	return s.addr
}

// URL returns the base URL of the bound server. Valid after Ready is closed.
func (s *Server) URL() string {
	return "http://" + s.addr
}

// Hub returns the live-reload hub, nil outside dev mode.
func (s *Server) Hub() *livereload.Hub {
	return s.hub
}

// Run binds the listener and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	handler.New(s.cfg.Root, s.mode, s.hub, s.history).RegisterRoutes(mux)

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}

	var w *watcher.Watcher
	if s.mode == domain.ServerModeDev {
		w, err = watcher.New(s.cfg.Root, s.patterns, watcher.DefaultDebounce, func(p string) {
			s.hub.Reload(p)
		}, s.logger, s.cfg.DistDir())
		if err != nil {
			ln.Close()
			return fmt.Errorf("start watcher: %w", err)
		}
	}
	s.addr = ln.Addr().String()

	srv := &http.Server{
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		if s.hub != nil {
			s.hub.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if w != nil {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	s.announce()
	close(s.ready)

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) announce() {
	url := s.URL()
	switch s.mode {
	case domain.ServerModeDev:
		s.logger.Info("Development server started", "url", url, "root", s.cfg.Root, "livereload", true)
		if s.open != nil {
			if err := s.open(url); err != nil {
				s.logger.Warn("failed to open browser", "url", url, "error", err)
			}
		}
	case domain.ServerModeProd:
		s.logger.Info("Production server started", "url", url, "root", s.cfg.Root, "cache_headers", true)
	}
}
