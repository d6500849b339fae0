// Package api exposes the dependency analysis engine over HTTP.
//
// The server is a thin JSON layer: requests are decoded, handed to the
// engine, and results encoded back with structured error envelopes.
// All analysis semantics live in pkg/engine.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/depchase/depchase/pkg/engine"
	"github.com/depchase/depchase/pkg/source"
)

// Server wires the engine into an HTTP router.
type Server struct {
	engine *engine.Engine
	host   source.Host
	logger *log.Logger
}

// NewServer creates an HTTP server around an engine. A nil logger
// disables request logging.
func NewServer(eng *engine.Engine, host source.Host, logger *log.Logger) *Server {
	return &Server{engine: eng, host: host, logger: logger}
}

// Router builds the route table. Exposed separately so tests can
// drive it through httptest without binding a socket.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	if s.logger != nil {
		r.Use(requestLogger(s.logger))
	}
	r.Use(recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/trace", s.handleTrace)
		r.Post("/chain", s.handleChain)
		r.Get("/file", s.handleFile)
		r.Get("/repo", s.handleRepo)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
