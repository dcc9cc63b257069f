// Package report serves the release artifacts over HTTP for CI dashboards:
// the BOM, the dependency registry, and the latest release report, read
// from disk on every request so the endpoint always reflects the artifacts
// the CLI last wrote.
package report

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Paths names the artifact files the server exposes.
type Paths struct {
	BOM           string
	Registry      string
	ReleaseReport string
}

// Server is the read-only artifact server.
type Server struct {
	paths  Paths
	logger *slog.Logger
	http   *http.Server
}

// NewServer builds a server for the given artifact paths.
func NewServer(addr string, readHeaderTimeout time.Duration, paths Paths, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{paths: paths, logger: logger}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			s.logger.Error("write failed", "error", err)
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/bom", s.artifact(s.paths.BOM))
		r.Get("/registry", s.artifact(s.paths.Registry))
		r.Get("/report", s.artifact(s.paths.ReleaseReport))
	})

	return r
}

// artifact serves one JSON artifact file from disk.
func (s *Server) artifact(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		data, err := os.ReadFile(filepath.Clean(path))
		if os.IsNotExist(err) {
			http.Error(w, "artifact not generated yet", http.StatusNotFound)
			return
		}
		if err != nil {
			s.logger.Error("failed to read artifact", "path", path, "error", err)
			http.Error(w, "failed to read artifact", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			s.logger.Error("write failed", "path", req.URL.Path, "error", err)
		}
	}
}

// ListenAndServe runs the server until the context is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	s.logger.Info("report server listening", "addr", s.http.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
