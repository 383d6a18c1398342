// Package server serves a normalized catalog directory as read-only JSON
// over HTTP. It exposes the tree exactly as it sits on disk; there are no
// search or transaction endpoints.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/stacsmith/stacsmith/pkg/storage"
)

// Server serves the files under a catalog root directory.
type Server struct {
	root   string
	reader storage.Reader
	logger *log.Logger
}

// New creates a server rooted at dir, which should hold a normalized
// catalog with a catalog.json at its top level.
func New(dir string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{root: dir, reader: storage.NewFileStore(), logger: logger}
}

// Handler builds the router: a health endpoint plus a catch-all document
// handler, with request logging around everything.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Get("/healthz", s.handleHealth)
	r.Get("/*", s.handleDocument)
	r.Head("/*", s.handleDocument)
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving catalog", "addr", addr, "root", s.root)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	// Clean folds ".." segments into the leading slash, so the join below
	// cannot escape the root directory.
	rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if rel == "" || rel == "." {
		http.Redirect(w, r, "/catalog.json", http.StatusFound)
		return
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if info, err := os.Stat(full); err == nil && info.IsDir() {
		http.Redirect(w, r, "/"+rel+"/catalog.json", http.StatusFound)
		return
	}

	data, err := s.reader.Get(r.Context(), full)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("read document", "path", rel, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType(rel, data))
	_, _ = w.Write(data)
}

// contentType picks the media type for a served file: GeoJSON features get
// the geo+json type, other JSON documents plain JSON, and anything else is
// sniffed.
func contentType(rel string, data []byte) string {
	if !strings.HasSuffix(rel, ".json") {
		return http.DetectContentType(data)
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err == nil && head.Type == "Feature" {
		return "application/geo+json"
	}
	return "application/json"
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"dur", time.Since(start).Round(time.Microsecond),
		)
	})
}
