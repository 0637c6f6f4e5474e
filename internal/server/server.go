// Package server exposes flowchart storage, the pipeline and live editing
// sessions over HTTP.
//
// # Routes
//
//	GET    /health              liveness probe
//	GET    /api/files           flowcharts below ?path= ({"files": [...]})
//	GET    /api/files/list      every path below ?path=
//	GET    /api/file/*          file content
//	PUT    /api/file/*          replace file content ({"content": "..."})
//	DELETE /api/file/*          remove a file
//	POST   /api/parse           Mermaid text to a graph document
//	POST   /api/serialize       graph document to Mermaid text
//	POST   /api/layout          laid-out graph document (cached)
//	POST   /api/render          rendered artifact in one format
//	GET    /ws/diagram/*        WebSocket editing session for one file
//
// Errors are answered as {"code": "...", "detail": "..."} with the status
// derived from the error code.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/flowdesk/pkg/buildinfo"
	"github.com/matzehuels/flowdesk/pkg/editor"
	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/pipeline"
	"github.com/matzehuels/flowdesk/pkg/storage"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

// Options configures a [Server].
type Options struct {
	// Layout is the default for layout requests and editing sessions.
	Layout layout.Options

	// Debounce is the layout debounce of editing sessions.
	Debounce time.Duration

	// AllowedOrigins lists the origins allowed to open WebSocket sessions.
	// Empty allows same-origin requests only; "*" allows any origin.
	AllowedOrigins []string
}

// Server serves the flowdesk HTTP API.
type Server struct {
	store    storage.Store
	runner   *pipeline.Runner
	logger   *log.Logger
	opts     Options
	upgrader websocket.Upgrader
	router   chi.Router
}

// New creates a server backed by store. runner carries the layout and
// artifact cache.
func New(store storage.Store, runner *pipeline.Runner, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	if opts.Debounce == 0 {
		opts.Debounce = editor.DefaultDebounce
	}
	opts.Layout = opts.Layout.Normalized()

	s := &Server{
		store:  store,
		runner: runner,
		logger: logger,
		opts:   opts,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/files", s.handleListFlowcharts)
		r.Get("/files/list", s.handleListFiles)

		r.Get("/file/*", s.handleGetFile)
		r.Put("/file/*", s.handlePutFile)
		r.Delete("/file/*", s.handleDeleteFile)

		r.Post("/parse", s.handleParse)
		r.Post("/serialize", s.handleSerialize)
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)
	})

	r.Get("/ws/diagram/*", s.handleDiagramSocket)
	return r
}

// logRequests logs one line per request through the server logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", buildinfo.UserAgent())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.opts.AllowedOrigins, "*") || slices.Contains(s.opts.AllowedOrigins, origin) {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// handleHealth returns a JSON health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "flowdesk",
		"build":   buildinfo.Get(),
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code   ferrors.Code `json:"code"`
	Detail string       `json:"detail"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError answers with the status and code carried by err. Errors
// without a code are reported as internal errors and logged.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	err = classify(err)
	status := ferrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	respondJSON(w, status, errorResponse{Code: ferrors.GetCode(err), Detail: ferrors.UserMessage(err)})
}

// classify attaches codes to the sentinel errors of the storage and layout
// packages.
func classify(err error) error {
	switch {
	case ferrors.GetCode(err) != "":
		return err
	case errors.Is(err, storage.ErrNotFound):
		return ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "%v", err)
	case errors.Is(err, layout.ErrInvalidOptions), errors.Is(err, layout.ErrUnknownEngine):
		return ferrors.Wrap(ferrors.ErrCodeInvalidOptions, err, "%v", err)
	case errors.Is(err, context.DeadlineExceeded):
		return ferrors.Wrap(ferrors.ErrCodeTimeout, err, "request timed out")
	}
	return ferrors.Wrap(ferrors.ErrCodeInternal, err, "%v", err)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid request body: %v", err)
	}
	return nil
}
