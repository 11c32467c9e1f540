// Package server serves dump listings and rendered graphs over HTTP.
//
// Dumps are addressed by a path relative to the server root, passed as the
// file query parameter:
//
//	GET /graphs?file=fib.bgv                 list the graphs of a dump
//	GET /graphs/2?file=fib.bgv&format=svg    render graph 2
//
// Render requests accept format (dot, svg, png, jpg, pdf; default svg),
// spotlight (comma-separated node ids), option (repeatable key=value
// annotator option), title and show_ids. Every response carries an
// X-Request-ID header; a client-supplied id is echoed back.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/seafoam/pkg/annotate"
	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/observability"
	"github.com/matzehuels/seafoam/pkg/pipeline"
	"github.com/matzehuels/seafoam/pkg/render/dot"
)

// =============================================================================
// Configuration
// =============================================================================

const (
	// DefaultAddr is the listen address when none is given.
	DefaultAddr = "localhost:8080"

	// DefaultFormat is the render format when the request names none.
	DefaultFormat = dot.FormatSVG

	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"

	shutdownTimeout = 5 * time.Second
)

// Config configures a [Server].
type Config struct {
	// Root is the directory dumps are served from.
	Root string
	// Runner executes list and render requests. Required.
	Runner *pipeline.Runner
	// Annotate is the base annotator configuration; request options are
	// applied on top of it.
	Annotate annotate.Options
	Logger   *log.Logger
}

// Server is the HTTP front end of the pipeline.
type Server struct {
	root     string
	runner   *pipeline.Runner
	annotate annotate.Options
	logger   *log.Logger
	router   chi.Router
}

// New validates cfg and builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "server needs a pipeline runner")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "resolve root %s", cfg.Root)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.New(errors.ErrCodeConfiguration, "root %s is not a directory", root)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{
		root:     root,
		runner:   cfg.Runner,
		annotate: cfg.Annotate,
		logger:   cfg.Logger,
	}
	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// Root returns the absolute directory dumps are served from.
func (s *Server) Root() string { return s.root }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", addr, "root", s.root)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// =============================================================================
// Routing and Middleware
// =============================================================================

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/graphs", s.handleList)
	r.Get("/graphs/{index}", s.handleRender)
	return r
}

type ctxKey int

const requestIDKey ctxKey = 0

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := RequestID(r.Context())
		observability.HTTP().OnRequest(r.Context(), id, r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnResponse(r.Context(), id, r.Method, r.URL.Path, status, time.Since(start))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listResponse is the body of GET /graphs.
type listResponse struct {
	File   string              `json:"file"`
	Graphs []pipeline.Snapshot `json:"graphs"`
	Cached bool                `json:"cached"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	file, path, err := s.resolve(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snaps, hit, err := s.runner.List(r.Context(), path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{File: file, Graphs: snaps, Cached: hit})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	_, path, err := s.resolve(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.renderOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.File = path

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[opts.Format])
	if result.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifact)
}

var contentTypes = map[dot.Format]string{
	dot.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	dot.FormatSVG: "image/svg+xml",
	dot.FormatPNG: "image/png",
	dot.FormatJPG: "image/jpeg",
	dot.FormatPDF: "application/pdf",
}

// resolve maps the file query parameter to a dump below the root.
func (s *Server) resolve(r *http.Request) (string, string, error) {
	file := r.URL.Query().Get("file")
	if err := errors.ValidateDumpPath(file); err != nil {
		return "", "", err
	}
	return file, filepath.Join(s.root, filepath.FromSlash(file)), nil
}

// renderOptions builds pipeline options from the path and query.
func (s *Server) renderOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	var opts pipeline.Options

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		return opts, errors.New(errors.ErrCodeInvalidInput, "invalid graph index %q", chi.URLParam(r, "index"))
	}
	opts.Index = index

	opts.Format = DefaultFormat
	if f := q.Get("format"); f != "" {
		opts.Format = dot.Format(strings.ToLower(f))
	}

	if sp := q.Get("spotlight"); sp != "" {
		for _, part := range strings.Split(sp, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || id < 0 {
				return opts, errors.New(errors.ErrCodeInvalidInput, "invalid spotlight node %q", part)
			}
			opts.Spotlight = append(opts.Spotlight, id)
		}
	}

	aopts := s.annotate.Clone()
	for _, pair := range q["option"] {
		if err := aopts.SetPair(pair); err != nil {
			return opts, err
		}
	}
	opts.Annotate = &aopts

	opts.Title = boolParam(q.Get("title"))
	opts.ShowIDs = boolParam(q.Get("show_ids"))
	opts.Refresh = boolParam(q.Get("refresh"))
	opts.Logger = s.logger
	return opts, nil
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// =============================================================================
// Responses
// =============================================================================

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath,
		errors.ErrCodeConfiguration, errors.ErrCodeUnknownNode:
		return http.StatusBadRequest
	case errors.ErrCodeFormat, errors.ErrCodeVersion, errors.ErrCodeDecode,
		errors.ErrCodeDuplicateNode:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", RequestID(r.Context()), "error", err)
	}
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   errors.UserMessage(err),
		RequestID: RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
