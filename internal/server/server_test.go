package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/seafoam/internal/bgvtest"
	"github.com/matzehuels/seafoam/pkg/annotate"
	"github.com/matzehuels/seafoam/pkg/cache"
	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/observability"
	"github.com/matzehuels/seafoam/pkg/pipeline"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "fib.bgv"), bgvtest.Fib(7, 1), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "nested", "bad.bgv"), []byte("NOPE\x07\x01"), 0o644))

	c, err := cache.NewLRUCache(16)
	require.NoError(t, err)
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(c, nil, logger)
	t.Cleanup(func() { runner.Close() })

	s, err := New(Config{
		Root:     root,
		Runner:   runner,
		Annotate: annotate.DefaultOptions(),
		Logger:   logger,
	})
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// =============================================================================
// Tests
// =============================================================================

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Root: t.TempDir()})
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))

	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	_, err = New(Config{Root: filepath.Join(t.TempDir(), "missing"), Runner: runner})
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListGraphs(t *testing.T) {
	s := setupTestServer(t)

	rec := get(t, s, "/graphs?file=fib.bgv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fib.bgv", body.File)
	assert.False(t, body.Cached)
	require.Len(t, body.Graphs, bgvtest.FibSnapshots)
	for i, g := range body.Graphs {
		assert.Equal(t, i, g.Index)
		assert.Equal(t, "17:Fib.fib/"+bgvtest.FibPhases[i], g.Name)
	}

	rec = get(t, s, "/graphs?file=fib.bgv")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Cached)
}

func TestListErrors(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name   string
		target string
		status int
		code   errors.Code
	}{
		{"no file", "/graphs", http.StatusBadRequest, errors.ErrCodeInvalidPath},
		{"traversal", "/graphs?file=../fib.bgv", http.StatusBadRequest, errors.ErrCodeInvalidPath},
		{"absolute", "/graphs?file=/etc/fib.bgv", http.StatusBadRequest, errors.ErrCodeInvalidPath},
		{"not a dump", "/graphs?file=notes.txt", http.StatusBadRequest, errors.ErrCodeInvalidPath},
		{"missing", "/graphs?file=none.bgv", http.StatusNotFound, errors.ErrCodeNotFound},
		{"bad magic", "/graphs?file=nested/bad.bgv", http.StatusUnprocessableEntity, errors.ErrCodeFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestRenderDOT(t *testing.T) {
	s := setupTestServer(t)

	rec := get(t, s, "/graphs/1?file=fib.bgv&format=dot&title=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/vnd.graphviz; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "digraph G {"))
	assert.Contains(t, body, "17:Fib.fib/"+bgvtest.FibPhases[1])
	assert.Contains(t, body, "Call Fib.fib")
	assert.NotContains(t, body, "FrameState")

	rec = get(t, s, "/graphs/1?file=fib.bgv&format=dot&title=true")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, body, rec.Body.String())
}

func TestRenderOptions(t *testing.T) {
	s := setupTestServer(t)

	rec := get(t, s, "/graphs/0?file=fib.bgv&format=dot&option=hide_frame_state=false")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "FrameState")

	rec = get(t, s, "/graphs/0?file=fib.bgv&format=DOT&spotlight=13")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "penwidth=3")
}

func TestRenderErrors(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name   string
		target string
		status int
		code   errors.Code
	}{
		{"bad index", "/graphs/x?file=fib.bgv", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"missing graph", "/graphs/9?file=fib.bgv&format=dot", http.StatusNotFound, errors.ErrCodeNotFound},
		{"bad format", "/graphs/0?file=fib.bgv&format=gif", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad spotlight", "/graphs/0?file=fib.bgv&format=dot&spotlight=a", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown spotlight node", "/graphs/0?file=fib.bgv&format=dot&spotlight=999", http.StatusBadRequest, errors.ErrCodeUnknownNode},
		{"bad option", "/graphs/0?file=fib.bgv&format=dot&option=hide_floating", http.StatusBadRequest, errors.ErrCodeConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestRequestID(t *testing.T) {
	s := setupTestServer(t)

	rec := get(t, s, "/healthz")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/graphs?file=none.bgv", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-42", decodeError(t, rec).RequestID)
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	requests  []string
	responses []int
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, id, method, path string) {
	h.requests = append(h.requests, method+" "+path)
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, id, method, path string, status int, _ time.Duration) {
	h.responses = append(h.responses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s := setupTestServer(t)
	get(t, s, "/healthz")
	get(t, s, "/graphs?file=none.bgv")

	assert.Equal(t, []string{"GET /healthz", "GET /graphs"}, hooks.requests)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, hooks.responses)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.ErrCodeInternal))
	assert.Equal(t, http.StatusInternalServerError, statusFor(""))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(errors.ErrCodeDecode))
}

func TestListenAndServeShutdown(t *testing.T) {
	s := setupTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}
