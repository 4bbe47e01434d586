package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/alfredjeanlab/reasons/internal/pace"
	"github.com/alfredjeanlab/reasons/internal/snapshot"
	"github.com/alfredjeanlab/reasons/internal/store"
)

// NewHTTPHandler returns an http.Handler with all routes registered and the
// request middleware applied.
func (s *Server) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleEditorPage)
	mux.HandleFunc("GET /viz", s.handleVizPage)
	mux.HandleFunc("GET /api/data", s.handleLoad)
	mux.HandleFunc("POST /api/save", s.handleSave)
	mux.HandleFunc("POST /api/version", s.handleVersion)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/pace", s.handlePace)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/events", s.handleEventStream)
	mux.HandleFunc("GET /", s.handleStatic)
	return RequestIDMiddleware(LoggingMiddleware(s.logger, RecoveryMiddleware(s.logger, mux)))
}

type saveRequest struct {
	Reasons json.RawMessage `json:"reasons"`
	Message string          `json:"message"`
}

type versionRequest struct {
	Reasons json.RawMessage `json:"reasons"`
	Label   string          `json:"label"`
}

type statusResponse struct {
	OK        bool         `json:"ok"`
	HasRemote bool         `json:"hasRemote"`
	Commits   []commitView `json:"commits"`
}

type commitView struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
}

// handleLoad handles GET /api/data. Unreadable documents are reported as
// absent rather than as an error.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": doc})
		return
	case errors.Is(err, store.ErrNotFound):
	case errors.Is(err, store.ErrCorrupt):
		s.logger.Warn("document unreadable, reporting no data", "path", s.store.Path(), "err", err)
	default:
		s.logger.Warn("failed to load document", "path", s.store.Path(), "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": nil})
}

// handleSave handles POST /api/save.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.writeDocument(w, r, req.Reasons, s.labeler.Label(snapshot.KindUpdate, req.Message))
}

// handleVersion handles POST /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	var req versionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.writeDocument(w, r, req.Reasons, s.labeler.Label(snapshot.KindVersion, req.Label))
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, raw json.RawMessage, label string) {
	doc, err := store.ParseDocument(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if err := s.persist(r.Context(), doc, label); err != nil {
		s.logger.Error("failed to save document", "path", s.store.Path(), "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleStatus handles GET /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	commits := s.history.Recent(ctx, s.historyLimit)
	resp := statusResponse{
		OK:        true,
		HasRemote: s.history.HasRemote(ctx),
		Commits:   make([]commitView, 0, len(commits)),
	}
	for _, c := range commits {
		resp.Commits = append(resp.Commits, commitView{Hash: c.Hash, Message: c.Message})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePace handles GET /api/pace. Failures are reported in the body with
// a 200 status.
func (s *Server) handlePace(w http.ResponseWriter, r *http.Request) {
	if s.pace == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "No activity source"})
		return
	}
	speeds, err := pace.Load(r.Context(), s.pace)
	if errors.Is(err, pace.ErrNoActivity) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "No " + s.pace.Name()})
		return
	}
	if err != nil {
		s.logger.Warn("failed to read activity", "source", s.pace.Name(), "err", err)
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "speeds": speeds, "count": len(speeds)})
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "snapshots": s.recorder.Stats()})
}

func (s *Server) handleEditorPage(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, s.editorPage)
}

func (s *Server) handleVizPage(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, s.vizPage)
}

// handleStatic serves any other file from the deployment directory. Paths
// with a dot-prefixed segment (.git, .env) are never served.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || hasDotSegment(name) {
		http.NotFound(w, r)
		return
	}
	s.serveFile(w, r, name)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	if s.static == nil {
		http.NotFound(w, r)
		return
	}
	info, err := fs.Stat(s.static, name)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, s.static, name)
}

func hasDotSegment(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// decodeBody decodes a size-limited JSON request body into v. It writes the
// error response and returns false on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		// An empty body decodes as {}; the caller reports the missing fields.
		return true
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": message})
}
