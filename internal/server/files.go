package server

import (
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowdesk/pkg/storage"
)

// FileInfo is one entry of a flowchart listing.
type FileInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// FileContent is the body of GET and PUT /api/file/*.
type FileContent struct {
	Path      string `json:"path,omitempty"`
	Content   string `json:"content"`
	Size      int    `json:"size"`
	Extension string `json:"extension,omitempty"`
}

// handleListFlowcharts lists the flowcharts below ?path=. With all=true
// every file is listed.
func (s *Server) handleListFlowcharts(w http.ResponseWriter, r *http.Request) {
	paths, err := s.store.List(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); !all {
		paths = storage.FilterFlowcharts(paths)
	}

	files := make([]FileInfo, 0, len(paths))
	for _, p := range paths {
		files = append(files, FileInfo{Name: path.Base(p), Path: p, Type: "file"})
	}
	respondJSON(w, http.StatusOK, map[string]any{"files": files})
}

// handleListFiles lists every path below ?path=.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	paths, err := s.store.List(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"files": paths})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	p := wildcardPath(r)
	content, err := s.store.Read(r.Context(), p)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newFileContent(p, content))
}

func (s *Server) handlePutFile(w http.ResponseWriter, r *http.Request) {
	p := wildcardPath(r)
	var req FileContent
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.Write(r.Context(), p, req.Content); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.Info("file written", "path", p, "bytes", len(req.Content))
	respondJSON(w, http.StatusOK, newFileContent(p, req.Content))
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	p := wildcardPath(r)
	if err := s.store.Delete(r.Context(), p); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.Info("file deleted", "path", p)
	w.WriteHeader(http.StatusNoContent)
}

func newFileContent(p, content string) FileContent {
	ext := path.Ext(p)
	if ext != "" {
		ext = ext[1:]
	}
	return FileContent{Path: p, Content: content, Size: len(content), Extension: ext}
}

// wildcardPath returns the file path matched by a trailing "*" route.
// Clients may send it URL-encoded as a single segment.
func wildcardPath(r *http.Request) string {
	p := chi.URLParam(r, "*")
	if u, err := url.PathUnescape(p); err == nil {
		return u
	}
	return p
}
