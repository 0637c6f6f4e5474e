package server

import (
	"context"
	"net/http"
	"strconv"

	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/mermaid"
	"github.com/matzehuels/flowdesk/pkg/pipeline"
	"github.com/matzehuels/flowdesk/pkg/render"
)

// graphRequest carries a flowchart either as Mermaid text or as a graph
// document. Text wins when both are set.
type graphRequest struct {
	Source  string          `json:"source,omitempty"`
	Text    string          `json:"text,omitempty"`
	Graph   *flow.Document  `json:"graph,omitempty"`
	Layout  *layout.Options `json:"layout,omitempty"`
	Refresh bool            `json:"refresh,omitempty"`
	Format  string          `json:"format,omitempty"`
}

// ParseStats summarizes a parse.
type ParseStats struct {
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
	Lines   int `json:"lines"`
	Ignored int `json:"ignored"`
}

// ParseResponse is the body of POST /api/parse.
type ParseResponse struct {
	Graph flow.Document `json:"graph"`
	Hash  string        `json:"hash"`
	Stats ParseStats    `json:"stats"`
}

// LayoutResponse is the body of POST /api/layout.
type LayoutResponse struct {
	Graph  flow.Document `json:"graph"`
	Layout layout.Result `json:"layout"`
	Cached bool          `json:"cached"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req graphRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	g, stats := pipeline.Parse(r.Context(), sourceName(req.Source), req.Text)
	respondJSON(w, http.StatusOK, ParseResponse{
		Graph: flow.ToDocument(g),
		Hash:  pipeline.GraphHash(g),
		Stats: ParseStats{
			Nodes:   g.NodeCount(),
			Edges:   g.EdgeCount(),
			Lines:   stats.Lines,
			Ignored: stats.Ignored,
		},
	})
}

func (s *Server) handleSerialize(w http.ResponseWriter, r *http.Request) {
	var req graphRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Graph == nil {
		s.respondError(w, r, ferrors.New(ferrors.ErrCodeInvalidInput, "graph is required"))
		return
	}
	g, err := flow.FromDocument(*req.Graph)
	if err != nil {
		s.respondError(w, r, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid graph: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": mermaid.Serialize(g)})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req graphRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := s.graphOf(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	res, cached, err := s.runner.LayoutWithCacheInfo(r.Context(), g, s.pipelineOptions(req))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, LayoutResponse{Graph: flow.ToDocument(g), Layout: res, Cached: cached})
}

// handleRender lays the flowchart out and answers with one artifact. The
// format comes from the body or ?format=, defaulting to SVG.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req graphRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	format := req.Format
	if format == "" {
		format = r.URL.Query().Get("format")
	}
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := render.ValidateFormat(format); err != nil {
		s.respondError(w, r, ferrors.Wrap(ferrors.ErrCodeInvalidOptions, err, "%v", err))
		return
	}

	g, err := s.graphOf(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	opts := s.pipelineOptions(req)
	opts.Formats = []string{format}
	if g.Stale() {
		if _, err := s.runner.Layout(r.Context(), g, opts); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	artifacts, cached, err := s.runner.RenderWithCacheInfo(r.Context(), g, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", render.ContentType(format))
	w.Header().Set("X-Flowdesk-Cached", strconv.FormatBool(cached))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

// graphOf builds the graph a request carries.
func (s *Server) graphOf(ctx context.Context, req graphRequest) (*flow.Graph, error) {
	if req.Text != "" {
		g, _ := pipeline.Parse(ctx, sourceName(req.Source), req.Text)
		return g, nil
	}
	if req.Graph == nil {
		return nil, ferrors.New(ferrors.ErrCodeInvalidInput, "text or graph is required")
	}
	g, err := flow.FromDocument(*req.Graph)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid graph: %v", err)
	}
	return g, nil
}

// pipelineOptions merges the request's layout options over the server
// defaults.
func (s *Server) pipelineOptions(req graphRequest) pipeline.Options {
	opts := pipeline.Options{
		Source:  sourceName(req.Source),
		Layout:  s.opts.Layout,
		Refresh: req.Refresh,
		Logger:  s.logger,
	}
	if req.Layout != nil {
		o := *req.Layout
		if o.Engine == "" {
			o.Engine = s.opts.Layout.Engine
		}
		if o.Direction == "" {
			o.Direction = s.opts.Layout.Direction
		}
		opts.Layout = o.Normalized()
	}
	return opts
}

func sourceName(source string) string {
	if source == "" {
		return "request"
	}
	return source
}
