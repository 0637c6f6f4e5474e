// Package pipeline runs the parse → layout → render pipeline for
// flowcharts.
//
// The CLI, the HTTP server and the editor all go through this package so
// they agree on defaults, caching and instrumentation.
//
// # Stages
//
//  1. Parse: Mermaid text to a [flow.Graph] (never fails; unmatched lines
//     are counted in [mermaid.Stats])
//  2. Layout: positions and edge hints from a [layout.Engine], cached by
//     graph content and layout options
//  3. Render: artifacts in the requested formats, cached by laid-out
//     content and render options
//
// Each stage can be run on its own.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, text, pipeline.Options{
//	    Source:  "order.mmd",
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	g, stats := pipeline.Parse(ctx, "order.mmd", text)
//	res, err := runner.Layout(ctx, g, opts)
//	artifacts, err := runner.Render(ctx, g, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowdesk/pkg/cache"
	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/mermaid"
	"github.com/matzehuels/flowdesk/pkg/render"
)

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = render.FormatSVG

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Source names the input in logs and hooks (a path, "stdin", ...).
	Source string `json:"source,omitempty"`

	// Layout options
	Layout  layout.Options `json:"layout"`
	Refresh bool           `json:"refresh,omitempty"` // bypass cache reads

	// Render options
	Formats []string `json:"formats,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the parsed and laid-out flowchart.
	Graph *flow.Graph

	// GraphHash is the content hash of the serialized graph.
	GraphHash string

	// Layout is the engine output applied to Graph.
	Layout layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	IgnoredLines int
	ParseTime    time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	o.Layout.SetDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return o.Layout.Validate()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	o.SetLayoutDefaults()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	for _, f := range o.Formats {
		if err := render.ValidateFormat(f); err != nil {
			return err
		}
	}
	return o.Layout.Validate()
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Engine:     o.Layout.Engine,
		Direction:  string(o.Layout.Direction),
		NodeWidth:  o.Layout.NodeWidth,
		NodeHeight: o.Layout.NodeHeight,
		NodeSep:    o.Layout.NodeSep,
		EdgeSep:    o.Layout.EdgeSep,
		RankSep:    o.Layout.RankSep,
		Sweeps:     o.Layout.Sweeps,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string, pinned bool) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Direction:  string(o.Layout.Direction),
		NodeWidth:  o.Layout.NodeWidth,
		NodeHeight: o.Layout.NodeHeight,
		Pinned:     pinned,
	}
}

// renderOptions translates pipeline options for the render package.
func (o *Options) renderOptions() []render.Option {
	return []render.Option{
		render.WithNodeSize(o.Layout.NodeWidth, o.Layout.NodeHeight),
		render.WithDirection(o.Layout.Direction),
	}
}

// GraphHash hashes the serialized form of g. Positions and edge hints do
// not contribute, so the hash identifies the topology, kinds and labels.
func GraphHash(g *flow.Graph) string {
	return cache.Hash([]byte(mermaid.Serialize(g)))
}
