package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/flowdesk/pkg/cache"
	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/mermaid"
	"github.com/matzehuels/flowdesk/pkg/observability"
	"github.com/matzehuels/flowdesk/pkg/render"
)

// Parse parses Mermaid text and reports the parse to the pipeline hooks.
func Parse(ctx context.Context, source, text string) (*flow.Graph, mermaid.Stats) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, source)
	start := time.Now()

	g, stats := mermaid.ParseWithStats(text)

	hooks.OnParseComplete(ctx, source, g.NodeCount(), g.EdgeCount(), stats.Ignored, time.Since(start))
	return g, stats
}

// ComputeLayout runs the engine selected by opts.Layout.Engine. g is not
// modified; use [layout.Apply] to write the result back.
func ComputeLayout(ctx context.Context, g *flow.Graph, opts Options) (layout.Result, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Result{}, err
	}
	engine, err := layout.ByName(opts.Layout.Engine)
	if err != nil {
		return layout.Result{}, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, engine.Name(), g.NodeCount())
	start := time.Now()

	res, err := engine.Compute(ctx, g, opts.Layout)

	hooks.OnLayoutComplete(ctx, engine.Name(), time.Since(start), err)
	if err != nil {
		return layout.Result{}, fmt.Errorf("%s layout: %w", engine.Name(), err)
	}
	return res, nil
}

// RenderFormats renders g in every format of opts.Formats.
func RenderFormats(ctx context.Context, g *flow.Graph, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		hooks.OnRenderStart(ctx, format)
		start := time.Now()

		data, err := render.Render(ctx, g, format, opts.renderOptions()...)

		hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// contentHash hashes the full JSON document of g, positions and edge
// hints included.
func contentHash(g *flow.Graph) (string, error) {
	var buf bytes.Buffer
	if err := flow.WriteJSON(g, &buf); err != nil {
		return "", err
	}
	return cache.Hash(buf.Bytes()), nil
}
