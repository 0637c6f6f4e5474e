// Package pkg provides the core libraries for Flowdesk flowchart editing.
//
// # Overview
//
// Flowdesk reads Mermaid flowcharts into a graph model, edits them with
// referential integrity, lays them out as layered diagrams and writes them
// back as text. The pkg directory is organized into three main areas:
//
//  1. Model: [flow] and [mermaid] (graph structure, text round trip)
//  2. Layout and output: [layout] and [render]
//  3. Infrastructure: [pipeline], [editor], [storage], [cache], [config]
//
// # Architecture
//
// The typical data flow through Flowdesk:
//
//	flowchart text (.mmd / .mermaid)
//	         ↓
//	    [mermaid] package (parse, unmatched lines are counted and skipped)
//	         ↓
//	    [flow] package (nodes, edges, renames, placeholders)
//	         ↓
//	    [layout] package (positions + edge styles)
//	         ↓
//	    [render] package (DOT, SVG, PNG, PDF) or [mermaid] (text again)
//
// # Quick Start
//
// Parse, lay out and serialize a flowchart:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/flowdesk/pkg/layout"
//	    "github.com/matzehuels/flowdesk/pkg/mermaid"
//	)
//
//	// 1. Parse the text
//	g := mermaid.Parse(text)
//
//	// 2. Lay it out
//	_, err := layout.Run(context.Background(), layout.Layered{}, g, layout.Options{})
//
//	// 3. Write it back
//	out := mermaid.Serialize(g)
//
// # Main Packages
//
// [flow] - The flowchart graph. Node ids are unique; renaming a node rewrites
// every edge that touches it; edges into unknown targets create placeholder
// nodes.
//
// [mermaid] - Line-oriented parser and canonical serializer for the
// flowchart subset Flowdesk supports. Serializing and re-parsing yields an
// equivalent graph.
//
// [layout] - Layered layout (cycle breaking, longest-path layering,
// barycenter crossing reduction) and a Graphviz engine behind one interface.
//
// [render] - Export of laid-out graphs as DOT, JSON, Mermaid and, through
// Graphviz, SVG (PNG and PDF are converted from SVG).
//
// [editor] - An editing session with a text mode and a diagram mode,
// debounced layout and a single outstanding save.
//
// [pipeline] - Parse → layout → render with caching, used by CLI, editor
// and server so they agree on defaults.
//
// [storage] - Flowchart file backends: filesystem, memory, Redis, MongoDB,
// SQLite.
//
// [cache] - Result caching for layouts and renders (file, Redis, null).
//
// [config] - TOML configuration with environment overrides.
//
// [errors] - Error codes and user-facing messages shared by every surface.
//
// [observability] - Hooks for parse, layout, render, cache and editor events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/layout/...             # Specific package
//	go test -run Example                 # Examples only
//
// [flow]: https://pkg.go.dev/github.com/matzehuels/flowdesk/pkg/flow
// [mermaid]: https://pkg.go.dev/github.com/matzehuels/flowdesk/pkg/mermaid
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowdesk/pkg/layout
// [render]: https://pkg.go.dev/github.com/matzehuels/flowdesk/pkg/render
// [editor]: https://pkg.go.dev/github.com/matzehuels/flowdesk/pkg/editor
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowdesk/pkg/pipeline
// [storage]: https://pkg.go.dev/github.com/matzehuels/flowdesk/pkg/storage
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowdesk/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/flowdesk/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowdesk/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowdesk/pkg/observability
package pkg
