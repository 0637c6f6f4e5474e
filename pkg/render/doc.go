// Package render exports flowcharts as images and diagram sources.
//
// # Overview
//
// The editor draws flowcharts on an interactive canvas; this package
// produces the static equivalents used by the CLI and the HTTP API:
//
//   - DOT source via [ToDOT], for external Graphviz tooling
//   - SVG via [RenderSVG], rendered in-process with Graphviz
//   - PDF and PNG via [ToPDF] and [ToPNG], converted from SVG
//
// # Shapes
//
// Node kinds map onto Graphviz shapes the way the canvas draws them:
// decisions are diamonds, start and end nodes are rounded stadiums, plain
// nodes are boxes. Edge hints from the layout engine carry over: attachment
// sides become ports, animated (bidirectional) edges are dashed.
//
// # Positions
//
// A laid-out graph is rendered with its positions pinned, so the export
// matches what the canvas shows. Graphs that were never laid out, or whose
// topology changed since, are handed to the dot algorithm instead.
//
// # Dependencies
//
// SVG rendering uses [github.com/goccy/go-graphviz]. PDF and PNG conversion
// requires librsvg (rsvg-convert).
package render
