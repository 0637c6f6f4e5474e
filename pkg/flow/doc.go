// Package flow provides the in-memory model of a workflow diagram.
//
// # Overview
//
// A [Graph] holds [Node] and [Edge] values in insertion order. The order is
// significant: it is the order in which the Mermaid serializer emits
// declarations and connections, so editing a graph and re-serializing it
// keeps hand-authored files stable.
//
// # Referential Integrity
//
// Every edge endpoint names an existing node. The mutation methods keep this
// true at all times:
//
//   - [Graph.RemoveNode] drops every edge touching the node
//   - [Graph.RenameNode] rewrites every edge endpoint and edge id
//   - [Graph.AddEdge] creates a placeholder node for an unknown target
//
// Node ids are restricted to word characters (letters, digits, underscore)
// so that any graph the model accepts can be written as flowchart text and
// read back unchanged.
//
// # Edge Identity
//
// Edges have no counter-based identity. [EdgeID] derives the id from the
// endpoints and the label, so adding the same connection twice overwrites
// rather than duplicates.
//
// # Positions
//
// Node positions are written by the layout engine. Any topology change marks
// the graph stale ([Graph.Stale]) until the next layout pass clears it with
// [Graph.MarkLaidOut].
package flow
