// Package layout computes node positions and connector hints for flow graphs.
//
// # Engines
//
// Two [Engine] implementations are provided:
//
//   - [Layered]: a Sugiyama-style layered layout implemented in this package
//   - [Graphviz]: the Graphviz dot layout via github.com/goccy/go-graphviz
//
// Both produce a [Result] with the top-left position of every node and an
// [flow.EdgeStyle] for every edge. [Apply] copies a result onto a graph
// without touching ids or labels; [Run] computes, applies and clears the
// graph's stale flag in one call.
//
// # Layered Algorithm
//
// The layered engine works on a private copy of the topology:
//
//  1. Build a working DAG, skipping self-loops and collapsing parallel edges
//  2. Break cycles by reversing DFS back edges
//  3. Assign layers by longest path (Kahn's algorithm)
//  4. Subdivide edges spanning several layers with virtual vertices
//  5. Reorder layers with barycenter sweeps, keeping the ordering with the
//     fewest crossings (counted with a Fenwick tree)
//  6. Assign coordinates per layer, centred on a common axis
//
// Every step is linear in the size of the (subdivided) graph and the number
// of sweeps is fixed, so a layout always terminates. Virtual vertices never
// appear in the result.
//
// # Edge Styles
//
// Connector hints are derived from the final positions, identically for both
// engines:
//
//   - Animated when the reverse connection exists (a self-loop counts)
//   - Attachment sides from the relative node centres: vertical when the
//     centres are less than 50 units apart horizontally, horizontal otherwise
//   - Step routing into decision nodes, smooth-step everywhere else
package layout
