package flow

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidNodeID is returned when a node id is empty or contains
	// characters other than letters, digits and underscores.
	ErrInvalidNodeID = errors.New("node ID must be a non-empty word")

	// ErrDuplicateNodeID is returned by [Graph.RenameNode] when the new id
	// already names a different node. The graph is left untouched.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned when an operation references a node that
	// does not exist.
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidKind is returned by [ParseKind] for unrecognized kind names.
	ErrInvalidKind = errors.New("invalid node kind")
)

// Kind determines a node's shape in flowchart text and on the canvas.
type Kind string

const (
	KindStart    Kind = "start"
	KindEnd      Kind = "end"
	KindDecision Kind = "decision"
	KindNode     Kind = "node"
)

// Kinds lists every valid kind in display order.
var Kinds = []Kind{KindStart, KindNode, KindDecision, KindEnd}

// ParseKind converts a kind name to a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Kinds, k) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// IsTerminal reports whether the kind is drawn with the rounded stadium shape.
func (k Kind) IsTerminal() bool { return k == KindStart || k == KindEnd }

// Point is a 2-D coordinate in canvas units. For nodes it is the top-left
// corner of the bounding box.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of the flow graph.
type Node struct {
	ID       string
	Kind     Kind
	Label    string
	Position Point
}

// Side is the connector attachment side of a node.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// Curve is the connector routing style hint for the canvas.
type Curve string

const (
	CurveSmoothStep Curve = "smoothstep"
	CurveStep       Curve = "step"
)

// EdgeStyle holds rendering hints computed by the layout engine.
type EdgeStyle struct {
	Animated   bool  `json:"animated,omitempty"`
	SourceSide Side  `json:"source_side,omitempty"`
	TargetSide Side  `json:"target_side,omitempty"`
	Curve      Curve `json:"curve,omitempty"`
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID     string
	Source string
	Target string
	Label  string
	Style  EdgeStyle
}

// EdgeID derives an edge id from its endpoints and optional label.
func EdgeID(source, target, label string) string {
	if label == "" {
		return source + "-" + target
	}
	return source + "-" + target + "-" + label
}

var idPattern = regexp.MustCompile(`^\w+$`)

// ValidID reports whether id is usable as a node id.
func ValidID(id string) bool { return idPattern.MatchString(id) }

// Graph is a flowchart: nodes and edges kept in insertion order.
//
// The zero value is not usable - use [New].
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string
	stale     bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
	}
}

// AddNode creates a node with a fresh time-ordered id and returns the id.
// The node starts at (0,0), meaning it has not been laid out yet. An
// invalid kind falls back to [KindNode].
func (g *Graph) AddNode(kind Kind, label string) string {
	if !slices.Contains(Kinds, kind) {
		kind = KindNode
	}
	id := newNodeID()
	for g.nodes[id] != nil {
		id = newNodeID()
	}
	g.insertNode(&Node{ID: id, Kind: kind, Label: label})
	return id
}

func newNodeID() string {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return "node_" + strings.ReplaceAll(u.String(), "-", "")
}

// Declare registers a node with an explicit id. Declaring an existing id
// updates its kind and label in place, keeping its position in the order.
func (g *Graph) Declare(id string, kind Kind, label string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidNodeID, id)
	}
	if !slices.Contains(Kinds, kind) {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if n, ok := g.nodes[id]; ok {
		n.Kind = kind
		n.Label = label
		return nil
	}
	g.insertNode(&Node{ID: id, Kind: kind, Label: label})
	return nil
}

func (g *Graph) insertNode(n *Node) {
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	g.stale = true
}

// RemoveNode removes the node and every edge whose source or target it is.
// Removing an absent node is a no-op.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	g.nodeOrder = slices.DeleteFunc(g.nodeOrder, func(s string) bool { return s == id })
	g.edgeOrder = slices.DeleteFunc(g.edgeOrder, func(eid string) bool {
		e := g.edges[eid]
		if e.Source == id || e.Target == id {
			delete(g.edges, eid)
			return true
		}
		return false
	})
	g.stale = true
}

// RenameNode changes a node's id and rewrites every edge that references it.
// Edge ids are recomputed from the new endpoints; labels and styles are kept.
//
// Returns ErrInvalidNodeID if newID is not a word, ErrUnknownNode if oldID
// does not exist, or ErrDuplicateNodeID if newID names a different node.
// On error the graph is not modified. Renaming a node to its own id is a
// no-op.
func (g *Graph) RenameNode(oldID, newID string) error {
	if !ValidID(newID) {
		return fmt.Errorf("%w: %q", ErrInvalidNodeID, newID)
	}
	node, ok := g.nodes[oldID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, oldID)
	}
	if oldID == newID {
		return nil
	}
	if _, exists := g.nodes[newID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, newID)
	}

	node.ID = newID
	delete(g.nodes, oldID)
	g.nodes[newID] = node
	g.nodeOrder[slices.Index(g.nodeOrder, oldID)] = newID

	edges := make(map[string]*Edge, len(g.edges))
	for i, eid := range g.edgeOrder {
		e := g.edges[eid]
		if e.Source == oldID {
			e.Source = newID
		}
		if e.Target == oldID {
			e.Target = newID
		}
		e.ID = EdgeID(e.Source, e.Target, e.Label)
		g.edgeOrder[i] = e.ID
		edges[e.ID] = e
	}
	g.edges = edges
	return nil
}

// Relabel sets a node's display label.
func (g *Graph) Relabel(id, label string) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n.Label = label
	return nil
}

// SetKind sets a node's kind.
func (g *Graph) SetKind(id string, kind Kind) error {
	if !slices.Contains(Kinds, kind) {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n.Kind = kind
	return nil
}

// SetPosition moves a node. Moving is not a topology change and does not
// mark the graph stale.
func (g *Graph) SetPosition(id string, p Point) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n.Position = p
	return nil
}

// AddEdge connects source to target and returns the edge id.
//
// The source must exist (ErrUnknownNode otherwise). An unknown target is
// created as a [KindNode] placeholder whose label is the target id; it
// must still be a valid id. Adding an edge whose derived id already exists
// overwrites that edge in place.
func (g *Graph) AddEdge(source, target, label string) (string, error) {
	if _, ok := g.nodes[source]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, source)
	}
	if _, ok := g.nodes[target]; !ok {
		if err := g.Declare(target, KindNode, target); err != nil {
			return "", err
		}
	}

	id := EdgeID(source, target, label)
	e := &Edge{ID: id, Source: source, Target: target, Label: label}
	if _, exists := g.edges[id]; !exists {
		g.edgeOrder = append(g.edgeOrder, id)
	}
	g.edges[id] = e
	g.stale = true
	return id, nil
}

// RemoveEdge removes the edge with the given id. Removing an absent edge is
// a no-op.
func (g *Graph) RemoveEdge(id string) {
	if _, ok := g.edges[id]; !ok {
		return
	}
	delete(g.edges, id)
	g.edgeOrder = slices.DeleteFunc(g.edgeOrder, func(s string) bool { return s == id })
	g.stale = true
}

// Node returns the node with the given id. The returned pointer refers to
// the node in the graph; change its id only through RenameNode.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodeOrder))
	for i, id := range g.nodeOrder {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edgeOrder))
	for i, id := range g.edgeOrder {
		out[i] = g.edges[id]
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// HasEdge reports whether any edge (labelled or not) runs from source to
// target.
func (g *Graph) HasEdge(source, target string) bool {
	for _, e := range g.edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}

// HasReciprocal reports whether an edge runs in the opposite direction of e.
// A self-loop is its own reciprocal.
func (g *Graph) HasReciprocal(e *Edge) bool {
	return g.HasEdge(e.Target, e.Source)
}

// Stale reports whether the topology changed since the last layout.
func (g *Graph) Stale() bool { return g.stale }

// MarkLaidOut clears the stale flag. Layout engines call it after writing
// positions.
func (g *Graph) MarkLaidOut() { g.stale = false }

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:     make(map[string]*Node, len(g.nodes)),
		nodeOrder: slices.Clone(g.nodeOrder),
		edges:     make(map[string]*Edge, len(g.edges)),
		edgeOrder: slices.Clone(g.edgeOrder),
		stale:     g.stale,
	}
	for id, n := range g.nodes {
		cp := *n
		c.nodes[id] = &cp
	}
	for id, e := range g.edges {
		cp := *e
		c.edges[id] = &cp
	}
	return c
}
