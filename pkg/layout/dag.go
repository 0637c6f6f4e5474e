package layout

import (
	"slices"

	"github.com/matzehuels/flowdesk/pkg/flow"
)

// vertex is a node of the working DAG. Virtual vertices are inserted by
// subdivide and never reach a Result.
type vertex struct {
	id      string
	layer   int
	virtual bool
}

// dag is the layout engine's private copy of a flow graph's topology.
// Unlike flow.Graph it holds at most one edge per ordered pair, no
// self-loops, and after breakCycles no cycles. Iteration follows insertion
// order so layouts are deterministic.
type dag struct {
	vertices map[string]*vertex
	order    []string
	outgoing map[string][]string
	incoming map[string][]string
}

func newDAG() *dag {
	return &dag{
		vertices: make(map[string]*vertex),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// buildDAG copies the topology of g. Self-loops are dropped and parallel
// edges collapse to one.
func buildDAG(g *flow.Graph) *dag {
	d := newDAG()
	for _, n := range g.Nodes() {
		d.addVertex(n.ID, false)
	}
	for _, e := range g.Edges() {
		d.addEdge(e.Source, e.Target)
	}
	return d
}

func (d *dag) addVertex(id string, virtual bool) *vertex {
	if v, ok := d.vertices[id]; ok {
		return v
	}
	v := &vertex{id: id, virtual: virtual}
	d.vertices[id] = v
	d.order = append(d.order, id)
	return v
}

// addEdge adds from->to unless it is a self-loop, already present, or
// references a missing vertex. It reports whether an edge was added.
func (d *dag) addEdge(from, to string) bool {
	if from == to || d.hasEdge(from, to) {
		return false
	}
	if _, ok := d.vertices[from]; !ok {
		return false
	}
	if _, ok := d.vertices[to]; !ok {
		return false
	}
	d.outgoing[from] = append(d.outgoing[from], to)
	d.incoming[to] = append(d.incoming[to], from)
	return true
}

func (d *dag) removeEdge(from, to string) {
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], func(s string) bool { return s == to })
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], func(s string) bool { return s == from })
}

func (d *dag) hasEdge(from, to string) bool { return slices.Contains(d.outgoing[from], to) }

func (d *dag) children(id string) []string { return d.outgoing[id] }

func (d *dag) parents(id string) []string { return d.incoming[id] }

// edges returns a snapshot of all edges in source insertion order.
func (d *dag) edges() [][2]string {
	var out [][2]string
	for _, from := range d.order {
		for _, to := range d.outgoing[from] {
			out = append(out, [2]string{from, to})
		}
	}
	return out
}

// sources returns vertices without incoming edges, in insertion order.
func (d *dag) sources() []string {
	var out []string
	for _, id := range d.order {
		if len(d.incoming[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// layers groups vertex ids by layer, each layer in insertion order.
func (d *dag) layers() [][]string {
	maxLayer := -1
	for _, v := range d.vertices {
		maxLayer = max(maxLayer, v.layer)
	}
	out := make([][]string, maxLayer+1)
	for _, id := range d.order {
		l := d.vertices[id].layer
		out[l] = append(out[l], id)
	}
	return out
}

// posMap maps each id to its index in ids.
func posMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
