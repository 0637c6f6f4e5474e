package layout

import "fmt"

// breakCycles makes d acyclic by reversing every back edge found by a
// depth-first search started from the sources, then from any vertex not yet
// visited (vertices on a cycle with no source above them). It returns the
// number of reversed edges.
func breakCycles(d *dag) int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.vertices))
	var backEdges [][2]string

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range d.children(id) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, [2]string{id, child})
			}
		}
		color[id] = black
	}

	for _, id := range d.sources() {
		if color[id] == white {
			dfs(id)
		}
	}
	for _, id := range d.order {
		if color[id] == white {
			dfs(id)
		}
	}

	for _, e := range backEdges {
		d.removeEdge(e[0], e[1])
		d.addEdge(e[1], e[0])
	}
	return len(backEdges)
}

// assignLayers places every vertex one layer below its deepest parent
// (longest path from a source), using Kahn's algorithm. d must be acyclic.
func assignLayers(d *dag) {
	inDegree := make(map[string]int, len(d.vertices))
	queue := make([]string, 0, len(d.vertices))

	for _, id := range d.order {
		d.vertices[id].layer = 0
		inDegree[id] = len(d.incoming[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		layer := d.vertices[curr].layer + 1
		for _, child := range d.children(curr) {
			if v := d.vertices[child]; layer > v.layer {
				v.layer = layer
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
}

// subdivide replaces every edge spanning more than one layer with a chain of
// virtual vertices, one per intermediate layer. It returns the number of
// virtual vertices created.
func subdivide(d *dag) int {
	gen := newIDGen(d)
	created := 0
	for _, e := range d.edges() {
		src, dst := d.vertices[e[0]], d.vertices[e[1]]
		if dst.layer <= src.layer+1 {
			continue
		}

		d.removeEdge(src.id, dst.id)
		prev := src.id
		for layer := src.layer + 1; layer < dst.layer; layer++ {
			v := d.addVertex(gen.next(src.id, dst.id, layer), true)
			v.layer = layer
			d.addEdge(prev, v.id)
			prev = v.id
			created++
		}
		d.addEdge(prev, dst.id)
	}
	return created
}

// idGen produces vertex ids that cannot collide with flow node ids, which
// are restricted to word characters.
type idGen struct {
	used map[string]struct{}
}

func newIDGen(d *dag) *idGen {
	m := make(map[string]struct{}, len(d.vertices)*2)
	for id := range d.vertices {
		m[id] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(from, to string, layer int) string {
	prefix := fmt.Sprintf("~%s>%s@%d", from, to, layer)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s#%d", prefix, i)
	}
}
