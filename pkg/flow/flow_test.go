package flow

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func buildChain(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, n := range []struct {
		id    string
		kind  Kind
		label string
	}{
		{"start", KindStart, "Begin"},
		{"check", KindDecision, "OK?"},
		{"work", KindNode, "Do work"},
		{"end", KindEnd, "Done"},
	} {
		if err := g.Declare(n.id, n.kind, n.label); err != nil {
			t.Fatalf("Declare(%s): %v", n.id, err)
		}
	}
	for _, e := range [][3]string{
		{"start", "check", ""},
		{"check", "work", "yes"},
		{"check", "end", "no"},
		{"work", "end", ""},
	} {
		if _, err := g.AddEdge(e[0], e[1], e[2]); err != nil {
			t.Fatalf("AddEdge(%s,%s): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"start", KindStart, false},
		{"END", KindEnd, false},
		{" decision ", KindDecision, false},
		{"node", KindNode, false},
		{"circle", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidKind) {
			t.Errorf("ParseKind(%q) error = %v, want ErrInvalidKind", tt.in, err)
		}
	}
}

func TestEdgeID(t *testing.T) {
	if got := EdgeID("a", "b", ""); got != "a-b" {
		t.Errorf("EdgeID(a,b,\"\") = %q, want a-b", got)
	}
	if got := EdgeID("a", "b", "yes"); got != "a-b-yes" {
		t.Errorf("EdgeID(a,b,yes) = %q, want a-b-yes", got)
	}
}

func TestAddNode(t *testing.T) {
	g := New()
	a := g.AddNode(KindNode, "first")
	b := g.AddNode(KindNode, "second")

	if a == b {
		t.Fatalf("AddNode returned duplicate id %q", a)
	}
	if !strings.HasPrefix(a, "node_") || !ValidID(a) {
		t.Errorf("AddNode id = %q, want node_ prefixed word", a)
	}
	n, ok := g.Node(a)
	if !ok {
		t.Fatal("AddNode: node not found")
	}
	if n.Position != (Point{}) {
		t.Errorf("new node position = %v, want origin", n.Position)
	}
	if !g.Stale() {
		t.Error("AddNode should mark graph stale")
	}
	if id := g.AddNode("bogus", "x"); g.nodes[id].Kind != KindNode {
		t.Errorf("AddNode with invalid kind = %q, want node", g.nodes[id].Kind)
	}
}

func TestDeclare(t *testing.T) {
	g := New()
	if err := g.Declare("a", KindNode, "A"); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if err := g.Declare("b", KindNode, "B"); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if err := g.Declare("a", KindDecision, "A?"); err != nil {
		t.Fatalf("re-Declare: %v", err)
	}

	nodes := g.Nodes()
	if len(nodes) != 2 || nodes[0].ID != "a" {
		t.Fatalf("Nodes() order changed after re-declare: %v", nodes)
	}
	if nodes[0].Kind != KindDecision || nodes[0].Label != "A?" {
		t.Errorf("re-declared node = %+v, want decision A?", nodes[0])
	}

	for _, bad := range []string{"", "a-b", "with space", "x.y"} {
		if err := g.Declare(bad, KindNode, ""); !errors.Is(err, ErrInvalidNodeID) {
			t.Errorf("Declare(%q) error = %v, want ErrInvalidNodeID", bad, err)
		}
	}
	if err := g.Declare("c", "oval", ""); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("Declare with bad kind error = %v, want ErrInvalidKind", err)
	}
}

func TestRemoveNode(t *testing.T) {
	g := buildChain(t)
	g.RemoveNode("check")

	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	for _, e := range g.Edges() {
		if e.Source == "check" || e.Target == "check" {
			t.Errorf("dangling edge %s remains", e.ID)
		}
	}

	// Idempotent
	g.RemoveNode("check")
	g.RemoveNode("missing")
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() after repeat remove = %d, want 3", g.NodeCount())
	}
}

func TestRenameNode(t *testing.T) {
	g := buildChain(t)
	if err := g.RenameNode("check", "gate"); err != nil {
		t.Fatalf("RenameNode: %v", err)
	}

	if _, ok := g.Node("check"); ok {
		t.Error("old id still present")
	}
	n, ok := g.Node("gate")
	if !ok || n.ID != "gate" || n.Label != "OK?" {
		t.Fatalf("renamed node = %+v", n)
	}

	wantEdges := []string{"start-gate", "gate-work-yes", "gate-end-no", "work-end"}
	edges := g.Edges()
	if len(edges) != len(wantEdges) {
		t.Fatalf("EdgeCount() = %d, want %d", len(edges), len(wantEdges))
	}
	for i, e := range edges {
		if e.ID != wantEdges[i] {
			t.Errorf("edge[%d].ID = %q, want %q", i, e.ID, wantEdges[i])
		}
		if _, ok := g.Edge(e.ID); !ok {
			t.Errorf("Edge(%q) not indexed", e.ID)
		}
	}
	if e, _ := g.Edge("gate-work-yes"); e.Label != "yes" {
		t.Errorf("label lost on rename: %q", e.Label)
	}
}

func TestRenameNode_Errors(t *testing.T) {
	g := buildChain(t)
	before := ToDocument(g)

	if err := g.RenameNode("check", "work"); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("rename to existing id error = %v, want ErrDuplicateNodeID", err)
	}
	if err := g.RenameNode("missing", "x"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("rename missing error = %v, want ErrUnknownNode", err)
	}
	if err := g.RenameNode("check", "bad id"); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("rename to invalid id error = %v, want ErrInvalidNodeID", err)
	}
	if err := g.RenameNode("check", "check"); err != nil {
		t.Errorf("rename to self error = %v, want nil", err)
	}

	if after := ToDocument(g); !reflect.DeepEqual(before, after) {
		t.Errorf("graph changed after failed renames:\n%+v\nvs\n%+v", before, after)
	}
}

func TestAddEdge(t *testing.T) {
	g := New()
	_ = g.Declare("a", KindStart, "A")

	id, err := g.AddEdge("a", "ghost", "")
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if id != "a-ghost" {
		t.Errorf("edge id = %q, want a-ghost", id)
	}
	ghost, ok := g.Node("ghost")
	if !ok {
		t.Fatal("placeholder target not created")
	}
	if ghost.Kind != KindNode || ghost.Label != "ghost" {
		t.Errorf("placeholder = %+v, want node-kind labelled with its id", ghost)
	}

	if _, err := g.AddEdge("missing", "a", ""); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("AddEdge unknown source error = %v, want ErrUnknownNode", err)
	}
	if _, err := g.AddEdge("a", "not valid", ""); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddEdge invalid target error = %v, want ErrInvalidNodeID", err)
	}

	// Same derived id overwrites in place.
	_, _ = g.AddEdge("a", "a", "")
	_, _ = g.AddEdge("a", "ghost", "")
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if g.Edges()[0].ID != "a-ghost" {
		t.Errorf("overwrite moved edge: first = %q", g.Edges()[0].ID)
	}
}

func TestRemoveEdge(t *testing.T) {
	g := buildChain(t)
	g.MarkLaidOut()
	g.RemoveEdge("check-work-yes")

	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
	}
	if g.NodeCount() != 4 {
		t.Errorf("RemoveEdge must not remove nodes; NodeCount() = %d", g.NodeCount())
	}
	if !g.Stale() {
		t.Error("RemoveEdge should mark graph stale")
	}
	g.RemoveEdge("check-work-yes")
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() after repeat = %d, want 3", g.EdgeCount())
	}
}

func TestRelabelSetKindSetPosition(t *testing.T) {
	g := buildChain(t)
	g.MarkLaidOut()

	if err := g.Relabel("work", "Process"); err != nil {
		t.Fatalf("Relabel: %v", err)
	}
	if err := g.SetKind("work", KindDecision); err != nil {
		t.Fatalf("SetKind: %v", err)
	}
	if err := g.SetPosition("work", Point{X: 10, Y: 20}); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	n, _ := g.Node("work")
	if n.Label != "Process" || n.Kind != KindDecision || n.Position != (Point{10, 20}) {
		t.Errorf("node = %+v", n)
	}
	if g.Stale() {
		t.Error("field updates must not mark graph stale")
	}

	if err := g.Relabel("missing", "x"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Relabel missing error = %v", err)
	}
	if err := g.SetKind("work", "blob"); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("SetKind bad kind error = %v", err)
	}
}

func TestHasReciprocal(t *testing.T) {
	g := New()
	_ = g.Declare("a", KindNode, "A")
	_ = g.Declare("b", KindNode, "B")
	ab, _ := g.AddEdge("a", "b", "")
	loop, _ := g.AddEdge("a", "a", "")

	e, _ := g.Edge(ab)
	if g.HasReciprocal(e) {
		t.Error("a->b has no reciprocal yet")
	}
	_, _ = g.AddEdge("b", "a", "back")
	if !g.HasReciprocal(e) {
		t.Error("labelled b->a should count as reciprocal")
	}
	l, _ := g.Edge(loop)
	if !g.HasReciprocal(l) {
		t.Error("self-loop is its own reciprocal")
	}
}

func TestClone(t *testing.T) {
	g := buildChain(t)
	c := g.Clone()
	_ = c.Relabel("work", "changed")
	c.RemoveNode("end")

	if n, _ := g.Node("work"); n.Label != "Do work" {
		t.Errorf("Clone shares nodes: label = %q", n.Label)
	}
	if g.NodeCount() != 4 || g.EdgeCount() != 4 {
		t.Errorf("Clone shares structure: %d nodes %d edges", g.NodeCount(), g.EdgeCount())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g := buildChain(t)
	_ = g.SetPosition("start", Point{X: 5, Y: 7})
	e, _ := g.Edge("work-end")
	e.Style = EdgeStyle{Curve: CurveSmoothStep, SourceSide: SideBottom, TargetSide: SideTop}

	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if got.NodeCount() != 4 || got.EdgeCount() != 4 {
		t.Fatalf("round trip: %d nodes %d edges", got.NodeCount(), got.EdgeCount())
	}
	if n, _ := got.Node("start"); n.Position != (Point{5, 7}) || n.Kind != KindStart {
		t.Errorf("start = %+v", n)
	}
	if e, _ := got.Edge("work-end"); e.Style.Curve != CurveSmoothStep || e.Style.SourceSide != SideBottom {
		t.Errorf("style lost: %+v", e.Style)
	}
}

func TestReadJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed", `{"nodes": [`},
		{"bad id", `{"nodes": [{"id": "a b"}]}`},
		{"unknown source", `{"nodes": [{"id": "a"}], "edges": [{"source": "x", "target": "a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(tt.in)); err == nil {
				t.Error("ReadJSON() expected error")
			}
		})
	}
}
