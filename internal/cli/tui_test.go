package cli

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowdesk/pkg/cache"
	"github.com/matzehuels/flowdesk/pkg/editor"
	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/pipeline"
	"github.com/matzehuels/flowdesk/pkg/storage"
)

const testChartPath = "flows/order.mmd"

func newTestEditor(t *testing.T, store storage.Store) editorModel {
	t.Helper()
	ctx := context.Background()
	if err := store.Write(ctx, testChartPath, sampleChart); err != nil {
		t.Fatal(err)
	}
	quiet := log.New(io.Discard)
	canvas := newTeaCanvas()
	session := editor.New(store, testChartPath,
		editor.WithRunner(pipeline.NewRunner(cache.NewNullCache(), nil, quiet)),
		editor.WithLogger(quiet),
		editor.WithCanvas(canvas),
		// Keep scheduled layouts out of the way; tests lay out explicitly.
		editor.WithDebounce(time.Hour),
	)
	t.Cleanup(func() { session.Close() })
	if err := session.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return newEditorModel(ctx, session, canvas)
}

func press(t *testing.T, m editorModel, msg tea.KeyMsg) (editorModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(editorModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// submitPrompt replaces the prompt input with value and presses enter.
func submitPrompt(t *testing.T, m editorModel, value string) editorModel {
	t.Helper()
	if m.prompt == promptNone {
		t.Fatal("no prompt open")
	}
	m.input.SetValue(value)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	return m
}

func nodeByID(m editorModel, id string) (flow.NodeDoc, bool) {
	for _, n := range m.snap.Graph.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return flow.NodeDoc{}, false
}

func TestEditorAddNode(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())

	m, _ = press(t, m, runes("a"))
	if m.prompt != promptAdd {
		t.Fatalf("prompt = %v, want add", m.prompt)
	}
	m = submitPrompt(t, m, "Notify customer")

	if len(m.snap.Graph.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(m.snap.Graph.Nodes))
	}
	n, ok := m.selectedNode()
	if !ok || n.Label != "Notify customer" {
		t.Errorf("current node = %+v, want the new node", n)
	}
	if !m.snap.Dirty {
		t.Error("adding a node should make the session dirty")
	}
	if !m.snap.Stale {
		t.Error("adding a node should leave the layout stale until it runs")
	}
}

func TestEditorPromptCancel(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())

	m, _ = press(t, m, runes("a"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.prompt != promptNone {
		t.Errorf("prompt = %v after esc", m.prompt)
	}
	if len(m.snap.Graph.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(m.snap.Graph.Nodes))
	}
}

func TestEditorRenameDuplicate(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())

	m, _ = press(t, m, runes("r"))
	if got := m.input.Value(); got != "A" {
		t.Errorf("rename prompt = %q, want the current id", got)
	}
	m = submitPrompt(t, m, "B")

	if m.snap.Notice == nil || m.snap.Notice.Kind != editor.NoticeDuplicateID {
		t.Fatalf("notice = %+v, want duplicate_id", m.snap.Notice)
	}
	if _, ok := nodeByID(m, "A"); !ok {
		t.Error("rejected rename removed A")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.snap.Notice != nil {
		t.Errorf("notice = %+v after esc", m.snap.Notice)
	}
}

func TestEditorRelabelAndConnect(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())

	m, _ = press(t, m, runes("e"))
	m = submitPrompt(t, m, "Begin")
	if n, _ := nodeByID(m, "A"); n.Label != "Begin" {
		t.Errorf("A label = %q, want Begin", n.Label)
	}

	m, _ = press(t, m, runes("c"))
	m = submitPrompt(t, m, "C skip review")

	var found bool
	for _, e := range m.snap.Graph.Edges {
		if e.Source == "A" && e.Target == "C" && e.Label == "skip review" {
			found = true
		}
	}
	if !found {
		t.Errorf("edges = %+v, want A -> C labelled", m.snap.Graph.Edges)
	}
}

func TestEditorDeleteEdge(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusEdges {
		t.Fatal("tab should focus the edge list")
	}
	m, _ = press(t, m, runes("d"))

	if len(m.snap.Graph.Edges) != 1 {
		t.Errorf("edges = %d, want 1", len(m.snap.Graph.Edges))
	}
	if len(m.snap.Graph.Nodes) != 3 {
		t.Errorf("deleting an edge changed the nodes: %d", len(m.snap.Graph.Nodes))
	}
}

func TestEditorDeleteNodeAndCursor(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if n, _ := m.selectedNode(); n.ID != "C" {
		t.Fatalf("current node = %q, want C", n.ID)
	}
	if sel := m.session.Selection(); len(sel) != 1 || sel[0] != "C" {
		t.Errorf("session selection = %v, want [C]", sel)
	}

	m, _ = press(t, m, runes("d"))
	if _, ok := nodeByID(m, "C"); ok {
		t.Error("C was not removed")
	}
	if m.nodeCursor != 1 {
		t.Errorf("cursor = %d, want it clamped to 1", m.nodeCursor)
	}
	if len(m.snap.Graph.Edges) != 1 {
		t.Errorf("edges = %d, want the edge into C removed", len(m.snap.Graph.Edges))
	}
}

func TestEditorSetKindAndMove(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())
	before, _ := nodeByID(m, "A")

	m, _ = press(t, m, runes("t"))
	if n, _ := nodeByID(m, "A"); n.Kind != nextKind(before.Kind) {
		t.Errorf("A kind = %q, want %q", n.Kind, nextKind(before.Kind))
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftRight})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftDown})
	after, _ := nodeByID(m, "A")
	want := flow.Point{X: before.Position.X + moveStep, Y: before.Position.Y + moveStep}
	if after.Position != want {
		t.Errorf("A position = %v, want %v", after.Position, want)
	}
}

func TestEditorLayoutNow(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())

	m, _ = press(t, m, runes("a"))
	m = submitPrompt(t, m, "")
	if !m.snap.Stale {
		t.Fatal("graph should be stale after adding a node")
	}

	m, cmd := press(t, m, runes("L"))
	if cmd == nil {
		t.Fatal("L returned no command")
	}
	next, _ := m.Update(cmd())
	m = next.(editorModel)
	if m.snap.Stale {
		t.Error("graph still stale after layout")
	}
}

func TestEditorTextMode(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.snap.Mode != editor.ModeText {
		t.Fatalf("mode = %v, want text", m.snap.Mode)
	}
	if m.text.Value() != m.session.Text() {
		t.Errorf("text area = %q, want the session text", m.text.Value())
	}

	// Keys that are gestures in diagram mode are typed in text mode.
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, runes("C --> D"))
	if !strings.Contains(m.session.Text(), "C --> D") {
		t.Fatalf("session text = %q", m.session.Text())
	}
	if _, ok := nodeByID(m, "D"); !ok {
		t.Error("preview graph is missing D")
	}

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if cmd == nil {
		t.Fatal("leaving text mode returned no command")
	}
	next, _ := m.Update(cmd())
	m = next.(editorModel)
	if m.snap.Mode != editor.ModeDiagram {
		t.Errorf("mode = %v, want diagram", m.snap.Mode)
	}
	if m.snap.Stale {
		t.Error("entering diagram mode should lay out immediately")
	}
}

func TestEditorDiagramKeysRejectedInTextMode(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})

	m.apply(editor.Change{Type: editor.ChangeAddNode})
	if !strings.Contains(m.status, "diagram") {
		t.Errorf("status = %q, want a wrong-mode message", m.status)
	}
}

// blockingStore holds writes until release is closed.
type blockingStore struct {
	storage.Store
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingStore) Write(ctx context.Context, p, content string) error {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return s.Store.Write(ctx, p, content)
}

func TestEditorSaveInProgress(t *testing.T) {
	mem := storage.NewMemoryStore()
	m := newTestEditor(t, mem)
	store := &blockingStore{Store: mem, started: make(chan struct{}), release: make(chan struct{})}
	m.session = editor.New(store, testChartPath, editor.WithLogger(log.New(io.Discard)))
	t.Cleanup(func() { m.session.Close() })
	if err := m.session.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	m, first := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	done := make(chan tea.Msg, 1)
	go func() { done <- first() }()
	<-store.started

	m, second := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	next, _ := m.Update(second())
	m = next.(editorModel)
	if !strings.Contains(m.status, "in progress") {
		t.Errorf("status = %q, want a save-in-progress message", m.status)
	}

	close(store.release)
	next, _ = m.Update(<-done)
	m = next.(editorModel)
	if m.snap.Notice == nil || m.snap.Notice.Kind != editor.NoticeSaved {
		t.Errorf("notice = %+v, want saved", m.snap.Notice)
	}
}

func TestEditorQuitConfirmsUnsaved(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())

	m, cmd := press(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("q on a clean session should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q on a clean session should quit")
	}

	m, _ = press(t, m, runes("a"))
	m = submitPrompt(t, m, "")

	m, cmd = press(t, m, runes("q"))
	if cmd != nil {
		t.Fatal("q with unsaved changes should ask first")
	}
	if m.status == "" {
		t.Error("no confirmation message")
	}
	_, cmd = press(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("second q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("second q should quit")
	}
}

func TestEditorView(t *testing.T) {
	m := newTestEditor(t, storage.NewMemoryStore())
	view := m.View()
	for _, want := range []string{testChartPath, "[diagram]", "Approved?", "Ship it", "yes"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTeaCanvasKeepsLatest(t *testing.T) {
	c := newTeaCanvas()
	for _, p := range []string{"a.mmd", "b.mmd", "c.mmd"} {
		c.Update(editor.Snapshot{Path: p})
	}
	msg := c.wait()()
	if got := editor.Snapshot(msg.(snapshotMsg)).Path; got != "c.mmd" {
		t.Errorf("delivered %q, want the latest snapshot", got)
	}
}

func TestFileListModel(t *testing.T) {
	files := []string{"a.mmd", "flows/b.mmd", "flows/c.mermaid"}

	m := NewFileListModel(files)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := next.(FileListModel).Selected; got != "flows/b.mmd" {
		t.Errorf("Selected = %q, want flows/b.mmd", got)
	}
	if cmd == nil {
		t.Error("enter should quit the picker")
	}

	next, _ = NewFileListModel(files).Update(tea.KeyMsg{Type: tea.KeyEsc})
	if got := next.(FileListModel).Selected; got != "" {
		t.Errorf("Selected = %q after esc", got)
	}

	if view := NewFileListModel(files).View(); !strings.Contains(view, "c.mermaid") {
		t.Errorf("view missing a file:\n%s", view)
	}
}

func TestSplitConnect(t *testing.T) {
	tests := []struct {
		in, target, label string
	}{
		{"B", "B", ""},
		{"  B   yes please ", "B", "yes please"},
		{"", "", ""},
	}
	for _, tt := range tests {
		target, label := splitConnect(tt.in)
		if target != tt.target || label != tt.label {
			t.Errorf("splitConnect(%q) = %q, %q, want %q, %q", tt.in, target, label, tt.target, tt.label)
		}
	}
}

func TestNextKind(t *testing.T) {
	k := flow.KindStart
	seen := map[flow.Kind]bool{}
	for range flow.Kinds {
		seen[k] = true
		k = nextKind(k)
	}
	if k != flow.KindStart || len(seen) != len(flow.Kinds) {
		t.Errorf("nextKind does not cycle through every kind: %v", seen)
	}
}
