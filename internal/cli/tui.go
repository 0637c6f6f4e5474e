package cli

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowdesk/pkg/editor"
	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/mermaid"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// FileListModel - Interactive flowchart selection
// =============================================================================

// FileListModel is the bubbletea model for picking a flowchart to edit.
type FileListModel struct {
	Files    []string
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewFileListModel creates a new file list model.
func NewFileListModel(files []string) FileListModel {
	return FileListModel{
		Files:  files,
		Height: 15,
	}
}

func (m FileListModel) Init() tea.Cmd {
	return nil
}

func (m FileListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Files)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Files) > 0 {
				m.Selected = m.Files[m.Cursor]
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m FileListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Flowchart"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Files))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		dir := path.Dir(m.Files[i])
		if dir == "." {
			dir = "—"
		}
		rows = append(rows, []string{cursor, displayName(m.Files[i]), dir})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "File", "Directory").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 2 {
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Files))))

	return b.String()
}

// =============================================================================
// Canvas bridge
// =============================================================================

type (
	snapshotMsg   editor.Snapshot
	saveDoneMsg   struct{ err error }
	layoutDoneMsg struct{ err error }
)

// teaCanvas hands session snapshots to the bubbletea program. It holds at
// most one pending snapshot; a newer one replaces it.
type teaCanvas struct {
	ch chan editor.Snapshot
}

func newTeaCanvas() *teaCanvas {
	return &teaCanvas{ch: make(chan editor.Snapshot, 1)}
}

func (c *teaCanvas) Update(s editor.Snapshot) {
	for {
		select {
		case c.ch <- s:
			return
		default:
		}
		select {
		case <-c.ch:
		default:
		}
	}
}

// wait returns a command that delivers the next snapshot.
func (c *teaCanvas) wait() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-c.ch)
	}
}

// =============================================================================
// Key bindings
// =============================================================================

type editorKeys struct {
	Save     key.Binding
	Mode     key.Binding
	Dismiss  key.Binding
	Up       key.Binding
	Down     key.Binding
	Focus    key.Binding
	Add      key.Binding
	Relabel  key.Binding
	Rename   key.Binding
	Connect  key.Binding
	Delete   key.Binding
	Kind     key.Binding
	Move     key.Binding
	Layout   key.Binding
	Quit     key.Binding
	TextQuit key.Binding
}

func newEditorKeys() editorKeys {
	return editorKeys{
		Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Mode:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "text/diagram")),
		Dismiss:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "nodes/edges")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Relabel:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "label")),
		Rename:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		Connect:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
		Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Kind:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "kind")),
		Move:     key.NewBinding(key.WithKeys("shift+up", "shift+down", "shift+left", "shift+right"), key.WithHelp("shift+←↑↓→", "move")),
		Layout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "layout")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		TextQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// bindings adapts a list of bindings to help.KeyMap.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

func (k editorKeys) forMode(mode editor.Mode) bindings {
	if mode == editor.ModeText {
		return bindings{k.Save, k.Mode, k.Dismiss, k.TextQuit}
	}
	return bindings{k.Up, k.Down, k.Focus, k.Add, k.Relabel, k.Rename, k.Connect,
		k.Delete, k.Kind, k.Move, k.Layout, k.Save, k.Mode, k.Dismiss, k.Quit}
}

// =============================================================================
// editorModel - Terminal flowchart editor
// =============================================================================

type promptKind int

const (
	promptNone promptKind = iota
	promptAdd
	promptRelabel
	promptRename
	promptConnect
)

func (p promptKind) title() string {
	switch p {
	case promptAdd:
		return "New node label:"
	case promptRelabel:
		return "Label:"
	case promptRename:
		return "New ID:"
	case promptConnect:
		return "Connect to (ID [label]):"
	}
	return ""
}

type listFocus int

const (
	focusNodes listFocus = iota
	focusEdges
)

// moveStep is how far shift+arrow moves a node, in canvas units.
const moveStep = 20.0

// editorModel drives an editing session from the terminal. The session
// owns the flowchart; the model only renders snapshots and turns keys into
// session calls.
type editorModel struct {
	ctx     context.Context
	session *editor.Session
	canvas  *teaCanvas
	snap    editor.Snapshot

	keys  editorKeys
	help  help.Model
	text  textarea.Model
	input textinput.Model

	prompt     promptKind
	focus      listFocus
	nodeCursor int
	edgeCursor int
	offset     int
	height     int

	status      string
	confirmQuit bool
}

func newEditorModel(ctx context.Context, session *editor.Session, canvas *teaCanvas) editorModel {
	ta := textarea.New()
	ta.Placeholder = mermaid.Header
	ta.ShowLineNumbers = true
	ta.SetWidth(80)
	ta.SetHeight(16)

	ti := textinput.New()
	ti.CharLimit = 120

	m := editorModel{
		ctx:     ctx,
		session: session,
		canvas:  canvas,
		keys:    newEditorKeys(),
		help:    help.New(),
		text:    ta,
		input:   ti,
		height:  12,
	}
	m.refresh(session.Snapshot())
	if m.snap.Mode == editor.ModeText {
		m.text.SetValue(m.snap.Text)
		m.text.Focus()
	}
	return m
}

func (m editorModel) Init() tea.Cmd {
	return m.canvas.wait()
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.refresh(editor.Snapshot(msg))
		return m, m.canvas.wait()
	case saveDoneMsg:
		if ferrors.Is(msg.err, ferrors.ErrCodeSaveInProgress) {
			m.status = "a save is already in progress"
		}
		m.refresh(m.session.Snapshot())
		return m, nil
	case layoutDoneMsg:
		m.refresh(m.session.Snapshot())
		return m, nil
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-18, 5)
		m.text.SetWidth(max(msg.Width-2, 20))
		m.text.SetHeight(max(msg.Height-10, 5))
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		return m.updateKey(msg)
	}

	if m.snap.Mode == editor.ModeText {
		var cmd tea.Cmd
		m.text, cmd = m.text.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m editorModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	confirm := m.confirmQuit
	m.confirmQuit = false
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Save):
		return m, m.save()
	case key.Matches(msg, m.keys.Mode):
		cmd := m.toggleMode()
		return m, cmd
	case key.Matches(msg, m.keys.Dismiss):
		m.session.Dismiss()
		m.refresh(m.session.Snapshot())
		return m, nil
	}

	if m.snap.Mode == editor.ModeText {
		if key.Matches(msg, m.keys.TextQuit) {
			return m.quit(confirm)
		}
		return m.updateText(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit(confirm)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusNodes && len(m.snap.Graph.Edges) > 0 {
			m.focus = focusEdges
		} else {
			m.focus = focusNodes
		}
		m.selectCurrent()
	case key.Matches(msg, m.keys.Add):
		cmd := m.startPrompt(promptAdd, "")
		return m, cmd
	case key.Matches(msg, m.keys.Relabel):
		if n, ok := m.selectedNode(); ok {
			cmd := m.startPrompt(promptRelabel, n.Label)
			return m, cmd
		}
	case key.Matches(msg, m.keys.Rename):
		if n, ok := m.selectedNode(); ok {
			cmd := m.startPrompt(promptRename, n.ID)
			return m, cmd
		}
	case key.Matches(msg, m.keys.Connect):
		if _, ok := m.selectedNode(); ok {
			cmd := m.startPrompt(promptConnect, "")
			return m, cmd
		}
	case key.Matches(msg, m.keys.Delete):
		m.deleteCurrent()
	case key.Matches(msg, m.keys.Kind):
		if n, ok := m.selectedNode(); ok {
			m.apply(editor.Change{Type: editor.ChangeSetKind, ID: n.ID, Kind: nextKind(n.Kind)})
		}
	case key.Matches(msg, m.keys.Move):
		m.moveNode(msg.String())
	case key.Matches(msg, m.keys.Layout):
		return m, m.layoutNow()
	}
	return m, nil
}

// updateText forwards a key to the text area and pushes changed text to
// the session, which reparses it for the preview.
func (m editorModel) updateText(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.text.Focused() {
		return m, nil
	}
	before := m.text.Value()
	var cmd tea.Cmd
	m.text, cmd = m.text.Update(msg)
	if v := m.text.Value(); v != before {
		if err := m.session.SetText(m.ctx, v); err != nil {
			m.status = ferrors.UserMessage(err)
		}
		m.refresh(m.session.Snapshot())
	}
	return m, cmd
}

func (m editorModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.prompt = promptNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		kind := m.prompt
		value := strings.TrimSpace(m.input.Value())
		m.prompt = promptNone
		m.input.Blur()
		m.submit(kind, value)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *editorModel) startPrompt(kind promptKind, value string) tea.Cmd {
	m.prompt = kind
	m.input.Reset()
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *editorModel) submit(kind promptKind, value string) {
	n, selected := m.selectedNode()
	switch kind {
	case promptAdd:
		m.apply(editor.Change{Type: editor.ChangeAddNode, Kind: flow.KindNode, Label: value})
	case promptRelabel:
		if selected {
			m.apply(editor.Change{Type: editor.ChangeRelabel, ID: n.ID, Label: value})
		}
	case promptRename:
		if selected && value != "" {
			m.apply(editor.Change{Type: editor.ChangeRenameNode, ID: n.ID, NewID: value})
		}
	case promptConnect:
		target, label := splitConnect(value)
		if selected && target != "" {
			m.apply(editor.Change{Type: editor.ChangeConnect, Source: n.ID, Target: target, Label: label})
		}
	}
}

// splitConnect splits "B some label" into the target id and the label.
func splitConnect(s string) (target, label string) {
	target, label, _ = strings.Cut(strings.TrimSpace(s), " ")
	return target, strings.TrimSpace(label)
}

// apply sends a gesture to the session. Rejected gestures surface as the
// session's notice; only mode errors, which set none, land in the status.
func (m *editorModel) apply(c editor.Change) {
	if err := m.session.Apply(m.ctx, c); err != nil && ferrors.Is(err, ferrors.ErrCodeWrongMode) {
		m.status = ferrors.UserMessage(err)
	}
	m.refresh(m.session.Snapshot())
}

func (m *editorModel) deleteCurrent() {
	if m.focus == focusEdges {
		if e, ok := m.selectedEdge(); ok {
			m.apply(editor.Change{Type: editor.ChangeRemoveEdge, ID: e.ID})
		}
		return
	}
	if n, ok := m.selectedNode(); ok {
		m.apply(editor.Change{Type: editor.ChangeRemoveNode, ID: n.ID})
	}
}

func (m *editorModel) moveNode(keyName string) {
	n, ok := m.selectedNode()
	if !ok {
		return
	}
	p := n.Position
	switch keyName {
	case "shift+up":
		p.Y -= moveStep
	case "shift+down":
		p.Y += moveStep
	case "shift+left":
		p.X -= moveStep
	case "shift+right":
		p.X += moveStep
	}
	m.apply(editor.Change{Type: editor.ChangeMove, ID: n.ID, Position: p})
}

func (m *editorModel) moveCursor(delta int) {
	if m.focus == focusEdges {
		m.edgeCursor = clamp(m.edgeCursor+delta, len(m.snap.Graph.Edges))
	} else {
		m.nodeCursor = clamp(m.nodeCursor+delta, len(m.snap.Graph.Nodes))
	}
	m.selectCurrent()
}

// selectCurrent makes the item under the cursor the session's selection.
func (m *editorModel) selectCurrent() {
	var id string
	if m.focus == focusEdges {
		if e, ok := m.selectedEdge(); ok {
			id = e.ID
		}
	} else if n, ok := m.selectedNode(); ok {
		id = n.ID
	}
	if id == "" {
		return
	}
	m.apply(editor.Change{Type: editor.ChangeSelect, Selection: []string{id}})
}

func (m editorModel) selectedNode() (flow.NodeDoc, bool) {
	if m.nodeCursor < len(m.snap.Graph.Nodes) {
		return m.snap.Graph.Nodes[m.nodeCursor], true
	}
	return flow.NodeDoc{}, false
}

func (m editorModel) selectedEdge() (flow.EdgeDoc, bool) {
	if m.edgeCursor < len(m.snap.Graph.Edges) {
		return m.snap.Graph.Edges[m.edgeCursor], true
	}
	return flow.EdgeDoc{}, false
}

// refresh adopts a snapshot. A single selected item moves the cursor to it,
// which is how a freshly added node becomes current.
func (m *editorModel) refresh(snap editor.Snapshot) {
	m.snap = snap
	if len(snap.Selection) == 1 {
		id := snap.Selection[0]
		if i := slices.IndexFunc(snap.Graph.Nodes, func(n flow.NodeDoc) bool { return n.ID == id }); i >= 0 {
			m.nodeCursor, m.focus = i, focusNodes
		} else if i := slices.IndexFunc(snap.Graph.Edges, func(e flow.EdgeDoc) bool { return e.ID == id }); i >= 0 {
			m.edgeCursor, m.focus = i, focusEdges
		}
	}
	m.nodeCursor = clamp(m.nodeCursor, len(snap.Graph.Nodes))
	m.edgeCursor = clamp(m.edgeCursor, len(snap.Graph.Edges))
	if len(snap.Graph.Edges) == 0 {
		m.focus = focusNodes
	}
	if m.nodeCursor < m.offset {
		m.offset = m.nodeCursor
	}
	if m.nodeCursor >= m.offset+m.height {
		m.offset = m.nodeCursor - m.height + 1
	}
}

// toggleMode switches between text and diagram mode. Entering diagram
// mode lays the graph out, so it runs as a command; the text area stops
// taking keys until the snapshot arrives.
func (m *editorModel) toggleMode() tea.Cmd {
	if m.snap.Mode == editor.ModeText {
		m.text.Blur()
		session, ctx := m.session, m.ctx
		return func() tea.Msg {
			return layoutDoneMsg{err: session.EnterDiagram(ctx)}
		}
	}
	if err := m.session.EnterText(m.ctx); err != nil {
		m.status = ferrors.UserMessage(err)
		return nil
	}
	m.refresh(m.session.Snapshot())
	m.text.SetValue(m.snap.Text)
	return m.text.Focus()
}

func (m editorModel) quit(confirmed bool) (tea.Model, tea.Cmd) {
	if m.snap.Dirty && !confirmed {
		m.confirmQuit = true
		m.status = "unsaved changes: quit again to discard them"
		return m, nil
	}
	return m, tea.Quit
}

func (m editorModel) save() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		return saveDoneMsg{err: session.Save(ctx)}
	}
}

func (m editorModel) layoutNow() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		return layoutDoneMsg{err: session.LayoutNow(ctx)}
	}
}

// =============================================================================
// View
// =============================================================================

func (m editorModel) View() string {
	var b strings.Builder

	b.WriteString(m.titleLine())
	b.WriteString("\n\n")

	if m.snap.Mode == editor.ModeText {
		b.WriteString(m.text.View())
		b.WriteString("\n")
		b.WriteString(formatStats(len(m.snap.Graph.Nodes), len(m.snap.Graph.Edges), m.snap.Ignored, nil))
	} else {
		b.WriteString(m.nodesView())
		b.WriteString("\n")
		b.WriteString(m.edgesView())
	}
	b.WriteString("\n\n")

	if m.prompt != promptNone {
		b.WriteString(StyleHighlight.Render(m.prompt.title()) + " " + m.input.View())
		b.WriteString("\n")
	}
	if n := formatNotice(m.snap.Notice); n != "" {
		b.WriteString(n)
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(StyleWarning.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys.forMode(m.snap.Mode)))

	return b.String()
}

func (m editorModel) titleLine() string {
	name := m.snap.Path
	if name == "" {
		name = "untitled"
	}
	parts := []string{StyleTitle.Render(name), listDimStyle.Render("[" + m.snap.Mode.String() + "]")}
	if m.snap.Dirty {
		parts = append(parts, StyleWarning.Render("● modified"))
	}
	if m.snap.Saving {
		parts = append(parts, listDimStyle.Render("saving…"))
	}
	if m.snap.Stale && m.snap.Mode == editor.ModeDiagram && len(m.snap.Graph.Nodes) > 0 {
		parts = append(parts, listDimStyle.Render("laying out…"))
	}
	return strings.Join(parts, " ")
}

func (m editorModel) nodesView() string {
	nodes := m.snap.Graph.Nodes
	if len(nodes) == 0 {
		return listDimStyle.Render("  no nodes, press a to add one")
	}

	end := min(m.offset+m.height, len(nodes))
	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		n := nodes[i]
		cursor := "  "
		if i == m.nodeCursor && m.focus == focusNodes {
			cursor = "▸ "
		}
		pos := fmt.Sprintf("%.0f,%.0f", n.Position.X, n.Position.Y)
		rows = append(rows, []string{cursor, n.ID, string(n.Kind), n.Label, pos})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Kind", "Label", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			if m.focus == focusNodes && m.offset+row == m.nodeCursor {
				return listSelectedStyle
			}
			if col == 2 || col == 4 {
				return listDimStyle
			}
			return listNormalStyle
		})
	return t.Render()
}

func (m editorModel) edgesView() string {
	edges := m.snap.Graph.Edges
	if len(edges) == 0 {
		return listDimStyle.Render("  no edges, press c to connect the current node")
	}

	rows := make([][]string, 0, len(edges))
	for i, e := range edges {
		cursor := "  "
		if i == m.edgeCursor && m.focus == focusEdges {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, e.Source + " " + iconArrow + " " + e.Target, e.Label})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Edge", "Label").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			if m.focus == focusEdges && row == m.edgeCursor {
				return listSelectedStyle
			}
			return listNormalStyle
		})
	return t.Render()
}

// =============================================================================
// Helpers
// =============================================================================

// nextKind cycles through the node kinds in display order.
func nextKind(k flow.Kind) flow.Kind {
	i := slices.Index(flow.Kinds, k)
	return flow.Kinds[(i+1)%len(flow.Kinds)]
}

// clamp keeps a cursor inside a list of n items.
func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	return max(i, 0)
}
