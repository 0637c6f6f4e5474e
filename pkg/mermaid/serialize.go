package mermaid

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/flowdesk/pkg/flow"
)

// Header is the first line of every serialized diagram.
const Header = "flowchart TD"

const indent = "    "

var (
	labelEncoder = strings.NewReplacer(
		"#", "#35;",
		`"`, "#quot;",
		"<", "#lt;",
		">", "#gt;",
		"\r\n", "<br/>",
		"\n", "<br/>",
	)
	labelDecoder = strings.NewReplacer(
		"#35;", "#",
		"#quot;", `"`,
		"#lt;", "<",
		"#gt;", ">",
		"<br/>", "\n",
		"<br />", "\n",
		"<br>", "\n",
	)
)

func encodeLabel(s string) string { return `"` + labelEncoder.Replace(s) + `"` }

func decodeLabel(s string) string { return labelDecoder.Replace(s) }

// Serialize renders g as flowchart text. Nodes and edges are written in the
// graph's insertion order, separated by a blank line when both exist.
func Serialize(g *flow.Graph) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')

	for _, n := range g.Nodes() {
		b.WriteString(indent)
		b.WriteString(declaration(n))
		b.WriteByte('\n')
	}
	if g.NodeCount() > 0 && g.EdgeCount() > 0 {
		b.WriteByte('\n')
	}
	for _, e := range g.Edges() {
		b.WriteString(indent)
		b.WriteString(connection(e))
		b.WriteByte('\n')
	}
	return b.String()
}

func declaration(n *flow.Node) string {
	label := encodeLabel(n.Label)
	switch n.Kind {
	case flow.KindDecision:
		return n.ID + "{" + label + "}"
	case flow.KindStart, flow.KindEnd:
		// Start and end share a shape; name the kind when the markers in
		// the id and label would read it back as the other one.
		if markedKind(n.ID, n.Label) != n.Kind {
			return n.ID + "([" + label + "]):::" + string(n.Kind)
		}
		return n.ID + "([" + label + "])"
	default:
		return n.ID + "[" + label + "]"
	}
}

func connection(e *flow.Edge) string {
	if e.Label == "" {
		return e.Source + " --> " + e.Target
	}
	return e.Source + " -->|" + encodeLabel(e.Label) + "| " + e.Target
}

// Write serializes g to w.
func Write(g *flow.Graph, w io.Writer) error {
	if _, err := io.WriteString(w, Serialize(g)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// WriteFile serializes g to the file at path, replacing its contents.
func WriteFile(g *flow.Graph, path string) error {
	if err := os.WriteFile(path, []byte(Serialize(g)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
