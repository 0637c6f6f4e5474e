package mermaid

import (
	"fmt"
	"slices"

	"github.com/matzehuels/flowdesk/pkg/flow"
)

// Equivalent reports whether a and b describe the same diagram: the same
// node ids with the same kinds and labels, and the same multiset of
// (source, target, label) connections. Order and positions are ignored.
func Equivalent(a, b *flow.Graph) bool { return Diff(a, b) == "" }

// Diff describes the first difference between a and b, or returns "" when
// they are equivalent.
func Diff(a, b *flow.Graph) string {
	if a.NodeCount() != b.NodeCount() {
		return fmt.Sprintf("node count %d != %d", a.NodeCount(), b.NodeCount())
	}
	for _, na := range a.Nodes() {
		nb, ok := b.Node(na.ID)
		if !ok {
			return fmt.Sprintf("node %s missing", na.ID)
		}
		if na.Kind != nb.Kind {
			return fmt.Sprintf("node %s kind %s != %s", na.ID, na.Kind, nb.Kind)
		}
		if na.Label != nb.Label {
			return fmt.Sprintf("node %s label %q != %q", na.ID, na.Label, nb.Label)
		}
	}

	ea, eb := edgeKeys(a), edgeKeys(b)
	if len(ea) != len(eb) {
		return fmt.Sprintf("edge count %d != %d", len(ea), len(eb))
	}
	for i := range ea {
		if ea[i] != eb[i] {
			return fmt.Sprintf("edge %s != %s", ea[i], eb[i])
		}
	}
	return ""
}

func edgeKeys(g *flow.Graph) []string {
	keys := make([]string, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		keys = append(keys, fmt.Sprintf("%q->%q|%q", e.Source, e.Target, e.Label))
	}
	slices.Sort(keys)
	return keys
}
