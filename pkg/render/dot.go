package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/layout"
)

const pointsPerInch = 72.0

// Options configures DOT generation and rendering.
type Options struct {
	NodeWidth  float64
	NodeHeight float64
	Direction  layout.Direction

	// Pinned forces (true) or disables (false) pinned positions. When nil,
	// positions are pinned iff the graph is laid out.
	Pinned *bool
}

// Option mutates Options.
type Option func(*Options)

// WithNodeSize sets the node box size in canvas units.
func WithNodeSize(w, h float64) Option {
	return func(o *Options) { o.NodeWidth, o.NodeHeight = w, h }
}

// WithDirection sets the rank direction used when positions are not pinned.
func WithDirection(d layout.Direction) Option {
	return func(o *Options) { o.Direction = d }
}

// WithPinned forces pinned positions on or off.
func WithPinned(pinned bool) Option {
	return func(o *Options) { o.Pinned = &pinned }
}

func newOptions(g *flow.Graph, opts []Option) Options {
	o := Options{
		NodeWidth:  layout.DefaultNodeWidth,
		NodeHeight: layout.DefaultNodeHeight,
		Direction:  layout.DefaultDirection,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.Pinned == nil {
		pinned := g.NodeCount() > 0 && !g.Stale()
		o.Pinned = &pinned
	}
	return o
}

// ToDOT converts a flowchart to Graphviz DOT. The result can be rendered
// with [RenderSVG] or saved for external tools.
func ToDOT(g *flow.Graph, opts ...Option) string {
	o := newOptions(g, opts)
	return toDOT(g, o)
}

func toDOT(g *flow.Graph, o Options) string {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&b, "  rankdir=%s;\n", o.Direction)
	if *o.Pinned {
		b.WriteString("  splines=true;\n")
		b.WriteString("  overlap=true;\n")
	}
	fmt.Fprintf(&b, "  node [fontname=\"Helvetica\", fontsize=14, style=filled, fillcolor=white, fixedsize=true, width=%s, height=%s];\n",
		inches(o.NodeWidth), inches(o.NodeHeight))
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=12];\n")
	b.WriteString("\n")

	height := extent(g, o)
	for _, n := range g.Nodes() {
		attrs := nodeAttrs(n)
		if *o.Pinned {
			// Graphviz puts the origin bottom-left and positions node centres.
			cx := n.Position.X + o.NodeWidth/2
			cy := height - (n.Position.Y + o.NodeHeight/2)
			attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", inches(cx), inches(cy)))
		}
		fmt.Fprintf(&b, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	b.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&b, "  %q -> %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&b, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}
	b.WriteString("}\n")
	return b.String()
}

func nodeAttrs(n *flow.Node) []string {
	attrs := []string{"label=" + quote(n.Label)}
	switch n.Kind {
	case flow.KindDecision:
		attrs = append(attrs, "shape=diamond")
	case flow.KindStart, flow.KindEnd:
		attrs = append(attrs, "shape=box", "style=\"rounded,filled\"", "peripheries=2")
	default:
		attrs = append(attrs, "shape=box")
	}
	return attrs
}

func edgeAttrs(e *flow.Edge) []string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, "label="+quote(e.Label))
	}
	if p := port(e.Style.SourceSide); p != "" {
		attrs = append(attrs, "tailport="+p)
	}
	if p := port(e.Style.TargetSide); p != "" {
		attrs = append(attrs, "headport="+p)
	}
	if e.Style.Animated {
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}

func port(s flow.Side) string {
	switch s {
	case flow.SideTop:
		return "n"
	case flow.SideBottom:
		return "s"
	case flow.SideLeft:
		return "w"
	case flow.SideRight:
		return "e"
	default:
		return ""
	}
}

// extent returns the height of the area covered by the nodes, used to flip
// the y axis.
func extent(g *flow.Graph, o Options) float64 {
	h := 0.0
	for _, n := range g.Nodes() {
		h = max(h, n.Position.Y+o.NodeHeight)
	}
	return h
}

// quote renders s as a DOT string literal. Newlines become centred line
// breaks.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}

func inches(points float64) string {
	return strconv.FormatFloat(points/pointsPerInch, 'f', 4, 64)
}
