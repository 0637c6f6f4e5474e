package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowdesk/pkg/flow"
)

// pointsPerInch converts between canvas units and Graphviz inches.
const pointsPerInch = 72.0

// Graphviz lays graphs out with the Graphviz dot algorithm. Canvas units
// map one to one onto Graphviz points.
type Graphviz struct{}

// Name returns "graphviz".
func (Graphviz) Name() string { return EngineGraphviz }

// Compute runs dot on g and converts the resulting node centres into
// top-left positions with y growing downwards. g is not modified.
func (Graphviz) Compute(ctx context.Context, g *flow.Graph, opts Options) (Result, error) {
	opts = opts.Normalized()
	opts.Engine = EngineGraphviz
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	res := newResult(EngineGraphviz, g.NodeCount(), g.EdgeCount())
	if g.NodeCount() == 0 {
		return res, nil
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(LayoutDOT(g, opts)))
	if err != nil {
		return Result{}, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}

	centres, height, err := parseLaidOutDOT(buf.String())
	if err != nil {
		return Result{}, err
	}
	for _, n := range g.Nodes() {
		c, ok := centres[n.ID]
		if !ok {
			return Result{}, fmt.Errorf("graphviz: no position for node %s", n.ID)
		}
		res.Positions[n.ID] = flow.Point{
			X: c.X - opts.NodeWidth/2,
			Y: (height - c.Y) - opts.NodeHeight/2,
		}
	}
	res.Width, res.Height = bounds(res.Positions, opts.NodeWidth, opts.NodeHeight)
	res.Styles = Annotate(g, res.Positions)
	return res, nil
}

// LayoutDOT renders the topology of g as DOT with fixed-size, unlabelled
// nodes sized and spaced according to opts.
func LayoutDOT(g *flow.Graph, opts Options) string {
	opts = opts.Normalized()
	var b strings.Builder
	b.WriteString("digraph G {\n")
	fmt.Fprintf(&b, "  rankdir=%s;\n", opts.Direction)
	fmt.Fprintf(&b, "  nodesep=%s;\n", inches(opts.NodeSep))
	fmt.Fprintf(&b, "  ranksep=%s;\n", inches(opts.RankSep))
	fmt.Fprintf(&b, "  node [shape=box, fixedsize=true, label=\"\", width=%s, height=%s];\n",
		inches(opts.NodeWidth), inches(opts.NodeHeight))
	b.WriteString("\n")
	for _, n := range g.Nodes() {
		fmt.Fprintf(&b, "  %q;\n", n.ID)
	}
	b.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "  %q -> %q;\n", e.Source, e.Target)
	}
	b.WriteString("}\n")
	return b.String()
}

func inches(points float64) string {
	return strconv.FormatFloat(points/pointsPerInch, 'f', 4, 64)
}

var (
	// A node statement: optional quotes around a word id, then an attribute
	// list that may span several lines.
	dotNodeRe = regexp.MustCompile(`(?m)^\s*("?)(\w+)"?\s*\[([^\]]*)\]`)
	dotPosRe  = regexp.MustCompile(`\bpos="([-0-9.e+]+),([-0-9.e+]+)!?"`)
	dotBBRe   = regexp.MustCompile(`\bbb="([-0-9.e+]+),([-0-9.e+]+),([-0-9.e+]+),([-0-9.e+]+)"`)
)

// parseLaidOutDOT extracts node centres and the bounding-box height from
// dot output. Unquoted graph, node and edge statements are attribute
// defaults, not nodes.
func parseLaidOutDOT(out string) (map[string]flow.Point, float64, error) {
	bb := dotBBRe.FindStringSubmatch(out)
	if bb == nil {
		return nil, 0, fmt.Errorf("graphviz: bounding box missing from output")
	}
	lly, _ := strconv.ParseFloat(bb[2], 64)
	ury, err := strconv.ParseFloat(bb[4], 64)
	if err != nil {
		return nil, 0, fmt.Errorf("graphviz: bounding box: %w", err)
	}

	centres := make(map[string]flow.Point)
	for _, m := range dotNodeRe.FindAllStringSubmatch(out, -1) {
		quoted, id, attrs := m[1] != "", m[2], m[3]
		if !quoted && (id == "graph" || id == "node" || id == "edge") {
			continue
		}
		p := dotPosRe.FindStringSubmatch(attrs)
		if p == nil {
			continue
		}
		x, errX := strconv.ParseFloat(p[1], 64)
		y, errY := strconv.ParseFloat(p[2], 64)
		if errX != nil || errY != nil {
			return nil, 0, fmt.Errorf("graphviz: position of %s: %q", id, p[0])
		}
		centres[id] = flow.Point{X: x, Y: y}
	}
	return centres, ury + lly, nil
}
