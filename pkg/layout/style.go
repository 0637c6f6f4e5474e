package layout

import (
	"math"

	"github.com/matzehuels/flowdesk/pkg/flow"
)

// alignThreshold is the horizontal centre distance below which two nodes
// count as vertically aligned.
const alignThreshold = 50.0

// Annotate computes connector hints for every edge of g from node
// positions. Edges with an endpoint missing from pos get only the routing
// and animation hints.
func Annotate(g *flow.Graph, pos map[string]flow.Point) map[string]flow.EdgeStyle {
	styles := make(map[string]flow.EdgeStyle, g.EdgeCount())
	for _, e := range g.Edges() {
		s := flow.EdgeStyle{
			Animated: g.HasReciprocal(e),
			Curve:    flow.CurveSmoothStep,
		}
		if t, ok := g.Node(e.Target); ok && t.Kind == flow.KindDecision {
			s.Curve = flow.CurveStep
		}

		sp, okS := pos[e.Source]
		tp, okT := pos[e.Target]
		if okS && okT {
			s.SourceSide, s.TargetSide = sides(sp, tp)
		}
		styles[e.ID] = s
	}
	return styles
}

func sides(source, target flow.Point) (flow.Side, flow.Side) {
	// Both nodes share a size, so comparing top-left corners equals comparing
	// centres.
	dx := target.X - source.X
	dy := target.Y - source.Y
	switch {
	case math.Abs(dx) < alignThreshold && dy > 0:
		return flow.SideBottom, flow.SideTop
	case math.Abs(dx) < alignThreshold:
		return flow.SideTop, flow.SideBottom
	case dx > 0:
		return flow.SideRight, flow.SideLeft
	default:
		return flow.SideLeft, flow.SideRight
	}
}
