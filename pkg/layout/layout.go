package layout

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/flowdesk/pkg/flow"
)

// Engine names accepted by [ByName].
const (
	EngineLayered  = "layered"
	EngineGraphviz = "graphviz"
)

// ErrUnknownEngine is returned by [ByName] for unrecognized engine names.
var ErrUnknownEngine = errors.New("unknown layout engine")

var engines = map[string]Engine{
	EngineLayered:  Layered{},
	EngineGraphviz: Graphviz{},
}

func unknownEngine(name string) error {
	return fmt.Errorf("%w: %q (must be one of: %s, %s)", ErrUnknownEngine, name, EngineGraphviz, EngineLayered)
}

// Engine computes a layout for a graph. Implementations must not modify g.
type Engine interface {
	Name() string
	Compute(ctx context.Context, g *flow.Graph, opts Options) (Result, error)
}

// ByName returns the engine registered under name. An empty name selects
// the default engine.
func ByName(name string) (Engine, error) {
	if name == "" {
		name = DefaultEngine
	}
	e, ok := engines[name]
	if !ok {
		return nil, unknownEngine(name)
	}
	return e, nil
}

// EngineNames lists the registered engine names in sorted order.
func EngineNames() []string {
	return slices.Sorted(maps.Keys(engines))
}

// Result is the output of a layout computation.
type Result struct {
	Engine    string                    `json:"engine"`
	Positions map[string]flow.Point     `json:"positions"`
	Styles    map[string]flow.EdgeStyle `json:"styles"`
	Layers    map[string]int            `json:"layers,omitempty"`
	Width     float64                   `json:"width"`
	Height    float64                   `json:"height"`
	Crossings int                       `json:"crossings"`
}

func newResult(engine string, nodes, edges int) Result {
	return Result{
		Engine:    engine,
		Positions: make(map[string]flow.Point, nodes),
		Styles:    make(map[string]flow.EdgeStyle, edges),
		Layers:    make(map[string]int, nodes),
	}
}

// Apply writes the positions and edge styles of r onto g. Node ids, labels
// and kinds are left untouched, as is anything r does not mention. It
// returns the number of nodes positioned.
func Apply(g *flow.Graph, r Result) int {
	n := 0
	for id, p := range r.Positions {
		if g.SetPosition(id, p) == nil {
			n++
		}
	}
	for id, s := range r.Styles {
		if e, ok := g.Edge(id); ok {
			e.Style = s
		}
	}
	return n
}

// Run computes a layout with engine, applies it to g and clears the graph's
// stale flag.
func Run(ctx context.Context, engine Engine, g *flow.Graph, opts Options) (Result, error) {
	r, err := engine.Compute(ctx, g, opts)
	if err != nil {
		return Result{}, err
	}
	Apply(g, r)
	g.MarkLaidOut()
	return r, nil
}

// bounds shifts positions so the smallest coordinates are zero and returns
// the overall extent.
func bounds(pos map[string]flow.Point, w, h float64) (width, height float64) {
	if len(pos) == 0 {
		return 0, 0
	}
	first := true
	var minX, minY, maxX, maxY float64
	for _, p := range pos {
		if first {
			minX, minY, maxX, maxY = p.X, p.Y, p.X, p.Y
			first = false
			continue
		}
		minX, minY = min(minX, p.X), min(minY, p.Y)
		maxX, maxY = max(maxX, p.X), max(maxY, p.Y)
	}
	for id, p := range pos {
		pos[id] = flow.Point{X: p.X - minX, Y: p.Y - minY}
	}
	return maxX - minX + w, maxY - minY + h
}
