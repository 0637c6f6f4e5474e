package layout

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowdesk/pkg/flow"
)

// Layered is the built-in layered layout engine.
type Layered struct{}

// Name returns "layered".
func (Layered) Name() string { return EngineLayered }

// Compute lays g out in layers along opts.Direction. g is not modified.
func (Layered) Compute(ctx context.Context, g *flow.Graph, opts Options) (Result, error) {
	opts = opts.Normalized()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	res := newResult(EngineLayered, g.NodeCount(), g.EdgeCount())
	if g.NodeCount() == 0 {
		return res, nil
	}

	d := buildDAG(g)
	breakCycles(d)
	assignLayers(d)
	subdivide(d)

	layers, crossings, err := orderLayers(ctx, d, opts.Sweeps)
	if err != nil {
		return Result{}, fmt.Errorf("order layers: %w", err)
	}
	res.Crossings = crossings

	place(d, layers, opts, res.Positions)
	for id, v := range d.vertices {
		if !v.virtual {
			res.Layers[id] = v.layer
		}
	}
	res.Width, res.Height = bounds(res.Positions, opts.NodeWidth, opts.NodeHeight)
	res.Styles = Annotate(g, res.Positions)
	return res, nil
}

// place assigns top-left positions to the real vertices. Within a layer,
// slots are laid side by side and centred on a shared axis: real vertices
// occupy the node size and are NodeSep apart, virtual vertices have no
// extent and are EdgeSep from their neighbours.
func place(d *dag, layers [][]string, opts Options, out map[string]flow.Point) {
	w, h := opts.NodeWidth, opts.NodeHeight
	along, across := h, w // rank axis extent, in-layer extent
	if opts.Direction == LeftRight {
		along, across = w, h
	}

	for l, layer := range layers {
		centres := make([]float64, len(layer))
		cursor := 0.0
		for i, id := range layer {
			size := across
			if d.vertices[id].virtual {
				size = 0
			}
			if i > 0 {
				if size == 0 || d.vertices[layer[i-1]].virtual {
					cursor += opts.EdgeSep
				} else {
					cursor += opts.NodeSep
				}
			}
			centres[i] = cursor + size/2
			cursor += size
		}

		offset := cursor / 2
		rank := float64(l) * (along + opts.RankSep)
		for i, id := range layer {
			if d.vertices[id].virtual {
				continue
			}
			c := centres[i] - offset
			if opts.Direction == LeftRight {
				out[id] = flow.Point{X: rank, Y: c - h/2}
			} else {
				out[id] = flow.Point{X: c - w/2, Y: rank}
			}
		}
	}
}
