package layout

import (
	"cmp"
	"context"
	"slices"
)

// orderLayers reduces crossings with alternating barycenter sweeps. Each
// sweep reorders every layer down the graph by parent positions, then back
// up by child positions. The ordering with the fewest crossings seen is
// returned; sweeping stops early once it reaches zero.
func orderLayers(ctx context.Context, d *dag, sweeps int) ([][]string, int, error) {
	layers := d.layers()
	best := cloneLayers(layers)
	bestCrossings := countCrossings(d, layers)

	for i := 0; i < sweeps && bestCrossings > 0; i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		for l := 1; l < len(layers); l++ {
			sortByBarycenter(layers[l], posMap(layers[l-1]), d.parents)
		}
		for l := len(layers) - 2; l >= 0; l-- {
			sortByBarycenter(layers[l], posMap(layers[l+1]), d.children)
		}
		if c := countCrossings(d, layers); c < bestCrossings {
			best, bestCrossings = cloneLayers(layers), c
		}
	}
	return best, bestCrossings, nil
}

// sortByBarycenter orders layer by the mean position of each vertex's
// neighbours in the adjacent layer. Vertices without neighbours there keep
// their current index as barycenter so they stay roughly in place.
func sortByBarycenter(layer []string, adjPos map[string]int, neighbours func(string) []string) {
	bary := make(map[string]float64, len(layer))
	for i, id := range layer {
		sum, n := 0, 0
		for _, nb := range neighbours(id) {
			if p, ok := adjPos[nb]; ok {
				sum += p
				n++
			}
		}
		if n == 0 {
			bary[id] = float64(i)
			continue
		}
		bary[id] = float64(sum) / float64(n)
	}
	slices.SortStableFunc(layer, func(a, b string) int { return cmp.Compare(bary[a], bary[b]) })
}

func cloneLayers(layers [][]string) [][]string {
	out := make([][]string, len(layers))
	for i, l := range layers {
		out[i] = slices.Clone(l)
	}
	return out
}
