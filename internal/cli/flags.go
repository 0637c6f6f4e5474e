package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowdesk/pkg/layout"
)

// layoutFlags binds the layout options shared by layout, render, edit and
// serve. Only flags set on the command line override the configuration.
type layoutFlags struct {
	engine     string
	direction  string
	nodeWidth  float64
	nodeHeight float64
	nodeSep    float64
	rankSep    float64
	sweeps     int
}

func addLayoutFlags(cmd *cobra.Command) *layoutFlags {
	f := &layoutFlags{}
	flags := cmd.Flags()
	flags.StringVar(&f.engine, "engine", layout.DefaultEngine, "layout engine: "+strings.Join(layout.EngineNames(), ", "))
	flags.StringVarP(&f.direction, "direction", "d", string(layout.DefaultDirection), "flow direction: TB or LR")
	flags.Float64Var(&f.nodeWidth, "node-width", layout.DefaultNodeWidth, "node width")
	flags.Float64Var(&f.nodeHeight, "node-height", layout.DefaultNodeHeight, "node height")
	flags.Float64Var(&f.nodeSep, "node-sep", layout.DefaultNodeSep, "space between nodes of one layer")
	flags.Float64Var(&f.rankSep, "rank-sep", layout.DefaultRankSep, "space between layers")
	flags.IntVar(&f.sweeps, "sweeps", layout.DefaultSweeps, "crossing reduction sweeps (layered engine)")
	registerLayoutCompletions(cmd)
	return f
}

// apply returns base with every changed flag applied, normalized and
// validated.
func (f *layoutFlags) apply(cmd *cobra.Command, base layout.Options) (layout.Options, error) {
	flags := cmd.Flags()
	if flags.Changed("engine") {
		base.Engine = f.engine
	}
	if flags.Changed("direction") {
		d, err := layout.ParseDirection(f.direction)
		if err != nil {
			return base, err
		}
		base.Direction = d
	}
	if flags.Changed("node-width") {
		base.NodeWidth = f.nodeWidth
	}
	if flags.Changed("node-height") {
		base.NodeHeight = f.nodeHeight
	}
	if flags.Changed("node-sep") {
		base.NodeSep = f.nodeSep
	}
	if flags.Changed("rank-sep") {
		base.RankSep = f.rankSep
	}
	if flags.Changed("sweeps") {
		base.Sweeps = f.sweeps
	}
	opts := base.Normalized()
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}
