package layout

import (
	"errors"
	"fmt"
	"strings"
)

// Direction is the flow direction of the layered layout.
type Direction string

const (
	TopBottom Direction = "TB"
	LeftRight Direction = "LR"
)

// Default values shared by the CLI, the server and the editor.
const (
	DefaultNodeWidth  = 180.0
	DefaultNodeHeight = 60.0
	DefaultNodeSep    = 80.0
	DefaultEdgeSep    = 40.0
	DefaultRankSep    = 100.0
	DefaultSweeps     = 4
	DefaultDirection  = TopBottom
	DefaultEngine     = EngineLayered
)

// ErrInvalidOptions is returned by [Options.Validate].
var ErrInvalidOptions = errors.New("invalid layout options")

// ParseDirection accepts TB, TD and LR in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TB", "TD":
		return TopBottom, nil
	case "LR":
		return LeftRight, nil
	}
	return "", fmt.Errorf("%w: direction %q (must be TB or LR)", ErrInvalidOptions, s)
}

// Options configures a layout run. Zero fields are replaced by defaults in
// [Options.SetDefaults].
type Options struct {
	Engine     string    `json:"engine,omitempty" toml:"engine"`
	Direction  Direction `json:"direction,omitempty" toml:"direction"`
	NodeWidth  float64   `json:"node_width,omitempty" toml:"node_width" split_words:"true"`
	NodeHeight float64   `json:"node_height,omitempty" toml:"node_height" split_words:"true"`
	NodeSep    float64   `json:"node_sep,omitempty" toml:"node_sep" split_words:"true"`
	EdgeSep    float64   `json:"edge_sep,omitempty" toml:"edge_sep" split_words:"true"`
	RankSep    float64   `json:"rank_sep,omitempty" toml:"rank_sep" split_words:"true"`
	Sweeps     int       `json:"sweeps,omitempty" toml:"sweeps"`
}

// SetDefaults fills zero fields with the package defaults.
func (o *Options) SetDefaults() {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
	if o.NodeWidth == 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight == 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.NodeSep == 0 {
		o.NodeSep = DefaultNodeSep
	}
	if o.EdgeSep == 0 {
		o.EdgeSep = DefaultEdgeSep
	}
	if o.RankSep == 0 {
		o.RankSep = DefaultRankSep
	}
	if o.Sweeps == 0 {
		o.Sweeps = DefaultSweeps
	}
}

// Validate checks option ranges. Call SetDefaults first.
func (o Options) Validate() error {
	if _, err := ParseDirection(string(o.Direction)); err != nil {
		return err
	}
	if o.Engine != EngineLayered && o.Engine != EngineGraphviz {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, unknownEngine(o.Engine))
	}
	if o.NodeWidth <= 0 || o.NodeHeight <= 0 {
		return fmt.Errorf("%w: node size must be positive", ErrInvalidOptions)
	}
	if o.NodeSep < 0 || o.EdgeSep < 0 || o.RankSep < 0 {
		return fmt.Errorf("%w: separations must not be negative", ErrInvalidOptions)
	}
	if o.Sweeps < 0 {
		return fmt.Errorf("%w: sweeps must not be negative", ErrInvalidOptions)
	}
	return nil
}

// Normalized returns a copy with defaults applied and the direction in its
// canonical form.
func (o Options) Normalized() Options {
	o.SetDefaults()
	if d, err := ParseDirection(string(o.Direction)); err == nil {
		o.Direction = d
	}
	return o
}
