// Package layout positions people on the canvas.
//
// # Modes
//
// Manual mode ([Manual]) keeps every persisted position and places people
// without one on a deterministic grid: x = index*250, y = floor(index/3)*150,
// where index is the person's position in load order.
//
// Automatic mode runs an [Engine] that arranges the whole tree in layers, one
// layer per generation level, top to bottom:
//
//   - [Layered] is the built-in engine: barycentric crossing reduction scored
//     with a Fenwick-tree crossing counter, couples kept side by side
//   - [Graphviz] delegates to the Graphviz "dot" layout
//
// Every engine uses the same fixed footprint (170x100) and separations
// (50 between ranks and between neighbours). Engines compute node centres
// and translate them by half the footprint, so all returned positions are
// top-left anchored.
//
// Layout never touches storage. Persisting positions is the editor's job.
package layout

import (
	"context"
	"maps"
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/generation"
)

// Mode tells where the positions on a canvas come from.
type Mode string

const (
	// ModeManual positions are stored, dragged or from the default grid.
	ModeManual Mode = "manual"
	// ModeAutomatic positions were computed by an Engine and not saved yet.
	ModeAutomatic Mode = "automatic"
)

// Default geometry in canvas units.
const (
	DefaultNodeWidth  = 170.0
	DefaultNodeHeight = 100.0
	DefaultRankSep    = 50.0
	DefaultNodeSep    = 50.0

	DefaultGridStepX = 250.0
	DefaultGridStepY = 150.0
	DefaultGridCols  = 3
)

// Options configures node geometry and spacing.
type Options struct {
	NodeWidth  float64 `toml:"node_width" json:"node_width"`
	NodeHeight float64 `toml:"node_height" json:"node_height"`
	RankSep    float64 `toml:"rank_sep" json:"rank_sep"`
	NodeSep    float64 `toml:"node_sep" json:"node_sep"`
	GridStepX  float64 `toml:"grid_step_x" json:"grid_step_x"`
	GridStepY  float64 `toml:"grid_step_y" json:"grid_step_y"`
	GridCols   int     `toml:"grid_cols" json:"grid_cols"`
}

// DefaultOptions returns the standard canvas geometry.
func DefaultOptions() Options {
	return Options{
		NodeWidth:  DefaultNodeWidth,
		NodeHeight: DefaultNodeHeight,
		RankSep:    DefaultRankSep,
		NodeSep:    DefaultNodeSep,
		GridStepX:  DefaultGridStepX,
		GridStepY:  DefaultGridStepY,
		GridCols:   DefaultGridCols,
	}
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.RankSep <= 0 {
		o.RankSep = d.RankSep
	}
	if o.NodeSep <= 0 {
		o.NodeSep = d.NodeSep
	}
	if o.GridStepX <= 0 {
		o.GridStepX = d.GridStepX
	}
	if o.GridStepY <= 0 {
		o.GridStepY = d.GridStepY
	}
	if o.GridCols <= 0 {
		o.GridCols = d.GridCols
	}
	return o
}

// Input is what an engine lays out.
type Input struct {
	People        []family.Person       `json:"people"`
	Relationships []family.Relationship `json:"relationships"`
	// Levels is optional; engines resolve it when nil.
	Levels generation.Levels `json:"levels,omitempty"`
}

// InputFromGraph builds an Input from a graph and its levels.
func InputFromGraph(g *family.Graph, levels generation.Levels) Input {
	return Input{People: g.People(), Relationships: g.Relationships(), Levels: levels}
}

func (in Input) levels() generation.Levels {
	if in.Levels != nil {
		return in.Levels
	}
	return generation.Resolve(in.People, in.Relationships)
}

func (in Input) ids() []string {
	ids := make([]string, len(in.People))
	for i, p := range in.People {
		ids[i] = p.ID
	}
	return ids
}

// Positions maps person IDs to top-left canvas positions.
type Positions map[string]family.Position

// Engine computes an automatic layout.
type Engine interface {
	Name() string
	Layout(ctx context.Context, in Input) (Positions, error)
}

// Manual returns persisted positions, filling gaps with grid defaults.
func Manual(in Input, opts Options) Positions {
	opts = opts.WithDefaults()
	pos := make(Positions, len(in.People))
	for i, p := range in.People {
		if p.Position != nil {
			pos[p.ID] = *p.Position
			continue
		}
		pos[p.ID] = GridPosition(i, opts)
	}
	return pos
}

// GridPosition is the default position for the person at index.
func GridPosition(index int, opts Options) family.Position {
	opts = opts.WithDefaults()
	return family.Position{
		X: float64(index) * opts.GridStepX,
		Y: float64(index/opts.GridCols) * opts.GridStepY,
	}
}

// Overlaps reports whether two top-left anchored nodes intersect.
func Overlaps(a, b family.Position, opts Options) bool {
	opts = opts.WithDefaults()
	return a.X < b.X+opts.NodeWidth && b.X < a.X+opts.NodeWidth &&
		a.Y < b.Y+opts.NodeHeight && b.Y < a.Y+opts.NodeHeight
}

// centerToTopLeft converts engine centre coordinates to canvas positions and
// shifts the result so the top-left-most node sits at the origin.
func centerToTopLeft(centers Positions, opts Options) Positions {
	out := make(Positions, len(centers))
	if len(centers) == 0 {
		return out
	}
	minX, minY := 0.0, 0.0
	first := true
	for _, id := range slices.Sorted(maps.Keys(centers)) {
		c := centers[id]
		x, y := c.X-opts.NodeWidth/2, c.Y-opts.NodeHeight/2
		if first || x < minX {
			minX = x
		}
		if first || y < minY {
			minY = y
		}
		first = false
		out[id] = family.Position{X: x, Y: y}
	}
	for id, p := range out {
		out[id] = family.Position{X: p.X - minX, Y: p.Y - minY}
	}
	return out
}
