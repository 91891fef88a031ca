package layout

import (
	"context"
	"math"
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/generation"
)

// DefaultSweeps is the number of alternating down/up ordering passes.
const DefaultSweeps = 8

// Layered is the built-in automatic layout engine.
//
// # Algorithm
//
//  1. Rank each person by generation level (one row per level)
//  2. Group each row into units; same-row siblings and their same-row
//     spouses form one unit
//  3. Reorder units by barycentre, alternating downward sweeps (parents)
//     and upward sweeps (children), keeping the ordering with the fewest
//     child-edge crossings
//  4. Place units left to right, pulling children under their parents and
//     childless-parent roots over their children, then enforce the minimum
//     separation
//  5. Translate centres to top-left positions
//
// The result is deterministic for a given input order.
type Layered struct {
	Options Options
	Sweeps  int
}

// NewLayered creates a layered engine with the given geometry.
func NewLayered(opts Options) *Layered {
	return &Layered{Options: opts.WithDefaults(), Sweeps: DefaultSweeps}
}

// Name implements Engine.
func (l *Layered) Name() string { return "layered" }

// unit is a run of people that must stay adjacent within a row.
type unit []string

type adjacency struct {
	children map[string][]string
	parents  map[string][]string
	spouse   map[string]string
	siblings map[string][]string
	levels   generation.Levels
}

func newAdjacency(in Input, levels generation.Levels) adjacency {
	known := make(map[string]bool, len(in.People))
	for _, p := range in.People {
		known[p.ID] = true
	}
	a := adjacency{
		children: make(map[string][]string),
		parents:  make(map[string][]string),
		spouse:   make(map[string]string),
		siblings: make(map[string][]string),
		levels:   levels,
	}
	for _, r := range in.Relationships {
		if !known[r.PersonA] || !known[r.PersonB] {
			continue
		}
		switch r.Kind {
		case family.KindChild:
			a.children[r.PersonA] = append(a.children[r.PersonA], r.PersonB)
			a.parents[r.PersonB] = append(a.parents[r.PersonB], r.PersonA)
		case family.KindSpouse:
			a.spouse[r.PersonA] = r.PersonB
			a.spouse[r.PersonB] = r.PersonA
		case family.KindSibling:
			a.siblings[r.PersonA] = append(a.siblings[r.PersonA], r.PersonB)
			a.siblings[r.PersonB] = append(a.siblings[r.PersonB], r.PersonA)
		}
	}
	return a
}

// Layout implements Engine.
func (l *Layered) Layout(ctx context.Context, in Input) (Positions, error) {
	opts := l.Options.WithDefaults()
	if len(in.People) == 0 {
		return Positions{}, nil
	}

	levels := in.levels()
	adj := newAdjacency(in, levels)
	rows := buildUnits(in.ids(), adj)

	best := cloneRows(rows)
	bestCrossings := countCrossings(flattenRows(rows), adj.childrenOf)
	sweeps := l.Sweeps
	if sweeps <= 0 {
		sweeps = DefaultSweeps
	}
	for i := 0; i < sweeps && bestCrossings > 0; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i%2 == 0 {
			sweepDown(rows, adj)
		} else {
			sweepUp(rows, adj)
		}
		if c := countCrossings(flattenRows(rows), adj.childrenOf); c < bestCrossings {
			best, bestCrossings = cloneRows(rows), c
		}
	}

	centers := place(best, adj, opts)
	return centerToTopLeft(centers, opts), nil
}

func (a adjacency) childrenOf(id string) []string { return a.children[id] }

// buildUnits splits people into rows by level. Each unit is a group of
// same-row siblings, each followed by a same-row spouse.
func buildUnits(ids []string, adj adjacency) [][]unit {
	depth := 0
	for _, id := range ids {
		depth = max(depth, adj.levels[id])
	}
	rows := make([][]unit, depth+1)
	placed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if placed[id] {
			continue
		}
		lvl := adj.levels[id]
		var u unit
		add := func(p string) {
			if !placed[p] && adj.levels[p] == lvl {
				placed[p] = true
				u = append(u, p)
			}
		}
		for _, m := range adj.siblingGroup(id) {
			add(m)
			if s, ok := adj.spouse[m]; ok {
				add(s)
			}
		}
		rows[lvl] = append(rows[lvl], u)
	}
	return rows
}

// siblingGroup returns id and everyone on its row linked to it through
// sibling relationships, in discovery order.
func (a adjacency) siblingGroup(id string) []string {
	lvl := a.levels[id]
	group := []string{id}
	seen := map[string]bool{id: true}
	for i := 0; i < len(group); i++ {
		for _, s := range a.siblings[group[i]] {
			if !seen[s] && a.levels[s] == lvl {
				seen[s] = true
				group = append(group, s)
			}
		}
	}
	return group
}

func flattenRows(rows [][]unit) [][]string {
	out := make([][]string, len(rows))
	for r, units := range rows {
		for _, u := range units {
			out[r] = append(out[r], u...)
		}
	}
	return out
}

func cloneRows(rows [][]unit) [][]unit {
	out := make([][]unit, len(rows))
	for r, units := range rows {
		out[r] = make([]unit, len(units))
		for i, u := range units {
			out[r][i] = slices.Clone(u)
		}
	}
	return out
}

// normalizedPositions maps each person to (index+0.5)/rowLength so rows of
// different widths are comparable.
func normalizedPositions(rows [][]unit) map[string]float64 {
	norm := make(map[string]float64)
	for _, ids := range flattenRows(rows) {
		for i, id := range ids {
			norm[id] = (float64(i) + 0.5) / float64(len(ids))
		}
	}
	return norm
}

func sweepDown(rows [][]unit, adj adjacency) {
	for r := 1; r < len(rows); r++ {
		reorder(rows, r, func(id string) []string { return adj.parents[id] })
	}
}

func sweepUp(rows [][]unit, adj adjacency) {
	for r := len(rows) - 2; r >= 0; r-- {
		reorder(rows, r, func(id string) []string { return adj.children[id] })
	}
}

// reorder sorts the units of row r by the barycentre of their neighbours.
// Units without neighbours keep their current relative position.
func reorder(rows [][]unit, r int, neighbors func(string) []string) {
	norm := normalizedPositions(rows)
	units := rows[r]
	bary := make(map[int]float64, len(units))
	flatIdx := 0
	total := 0
	for _, u := range units {
		total += len(u)
	}
	for i, u := range units {
		sum, n := 0.0, 0
		for _, id := range u {
			for _, nb := range neighbors(id) {
				if v, ok := norm[nb]; ok {
					sum += v
					n++
				}
			}
		}
		if n > 0 {
			bary[i] = sum / float64(n)
		} else {
			bary[i] = (float64(flatIdx) + float64(len(u))/2) / float64(total)
		}
		flatIdx += len(u)
	}

	order := make([]int, len(units))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case bary[a] < bary[b]:
			return -1
		case bary[a] > bary[b]:
			return 1
		}
		return 0
	})
	sorted := make([]unit, len(units))
	for i, idx := range order {
		sorted[i] = units[idx]
	}
	rows[r] = sorted
}

// place assigns centre coordinates. Rows are processed top-down, pulling
// units under the mean x of their parents, then bottom-up, pulling parentless
// units over their children.
func place(rows [][]unit, adj adjacency, opts Options) Positions {
	step := opts.NodeWidth + opts.NodeSep
	centers := make(Positions)
	unitX := make([][]float64, len(rows))

	rowY := func(r int) float64 {
		return float64(r)*(opts.NodeHeight+opts.RankSep) + opts.NodeHeight/2
	}
	setRow := func(r int, xs []float64) {
		unitX[r] = xs
		for i, u := range rows[r] {
			for k, id := range u {
				offset := (float64(k) - float64(len(u)-1)/2) * step
				centers[id] = family.Position{X: xs[i] + offset, Y: rowY(r)}
			}
		}
	}
	meanX := func(u unit, neighbors map[string][]string) (float64, bool) {
		sum, n := 0.0, 0
		for _, id := range u {
			for _, nb := range neighbors[id] {
				if c, ok := centers[nb]; ok {
					sum += c.X
					n++
				}
			}
		}
		if n == 0 {
			return 0, false
		}
		return sum / float64(n), true
	}

	for r := range rows {
		targets := make([]float64, len(rows[r]))
		for i, u := range rows[r] {
			targets[i] = math.NaN()
			if x, ok := meanX(u, adj.parents); ok {
				targets[i] = x
			}
		}
		setRow(r, settle(rows[r], targets, step))
	}

	for r := len(rows) - 2; r >= 0; r-- {
		targets := slices.Clone(unitX[r])
		for i, u := range rows[r] {
			if hasParents(u, adj) {
				continue
			}
			if x, ok := meanX(u, adj.children); ok {
				targets[i] = x
			}
		}
		setRow(r, settle(rows[r], targets, step))
	}
	return centers
}

func hasParents(u unit, adj adjacency) bool {
	for _, id := range u {
		if len(adj.parents[id]) > 0 {
			return true
		}
	}
	return false
}

// settle turns target centres (NaN = no preference) into unit centres that
// keep the row order and the minimum separation, shifted as a block so the
// mean deviation from the targets is zero.
func settle(units []unit, targets []float64, step float64) []float64 {
	n := len(units)
	if n == 0 {
		return nil
	}
	gap := func(i int) float64 { return float64(len(units[i-1])+len(units[i])) / 2 * step }

	packed := make([]float64, n)
	for i := 1; i < n; i++ {
		packed[i] = packed[i-1] + gap(i)
	}

	shift, known := 0.0, 0
	for i, t := range targets {
		if !math.IsNaN(t) {
			shift += t - packed[i]
			known++
		}
	}
	if known > 0 {
		shift /= float64(known)
	}
	want := make([]float64, n)
	for i, t := range targets {
		if math.IsNaN(t) {
			want[i] = packed[i] + shift
		} else {
			want[i] = t
		}
	}

	xs := make([]float64, n)
	xs[0] = want[0]
	for i := 1; i < n; i++ {
		xs[i] = max(want[i], xs[i-1]+gap(i))
	}

	drift := 0.0
	for i := range xs {
		drift += want[i] - xs[i]
	}
	drift /= float64(n)
	for i := range xs {
		xs[i] += drift
	}
	return xs
}
