package layout

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kintree/pkg/family"
)

// pointsPerInch converts canvas units (treated as points) to Graphviz inches.
const pointsPerInch = 72.0

// Graphviz lays out the tree with the Graphviz "dot" engine. Every
// relationship becomes an edge; child edges constrain ranks, lateral edges
// do not. People of the same generation share a rank.
type Graphviz struct {
	Options Options
}

// NewGraphviz creates a Graphviz-backed engine with the given geometry.
func NewGraphviz(opts Options) *Graphviz {
	return &Graphviz{Options: opts.WithDefaults()}
}

// Name implements Engine.
func (g *Graphviz) Name() string { return "graphviz" }

// Layout implements Engine.
func (g *Graphviz) Layout(ctx context.Context, in Input) (Positions, error) {
	opts := g.Options.WithDefaults()
	if len(in.People) == 0 {
		return Positions{}, nil
	}

	out, err := renderDOT(ctx, ToDOT(in, opts), graphviz.XDOT)
	if err != nil {
		return nil, err
	}
	centers, err := parseCenters(out)
	if err != nil {
		return nil, err
	}
	for _, p := range in.People {
		if _, ok := centers[p.ID]; !ok {
			return nil, fmt.Errorf("graphviz: no position for %s", p.ID)
		}
	}
	return centerToTopLeft(centers, opts), nil
}

// ToDOT converts the layout input to Graphviz DOT format. Node boxes use a
// fixed size so the computed centres match the canvas footprint.
func ToDOT(in Input, opts Options) string {
	opts = opts.WithDefaults()
	levels := in.levels()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  ranksep=%.4f;\n", opts.RankSep/pointsPerInch)
	fmt.Fprintf(&buf, "  nodesep=%.4f;\n", opts.NodeSep/pointsPerInch)
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, width=%.4f, height=%.4f];\n",
		opts.NodeWidth/pointsPerInch, opts.NodeHeight/pointsPerInch)
	buf.WriteString("\n")

	for _, p := range in.People {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", p.ID, dotLabel(p))
	}

	buf.WriteString("\n")
	rows := levels.Rows(in.ids())
	for lvl := 0; lvl <= levels.Max(); lvl++ {
		ids := rows[lvl]
		if len(ids) == 0 {
			continue
		}
		quoted := make([]string, len(ids))
		for i, id := range ids {
			quoted[i] = strconv.Quote(id)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(quoted, "; "))
	}

	buf.WriteString("\n")
	for _, r := range in.Relationships {
		switch r.Kind {
		case family.KindChild:
			fmt.Fprintf(&buf, "  %q -> %q;\n", r.PersonA, r.PersonB)
		default:
			fmt.Fprintf(&buf, "  %q -> %q [constraint=false, dir=none, style=dashed];\n", r.PersonA, r.PersonB)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(p family.Person) string {
	if name := p.FullName(); name != "" {
		return name
	}
	return p.ID
}

// renderDOT runs Graphviz on a DOT source and returns the rendered bytes.
func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSVG renders the tree as a node-link SVG diagram.
func RenderSVG(ctx context.Context, in Input, opts Options) ([]byte, error) {
	return renderDOT(ctx, ToDOT(in, opts), graphviz.SVG)
}

// parseCenters extracts node centres from laid-out DOT output by parsing
// it back into a graph and reading each node's pos attribute. Graphviz
// places the origin at the bottom-left, so y is flipped using the bounding
// box to get canvas coordinates that grow downward.
func parseCenters(out []byte) (Positions, error) {
	g, err := graphviz.ParseBytes(out)
	if err != nil {
		return nil, fmt.Errorf("graphviz: parse layout: %w", err)
	}
	defer g.Close()

	bb := strings.Split(g.GetStr("bb"), ",")
	if len(bb) != 4 {
		return nil, fmt.Errorf("graphviz: missing bounding box")
	}
	top, err := strconv.ParseFloat(bb[3], 64)
	if err != nil {
		return nil, fmt.Errorf("graphviz: bounding box: %w", err)
	}

	centers := make(Positions)
	n, err := g.FirstNode()
	for ; err == nil && n != nil; n, err = g.NextNode(n) {
		id, nameErr := n.Name()
		if nameErr != nil {
			return nil, fmt.Errorf("graphviz: node name: %w", nameErr)
		}
		pos := strings.TrimSuffix(n.GetStr("pos"), "!")
		if pos == "" {
			continue
		}
		xs, ys, ok := strings.Cut(pos, ",")
		x, errX := strconv.ParseFloat(xs, 64)
		y, errY := strconv.ParseFloat(ys, 64)
		if !ok || errX != nil || errY != nil {
			return nil, fmt.Errorf("graphviz: bad position %q for %s", pos, id)
		}
		centers[id] = family.Position{X: x, Y: top - y}
	}
	if err != nil {
		return nil, fmt.Errorf("graphviz: walk nodes: %w", err)
	}
	return centers, nil
}
