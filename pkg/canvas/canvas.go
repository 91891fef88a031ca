// Package canvas projects a family graph onto drawable nodes and edges.
//
// A [View] is derived state: the editor rebuilds it after every change from
// the graph, the generation levels, the current positions and the resolved
// edge orientation. Nothing in a View is persisted except person positions.
//
// # Junctions
//
// When [Options.Junctions] is set, a couple that shares at least one child
// gets a helper node "junc-{spouseRelationshipID}" at the midpoint below the
// couple. Shared children hang from the junction instead of from each parent.
// Junction nodes have [NodeKindJunction] and must be filtered out before
// positions are saved; see [IsJunction] and [PersonPositions].
package canvas

import (
	"strings"
	"time"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/generation"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/orientation"
)

// JunctionPrefix starts the ID of every junction node.
const JunctionPrefix = "junc-"

// Status colours for the liveness badge.
const (
	StatusAlive    = "#52c41a"
	StatusDeceased = "#ff4d4d"
)

// NodeKind distinguishes people from helper nodes.
type NodeKind string

const (
	NodeKindPerson   NodeKind = "person"
	NodeKindJunction NodeKind = "junction"
)

// View is everything the view layer needs to draw the tree.
type View struct {
	Nodes      []Node      `json:"nodes"`
	Edges      []Edge      `json:"edges"`
	Locked     bool        `json:"locked"`
	Selected   string      `json:"selected,omitempty"`
	LayoutMode layout.Mode `json:"layout_mode"`
}

// Node is a drawable node. Person nodes carry display data; junction nodes
// only have an ID and a position.
type Node struct {
	ID         string          `json:"id"`
	Kind       NodeKind        `json:"kind"`
	Position   family.Position `json:"position"`
	Generation int             `json:"generation"`
	TierColor  string          `json:"tier_color,omitempty"`
	Selected   bool            `json:"selected,omitempty"`
	Draggable  bool            `json:"draggable"`
	Person     *PersonData     `json:"person,omitempty"`
}

// PersonData holds the display fields of a person node.
type PersonData struct {
	Name            string        `json:"name"`
	Initials        string        `json:"initials"`
	Age             *int          `json:"age,omitempty"`
	BirthYear       *int          `json:"birth_year,omitempty"`
	AnniversaryYear *int          `json:"anniversary_year,omitempty"`
	Alive           bool          `json:"alive"`
	StatusColor     string        `json:"status_color"`
	Gender          family.Gender `json:"gender,omitempty"`
	Tags            []string      `json:"tags,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	PhotoURL        string        `json:"photo_url,omitempty"`
}

// Edge is a drawable connection between two nodes.
type Edge struct {
	ID           string             `json:"id"`
	Source       string             `json:"source"`
	Target       string             `json:"target"`
	Kind         family.Kind        `json:"kind"`
	SourceHandle orientation.Handle `json:"source_handle"`
	TargetHandle orientation.Handle `json:"target_handle"`
	SourceSide   orientation.Side   `json:"source_side,omitempty"`
	TargetSide   orientation.Side   `json:"target_side,omitempty"`
	// Relationships lists the relationship IDs the edge draws. Junction
	// edges draw both child relationships of a shared child.
	Relationships []string `json:"relationships"`
}

// Options controls projection.
type Options struct {
	Junctions bool
	Layout    layout.Options
	// Now is used for ages. Zero means time.Now().
	Now time.Time
}

// Input is the derived state a View is built from.
type Input struct {
	Graph       *family.Graph
	Levels      generation.Levels
	Positions   layout.Positions
	Orientation orientation.Table
	Selected    string
	Locked      bool
	// LayoutMode defaults to layout.ModeManual.
	LayoutMode layout.Mode
}

// IsJunction reports whether id names a junction helper node.
func IsJunction(id string) bool { return strings.HasPrefix(id, JunctionPrefix) }

// JunctionID returns the junction node ID for a spouse relationship.
func JunctionID(spouseRelID string) string { return JunctionPrefix + spouseRelID }

// Project builds the view. People without a position are drawn at the
// origin; the editor always supplies positions for everyone.
func Project(in Input, opts Options) View {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	lopts := opts.Layout.WithDefaults()
	g := in.Graph

	v := View{Locked: in.Locked, Selected: in.Selected, LayoutMode: in.LayoutMode}
	if v.LayoutMode == "" {
		v.LayoutMode = layout.ModeManual
	}
	if g == nil {
		return v
	}

	for _, p := range g.People() {
		lvl := in.Levels.Of(p.ID)
		v.Nodes = append(v.Nodes, Node{
			ID:         p.ID,
			Kind:       NodeKindPerson,
			Position:   in.Positions[p.ID],
			Generation: lvl,
			TierColor:  generation.TierColor(lvl),
			Selected:   p.ID == in.Selected,
			Draggable:  !in.Locked,
			Person:     Display(p, now),
		})
	}

	hung := make(map[string]bool) // child relationship IDs drawn via a junction
	if opts.Junctions {
		for _, r := range g.Relationships() {
			if r.Kind != family.KindSpouse {
				continue
			}
			shared := sharedChildren(g, r.PersonA, r.PersonB)
			if len(shared) == 0 {
				continue
			}
			jid := JunctionID(r.ID)
			v.Nodes = append(v.Nodes, Node{
				ID:       jid,
				Kind:     NodeKindJunction,
				Position: junctionPosition(in.Positions[r.PersonA], in.Positions[r.PersonB], lopts),
			})
			for _, c := range shared {
				ra, _ := g.Find(r.PersonA, c, family.KindChild)
				rb, _ := g.Find(r.PersonB, c, family.KindChild)
				hung[ra.ID], hung[rb.ID] = true, true
				v.Edges = append(v.Edges, Edge{
					ID:            "e-" + jid + "-" + c + "-" + string(family.KindChild),
					Source:        jid,
					Target:        c,
					Kind:          family.KindChild,
					SourceHandle:  orientation.HandleBot,
					TargetHandle:  orientation.HandleTop,
					Relationships: []string{ra.ID, rb.ID},
				})
			}
		}
	}

	for _, r := range g.Relationships() {
		if hung[r.ID] {
			continue
		}
		ep, ok := in.Orientation[r.ID]
		if !ok {
			ep = orientation.Resolve(r, in.Positions[r.PersonA], in.Positions[r.PersonB])
		}
		v.Edges = append(v.Edges, Edge{
			ID:            r.EdgeID(),
			Source:        r.PersonA,
			Target:        r.PersonB,
			Kind:          r.Kind,
			SourceHandle:  ep.SourceHandle,
			TargetHandle:  ep.TargetHandle,
			SourceSide:    ep.SourceSide,
			TargetSide:    ep.TargetSide,
			Relationships: []string{r.ID},
		})
	}
	return v
}

func sharedChildren(g *family.Graph, a, b string) []string {
	var out []string
	for _, c := range g.Children(a) {
		if _, ok := g.Find(b, c, family.KindChild); ok {
			out = append(out, c)
		}
	}
	return out
}

// junctionPosition sits halfway between the couple's centres, half a rank
// below their bottom edge.
func junctionPosition(a, b family.Position, opts layout.Options) family.Position {
	return family.Position{
		X: (a.X+b.X)/2 + opts.NodeWidth/2,
		Y: max(a.Y, b.Y) + opts.NodeHeight + opts.RankSep/2,
	}
}

// Display computes the display fields of a person.
func Display(p family.Person, now time.Time) *PersonData {
	d := &PersonData{
		Name:        p.FullName(),
		Initials:    p.Initials(),
		Alive:       p.Alive,
		StatusColor: StatusDeceased,
		Gender:      p.Gender,
		Tags:        p.Tags,
		Notes:       p.Notes,
	}
	if p.Alive {
		d.StatusColor = StatusAlive
	}
	if age, ok := p.Age(now); ok {
		d.Age = &age
	}
	if p.BirthDate != nil {
		y := p.BirthDate.Year()
		d.BirthYear = &y
	}
	if p.AnniversaryDate != nil {
		y := p.AnniversaryDate.Year()
		d.AnniversaryYear = &y
	}
	if strings.HasPrefix(p.PhotoURL, "https://") {
		d.PhotoURL = p.PhotoURL
	}
	return d
}

// Node returns the node with the given ID.
func (v View) Node(id string) (Node, bool) {
	for _, n := range v.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edge returns the edge with the given ID.
func (v View) Edge(id string) (Edge, bool) {
	for _, e := range v.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// PersonPositions returns the position of every person node. Junction nodes
// are skipped.
func (v View) PersonPositions() layout.Positions {
	out := make(layout.Positions, len(v.Nodes))
	for _, n := range v.Nodes {
		if n.Kind == NodeKindJunction || IsJunction(n.ID) {
			continue
		}
		out[n.ID] = n.Position
	}
	return out
}
