// Package orientation decides which connector each end of an edge attaches to.
//
// Child edges always leave the parent from its bottom connector and enter the
// child at its top connector. Lateral edges (spouse and sibling) attach at the
// sides facing each other, which depends on where the two nodes currently sit:
//
//	if target.x < source.x: source uses its left connector, target its right
//	otherwise:             source uses its right connector, target its left
//
// Orientation is a pure function of relationship kind and positions. Resolve
// it once on load and again with [ResolveFor] whenever a node is dragged.
package orientation

import (
	"github.com/matzehuels/kintree/pkg/family"
)

// Handle names a connector on a canvas node.
type Handle string

const (
	HandleTop   Handle = "parent-connect"
	HandleBot   Handle = "child-connect"
	HandleLeft  Handle = "spouse-left"
	HandleRight Handle = "spouse-right"
)

// Side is the position of an endpoint within a lateral pair.
type Side string

const (
	SideNone  Side = ""
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Endpoints is the resolved attachment of one edge.
type Endpoints struct {
	SourceHandle Handle
	TargetHandle Handle
	// SourceSide and TargetSide tell which endpoint is drawn on the left.
	// They are only set for lateral edges.
	SourceSide Side
	TargetSide Side
}

// Lateral reports whether edges of kind k attach at the sides.
func Lateral(k family.Kind) bool {
	return k == family.KindSpouse || k == family.KindSibling
}

// Resolve orients one relationship given the current endpoint positions.
// Source is PersonA and target is PersonB.
func Resolve(r family.Relationship, source, target family.Position) Endpoints {
	if !Lateral(r.Kind) {
		return Endpoints{SourceHandle: HandleBot, TargetHandle: HandleTop}
	}
	if target.X < source.X {
		return Endpoints{
			SourceHandle: HandleLeft,
			TargetHandle: HandleRight,
			SourceSide:   SideRight,
			TargetSide:   SideLeft,
		}
	}
	// Ties put the source on the left.
	return Endpoints{
		SourceHandle: HandleRight,
		TargetHandle: HandleLeft,
		SourceSide:   SideLeft,
		TargetSide:   SideRight,
	}
}

// SideOf returns the side of the given endpoint, or SideNone if id is not an
// endpoint or the edge is not lateral.
func (e Endpoints) SideOf(r family.Relationship, id string) Side {
	switch id {
	case r.PersonA:
		return e.SourceSide
	case r.PersonB:
		return e.TargetSide
	}
	return SideNone
}

// Positions looks up node positions by person ID.
type Positions map[string]family.Position

// Table holds the resolved endpoints of every edge, keyed by relationship ID.
type Table map[string]Endpoints

// ResolveAll orients every relationship. Endpoints without a position are
// treated as sitting at the origin.
func ResolveAll(rels []family.Relationship, pos Positions) Table {
	t := make(Table, len(rels))
	for _, r := range rels {
		t[r.ID] = Resolve(r, pos[r.PersonA], pos[r.PersonB])
	}
	return t
}

// ResolveFor re-orients only the lateral edges touching the moved node and
// returns the IDs of edges whose endpoints changed. Child edges are fixed and
// never re-resolved.
func (t Table) ResolveFor(moved string, rels []family.Relationship, pos Positions) []string {
	var changed []string
	for _, r := range rels {
		if !Lateral(r.Kind) || !r.Involves(moved) {
			continue
		}
		next := Resolve(r, pos[r.PersonA], pos[r.PersonB])
		if t[r.ID] != next {
			t[r.ID] = next
			changed = append(changed, r.ID)
		}
	}
	return changed
}
