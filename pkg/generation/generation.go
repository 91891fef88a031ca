// Package generation assigns generation levels to people in a family tree.
//
// Levels are derived state: they are recomputed on every load and never
// persisted. Level 0 is the oldest generation shown on the canvas; each
// child relationship pushes its child one level down.
//
// # Algorithm
//
// [Resolve] runs a breadth-first traversal from every root at once:
//  1. Roots are people who are not the child in any child relationship
//  2. Each root starts at level 0 and is enqueued
//  3. A dequeued parent offers level+1 to each of its children
//  4. A child is re-enqueued only when the offer strictly raises its level
//
// The maximum offered level wins, so a person reached through parents at
// different depths sits below the deepest one.
//
// # Cycles
//
// Child cycles are bad data, not an impossibility. No simple path can be
// longer than the number of people, so offers above len(people)-1 are
// dropped. This bounds both the number of raises per person and the levels
// themselves, and the traversal always terminates. People that no root
// reaches (isolated, or only inside a cycle) stay at level 0.
//
// # Performance
//
// O(P + R) for trees and typical DAGs; O(P·R) in the pathological case.
package generation

import (
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
)

// Levels maps person IDs to generation levels.
type Levels map[string]int

// Of returns the level for id, or 0 if unknown.
func (l Levels) Of(id string) int { return l[id] }

// Max returns the deepest level, or 0 for an empty map.
func (l Levels) Max() int {
	m := 0
	for _, v := range l {
		m = max(m, v)
	}
	return m
}

// Rows groups person IDs by level, keeping the order of ids.
func (l Levels) Rows(ids []string) map[int][]string {
	rows := make(map[int][]string)
	for _, id := range ids {
		rows[l[id]] = append(rows[l[id]], id)
	}
	return rows
}

// Resolve computes the level of every person. Relationships that reference
// unknown people are ignored.
func Resolve(people []family.Person, relationships []family.Relationship) Levels {
	ids := make([]string, len(people))
	known := make(map[string]bool, len(people))
	for i, p := range people {
		ids[i] = p.ID
		known[p.ID] = true
	}

	children := make(map[string][]string)
	hasParent := make(map[string]bool)
	for _, r := range relationships {
		if r.Kind != family.KindChild || !known[r.PersonA] || !known[r.PersonB] || r.PersonA == r.PersonB {
			continue
		}
		children[r.PersonA] = append(children[r.PersonA], r.PersonB)
		hasParent[r.PersonB] = true
	}

	var roots []string
	for _, id := range ids {
		if !hasParent[id] {
			roots = append(roots, id)
		}
	}
	return walk(ids, roots, func(id string) []string { return children[id] })
}

// ForGraph resolves levels for every person in g. The graph already
// guarantees that relationships only reference its people, so the walk
// starts straight from its roots.
func ForGraph(g *family.Graph) Levels {
	return walk(g.PersonIDs(), g.Roots(), g.Children)
}

// walk runs the traversal from roots over the children function.
func walk(ids, roots []string, children func(string) []string) Levels {
	levels := make(Levels, len(ids))
	for _, id := range ids {
		levels[id] = 0
	}

	queue := slices.Clone(roots)
	reached := make(map[string]bool, len(ids))
	limit := max(len(ids)-1, 0)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		next := levels[curr] + 1
		if next > limit {
			continue
		}
		for _, child := range children(curr) {
			if reached[child] && next <= levels[child] {
				continue
			}
			reached[child] = true
			levels[child] = next
			queue = append(queue, child)
		}
	}
	return levels
}
