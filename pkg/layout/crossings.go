package layout

import "slices"

// neighborFunc returns the IDs adjacent to a node in the row below.
type neighborFunc func(id string) []string

// countCrossings returns the total number of child-edge crossings for the
// given row orderings, summed over each pair of consecutive rows.
func countCrossings(rows [][]string, children neighborFunc) int {
	total := 0
	for r := 0; r+1 < len(rows); r++ {
		total += countLayerCrossings(rows[r], rows[r+1], children)
	}
	return total
}

// countLayerCrossings counts edge crossings between two adjacent rows using a
// Fenwick tree for O(E log V) performance.
//
// Two edges (u1,v1) and (u2,v2) cross if and only if:
//
//	pos(u1) < pos(u2) AND pos(v1) > pos(v2)
//
// which is the number of inversions in the sequence of target positions when
// edges are sorted by source position. Edges that skip a row are ignored.
func countLayerCrossings(upper, lower []string, children neighborFunc) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	lowerPos := posMap(lower)

	type edge struct{ upper, lower int }
	edges := make([]edge, 0, len(upper)*2)
	for i, id := range upper {
		for _, c := range children(id) {
			if pos, ok := lowerPos[c]; ok {
				edges = append(edges, edge{i, pos})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		// edges seen so far with target <= e.lower
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}

func posMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
