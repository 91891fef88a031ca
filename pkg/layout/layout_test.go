package layout

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/kintree/pkg/family"
)

func people(ids ...string) []family.Person {
	out := make([]family.Person, len(ids))
	for i, id := range ids {
		out[i] = family.Person{ID: id, FirstName: strings.ToUpper(id), Alive: true}
	}
	return out
}

func TestManual(t *testing.T) {
	ps := people("a", "b", "c", "d", "e")
	ps[1].Position = &family.Position{X: 7, Y: 9}

	pos := Manual(Input{People: ps}, DefaultOptions())

	tests := []struct {
		id   string
		want family.Position
	}{
		{"a", family.Position{X: 0, Y: 0}},
		{"b", family.Position{X: 7, Y: 9}},
		{"c", family.Position{X: 500, Y: 0}},
		{"d", family.Position{X: 750, Y: 150}},
		{"e", family.Position{X: 1000, Y: 150}},
	}
	for _, tt := range tests {
		if got := pos[tt.id]; got != tt.want {
			t.Errorf("Manual()[%s] = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestGridPosition(t *testing.T) {
	tests := []struct {
		index int
		want  family.Position
	}{
		{0, family.Position{X: 0, Y: 0}},
		{2, family.Position{X: 500, Y: 0}},
		{3, family.Position{X: 750, Y: 150}},
		{6, family.Position{X: 1500, Y: 300}},
	}
	for _, tt := range tests {
		if got := GridPosition(tt.index, Options{}); got != tt.want {
			t.Errorf("GridPosition(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	opts := DefaultOptions()
	a := family.Position{X: 0, Y: 0}
	if !Overlaps(a, family.Position{X: 169, Y: 99}, opts) {
		t.Error("nodes sharing an area should overlap")
	}
	if Overlaps(a, family.Position{X: 170, Y: 0}, opts) {
		t.Error("touching nodes should not overlap")
	}
}

func assertNoOverlap(t *testing.T, pos Positions) {
	t.Helper()
	ids := make([]string, 0, len(pos))
	for id := range pos {
		ids = append(ids, id)
	}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if Overlaps(pos[ids[i]], pos[ids[j]], DefaultOptions()) {
				t.Errorf("%s %v overlaps %s %v", ids[i], pos[ids[i]], ids[j], pos[ids[j]])
			}
		}
	}
}

func TestLayeredDisconnected(t *testing.T) {
	in := Input{People: people("a", "b", "c", "d", "e")}
	pos, err := NewLayered(DefaultOptions()).Layout(context.Background(), in)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(pos) != 5 {
		t.Fatalf("Layout() returned %d positions, want 5", len(pos))
	}
	assertNoOverlap(t, pos)
}

func TestLayeredFamily(t *testing.T) {
	in := Input{
		People: people("a", "b", "c", "d"),
		Relationships: []family.Relationship{
			family.NewSpouse("a", "b"),
			family.NewChild("a", "c"),
			family.NewChild("b", "c"),
			family.NewChild("c", "d"),
		},
	}
	pos, err := NewLayered(DefaultOptions()).Layout(context.Background(), in)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	assertNoOverlap(t, pos)

	if pos["a"].Y != pos["b"].Y {
		t.Errorf("spouses on different rows: a=%v b=%v", pos["a"], pos["b"])
	}
	if !(pos["c"].Y > pos["a"].Y && pos["d"].Y > pos["c"].Y) {
		t.Errorf("generations not stacked top to bottom: a=%v c=%v d=%v", pos["a"], pos["c"], pos["d"])
	}
	wantY := DefaultNodeHeight + DefaultRankSep
	if got := pos["c"].Y - pos["a"].Y; got != wantY {
		t.Errorf("rank distance = %v, want %v", got, wantY)
	}

	minX, minY := pos["a"].X, pos["a"].Y
	for _, p := range pos {
		minX, minY = min(minX, p.X), min(minY, p.Y)
	}
	if minX != 0 || minY != 0 {
		t.Errorf("layout origin = (%v, %v), want (0, 0)", minX, minY)
	}
}

func TestLayeredKeepsSiblingsTogether(t *testing.T) {
	in := Input{
		People: people("a", "b", "c", "d", "e"),
		Relationships: []family.Relationship{
			family.NewSibling("a", "e"),
			family.NewSpouse("e", "d"),
		},
	}
	pos, err := NewLayered(DefaultOptions()).Layout(context.Background(), in)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	assertNoOverlap(t, pos)

	step := DefaultNodeWidth + DefaultNodeSep
	if got := pos["e"].X - pos["a"].X; got != step {
		t.Errorf("sibling distance = %v, want %v", got, step)
	}
	if got := pos["d"].X - pos["e"].X; got != step {
		t.Errorf("spouse distance = %v, want %v", got, step)
	}
}

func TestLayeredCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Two parents with crossed children force at least one sweep.
	in := Input{
		People: people("p1", "p2", "c1", "c2"),
		Relationships: []family.Relationship{
			family.NewChild("p1", "c2"),
			family.NewChild("p2", "c1"),
		},
	}
	if _, err := NewLayered(DefaultOptions()).Layout(ctx, in); err == nil {
		t.Error("Layout() with cancelled context should fail")
	}
}

func TestLayeredEmpty(t *testing.T) {
	pos, err := NewLayered(Options{}).Layout(context.Background(), Input{})
	if err != nil || len(pos) != 0 {
		t.Errorf("Layout(empty) = %v, %v, want empty, nil", pos, err)
	}
}

func TestCountLayerCrossings(t *testing.T) {
	edges := map[string][]string{
		"a": {"d"},
		"b": {"c"},
	}
	children := func(id string) []string { return edges[id] }

	tests := []struct {
		name         string
		upper, lower []string
		want         int
	}{
		{"crossed", []string{"a", "b"}, []string{"c", "d"}, 1},
		{"uncrossed", []string{"a", "b"}, []string{"d", "c"}, 0},
		{"empty", nil, []string{"c"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countLayerCrossings(tt.upper, tt.lower, children); got != tt.want {
				t.Errorf("countLayerCrossings() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToDOT(t *testing.T) {
	in := Input{
		People: people("a", "b", "c"),
		Relationships: []family.Relationship{
			family.NewSpouse("a", "b"),
			family.NewChild("a", "c"),
		},
	}
	dot := ToDOT(in, DefaultOptions())

	for _, want := range []string{
		`digraph G {`,
		`fixedsize=true, width=2.3611, height=1.3889`,
		`"a" [label="A"];`,
		`{ rank=same; "a"; "b"; }`,
		`{ rank=same; "c"; }`,
		`"a" -> "c";`,
		`"a" -> "b" [constraint=false, dir=none, style=dashed];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, dot)
		}
	}
}

func TestParseCenters(t *testing.T) {
	out := []byte(`digraph G {
	graph [bb="0,0,390,250",
		rankdir=TB
	];
	node [label="\N"];
	a [height=1.3889, label="Bob [Jr]", _ldraw_="F 14 11 -Times-Roman c 7 -#000000 T 85 196 0 54 8 -Bob [Jr] ", pos="85,200", width=2.3611];
	"b c" [pos="305,50"];
	a -> "b c" [pos="e,85,100 85,150"];
}
`)
	centers, err := parseCenters(out)
	if err != nil {
		t.Fatalf("parseCenters() error = %v", err)
	}
	want := Positions{
		"a":   {X: 85, Y: 50},
		"b c": {X: 305, Y: 200},
	}
	if len(centers) != len(want) {
		t.Fatalf("parseCenters() = %v, want %v", centers, want)
	}
	for id, w := range want {
		if centers[id] != w {
			t.Errorf("parseCenters()[%q] = %v, want %v", id, centers[id], w)
		}
	}

	if _, err := parseCenters([]byte("digraph G {}")); err == nil {
		t.Error("parseCenters() without bounding box should fail")
	}
}

func TestGraphvizBracketedNames(t *testing.T) {
	ps := people("a", "b")
	ps[0].FirstName, ps[0].Surname = "Bob", "[Jr]"
	ps[1].FirstName = "Ann]"
	in := Input{
		People:        ps,
		Relationships: []family.Relationship{family.NewChild("a", "b")},
	}

	pos, err := NewGraphviz(DefaultOptions()).Layout(context.Background(), in)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(pos) != 2 {
		t.Fatalf("Layout() = %v, want 2 positions", pos)
	}
	if pos["b"].Y <= pos["a"].Y {
		t.Errorf("child at y=%v should be below parent at y=%v", pos["b"].Y, pos["a"].Y)
	}
}

func TestCenterToTopLeft(t *testing.T) {
	centers := Positions{
		"a": {X: 185, Y: 150},
		"b": {X: 405, Y: 300},
	}
	got := centerToTopLeft(centers, DefaultOptions())
	if got["a"] != (family.Position{X: 0, Y: 0}) {
		t.Errorf("a = %v, want origin", got["a"])
	}
	if got["b"] != (family.Position{X: 220, Y: 150}) {
		t.Errorf("b = %v, want {220 150}", got["b"])
	}
}
