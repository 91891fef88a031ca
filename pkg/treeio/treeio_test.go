package treeio

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/store/memory"
)

const sampleJSON = `{
  "people": [
    {"id": "ada", "first_name": "Ada", "surname": "Byron", "alive": false, "tags": ["math"]},
    {"id": "wil", "first_name": "William", "alive": false},
    {"id": "bo", "first_name": "Bo", "alive": true, "position": {"x": 10, "y": 20}}
  ],
  "relationships": [
    {"person_a": "ada", "person_b": "wil", "kind": "spouse"},
    {"person_a": "ada", "person_b": "bo", "kind": "child"},
    {"person_a": "wil", "person_b": "bo", "kind": "child"}
  ]
}`

const sampleYAML = `
version: 1
people:
  - id: ada
    first_name: Ada
  - id: bo
    first_name: Bo
relationships:
  - person_a: ada
    person_b: bo
    kind: child
`

func TestReadJSON(t *testing.T) {
	tree, err := Read(strings.NewReader(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(tree.People) != 3 || len(tree.Relationships) != 3 {
		t.Fatalf("Read() = %d people, %d relationships, want 3, 3", len(tree.People), len(tree.Relationships))
	}
	if tree.Version != Version {
		t.Errorf("Version = %d, want %d", tree.Version, Version)
	}
	if tree.Relationships[1].ID != "r2" {
		t.Errorf("generated ID = %q, want r2", tree.Relationships[1].ID)
	}
	if p := tree.People[2].Position; p == nil || p.X != 10 {
		t.Errorf("position not read: %v", p)
	}
}

func TestReadYAML(t *testing.T) {
	tree, err := Read(strings.NewReader(sampleYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(tree.People) != 2 || tree.Relationships[0].Kind != family.KindChild {
		t.Errorf("Read() = %+v", tree)
	}
}

func TestReadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"people": [`},
		{"future version", `{"version": 99}`},
		{"unknown endpoint", `{"people": [{"id": "a", "first_name": "A"}], "relationships": [{"person_a": "a", "person_b": "x", "kind": "child"}]}`},
		{"missing name", `{"people": [{"id": "a"}]}`},
		{"duplicate id", `{"people": [{"id": "a", "first_name": "A"}, {"id": "a", "first_name": "B"}]}`},
		{"second spouse", `{"people": [{"id": "a", "first_name": "A"}, {"id": "b", "first_name": "B"}, {"id": "c", "first_name": "C"}],
			"relationships": [{"person_a": "a", "person_b": "b", "kind": "spouse"}, {"person_a": "c", "person_b": "a", "kind": "spouse"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.data), FormatJSON); err == nil {
				t.Error("Read() should fail")
			}
		})
	}
	if _, err := Read(strings.NewReader(""), FormatSVG); err == nil {
		t.Error("Read(svg) should fail")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{".yml", FormatYAML},
		{"YAML", FormatYAML},
		{"gv", FormatDOT},
		{".svg", FormatSVG},
	}
	for _, tt := range tests {
		if got, err := ParseFormat(tt.in); err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("png"); err == nil {
		t.Error("ParseFormat(png) should fail")
	}
	if f, _ := FormatFromPath(filepath.Join("out", "tree.json")); f != FormatJSON {
		t.Errorf("FormatFromPath() = %v, want json", f)
	}
}

func TestWriteDOT(t *testing.T) {
	tree, _ := Read(strings.NewReader(sampleJSON), FormatJSON)
	var buf bytes.Buffer
	if err := Write(context.Background(), &buf, tree, FormatDOT, layout.Options{}); err != nil {
		t.Fatalf("Write(dot) error: %v", err)
	}
	for _, want := range []string{"digraph G", `"ada" -> "bo";`, `label="Ada Byron"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("DOT output missing %q", want)
		}
	}
}

func TestImportExport(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	tree, err := Read(strings.NewReader(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	ids, err := Import(ctx, s, "imported", tree, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if len(ids) != 3 || ids["ada"] == "ada" {
		t.Errorf("Import() ids = %v, want three store-assigned IDs", ids)
	}

	out, err := Export(ctx, s, "imported")
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	g, err := family.Load(out.People, out.Relationships)
	if err != nil {
		t.Fatalf("exported tree is invalid: %v", err)
	}
	if sp, _ := g.Spouse(ids["ada"]); sp != ids["wil"] {
		t.Errorf("Spouse(ada) = %q, want %q", sp, ids["wil"])
	}
	if got := g.Parents(ids["bo"]); len(got) != 2 {
		t.Errorf("Parents(bo) = %v, want 2", got)
	}
	ada, _ := g.Person(ids["ada"])
	if ada.Alive || len(ada.Tags) != 1 {
		t.Errorf("ada = %+v, want deceased with one tag", ada)
	}

	var buf bytes.Buffer
	if err := Write(ctx, &buf, out, FormatYAML, layout.Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(&buf, FormatYAML); err != nil {
		t.Errorf("re-reading exported YAML: %v", err)
	}
}
