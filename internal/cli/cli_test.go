package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/config"
	"github.com/matzehuels/kintree/pkg/editor"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// testCLI returns a CLI backed by in-memory stores.
func testCLI(t *testing.T) *CLI {
	t.Helper()
	c := New(io.Discard, LogInfo)
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	cfg.Session.Backend = config.BackendMemory
	cfg.Cache.Backend = config.BackendNull
	c.cfg = &cfg
	c.treeID = "test"
	c.yes = true
	return c
}

func testEditor(t *testing.T) *editor.Editor {
	t.Helper()
	ctx := context.Background()
	ws, err := testCLI(t).openWorkspace(ctx)
	if err != nil {
		t.Fatalf("openWorkspace() error: %v", err)
	}
	t.Cleanup(ws.close)
	e, err := ws.openEditorWith(ctx, alwaysYes)
	if err != nil {
		t.Fatalf("openEditor() error: %v", err)
	}
	return e
}

func TestResolvePerson(t *testing.T) {
	ctx := context.Background()
	e := testEditor(t)
	root := e.Graph().PersonIDs()[0]
	spouse, err := e.QuickAdd(ctx, root, editor.RelationSpouse)
	if err != nil {
		t.Fatalf("QuickAdd() error: %v", err)
	}
	child, err := e.QuickAdd(ctx, root, editor.RelationChild)
	if err != nil {
		t.Fatalf("QuickAdd() error: %v", err)
	}

	tests := []struct {
		ref  string
		want string
		code errors.Code
	}{
		{ref: root, want: root},
		{ref: "Root Person", want: root},
		{ref: "root", want: root},
		{ref: "new spouse", want: spouse},
		{ref: child[:6], want: child},
		{ref: "nobody", code: errors.ErrCodePersonNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			p, err := resolvePerson(e, tt.ref)
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Errorf("resolvePerson(%q) error = %v, want %s", tt.ref, err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolvePerson(%q) error: %v", tt.ref, err)
			}
			if p.ID != tt.want {
				t.Errorf("resolvePerson(%q) = %s, want %s", tt.ref, p.ID, tt.want)
			}
		})
	}
}

func TestPeopleRowsOrderedByGeneration(t *testing.T) {
	ctx := context.Background()
	e := testEditor(t)
	root := e.Graph().PersonIDs()[0]
	if _, err := e.QuickAdd(ctx, root, editor.RelationChild); err != nil {
		t.Fatal(err)
	}
	if _, err := e.QuickAdd(ctx, root, editor.RelationParent); err != nil {
		t.Fatal(err)
	}

	rows := peopleRows(e)
	if len(rows) != 3 {
		t.Fatalf("peopleRows() = %d rows, want 3", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Level < rows[i-1].Level {
			t.Errorf("row %d level %d before level %d", i, rows[i].Level, rows[i-1].Level)
		}
	}
	if rows[0].Name != "New parent" {
		t.Errorf("first row = %q, want New parent", rows[0].Name)
	}
	if rows[1].Parents != "New parent" {
		t.Errorf("root parents = %q, want New parent", rows[1].Parents)
	}
}

func TestPersonFlags(t *testing.T) {
	var pf personFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	pf.register(fs)
	if err := fs.Parse([]string{"--first-name", "Ada", "--birth", "1815-12-10", "--anniversary", "", "--tags", "math, poetry", "--alive=false"}); err != nil {
		t.Fatal(err)
	}

	f, err := pf.fields(fs)
	if err != nil {
		t.Fatalf("fields() error: %v", err)
	}
	if f.FirstName == nil || *f.FirstName != "Ada" {
		t.Errorf("FirstName = %v, want Ada", f.FirstName)
	}
	if f.Surname != nil {
		t.Errorf("Surname = %v, want unset", *f.Surname)
	}
	if f.BirthDate == nil || f.BirthDate.Year() != 1815 {
		t.Errorf("BirthDate = %v, want 1815-12-10", f.BirthDate)
	}
	if !f.ClearAnniversaryDate {
		t.Error("empty --anniversary should clear the date")
	}
	if f.Alive == nil || *f.Alive {
		t.Errorf("Alive = %v, want false", f.Alive)
	}
	if len(f.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 tags", f.Tags)
	}

	fs = pflag.NewFlagSet("test", pflag.ContinueOnError)
	pf = personFlags{}
	pf.register(fs)
	_ = fs.Parse([]string{"--birth", "10/12/1815"})
	if _, err := pf.fields(fs); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("fields() with bad date error = %v, want INVALID_INPUT", err)
	}
}

func TestPersonMarkdown(t *testing.T) {
	ctx := context.Background()
	e := testEditor(t)
	root := e.Graph().PersonIDs()[0]
	if _, err := e.QuickAdd(ctx, root, editor.RelationSpouse); err != nil {
		t.Fatal(err)
	}
	notes := "Loves **maps**."
	if err := e.UpdatePerson(ctx, root, family.Fields{Notes: &notes}); err != nil {
		t.Fatal(err)
	}

	p, _ := e.Person(root)
	md := personMarkdown(e, p)
	for _, want := range []string{"# Root Person", "## Spouse", "- New spouse", "## Notes", notes} {
		if !strings.Contains(md, want) {
			t.Errorf("personMarkdown() missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Children") {
		t.Error("personMarkdown() should omit empty sections")
	}
}

// press sends a key and runs the command it returns, feeding any finished
// operation back into the model.
func press(t *testing.T, m TreeModel, key string) TreeModel {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return drain(t, next.(TreeModel), cmd)
}

func drain(t *testing.T, m TreeModel, cmd tea.Cmd) TreeModel {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
	case opDoneMsg:
		next, _ := m.Update(msg)
		m = next.(TreeModel)
	}
	return m
}

func TestTreeModelQuickAdd(t *testing.T) {
	e := testEditor(t)
	m := NewTreeModel(context.Background(), e)

	m = press(t, m, "s")
	if m.statusErr {
		t.Fatalf("add spouse failed: %s", m.status)
	}
	if e.Graph().Len() != 2 {
		t.Fatalf("Len() = %d after adding spouse, want 2", e.Graph().Len())
	}
	if p, _ := e.Person(m.current()); p.FirstName != "New spouse" {
		t.Errorf("cursor on %q, want the new spouse", p.FirstName)
	}

	// With a spouse there is nothing to confirm.
	m = press(t, m, "c")
	if m.confirm != nil {
		t.Fatal("child of a couple should not ask for confirmation")
	}
	if e.Graph().Len() != 3 {
		t.Errorf("Len() = %d after adding child, want 3", e.Graph().Len())
	}
}

func TestTreeModelConfirm(t *testing.T) {
	e := testEditor(t)
	m := NewTreeModel(context.Background(), e)

	m = press(t, m, "c")
	if m.confirm == nil {
		t.Fatal("single-parent child should ask for confirmation")
	}
	m = press(t, m, "n")
	if m.status != "Cancelled" || e.Graph().Len() != 1 {
		t.Errorf("declined add: status %q, Len() = %d", m.status, e.Graph().Len())
	}

	m = press(t, m, "c")
	m = press(t, m, "y")
	if e.Graph().Len() != 2 {
		t.Fatalf("Len() = %d after confirmed add, want 2", e.Graph().Len())
	}

	m = press(t, m, "d")
	if m.confirm == nil || !strings.HasPrefix(m.confirm.question, "Delete ") {
		t.Fatal("delete should ask for confirmation")
	}
	m = press(t, m, "y")
	if e.Graph().Len() != 1 {
		t.Errorf("Len() = %d after delete, want 1", e.Graph().Len())
	}
}

func TestTreeModelLocked(t *testing.T) {
	e := testEditor(t)
	m := NewTreeModel(context.Background(), e)

	m = press(t, m, "l")
	if !e.Session().Locked() {
		t.Fatal("l should lock the tree")
	}
	m = press(t, m, "s")
	if !m.statusErr {
		t.Error("adding in locked mode should report an error")
	}
	m = press(t, m, "e")
	if m.renaming != "" {
		t.Error("rename should not start in locked mode")
	}
	if e.Graph().Len() != 1 {
		t.Errorf("Len() = %d, want 1", e.Graph().Len())
	}
}

func TestTreeModelRename(t *testing.T) {
	e := testEditor(t)
	m := NewTreeModel(context.Background(), e)
	root := m.current()

	// Focus returns a cursor blink command; skip it.
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	m = next.(TreeModel)
	if m.renaming != root {
		t.Fatalf("renaming = %q, want %q", m.renaming, root)
	}
	m.input.SetValue("Ada Lovelace")
	m = press(t, m, "enter")

	p, _ := e.Person(root)
	if p.FirstName != "Ada" || p.Surname != "Lovelace" {
		t.Errorf("name = %q %q, want Ada Lovelace", p.FirstName, p.Surname)
	}
}

func TestOpenCache(t *testing.T) {
	c := testCLI(t)
	ctx := context.Background()

	if _, ok := c.openCache(ctx, true).(*cache.NullCache); !ok {
		t.Error("openCache(noCache) should return a NullCache")
	}

	c.cfg.Cache.Backend = config.BackendFile
	c.cfg.Cache.Dir = t.TempDir()
	fc, ok := c.openCache(ctx, false).(*cache.FileCache)
	if !ok {
		t.Fatal("file backend should return a FileCache")
	}
	if fc.Dir() != c.cfg.Cache.Dir {
		t.Errorf("Dir() = %q, want %q", fc.Dir(), c.cfg.Cache.Dir)
	}
}
