package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/canvas"
	"github.com/matzehuels/kintree/pkg/editor"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// personRow is one line of the people table.
type personRow struct {
	ID          string
	Level       int
	Name        string
	Age         string
	Status      string
	StatusColor string
	Spouse      string
	Parents     string
}

// peopleRows lists everyone ordered by generation, then by canvas x.
func peopleRows(e *editor.Editor) []personRow {
	g := e.Graph()
	v := e.View()
	name := func(id string) string {
		if n, ok := v.Node(id); ok && n.Person != nil {
			return n.Person.Name
		}
		return id
	}

	var rows []personRow
	xs := make(map[string]float64)
	for _, n := range v.Nodes {
		if n.Kind != canvas.NodeKindPerson {
			continue
		}
		xs[n.ID] = n.Position.X
		r := personRow{
			ID:          n.ID,
			Level:       n.Generation,
			Name:        n.Person.Name,
			Age:         "",
			Status:      "alive",
			StatusColor: n.Person.StatusColor,
		}
		if n.Person.Age != nil {
			r.Age = fmt.Sprint(*n.Person.Age)
		}
		if !n.Person.Alive {
			r.Status = "deceased"
		}
		if sp, ok := g.Spouse(n.ID); ok {
			r.Spouse = name(sp)
		}
		var parents []string
		for _, p := range g.Parents(n.ID) {
			parents = append(parents, name(p))
		}
		r.Parents = strings.Join(parents, ", ")
		rows = append(rows, r)
	}
	slices.SortStableFunc(rows, func(a, b personRow) int {
		return cmp.Or(cmp.Compare(a.Level, b.Level), cmp.Compare(xs[a.ID], xs[b.ID]))
	})
	return rows
}

// resolvePerson finds a person by ID, ID prefix or name.
func resolvePerson(e *editor.Editor, ref string) (family.Person, error) {
	g := e.Graph()
	if p, ok := g.Person(ref); ok {
		return p, nil
	}
	var matches []family.Person
	for _, p := range g.People() {
		if strings.HasPrefix(p.ID, ref) ||
			strings.EqualFold(p.FullName(), ref) ||
			strings.EqualFold(p.FirstName, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return family.Person{}, errors.New(errors.ErrCodePersonNotFound, "no person matches %q", ref)
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, p := range matches {
		names[i] = fmt.Sprintf("%s (%s)", p.FullName(), shortID(p.ID))
	}
	return family.Person{}, errors.New(errors.ErrCodeInvalidInput, "%q is ambiguous: %s", ref, strings.Join(names, ", "))
}

// showCommand prints the tree as a generation table.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the people in a tree by generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.close()

			e, err := ws.openEditor(ctx)
			if err != nil {
				return err
			}
			fmt.Println(StyleTitle.Render("Tree " + e.TreeID()))
			fmt.Println(renderPeopleTable(peopleRows(e), e.Session().Selected()))
			fmt.Println(statsLine(e.View(), e.Graph().RelationshipCount(), false))
			return nil
		},
	}
}

// treesCommand lists the trees in the store.
func (c *CLI) treesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "trees",
		Short: "List the trees in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, c.config().Store)
			if err != nil {
				return err
			}
			defer s.Close()

			ids, err := s.Trees(ctx)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				printInfo("No trees yet")
				printNextStep("Start one", appName+" show --tree family")
				return nil
			}
			for _, id := range ids {
				line := id
				if id == c.tree() {
					line += StyleDim.Render(" (current)")
				}
				printInfo("%s", line)
			}
			return nil
		},
	}
}
