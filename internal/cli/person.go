package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/kintree/pkg/canvas"
	"github.com/matzehuels/kintree/pkg/editor"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/generation"
)

// personCommand shows one person and hosts the person subcommands.
func (c *CLI) personCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person <person>",
		Short: "Show, create, edit or delete a person",
		Args:  exactArgs(1, "<person>"),

		ValidArgsFunction: c.completePeople(0),
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
			p, err := resolvePerson(e, args[0])
			if err != nil {
				return err
			}

			out, err := renderMarkdown(personMarkdown(e, p))
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.AddCommand(c.personNewCommand())
	cmd.AddCommand(c.personEditCommand())
	cmd.AddCommand(c.personDeleteCommand())
	return cmd
}

// personFlags binds the editable person properties to flags.
type personFlags struct {
	firstName, surname, birth, anniversary string
	gender, notes, tags, photo             string
	alive                                  bool
}

func (f *personFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.firstName, "first-name", "", "first name")
	fs.StringVar(&f.surname, "surname", "", "surname")
	fs.StringVar(&f.birth, "birth", "", "birth date (YYYY-MM-DD, empty to clear)")
	fs.StringVar(&f.anniversary, "anniversary", "", "anniversary date (YYYY-MM-DD, empty to clear)")
	fs.BoolVar(&f.alive, "alive", true, "whether the person is alive")
	fs.StringVar(&f.gender, "gender", "", "gender: male, female, other or unspecified")
	fs.StringVar(&f.notes, "notes", "", "free-form notes (markdown)")
	fs.StringVar(&f.tags, "tags", "", "comma-separated tags")
	fs.StringVar(&f.photo, "photo", "", "profile photo URL")
}

// fields converts the flags that were set into family.Fields.
func (f *personFlags) fields(fs *pflag.FlagSet) (family.Fields, error) {
	var out family.Fields
	if fs.Changed("first-name") {
		out.FirstName = &f.firstName
	}
	if fs.Changed("surname") {
		out.Surname = &f.surname
	}
	if fs.Changed("alive") {
		out.Alive = &f.alive
	}
	if fs.Changed("gender") {
		out.Gender = family.Ptr(family.ParseGender(f.gender))
	}
	if fs.Changed("notes") {
		out.Notes = &f.notes
	}
	if fs.Changed("tags") {
		out.Tags = family.ParseTags(f.tags)
		if out.Tags == nil {
			out.Tags = []string{}
		}
	}
	if fs.Changed("photo") {
		out.PhotoURL = &f.photo
	}
	var err error
	if fs.Changed("birth") {
		if out.BirthDate, out.ClearBirthDate, err = parseDateFlag("birth", f.birth); err != nil {
			return out, err
		}
	}
	if fs.Changed("anniversary") {
		if out.AnniversaryDate, out.ClearAnniversaryDate, err = parseDateFlag("anniversary", f.anniversary); err != nil {
			return out, err
		}
	}
	return out, nil
}

func parseDateFlag(name, v string) (*time.Time, bool, error) {
	if v == "" {
		return nil, true, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "--%s must be YYYY-MM-DD, got %q", name, v)
	}
	return &t, false, nil
}

func (c *CLI) personNewCommand() *cobra.Command {
	var pf personFlags
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an unconnected person",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pf.fields(cmd.Flags())
			if err != nil {
				return err
			}
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
			id, err := e.AddPerson(ctx, f)
			if err != nil {
				return err
			}
			p, _ := e.Person(id)
			printSuccess("Created %s", StyleValue.Render(p.FullName()))
			printDetail("id %s", id)
			printNextStep("Connect them", fmt.Sprintf("%s connect <parent> %s --kind child", appName, shortID(id)))
			return nil
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

func (c *CLI) personEditCommand() *cobra.Command {
	var pf personFlags
	cmd := &cobra.Command{
		Use:   "edit <person>",
		Short: "Change the properties of a person",
		Args:  exactArgs(1, "<person>"),

		ValidArgsFunction: c.completePeople(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pf.fields(cmd.Flags())
			if err != nil {
				return err
			}
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
			p, err := resolvePerson(e, args[0])
			if err != nil {
				return err
			}
			if err := e.UpdatePerson(ctx, p.ID, f); err != nil {
				return err
			}
			p, _ = e.Person(p.ID)
			printSuccess("Updated %s", StyleValue.Render(p.FullName()))
			return nil
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

func (c *CLI) personDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <person>",
		Short: "Delete a person and all of their relationships",
		Args:  exactArgs(1, "<person>"),

		ValidArgsFunction: c.completePeople(0),
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
			p, err := resolvePerson(e, args[0])
			if err != nil {
				return err
			}
			rels := len(e.Graph().RelationshipsOf(p.ID))
			if err := e.DeletePerson(ctx, p.ID); err != nil {
				if errors.Is(err, errors.ErrCodeCancelled) {
					printInfo("Cancelled")
					return nil
				}
				return err
			}
			ws.saveSession(ctx, e)
			printSuccess("Deleted %s", p.FullName())
			if rels > 0 {
				printDetail("removed %d relationships", rels)
			}
			return nil
		},
	}
}

// =============================================================================
// Person Card
// =============================================================================

// personMarkdown renders a person as a markdown card.
func personMarkdown(e *editor.Editor, p family.Person) string {
	g := e.Graph()
	level := e.Levels()[p.ID]
	d := canvas.Display(p, time.Now())

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	fmt.Fprintf(&b, "*Generation %d (%s)*\n\n", level, generation.TierOf(level).Name)

	status := "alive"
	if !d.Alive {
		status = "deceased"
	}
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Status | %s |\n", status)
	if d.Age != nil {
		fmt.Fprintf(&b, "| Age | %d |\n", *d.Age)
	}
	if d.BirthYear != nil {
		fmt.Fprintf(&b, "| Born | %d |\n", *d.BirthYear)
	}
	if d.AnniversaryYear != nil {
		fmt.Fprintf(&b, "| Anniversary | %d |\n", *d.AnniversaryYear)
	}
	if d.Gender != "" && d.Gender != family.GenderUnspecified {
		fmt.Fprintf(&b, "| Gender | %s |\n", d.Gender)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "| Tags | %s |\n", strings.Join(d.Tags, ", "))
	}
	fmt.Fprintf(&b, "| ID | `%s` |\n\n", p.ID)

	name := func(id string) string {
		if q, ok := g.Person(id); ok {
			return q.FullName()
		}
		return id
	}
	section := func(title string, ids []string) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&b, "## %s\n\n", title)
		for _, id := range ids {
			fmt.Fprintf(&b, "- %s\n", name(id))
		}
		b.WriteString("\n")
	}
	if sp, ok := g.Spouse(p.ID); ok {
		section("Spouse", []string{sp})
	}
	section("Parents", g.Parents(p.ID))
	section("Siblings", g.Siblings(p.ID))
	section("Children", g.Children(p.ID))

	if d.PhotoURL != "" {
		fmt.Fprintf(&b, "[Photo](%s)\n\n", d.PhotoURL)
	}
	if strings.TrimSpace(d.Notes) != "" {
		fmt.Fprintf(&b, "## Notes\n\n%s\n", d.Notes)
	}
	return b.String()
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
