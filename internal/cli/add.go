package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/editor"
	"github.com/matzehuels/kintree/pkg/family"
)

// addCommand quick-adds a relative of an existing person.
func (c *CLI) addCommand() *cobra.Command {
	var firstName, surname string

	relations := make([]string, len(editor.Relations))
	for i, r := range editor.Relations {
		relations[i] = string(r)
	}

	cmd := &cobra.Command{
		Use:     "add <relation> <person>",
		Short:   "Add a child, spouse, sibling or parent of a person",
		Long:    "Add a new person related to an existing one. The person is named \"New <relation>\" unless --first-name is given.",
		Example: "  kintree add child Ada\n  kintree add spouse 3f2a --first-name William",
		Args:    exactArgs(2, "<"+strings.Join(relations, "|")+"> <person>"),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return filterPrefix(relations, toComplete), cobra.ShellCompDirectiveNoFileComp
			}
			return c.completePeople(1)(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, err := editor.ParseRelation(args[0])
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
			anchor, err := resolvePerson(e, args[1])
			if err != nil {
				return err
			}

			id, err := e.QuickAdd(ctx, anchor.ID, rel)
			if err != nil {
				return err
			}
			if firstName != "" || surname != "" {
				f := family.Fields{}
				if firstName != "" {
					f.FirstName = &firstName
				}
				if surname != "" {
					f.Surname = &surname
				}
				if err := e.UpdatePerson(ctx, id, f); err != nil {
					return err
				}
			}
			ws.saveSession(ctx, e)

			p, _ := e.Person(id)
			printSuccess("Added %s as %s of %s", StyleValue.Render(p.FullName()), rel, anchor.FullName())
			printDetail("id %s · level %d", id, e.Levels()[id])
			return nil
		},
	}

	cmd.Flags().StringVar(&firstName, "first-name", "", "first name of the new person")
	cmd.Flags().StringVar(&surname, "surname", "", "surname of the new person")
	return cmd
}

// connectCommand links two existing people.
func (c *CLI) connectCommand() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "connect <person-a> <person-b>",
		Short: "Create a relationship between two people",
		Long:  "Create a relationship between two people. For --kind child, person-a is the parent.",
		Args:  exactArgs(2, "<person-a> <person-b>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := family.ParseKind(kind)
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
			a, err := resolvePerson(e, args[0])
			if err != nil {
				return err
			}
			b, err := resolvePerson(e, args[1])
			if err != nil {
				return err
			}
			id, err := e.Connect(ctx, a.ID, b.ID, k)
			if err != nil {
				return err
			}
			printSuccess("Connected %s and %s (%s)", a.FullName(), b.FullName(), k)
			printDetail("relationship %s", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", string(family.KindChild), "relationship kind: child, spouse or sibling")
	return cmd
}

// disconnectCommand deletes a relationship.
func (c *CLI) disconnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <relationship-id>",
		Short: "Delete a relationship",
		Args:  exactArgs(1, "<relationship-id>"),
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
			if r, found := e.Graph().Relationship(args[0]); found {
				ok, err := c.confirmer().Confirm(ctx, fmt.Sprintf("Delete %s relationship %s?", r.Kind, r.ID))
				if err != nil {
					return err
				}
				if !ok {
					printInfo("Cancelled")
					return nil
				}
			}
			if err := e.Disconnect(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted relationship %s", args[0])
			return nil
		},
	}
}
