package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/treeio"
)

// exportCommand writes the saved tree to a file or stdout.
func (c *CLI) exportCommand() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a tree as JSON, YAML, DOT or SVG",
		Long:  "Export the saved state of a tree. The format follows the file extension of --output, or --format when writing to stdout.",
		Example: "  kintree export -o family.json\n" +
			"  kintree export --format svg > family.svg",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, c.config().Store)
			if err != nil {
				return err
			}
			defer s.Close()

			t, err := treeio.Export(ctx, s, c.tree())
			if err != nil {
				return err
			}
			opts := c.config().Layout.Options

			if output == "" {
				f, err := treeio.ParseFormat(format)
				if err != nil {
					return err
				}
				return treeio.Write(ctx, os.Stdout, t, f, opts)
			}

			prog := newProgress(c.Logger)
			if err := treeio.WriteFile(ctx, output, t, opts); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Exported %d people", len(t.People)))
			printSuccess("Exported tree %s", StyleValue.Render(c.tree()))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", string(treeio.FormatJSON), "format for stdout: json, yaml, dot or svg")
	return cmd
}

// importCommand loads a JSON or YAML tree file into a tree.
func (c *CLI) importCommand() *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a tree from a JSON or YAML file",
		Long:  "Import people and relationships into the current tree. IDs in the file are replaced by new ones. Importing into a non-empty tree requires --merge.",
		Args:  exactArgs(1, "<file>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := treeio.ReadFile(args[0])
			if err != nil {
				return err
			}

			s, err := openStore(ctx, c.config().Store)
			if err != nil {
				return err
			}
			defer s.Close()

			treeID := c.tree()
			existing, err := s.FetchPeople(ctx, treeID)
			if err != nil {
				return fmt.Errorf("fetch people: %w", err)
			}
			if len(existing) > 0 && !merge {
				return fmt.Errorf("tree %q already has %d people; use --merge to add to it or --tree to pick another", treeID, len(existing))
			}

			prog := newProgress(c.Logger)
			var ids map[string]string
			if err := withSpinner(ctx, fmt.Sprintf("Importing %d people", len(t.People)), func() error {
				ids, err = treeio.Import(ctx, s, treeID, t, c.Logger)
				return err
			}); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Imported %d people and %d relationships", len(ids), len(t.Relationships)))
			printNextStep("Show the tree", fmt.Sprintf("%s show --tree %s", appName, treeID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "add to a tree that already has people")
	return cmd
}
