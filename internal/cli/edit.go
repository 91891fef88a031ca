package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// editCommand opens the interactive tree editor.
func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit a tree interactively",
		Long:  "Open a full-screen editor over the current tree. Mode and selection are saved when you quit; positions only when you press w.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.close()

			// The model asks before deletes and single-parent children.
			e, err := ws.openEditorWith(ctx, alwaysYes)
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewTreeModel(ctx, e), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return err
			}
			ws.saveSession(ctx, e)
			if e.Unsaved() {
				printWarning("Unsaved positions were discarded")
				printNextStep("Recompute and save them", appName+" relayout --save")
			}
			return nil
		},
	}
}
