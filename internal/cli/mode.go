package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/session"
)

// modeCommand shows or changes the editor mode of the current tree.
func (c *CLI) modeCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "mode [locked|unlocked|toggle]",
		Short:     "Show or change the editing mode",
		Long:      "Locked mode rejects every change to the tree. The mode is remembered per tree between commands.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(session.ModeLocked), string(session.ModeUnlocked), "toggle"},
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

			if len(args) == 0 {
				printKeyValue("Mode", string(e.Session().Mode()))
				return nil
			}

			switch arg := strings.ToLower(strings.TrimSpace(args[0])); arg {
			case "toggle":
				e.ToggleMode()
			case string(session.ModeLocked), string(session.ModeUnlocked):
				e.SetMode(session.Mode(arg))
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown mode %q", args[0])
			}
			ws.saveSession(ctx, e)

			m := e.Session().Mode()
			if m == session.ModeLocked {
				printSuccess("Tree %s is %s", c.tree(), StyleWarning.Render(string(m)))
			} else {
				printSuccess("Tree %s is %s", c.tree(), StyleValue.Render(string(m)))
			}
			fmt.Println(statsLine(e.View(), e.Graph().RelationshipCount(), false))
			return nil
		},
	}
}
