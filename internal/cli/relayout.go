package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/cache"
)

// relayoutCommand recomputes every position with the layout engine.
func (c *CLI) relayoutCommand() *cobra.Command {
	var save, noCache bool

	cmd := &cobra.Command{
		Use:   "relayout",
		Short: "Recompute the position of every person",
		Long:  "Run the configured layout engine over the whole tree. Positions are only written to the store with --save.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.close()
			if noCache {
				ws.cache.Close()
				ws.cache = cache.NewNullCache()
			}
			e, err := ws.openEditor(ctx)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			engine := c.config().Layout.Engine
			if err := withSpinner(ctx, fmt.Sprintf("Laying out %d people with %s", e.Graph().Len(), engine), func() error {
				return e.Relayout(ctx)
			}); err != nil {
				return err
			}
			prog.done("Layout complete")

			if save {
				if err := e.SavePositions(ctx); err != nil {
					return err
				}
				printSuccess("Saved positions")
			} else {
				printNextStep("Positions are not saved yet", appName+" relayout --save")
			}
			fmt.Println(statsLine(e.View(), e.Graph().RelationshipCount(), e.LayoutCached()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write the new positions to the store")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore the layout cache")
	return cmd
}
