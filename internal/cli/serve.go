package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/api"
	"github.com/matzehuels/kintree/pkg/editor"
)

// serveCommand runs the HTTP editing API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tree editing API over HTTP",
		Long:  "Start an HTTP server exposing every tree in the store. Each tree keeps one editor in memory; mode and selection are saved on shutdown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.close()

			cfg := c.config()
			if addr == "" {
				addr = cfg.Server.Addr
			}
			factory := func(treeID string) *editor.Editor {
				return ws.newEditor(treeID, nil)
			}
			trees := api.NewRegistry(ws.store, factory, ws.sessions, cfg.Session.TTL.Duration, c.Logger)
			srv := api.New(trees, c.Logger)

			printInfo("Serving %s on %s", StyleValue.Render(cfg.Store.Backend+" store"), styleCommand.Render("http://"+addr))
			printDetail("Ctrl-C to stop")
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
