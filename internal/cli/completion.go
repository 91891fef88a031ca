package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand generates shell completion scripts.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for your shell. Tree names and people are
completed from the configured store.

  bash:        source <(kintree completion bash)
  zsh:         kintree completion zsh > "${fpath[1]}/_kintree"
  fish:        kintree completion fish > ~/.config/fish/completions/kintree.fish
  powershell:  kintree completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

// completeTrees completes tree IDs for --tree.
func (c *CLI) completeTrees(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	s, err := openStore(cmd.Context(), c.config().Store)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer s.Close()

	ids, err := s.Trees(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return filterPrefix(ids, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completePeople completes the first name of people in the current tree for
// commands taking a <person> argument at position pos.
func (c *CLI) completePeople(pos int) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != pos {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		if err := c.loadConfig(); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		s, err := openStore(cmd.Context(), c.config().Store)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer s.Close()

		people, err := s.FetchPeople(cmd.Context(), c.tree())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var names []string
		for _, p := range people {
			names = append(names, p.FirstName+"\t"+p.FullName())
		}
		return filterPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

func filterPrefix(values []string, prefix string) []string {
	var out []string
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			out = append(out, v)
		}
	}
	return out
}
