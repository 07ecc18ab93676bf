package cli

import (
	"io"
	"sort"

	"github.com/spf13/cobra"
)

// completionGenerators write the completion script of root for one shell
var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error {
		return root.GenBashCompletion(w)
	},
	"zsh": func(root *cobra.Command, w io.Writer) error {
		return root.GenZshCompletion(w)
	},
	"fish": func(root *cobra.Command, w io.Writer) error {
		return root.GenFishCompletion(w, true)
	},
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

func completionShells() []string {
	shells := make([]string, 0, len(completionGenerators))
	for shell := range completionGenerators {
		shells = append(shells, shell)
	}
	sort.Strings(shells)
	return shells
}

// newCompletionCmd creates the completion command
func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for batchrun and print it to stdout.

Bash:
  $ source <(batchrun completion bash)
  # or, for every session on Linux:
  $ batchrun completion bash > /etc/bash_completion.d/batchrun

Zsh:
  $ batchrun completion zsh > "${fpath[1]}/_batchrun"
  # compinit must be enabled: echo "autoload -U compinit; compinit" >> ~/.zshrc

Fish:
  $ batchrun completion fish > ~/.config/fish/completions/batchrun.fish

PowerShell:
  PS> batchrun completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells(),
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		PersistentPreRunE:     skipInit,
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}
