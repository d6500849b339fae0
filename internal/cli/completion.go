package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand emits shell completion scripts. Completion covers
// subcommand names and flags, so `depchase tr<TAB>` expands to trace.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for your shell so that depchase
subcommands (analyze, trace, chain, serve, ...) and their flags
tab-complete.

Bash:
  $ source <(depchase completion bash)

  Or install it permanently:
  $ depchase completion bash > /etc/bash_completion.d/depchase              # Linux
  $ depchase completion bash > $(brew --prefix)/etc/bash_completion.d/depchase  # macOS

Zsh:
  Make sure compinit runs in your shell (once):
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  Then install the script and open a new shell:
  $ depchase completion zsh > "${fpath[1]}/_depchase"

Fish:
  $ depchase completion fish | source

  Or install it permanently:
  $ depchase completion fish > ~/.config/fish/completions/depchase.fish

PowerShell:
  PS> depchase completion powershell | Out-String | Invoke-Expression

  To persist it, write the script to a file sourced from your profile:
  PS> depchase completion powershell > depchase.ps1
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(os.Stdout)
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

	return cmd
}
