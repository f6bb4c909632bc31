package cli

import "github.com/spf13/cobra"

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pgnode2graph.

To load completions:

Bash:
  $ source <(pgnode2graph completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ pgnode2graph completion bash > /etc/bash_completion.d/pgnode2graph
  # macOS:
  $ pgnode2graph completion bash > $(brew --prefix)/etc/bash_completion.d/pgnode2graph

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ pgnode2graph completion zsh > "${fpath[1]}/_pgnode2graph"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ pgnode2graph completion fish | source

  # To load completions for each session, execute once:
  $ pgnode2graph completion fish > ~/.config/fish/completions/pgnode2graph.fish

PowerShell:
  PS> pgnode2graph completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> pgnode2graph completion powershell > pgnode2graph.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(c.Out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(c.Out)
			case "fish":
				return cmd.Root().GenFishCompletion(c.Out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(c.Out)
			}
			return nil
		},
	}

	return cmd
}
