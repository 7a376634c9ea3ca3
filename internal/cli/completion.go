package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for nugetfetch. Command names, flags and
shell selections complete; package ids do not.

To load completions:

Bash:
  $ source <(nugetfetch completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ nugetfetch completion bash > /etc/bash_completion.d/nugetfetch
  # macOS:
  $ nugetfetch completion bash > $(brew --prefix)/etc/bash_completion.d/nugetfetch

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ nugetfetch completion zsh > "${fpath[1]}/_nugetfetch"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ nugetfetch completion fish | source

  # To load completions for each session, execute once:
  $ nugetfetch completion fish > ~/.config/fish/completions/nugetfetch.fish

PowerShell:
  PS> nugetfetch completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> nugetfetch completion powershell > nugetfetch.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(c.Out)
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
