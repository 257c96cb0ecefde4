// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// newCompletionCommand creates the completion command for generating
// shell completion scripts.
func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate a shell completion script for mnetest.

To load completions:

Bash:
  $ source <(mnetest completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ mnetest completion bash > /etc/bash_completion.d/mnetest
  # macOS:
  $ mnetest completion bash > $(brew --prefix)/etc/bash_completion.d/mnetest

Zsh:
  $ mnetest completion zsh > "${fpath[1]}/_mnetest"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ mnetest completion fish | source

  # To load completions for each session, execute once:
  $ mnetest completion fish > ~/.config/fish/completions/mnetest.fish

PowerShell:
  PS> mnetest completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> mnetest completion powershell > mnetest.ps1
  # and source this file from your PowerShell profile.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
