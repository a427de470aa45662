package cmd

import (
	"github.com/spf13/cobra"
)

// completionCmd wraps Cobra's built-in shell completion generator.
var completionCmd = &cobra.Command{
	Use:   "completion <bash|zsh|fish|powershell>",
	Short: "Generate shell completion scripts",
	Long: `Generate a shell completion script for fauna.

Load it into the current session:

  source <(fauna completion bash)
  source <(fauna completion zsh)
  fauna completion fish | source

To keep it, add the line to your shell profile or write the script to your
shell's completion directory, for example:

  fauna completion fish > ~/.config/fish/completions/fauna.fish`,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, out := cmd.Root(), cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(out, true)
		case "zsh":
			return root.GenZshCompletion(out)
		case "fish":
			return root.GenFishCompletion(out, true)
		default:
			return root.GenPowerShellCompletionWithDesc(out)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
