package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/devtoys/pkg/codec"
	"github.com/matzehuels/devtoys/pkg/compress"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for devtoys.

Bash:
  $ source <(devtoys completion bash)

Zsh:
  $ devtoys completion zsh > "${fpath[1]}/_devtoys"

Fish:
  $ devtoys completion fish > ~/.config/fish/completions/devtoys.fish

PowerShell:
  PS> devtoys completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// operationCompletions are the --op values offered by shell completion.
var operationCompletions = []string{
	"format", "minify", "escape", "unescape",
	"unicode-encode", "unicode-decode", "sort-asc", "sort-desc", "convert",
}

// fixedCompletion completes a flag from a fixed list.
func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

func documentFormatNames() []string {
	names := make([]string, len(codec.Formats))
	for i, f := range codec.Formats {
		names[i] = string(f)
	}
	return names
}

func imageFormatNames() []string {
	names := make([]string, len(compress.TargetFormats))
	for i, f := range compress.TargetFormats {
		names[i] = string(f)
	}
	return names
}
