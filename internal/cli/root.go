package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/devtoys/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
// The CLI's logger is attached to every command's context.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Developer tools for documents and images",
		Long: `devtoys formats, minifies, escapes, sorts and converts JSON, XML, YAML and
query-string documents, and recompresses images with a live quality preview.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/devtoys/config.toml)")

	root.AddCommand(c.transformCommand())
	root.AddCommand(c.compressCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
