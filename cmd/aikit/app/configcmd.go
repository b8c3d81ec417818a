package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/config"
)

// ConfigOptions holds options for the config subcommands
type ConfigOptions struct {
	*GlobalOptions

	// Path is where to write the generated config file
	Path string
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &ConfigOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a configuration file populated with the default paths, commands
and volume layout, ready to edit. Refuses to overwrite an existing file.`,
		Example: `  # Write ./aikit.yaml
  aikit config init

  # Write to a specific location
  aikit config init --path /etc/aikit/aikit.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(opts.Path); err != nil {
				return err
			}
			fmt.Printf("Wrote default configuration to %s\n", opts.Path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&opts.Path, "path", "aikit.yaml",
		"where to write the configuration file")

	cmd.AddCommand(initCmd)

	return cmd
}
