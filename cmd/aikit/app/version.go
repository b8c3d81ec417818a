package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information. Overridden at build time via -ldflags.
var (
	// Version is the aikit version.
	Version = "dev"

	// BuildTime is when the binary was built.
	BuildTime = "unknown"

	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(globalOpts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("aikit version %s\n", Version)
			fmt.Printf("  Build Time: %s\n", BuildTime)
			fmt.Printf("  Git Commit: %s\n", GitCommit)
			return nil
		},
	}

	return cmd
}
