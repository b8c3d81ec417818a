package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/workspace"
)

// SetupOptions holds options for the setup command
type SetupOptions struct {
	*GlobalOptions
}

// NewSetupCommand creates the setup command.
//
// The setup command creates the fixed subdirectory layout inside the output
// volume with permissive access. Boot does this automatically; the command
// exists so the layout can be prepared out-of-band, e.g. before a first
// upload.
func NewSetupCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &SetupOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the standard output volume directory layout",
		Long: `Create the fixed set of subdirectories the toolkit expects inside the
output volume (datasets, jobs, models, database), with permissive access so
the toolkit can write to them regardless of which user it runs as. Creation
is a no-op for directories that already exist.`,
		Example: `  aikit setup`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(opts)
		},
	}

	return cmd
}

// runSetup executes the setup command logic.
func runSetup(opts *SetupOptions) error {
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}

	layout := workspace.LayoutFor(cfg)
	if err := workspace.NewReconciler(layout, nil).EnsureSubdirs(); err != nil {
		return err
	}

	fmt.Printf("Output volume layout ready at %s:\n", cfg.Volumes.OutputMount)
	for _, sub := range layout.Subdirs {
		fmt.Printf("  %s\n", filepath.Join(cfg.Volumes.OutputMount, sub))
	}

	return nil
}
