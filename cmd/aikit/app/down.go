package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/platform"
)

// DownOptions holds options for the down command
type DownOptions struct {
	*GlobalOptions
}

// NewDownCommand creates the down command.
//
// The down command gracefully stops and removes the toolkit container.
// The durable volumes (and everything trained into them) are left intact.
func NewDownCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &DownOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop and remove the toolkit container",
		Long: `Gracefully stop the toolkit container (30 second grace period) and
remove it. The durable volumes are never touched; a subsequent 'aikit up'
picks up exactly where the previous container left off.`,
		Example: `  aikit down`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDown(opts)
		},
	}

	return cmd
}

// runDown executes the down command logic.
func runDown(opts *DownOptions) error {
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}

	prov, err := platform.NewProvisioner()
	if err != nil {
		return err
	}
	defer prov.Close()

	if err := prov.Down(context.Background(), cfg.Container.Name); err != nil {
		return err
	}

	fmt.Printf("Container %s removed (volumes preserved)\n", cfg.Container.Name)

	return nil
}
