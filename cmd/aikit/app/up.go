package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/platform"
)

// UpOptions holds options for the up command
type UpOptions struct {
	*GlobalOptions

	// Image overrides the configured container image
	Image string

	// GPUs overrides the configured GPU selection
	GPUs string
}

// NewUpCommand creates the up command.
//
// The up command provisions the GPU container that runs the toolkit UI:
// it pulls the toolkit image if needed, creates the container with the two
// durable volumes mounted at their fixed paths and the UI port published,
// and starts it.
//
// Usage:
//
//	aikit up [--image IMAGE] [--gpus all|N]
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for provisioning the container
func NewUpCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &UpOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Provision and start the toolkit container",
		Long: `Provision the GPU container that runs the toolkit UI.

The container gets the two durable named volumes mounted at their fixed
paths (so datasets, job outputs, models and the UI database all survive
restarts), a GPU device request, the UI port published on all interfaces,
and an unless-stopped restart policy. The durable volumes are created by
the platform on first reference and are never removed by aikit.`,
		Example: `  # Provision with the configured image, all GPUs
  aikit up

  # Use a specific image and a single GPU
  aikit up --image ghcr.io/ostrisops/aikit-toolkit:cu128 --gpus 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Image, "image", "",
		"container image to run (default: from configuration)")
	cmd.Flags().StringVar(&opts.GPUs, "gpus", "",
		"GPU selection: \"all\" or a device count (default: from configuration)")

	return cmd
}

// runUp executes the up command logic.
func runUp(opts *UpOptions) error {
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}
	if opts.Image != "" {
		cfg.Container.Image = opts.Image
	}
	if opts.GPUs != "" {
		cfg.Container.GPUs = opts.GPUs
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	prov, err := platform.NewProvisioner()
	if err != nil {
		return err
	}
	defer prov.Close()

	spec := platform.SpecFor(cfg)

	id, err := prov.Up(context.Background(), spec)
	if err != nil {
		return err
	}

	fmt.Printf("Container %s is up (%s)\n", spec.Name, id[:12])
	fmt.Printf("Toolkit UI: http://localhost:%d\n", spec.Port)
	fmt.Println()
	fmt.Println("Follow logs with: aikit logs -f")

	return nil
}
