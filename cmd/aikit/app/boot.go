package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/launcher"
	"github.com/ostrisops/aikit/internal/logger"
	"github.com/ostrisops/aikit/internal/workspace"
)

// BootOptions holds options for the boot command
type BootOptions struct {
	*GlobalOptions

	// ReconcileOnly stops after workspace reconciliation
	ReconcileOnly bool

	// Supervise restarts the server on non-zero exit
	Supervise bool

	// MaxRestarts limits consecutive restarts when supervising
	MaxRestarts int

	// Backoff is the base restart delay when supervising
	Backoff time.Duration
}

// NewBootCommand creates the boot command.
//
// The boot command is the container entrypoint: it runs the workspace
// reconciler and then launches the toolkit UI server in the foreground.
//
// Usage:
//
//	aikit boot [--reconcile-only] [--supervise]
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for booting the server
func NewBootCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &BootOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "boot",
		Short: "Reconcile the workspace and launch the toolkit UI server",
		Long: `Boot runs on every container cold start. It reconciles the ephemeral
container filesystem with the durable volumes - re-pointing the toolkit's
expected output, cache and database paths into durable storage - and then
launches the toolkit UI server in the foreground with the prepared
environment.

Reconciliation is idempotent and safe to re-run. A missing durable volume
aborts the boot; most other filesystem hiccups are logged and tolerated.

By default a crashed server is NOT restarted here: the container-level
restart policy (set by 'aikit up') is the recovery mechanism. Pass
--supervise to restart on failure from inside the container instead.`,
		Example: `  # Normal container entrypoint
  aikit boot

  # Prepare the workspace without starting the server
  aikit boot --reconcile-only

  # Restart the server on crash, up to 5 times
  aikit boot --supervise --max-restarts 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoot(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ReconcileOnly, "reconcile-only", false,
		"reconcile the workspace and exit without launching the server")
	cmd.Flags().BoolVar(&opts.Supervise, "supervise", false,
		"restart the server on non-zero exit")
	cmd.Flags().IntVar(&opts.MaxRestarts, "max-restarts", 5,
		"maximum consecutive restarts when supervising (0 for unlimited)")
	cmd.Flags().DurationVar(&opts.Backoff, "backoff", 3*time.Second,
		"base delay between restarts when supervising")

	return cmd
}

// runBoot executes the boot command logic.
func runBoot(opts *BootOptions) error {
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	layout := workspace.LayoutFor(cfg)
	initDB := workspace.CommandInit(cfg.Toolkit.UIDir, cfg.Toolkit.DBInitCommand, cfg.Environ())

	rec := workspace.NewReconciler(layout, initDB)
	if err := rec.Reconcile(ctx); err != nil {
		return fmt.Errorf("workspace reconciliation failed: %w", err)
	}

	if opts.ReconcileOnly {
		logger.Info("Reconcile-only boot complete")
		return nil
	}

	l := &launcher.Launcher{
		Dir:     cfg.Toolkit.UIDir,
		Command: cfg.Toolkit.StartCommand,
		Env:     cfg.Environ(),
		Restart: launcher.RestartPolicy{
			Enabled:    opts.Supervise,
			Max:        opts.MaxRestarts,
			Backoff:    opts.Backoff,
			ResetAfter: time.Minute,
		},
	}

	logger.Info("Launching toolkit UI on port %d", cfg.Server.Port)

	if err := l.Run(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("Received shutdown signal, server stopped")
			return nil
		}
		return err
	}

	return nil
}
