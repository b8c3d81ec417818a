package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/platform"
)

// LogsOptions holds options for the logs command
type LogsOptions struct {
	*GlobalOptions

	// Follow streams new log lines as they arrive
	Follow bool
}

// NewLogsCommand creates the logs command.
//
// The logs command prints the toolkit container's output. The server's
// stdout/stderr are the only observability channel for the deployment, so
// this is the primary debugging tool.
func NewLogsCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &LogsOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show toolkit container logs",
		Example: `  # Print all logs
  aikit logs

  # Stream logs until interrupted
  aikit logs -f`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false,
		"follow log output")

	return cmd
}

// runLogs executes the logs command logic.
func runLogs(opts *LogsOptions) error {
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}

	prov, err := platform.NewProvisioner()
	if err != nil {
		return err
	}
	defer prov.Close()

	ctx := context.Background()
	if opts.Follow {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
	}

	stream, err := prov.Logs(ctx, cfg.Container.Name, opts.Follow)
	if err != nil {
		return err
	}
	defer stream.Close()

	// The stream multiplexes stdout/stderr with framing headers.
	if _, err := stdcopy.StdCopy(os.Stdout, os.Stderr, stream); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}
