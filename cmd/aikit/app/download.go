package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/transfer"
)

// DownloadOptions holds options for the download command
type DownloadOptions struct {
	*GlobalOptions

	// RemotePath is the source, relative to the output volume root
	RemotePath string

	// LocalPath is the local destination
	LocalPath string
}

// NewDownloadCommand creates the download command.
//
// The download command copies trained models or other output artifacts out
// of the output volume to a local destination.
//
// Usage:
//
//	aikit download REMOTE_PATH LOCAL_PATH
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for downloading files
func NewDownloadCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &DownloadOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "download REMOTE_PATH LOCAL_PATH",
		Short: "Download a file or directory from the output volume",
		Long: `Copy a file or directory from the durable output volume to a local
destination. REMOTE_PATH is relative to the output volume root. The same
file/directory distinction and merge semantics as upload apply.`,
		Example: `  # Download a trained checkpoint
  aikit download my_lora/my_lora_000001000.safetensors ./my_lora.safetensors

  # Download a whole job directory
  aikit download jobs/my_job ./results/my_job`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RemotePath = args[0]
			opts.LocalPath = args[1]
			return runDownload(opts)
		},
	}

	return cmd
}

// runDownload executes the download command logic.
func runDownload(opts *DownloadOptions) error {
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}

	sum, err := transfer.Download(cfg.Volumes.OutputMount, opts.RemotePath, opts.LocalPath)
	if err != nil {
		return err
	}

	if sum.Dir {
		fmt.Printf("Downloaded directory: %s -> %s\n", opts.RemotePath, opts.LocalPath)
		fmt.Printf("  Total files: %d (%s)\n", sum.Files, transfer.FormatSize(sum.Bytes))
	} else {
		fmt.Printf("Downloaded file: %s -> %s (%s)\n",
			opts.RemotePath, opts.LocalPath, transfer.FormatSize(sum.Bytes))
	}

	return nil
}
