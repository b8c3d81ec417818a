package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/transfer"
)

// UploadOptions holds options for the upload command
type UploadOptions struct {
	*GlobalOptions

	// LocalPath is the source file or directory
	LocalPath string

	// RemotePath is the destination, relative to the output volume root
	RemotePath string
}

// NewUploadCommand creates the upload command.
//
// The upload command copies a local file or directory into the output
// volume, typically to stage a training dataset.
//
// Usage:
//
//	aikit upload LOCAL_PATH REMOTE_PATH
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for uploading files
func NewUploadCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &UploadOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "upload LOCAL_PATH REMOTE_PATH",
		Short: "Upload a file or directory into the output volume",
		Long: `Copy a local file or directory into the durable output volume.

REMOTE_PATH is relative to the output volume root. Parent directories are
created as needed. Directory uploads merge into an existing destination
without deleting unrelated files already there.`,
		Example: `  # Upload a dataset directory
  aikit upload ./my_images datasets/my_project

  # Upload a single config file
  aikit upload ./config.yaml jobs/my_job/config.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.LocalPath = args[0]
			opts.RemotePath = args[1]
			return runUpload(opts)
		},
	}

	return cmd
}

// runUpload executes the upload command logic.
func runUpload(opts *UploadOptions) error {
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}

	sum, err := transfer.Upload(opts.LocalPath, cfg.Volumes.OutputMount, opts.RemotePath)
	if err != nil {
		return err
	}

	if sum.Dir {
		fmt.Printf("Uploaded directory: %s -> %s\n", opts.LocalPath, opts.RemotePath)
		fmt.Printf("  Total files: %d (%s)\n", sum.Files, transfer.FormatSize(sum.Bytes))
	} else {
		fmt.Printf("Uploaded file: %s -> %s (%s)\n",
			opts.LocalPath, opts.RemotePath, transfer.FormatSize(sum.Bytes))
	}

	return nil
}
