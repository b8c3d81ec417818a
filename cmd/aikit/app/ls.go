package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/transfer"
)

// LsOptions holds options for the ls command
type LsOptions struct {
	*GlobalOptions

	// Path is the volume path to list, relative to the output volume root
	Path string
}

// NewLsCommand creates the ls command.
//
// The ls command lists files in the output volume with their sizes.
func NewLsCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &LsOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:     "ls [PATH]",
		Aliases: []string{"list"},
		Short:   "List files in the output volume",
		Long: `List files in the durable output volume recursively, with sizes.

PATH is relative to the output volume root; omitting it lists the whole
volume.`,
		Example: `  # List everything in the output volume
  aikit ls

  # List one dataset
  aikit ls datasets/my_project`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Path = args[0]
			}
			return runLs(opts)
		},
	}

	return cmd
}

// runLs executes the ls command logic.
func runLs(opts *LsOptions) error {
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}

	entries, err := transfer.List(cfg.Volumes.OutputMount, opts.Path)
	if err != nil {
		if errors.Is(err, transfer.ErrSourceNotFound) {
			return fmt.Errorf("path not found in output volume: %s", opts.Path)
		}
		return err
	}

	if len(entries) == 0 {
		fmt.Printf("No files under output/%s\n", opts.Path)
		return nil
	}

	fmt.Printf("Files under output/%s:\n\n", opts.Path)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("PATH", "SIZE")

	var total int64
	for _, e := range entries {
		table.Append([]string{e.Path, transfer.FormatSize(e.Size)})
		total += e.Size
	}

	if err := table.Render(); err != nil {
		return err
	}

	fmt.Printf("\n%d file(s), %s total\n", len(entries), transfer.FormatSize(total))

	return nil
}
