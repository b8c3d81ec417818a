package app

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/platform"
)

// StatusOptions holds options for the status command
type StatusOptions struct {
	*GlobalOptions
}

// NewStatusCommand creates the status command.
//
// The status command lists aikit-managed containers and their state.
func NewStatusCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &StatusOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"ps"},
		Short:   "Show the toolkit container status",
		Example: `  aikit status`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts)
		},
	}

	return cmd
}

// runStatus executes the status command logic.
func runStatus(opts *StatusOptions) error {
	if _, err := loadConfig(opts.GlobalOptions); err != nil {
		return err
	}

	prov, err := platform.NewProvisioner()
	if err != nil {
		return err
	}
	defer prov.Close()

	infos, err := prov.Status(context.Background())
	if err != nil {
		return err
	}

	if len(infos) == 0 {
		fmt.Println("No toolkit container found.")
		fmt.Println()
		fmt.Println("Provision one with: aikit up")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("NAME", "STATE", "STATUS", "PORT", "IMAGE")

	for _, info := range infos {
		port := "-"
		if info.Port != 0 {
			port = fmt.Sprintf("%d", info.Port)
		}
		table.Append([]string{info.Name, info.State, info.Status, port, info.Image})
	}

	return table.Render()
}
