// Package app provides the command-line interface implementation for aikit.
//
// This package contains all CLI commands and their implementations. Commands
// are organized hierarchically with a root command and subcommands, one file
// per command.
package app

import (
	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/config"
	"github.com/ostrisops/aikit/internal/logger"
)

const (
	// cliName is the name of the CLI application
	cliName = "aikit"

	// cliDescription is the short description shown in help text
	cliDescription = "aikit - deploy and operate the AI Toolkit trainer UI"
)

// GlobalOptions holds options that are common to all commands
type GlobalOptions struct {
	// ConfigFile is an explicit configuration file path
	ConfigFile string

	// Verbose enables verbose output
	Verbose bool
}

// NewAikitCommand creates the root aikit command with all subcommands.
//
// The root command provides the main entry point for the CLI. It sets up
// global flags and registers all subcommands.
func NewAikitCommand() *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   cliName,
		Short: cliDescription,
		Long: `aikit deploys the AI Toolkit training application and its web UI into a
GPU container backed by durable volumes, and provides the file-transfer and
workspace helpers that go with it.

Inside the container, 'aikit boot' prepares the workspace (linking the
toolkit's expected paths into durable storage) and launches the UI server.
From the operator side, 'aikit up/down/status/logs' manage the container and
'aikit upload/download/ls' move data in and out of the output volume.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "",
		"configuration file (default: ./aikit.yaml, ~/.aikit/aikit.yaml, /etc/aikit/aikit.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"verbose output")

	cmd.AddCommand(
		NewBootCommand(opts),
		NewUpCommand(opts),
		NewDownCommand(opts),
		NewStatusCommand(opts),
		NewLogsCommand(opts),
		NewUploadCommand(opts),
		NewDownloadCommand(opts),
		NewLsCommand(opts),
		NewSetupCommand(opts),
		NewDBCommand(opts),
		NewConfigCommand(opts),
		NewVersionCommand(opts),
	)

	return cmd
}

// loadConfig loads the application configuration honoring the global flags.
func loadConfig(opts *GlobalOptions) (*config.Config, error) {
	if opts.Verbose {
		logger.SetDebug(true)
	}
	return config.Load(opts.ConfigFile)
}
