package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ostrisops/aikit/internal/workspace"
)

// DBOptions holds options for the db subcommands
type DBOptions struct {
	*GlobalOptions

	// Path overrides the database file to check
	Path string
}

// NewDBCommand creates the db command group.
//
// Database copy failures during boot are tolerated by design, so a
// persistence problem can go unnoticed until artifacts are missing after a
// restart. 'aikit db verify' is the operator-side check for that: it opens
// the durable copy and runs a SQLite integrity check.
func NewDBCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &DBOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance helpers",
	}

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Verify the persisted UI database",
		Long: `Open the persisted UI database in the output volume and run a SQLite
integrity check. Useful after a boot that logged database copy warnings.`,
		Example: `  # Check the durable copy
  aikit db verify

  # Check an arbitrary database file
  aikit db verify --path /mnt/output/database/aitk_db.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBVerify(opts)
		},
	}
	verify.Flags().StringVar(&opts.Path, "path", "",
		"database file to verify (default: the durable copy)")

	cmd.AddCommand(verify)

	return cmd
}

// runDBVerify executes the db verify command logic.
func runDBVerify(opts *DBOptions) error {
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}

	path := opts.Path
	if path == "" {
		path = cfg.DurableDatabasePath()
	}

	if err := workspace.VerifyDatabase(path); err != nil {
		return err
	}

	fmt.Printf("Database OK: %s\n", path)

	return nil
}
