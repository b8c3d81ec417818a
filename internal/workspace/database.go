package workspace

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"

	_ "modernc.org/sqlite"

	"github.com/ostrisops/aikit/internal/logger"
)

// CommandInit returns an InitFunc that runs the given command in dir,
// inheriting env. This is how the toolkit's own database-initialization
// command (an npm script) gets invoked during first-run reconciliation.
func CommandInit(dir string, command []string, env []string) InitFunc {
	if len(command) == 0 {
		return nil
	}
	return func(ctx context.Context) error {
		logger.Info("Running database init: %v (in %s)", command, dir)
		cmd := exec.CommandContext(ctx, command[0], command[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), env...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("database init command failed: %w\n%s", err, out)
		}
		return nil
	}
}

// VerifyDatabase opens the SQLite database at path and runs an integrity
// check. It is an operator-facing sanity check for the durable copy, since
// a copy failure during reconciliation is tolerated at boot and could
// otherwise go unnoticed.
func VerifyDatabase(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("database does not exist: %s", path)
		}
		return fmt.Errorf("failed to stat database %s: %w", path, err)
	}

	// mode=ro so the check never creates or mutates the file.
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", path, err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed for %s: %w", path, err)
	}
	if result != "ok" {
		return fmt.Errorf("database %s is corrupt: %s", path, result)
	}

	return nil
}
