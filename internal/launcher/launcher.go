// Package launcher starts the external toolkit server process with the
// prepared environment and working directory.
//
// The process inherits the launcher's stdout/stderr; those streams are the
// only observability channel for the server. Supervision is an explicit,
// opt-in policy: by default a crashed server is not restarted here because
// the container-level restart policy set by the provisioner is the recovery
// mechanism. Enabling the restart policy makes the launcher itself restart
// the process on non-zero exit with a linear backoff.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/ostrisops/aikit/internal/logger"
)

// RestartPolicy controls in-process supervision of the launched server.
type RestartPolicy struct {
	// Enabled turns supervision on. When false the first exit, clean or
	// not, ends the run.
	Enabled bool

	// Max is the maximum number of consecutive restarts before giving
	// up. Zero means restart indefinitely.
	Max int

	// Backoff is the base delay between restarts; the actual delay grows
	// linearly with the consecutive failure count.
	Backoff time.Duration

	// ResetAfter resets the consecutive failure count when the process
	// stayed up at least this long. Zero disables the reset.
	ResetAfter time.Duration
}

// Launcher describes the external server process to run.
type Launcher struct {
	// Dir is the working directory for the process.
	Dir string

	// Command is the argv to execute, e.g. ["npm", "run", "start"].
	Command []string

	// Env is the explicit environment record for the process. It is
	// appended after the parent environment so these keys win.
	Env []string

	// Stdout and Stderr receive the process output. Defaults to the
	// launcher process's own streams.
	Stdout io.Writer
	Stderr io.Writer

	// Restart is the supervision policy for Run.
	Restart RestartPolicy
}

// newCmd builds the exec.Cmd for one process invocation.
func (l *Launcher) newCmd(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, l.Command[0], l.Command[1:]...)
	cmd.Dir = l.Dir
	cmd.Env = append(os.Environ(), l.Env...)

	cmd.Stdout = l.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = l.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	return cmd
}

// Start launches the process detached and returns without waiting. The
// process is reaped in the background; its exit is logged but not acted on.
func (l *Launcher) Start(ctx context.Context) (*os.Process, error) {
	if len(l.Command) == 0 {
		return nil, fmt.Errorf("launch command is empty")
	}

	cmd := l.newCmd(ctx)
	logger.Info("Starting server: %v (in %s)", l.Command, l.Dir)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start server process: %w", err)
	}

	logger.Info("Server started (pid %d)", cmd.Process.Pid)

	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Warn("Server process exited: %v", err)
		} else {
			logger.Info("Server process exited cleanly")
		}
	}()

	return cmd.Process, nil
}

// Run launches the process in the foreground and waits for it to exit.
//
// Without supervision the result of the single run is returned directly.
// With supervision enabled, non-zero exits restart the process until the
// policy's consecutive-failure limit is reached or the context is
// cancelled; a clean exit always ends the run.
func (l *Launcher) Run(ctx context.Context) error {
	if len(l.Command) == 0 {
		return fmt.Errorf("launch command is empty")
	}

	if !l.Restart.Enabled {
		logger.Info("Starting server: %v (in %s)", l.Command, l.Dir)
		if err := l.newCmd(ctx).Run(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("server process failed: %w", err)
		}
		return nil
	}

	failures := 0
	for {
		logger.Info("Starting server: %v (in %s)", l.Command, l.Dir)
		started := time.Now()
		err := l.newCmd(ctx).Run()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			logger.Info("Server exited cleanly, not restarting")
			return nil
		}

		uptime := time.Since(started)
		if l.Restart.ResetAfter > 0 && uptime >= l.Restart.ResetAfter {
			failures = 0
		}
		failures++

		if l.Restart.Max > 0 && failures > l.Restart.Max {
			return fmt.Errorf("server failed %d consecutive times, giving up: %w", failures-1, err)
		}

		delay := time.Duration(failures) * l.Restart.Backoff
		logger.Warn("Server exited after %s: %v; restarting in %s (attempt %d)",
			uptime.Round(time.Millisecond), err, delay, failures)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
