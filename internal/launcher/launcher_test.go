package launcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCleanExit(t *testing.T) {
	l := &Launcher{
		Dir:     t.TempDir(),
		Command: []string{"sh", "-c", "exit 0"},
	}

	require.NoError(t, l.Run(context.Background()))
}

func TestRunFailureWithoutSupervision(t *testing.T) {
	l := &Launcher{
		Dir:     t.TempDir(),
		Command: []string{"sh", "-c", "exit 7"},
	}

	err := l.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server process failed")
}

func TestRunEmptyCommand(t *testing.T) {
	l := &Launcher{Dir: t.TempDir()}

	require.Error(t, l.Run(context.Background()))
	_, err := l.Start(context.Background())
	require.Error(t, err)
}

func TestRunEnvRecordWins(t *testing.T) {
	t.Setenv("NODE_ENV", "from-parent")

	var out bytes.Buffer
	l := &Launcher{
		Dir:     t.TempDir(),
		Command: []string{"sh", "-c", `printf %s "$NODE_ENV"`},
		Env:     []string{"NODE_ENV=production"},
		Stdout:  &out,
	}

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, "production", out.String())
}

func TestRunWorkingDirectory(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	l := &Launcher{
		Dir:     dir,
		Command: []string{"sh", "-c", "pwd"},
		Stdout:  &out,
	}

	require.NoError(t, l.Run(context.Background()))
	// pwd may print a resolved path, so compare resolved forms.
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(string(bytes.TrimSpace(out.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRunSupervisedRecovers(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "restarted")

	// Fails on the first attempt, succeeds once the marker exists.
	l := &Launcher{
		Dir:     dir,
		Command: []string{"sh", "-c", "test -f restarted || { touch restarted; exit 1; }"},
		Restart: RestartPolicy{
			Enabled: true,
			Max:     5,
			Backoff: time.Millisecond,
		},
	}

	require.NoError(t, l.Run(context.Background()))

	_, err := os.Stat(marker)
	assert.NoError(t, err)
}

func TestRunSupervisedGivesUp(t *testing.T) {
	l := &Launcher{
		Dir:     t.TempDir(),
		Command: []string{"sh", "-c", "exit 1"},
		Restart: RestartPolicy{
			Enabled: true,
			Max:     2,
			Backoff: time.Millisecond,
		},
	}

	err := l.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up")
}

func TestRunSupervisedCleanExitStops(t *testing.T) {
	l := &Launcher{
		Dir:     t.TempDir(),
		Command: []string{"sh", "-c", "exit 0"},
		Restart: RestartPolicy{Enabled: true, Backoff: time.Millisecond},
	}

	require.NoError(t, l.Run(context.Background()))
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	l := &Launcher{
		Dir:     t.TempDir(),
		Command: []string{"sleep", "30"},
	}

	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStartDetached(t *testing.T) {
	l := &Launcher{
		Dir:     t.TempDir(),
		Command: []string{"sleep", "0.1"},
	}

	proc, err := l.Start(context.Background())
	require.NoError(t, err)
	require.NotNil(t, proc)
	assert.Greater(t, proc.Pid, 0)
}
