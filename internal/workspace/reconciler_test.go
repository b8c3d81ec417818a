package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLayout builds a layout rooted in temporary directories, mirroring
// the container layout: two mounted volumes plus a toolkit directory on the
// ephemeral side.
func newTestLayout(t *testing.T) Layout {
	t.Helper()

	root := t.TempDir()
	outputMount := filepath.Join(root, "mnt", "output")
	cacheMount := filepath.Join(root, "mnt", "cache")
	toolkitDir := filepath.Join(root, "ai-toolkit")

	require.NoError(t, os.MkdirAll(outputMount, 0755))
	require.NoError(t, os.MkdirAll(cacheMount, 0755))
	require.NoError(t, os.MkdirAll(toolkitDir, 0755))

	return Layout{
		OutputMount:     outputMount,
		CacheMount:      cacheMount,
		OutputLink:      filepath.Join(toolkitDir, "output"),
		CacheLink:       filepath.Join(root, ".cache"),
		LocalDatabase:   filepath.Join(toolkitDir, "aitk_db.db"),
		DurableDatabase: filepath.Join(outputMount, "database", "aitk_db.db"),
		Subdirs:         DefaultSubdirs,
	}
}

// writeLocalDB returns an InitFunc that simulates the toolkit's init
// command by writing content to the local database path, counting calls.
func writeLocalDB(layout Layout, content string, calls *int) InitFunc {
	return func(ctx context.Context) error {
		*calls++
		return os.WriteFile(layout.LocalDatabase, []byte(content), 0644)
	}
}

func requireSymlinkTo(t *testing.T, link, target string) {
	t.Helper()

	info, err := os.Lstat(link)
	require.NoError(t, err, "expected symlink at %s", link)
	require.NotZero(t, info.Mode()&os.ModeSymlink, "%s is not a symlink", link)

	dest, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, target, dest)
}

func TestReconcileFreshVolume(t *testing.T) {
	layout := newTestLayout(t)
	calls := 0
	rec := NewReconciler(layout, writeLocalDB(layout, "dbdata", &calls))

	require.NoError(t, rec.Reconcile(context.Background()))

	// The fixed subdirectory set exists inside the output volume.
	for _, sub := range []string{"datasets", "jobs", "models", "database"} {
		info, err := os.Stat(filepath.Join(layout.OutputMount, sub))
		require.NoError(t, err, "missing subdirectory %s", sub)
		assert.True(t, info.IsDir())
	}

	// The three expected local paths resolve into durable storage.
	requireSymlinkTo(t, layout.OutputLink, layout.OutputMount)
	requireSymlinkTo(t, layout.CacheLink, layout.CacheMount)
	requireSymlinkTo(t, layout.LocalDatabase, layout.DurableDatabase)

	// First run initialized and persisted the database.
	assert.Equal(t, 1, calls)
	data, err := os.ReadFile(layout.DurableDatabase)
	require.NoError(t, err)
	assert.Equal(t, "dbdata", string(data))

	// Reading through the link reaches the durable copy.
	data, err = os.ReadFile(layout.LocalDatabase)
	require.NoError(t, err)
	assert.Equal(t, "dbdata", string(data))
}

func TestReconcileIdempotent(t *testing.T) {
	layout := newTestLayout(t)
	calls := 0
	rec := NewReconciler(layout, writeLocalDB(layout, "dbdata", &calls))

	require.NoError(t, rec.Reconcile(context.Background()))
	require.NoError(t, rec.Reconcile(context.Background()))

	// Init ran exactly once; the durable database is untouched.
	assert.Equal(t, 1, calls)
	data, err := os.ReadFile(layout.DurableDatabase)
	require.NoError(t, err)
	assert.Equal(t, "dbdata", string(data))

	requireSymlinkTo(t, layout.OutputLink, layout.OutputMount)
	requireSymlinkTo(t, layout.CacheLink, layout.CacheMount)
	requireSymlinkTo(t, layout.LocalDatabase, layout.DurableDatabase)
}

func TestReconcilePreservesExistingDatabase(t *testing.T) {
	layout := newTestLayout(t)

	// A previous boot already persisted a database.
	require.NoError(t, os.MkdirAll(filepath.Dir(layout.DurableDatabase), 0755))
	require.NoError(t, os.WriteFile(layout.DurableDatabase, []byte("existing"), 0644))

	calls := 0
	rec := NewReconciler(layout, writeLocalDB(layout, "new", &calls))

	require.NoError(t, rec.Reconcile(context.Background()))

	// Initialization was skipped and the existing file preserved.
	assert.Equal(t, 0, calls)
	data, err := os.ReadFile(layout.DurableDatabase)
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))

	requireSymlinkTo(t, layout.LocalDatabase, layout.DurableDatabase)
}

func TestReconcileMissingVolumeIsFatal(t *testing.T) {
	layout := newTestLayout(t)
	require.NoError(t, os.RemoveAll(layout.OutputMount))

	rec := NewReconciler(layout, nil)
	err := rec.Reconcile(context.Background())
	require.Error(t, err)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, SeverityFatal, opErr.Severity)
	assert.Equal(t, layout.OutputMount, opErr.Path)
}

func TestReconcileReplacesStaleDirectory(t *testing.T) {
	layout := newTestLayout(t)

	// A pre-existing real directory at the link path would otherwise
	// make link creation fail.
	require.NoError(t, os.MkdirAll(layout.OutputLink, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(layout.OutputLink, "stale.txt"), []byte("x"), 0644))

	rec := NewReconciler(layout, nil)
	require.NoError(t, rec.Reconcile(context.Background()))

	requireSymlinkTo(t, layout.OutputLink, layout.OutputMount)

	// The stale content did not leak into the volume.
	_, err := os.Stat(filepath.Join(layout.OutputMount, "stale.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestReconcileInitFailureTolerated(t *testing.T) {
	layout := newTestLayout(t)

	rec := NewReconciler(layout, func(ctx context.Context) error {
		return assert.AnError
	})

	// Database init failure must not fail the boot.
	require.NoError(t, rec.Reconcile(context.Background()))

	_, err := os.Stat(layout.DurableDatabase)
	assert.True(t, os.IsNotExist(err))

	// The volume links are still in place.
	requireSymlinkTo(t, layout.OutputLink, layout.OutputMount)
	requireSymlinkTo(t, layout.CacheLink, layout.CacheMount)
}

func TestReconcileNoInitCommand(t *testing.T) {
	layout := newTestLayout(t)

	rec := NewReconciler(layout, nil)
	require.NoError(t, rec.Reconcile(context.Background()))

	// No init command: no database, but a functional workspace.
	_, err := os.Stat(layout.DurableDatabase)
	assert.True(t, os.IsNotExist(err))
}

func TestEnsureSubdirsPermissive(t *testing.T) {
	layout := newTestLayout(t)
	rec := NewReconciler(layout, nil)

	require.NoError(t, rec.EnsureSubdirs())

	for _, sub := range layout.Subdirs {
		info, err := os.Stat(filepath.Join(layout.OutputMount, sub))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0777), info.Mode().Perm())
	}

	// Re-running is a no-op.
	require.NoError(t, rec.EnsureSubdirs())
}
