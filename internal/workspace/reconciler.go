// Package workspace implements the workspace reconciler that runs on every
// container cold start.
//
// A fresh container starts with an empty ephemeral filesystem plus one or
// two durable network volumes mounted at fixed paths. The toolkit, however,
// reads and writes a handful of fixed local paths. The reconciler converts
// the former into the latter: it re-points the toolkit's expected paths into
// durable storage via symlinks, creates the standard subdirectory layout
// inside the output volume, and reconciles the UI database so that nothing
// the toolkit writes is lost when the container is torn down.
//
// Reconciliation is idempotent and must complete before the toolkit server
// starts listening. It never runs concurrently in the intended deployment
// model (one container, one boot); if multiple replicas ever share a volume,
// the first-run database initialization becomes a race that would need a
// lock file or conditional create.
package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ostrisops/aikit/internal/config"
	"github.com/ostrisops/aikit/internal/logger"
	"github.com/ostrisops/aikit/internal/transfer"
)

// DefaultSubdirs is the fixed set of subdirectories maintained inside the
// output volume.
var DefaultSubdirs = []string{"datasets", "jobs", "models", config.DatabaseSubdir}

// Layout holds every fixed path the reconciler operates on. Paths are
// absolute; tests point them into temporary directories.
type Layout struct {
	// OutputMount is the durable output volume mount point.
	OutputMount string

	// CacheMount is the durable cache volume mount point.
	CacheMount string

	// OutputLink is the toolkit's expected output path, linked to
	// OutputMount.
	OutputLink string

	// CacheLink is the toolkit's expected cache path, linked to
	// CacheMount.
	CacheLink string

	// LocalDatabase is the path the toolkit UI opens its database at.
	LocalDatabase string

	// DurableDatabase is the persisted database copy inside the output
	// volume.
	DurableDatabase string

	// Subdirs are the directories maintained inside OutputMount,
	// relative to it.
	Subdirs []string
}

// LayoutFor derives the reconciler layout from the application config.
func LayoutFor(cfg *config.Config) Layout {
	return Layout{
		OutputMount:     cfg.Volumes.OutputMount,
		CacheMount:      cfg.Volumes.CacheMount,
		OutputLink:      cfg.OutputLink(),
		CacheLink:       cfg.Toolkit.CacheLink,
		LocalDatabase:   cfg.LocalDatabasePath(),
		DurableDatabase: cfg.DurableDatabasePath(),
		Subdirs:         DefaultSubdirs,
	}
}

// InitFunc runs the toolkit's own database-initialization command. It must
// leave the initialized database at the layout's LocalDatabase path.
type InitFunc func(ctx context.Context) error

// Reconciler reconciles the ephemeral container filesystem with durable
// storage.
type Reconciler struct {
	layout Layout
	initDB InitFunc
}

// NewReconciler returns a reconciler for the given layout. initDB may be
// nil, in which case first-run database initialization is skipped with a
// warning and the toolkit is left to create its database lazily.
func NewReconciler(layout Layout, initDB InitFunc) *Reconciler {
	return &Reconciler{layout: layout, initDB: initDB}
}

// Reconcile runs the full reconciliation sequence:
//
//  1. Remove stale local paths that are about to become link targets.
//  2. Link the toolkit's expected paths into the durable volumes.
//  3. Ensure the fixed subdirectory layout with permissive access.
//  4. Reconcile the UI database (first-run init, copy, link back).
//
// Only step 2 and the subdirectory creation in step 3 can fail the boot;
// every other failure is logged and tolerated. The returned error, when
// non-nil, is an *OpError with SeverityFatal.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	logger.Info("Reconciling workspace: output=%s cache=%s",
		r.layout.OutputMount, r.layout.CacheMount)

	r.removeStale()

	if err := r.linkVolumes(); err != nil {
		return err
	}

	if err := r.EnsureSubdirs(); err != nil {
		return err
	}

	r.reconcileDatabase(ctx)

	logger.Info("Workspace reconciled")
	return nil
}

// removeStale clears anything occupying the paths that become symlinks.
// A real directory left at a link path would make the link creation fail,
// so pre-existing files, directories and old links are removed first.
// Removal is best-effort; absence of a stale path is not an error.
func (r *Reconciler) removeStale() {
	for _, p := range []string{r.layout.OutputLink, r.layout.CacheLink, r.layout.LocalDatabase} {
		if err := os.RemoveAll(p); err != nil {
			logger.Warn("Failed to remove stale path %s: %v", p, err)
		}
	}
}

// linkVolumes creates the two primary symlinks from the toolkit's expected
// paths into the durable volumes. A missing mount or failing link is fatal:
// without these the toolkit would write into ephemeral storage and every
// artifact would be lost on teardown.
func (r *Reconciler) linkVolumes() error {
	links := []struct {
		target string // durable volume path
		link   string // toolkit-expected local path
	}{
		{r.layout.OutputMount, r.layout.OutputLink},
		{r.layout.CacheMount, r.layout.CacheLink},
	}

	for _, l := range links {
		// A symlink to a missing target would succeed and dangle, so
		// the mount is verified explicitly.
		if _, err := os.Stat(l.target); err != nil {
			return fatalErr("mount check", l.target, err)
		}

		if err := os.MkdirAll(filepath.Dir(l.link), 0755); err != nil {
			return fatalErr("mkdir", filepath.Dir(l.link), err)
		}

		if err := os.Symlink(l.target, l.link); err != nil {
			return fatalErr("link", l.link, err)
		}

		logger.Debug("Linked %s -> %s", l.link, l.target)
	}

	return nil
}

// EnsureSubdirs creates the fixed subdirectory layout inside the output
// volume and opens it up with permissive modes. The toolkit server may run
// under a different effective user than whoever populated the volume, so
// the directories are made world-writable; chmod failures are tolerated
// since many network filesystems refuse them while still being writable.
//
// Also exposed directly as the out-of-band directory-setup utility.
func (r *Reconciler) EnsureSubdirs() error {
	for _, sub := range r.layout.Subdirs {
		dir := filepath.Join(r.layout.OutputMount, sub)
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fatalErr("mkdir", dir, err)
		}
		if err := os.Chmod(dir, 0777); err != nil {
			logger.Warn("Failed to set permissions on %s: %v", dir, err)
		}
	}
	return nil
}

// reconcileDatabase makes the UI database survive container restarts.
//
// When a persisted copy already exists in the output volume, the local
// expected path is simply linked to it. On first run the toolkit's own init
// command is invoked against the local (ephemeral) path, the result is
// copied into the volume, and only then is the local path replaced with a
// link to the durable copy. Linking before initialization would make the
// init tool write through the link before the durable file exists.
//
// All failures here are tolerated with a warning: the toolkit can still
// partially function, or recreate its database lazily, and a boot that
// serves without persistence beats no boot at all.
func (r *Reconciler) reconcileDatabase(ctx context.Context) {
	durable := r.layout.DurableDatabase
	local := r.layout.LocalDatabase

	if _, err := os.Stat(durable); err == nil {
		r.linkDatabase()
		return
	} else if !os.IsNotExist(err) {
		logger.Warn("Failed to check durable database %s: %v", durable, err)
		return
	}

	// First run: no persisted database yet.
	logger.Info("No persisted database found, initializing at %s", local)

	if r.initDB == nil {
		logger.Warn("No database init command configured; toolkit will create its database ephemerally")
		return
	}

	if err := r.initDB(ctx); err != nil {
		logger.Warn("Database initialization failed: %v", err)
		return
	}

	if _, err := os.Stat(local); err != nil {
		logger.Warn("Database init command did not produce %s: %v", local, err)
		return
	}

	if _, err := transfer.CopyFile(local, durable); err != nil {
		logger.Warn("Failed to copy database to durable storage: %v", err)
		return
	}

	logger.Info("Database persisted to %s", durable)
	r.linkDatabase()
}

// linkDatabase replaces the local expected database path with a symlink to
// the durable copy.
func (r *Reconciler) linkDatabase() {
	local := r.layout.LocalDatabase

	if err := os.RemoveAll(local); err != nil {
		logger.Warn("Failed to remove local database %s: %v", local, err)
		return
	}
	if err := os.Symlink(r.layout.DurableDatabase, local); err != nil {
		logger.Warn("Failed to link database %s -> %s: %v",
			local, r.layout.DurableDatabase, err)
		return
	}
	logger.Debug("Linked %s -> %s", local, r.layout.DurableDatabase)
}
