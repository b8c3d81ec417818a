// Package transfer implements the out-of-band file helpers for the durable
// volumes: uploading datasets into the output volume, downloading trained
// artifacts back out, and listing volume contents.
//
// All operations distinguish single files from directories. Directory copies
// merge into an existing destination without touching unrelated files, the
// same semantics the toolkit's own tooling expects. A missing source is
// reported through ErrSourceNotFound before any filesystem mutation happens.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ostrisops/aikit/internal/logger"
)

// ErrSourceNotFound is returned when the requested source path does not
// exist. The error surfaces to the caller of the specific helper and never
// affects anything else.
var ErrSourceNotFound = errors.New("source path not found")

// Summary describes a completed copy operation.
type Summary struct {
	// Files is the number of regular files copied.
	Files int

	// Bytes is the total number of bytes copied.
	Bytes int64

	// Dir is true when the source was a directory.
	Dir bool
}

// Entry describes one file found by List.
type Entry struct {
	// Path is the file path relative to the listed root.
	Path string

	// Size is the file size in bytes.
	Size int64
}

// Upload copies a local path into the output volume.
//
// remotePath is interpreted relative to volumeRoot. A file source is copied
// to exactly that path, creating parent directories as needed. A directory
// source is copied recursively into that path, merging with any existing
// directory tree without deleting unrelated pre-existing files.
func Upload(localPath, volumeRoot, remotePath string) (*Summary, error) {
	dst := filepath.Join(volumeRoot, remotePath)
	logger.Debug("Upload: %s -> %s", localPath, dst)
	return copyPath(localPath, dst)
}

// Download copies from the output volume to a local destination.
//
// The file/directory distinction and failure mode mirror Upload.
func Download(volumeRoot, remotePath, localPath string) (*Summary, error) {
	src := filepath.Join(volumeRoot, remotePath)
	logger.Debug("Download: %s -> %s", src, localPath)
	return copyPath(src, localPath)
}

// List enumerates files under a volume path.
//
// The path is interpreted relative to volumeRoot. Listing a single file
// returns one entry. Listing a directory walks it recursively and returns
// entries sorted by path. A missing path returns ErrSourceNotFound.
func List(volumeRoot, path string) ([]Entry, error) {
	root := filepath.Join(volumeRoot, path)

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return []Entry{{Path: info.Name(), Size: info.Size()}}, nil
	}

	var entries []Entry
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Path: rel, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	return entries, nil
}

// copyPath copies src to dst, dispatching on whether src is a file or a
// directory. The source is checked before any destination directories are
// created so a not-found error leaves the filesystem untouched.
func copyPath(src, dst string) (*Summary, error) {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if info.IsDir() {
		sum := &Summary{Dir: true}
		if err := copyDir(src, dst, sum); err != nil {
			return nil, err
		}
		return sum, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(dst), err)
	}
	n, err := CopyFile(src, dst)
	if err != nil {
		return nil, err
	}
	return &Summary{Files: 1, Bytes: n}, nil
}

// copyDir recursively copies the contents of src into dst, merging with
// whatever already exists there.
func copyDir(src, dst string, sum *Summary) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			return nil
		}

		// Symlinks inside the tree are skipped rather than followed;
		// the volumes only ever hold regular files and directories.
		if d.Type()&fs.ModeSymlink != 0 {
			logger.Warn("Skipping symlink during copy: %s", p)
			return nil
		}

		n, err := CopyFile(p, target)
		if err != nil {
			return err
		}
		sum.Files++
		sum.Bytes += n
		return nil
	})
}

// CopyFile copies a single regular file, preserving its permission bits.
// It returns the number of bytes copied.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dst, err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if err := out.Close(); err != nil {
		return n, fmt.Errorf("failed to close %s: %w", dst, err)
	}

	return n, nil
}

// FormatSize renders a byte count the way the volume listing displays it.
func FormatSize(bytes int64) string {
	mb := float64(bytes) / (1024 * 1024)
	if mb < 0.01 && bytes > 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return strings.TrimSpace(fmt.Sprintf("%.2f MB", mb))
}
