package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/odvcencio/gitlite/pkg/object"
)

// Checkout reconstructs the commit named by target (a ref or a hash) and
// writes its files under dest. dest must be missing or empty; existing
// content is never overwritten.
//
// Algorithm:
//  1. Resolve target and reconstruct its snapshot.
//  2. Ensure dest is missing or empty.
//  3. Create directories and write files in path order.
func (r *Repo) Checkout(target, dest string) (*Snapshot, error) {
	// 1. Resolve and reconstruct.
	h, err := r.ResolveRef(target)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	snap, err := r.Reconstruct(h)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	// 2. Refuse to write into a populated directory.
	entries, err := os.ReadDir(dest)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("checkout: %w", err)
	case len(entries) > 0:
		return nil, fmt.Errorf("checkout: destination %s is not empty", dest)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("checkout: mkdir %q: %w", dest, err)
	}

	// 3. Materialize.
	err = snap.Walk(func(e *SnapshotEntry) error {
		return materialize(dest, e)
	})
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	r.logger.Info("checked out commit", zap.Stringer("commit", h), zap.String("dest", dest))
	return snap, nil
}

func materialize(dest string, e *SnapshotEntry) error {
	absPath := filepath.Join(dest, filepath.FromSlash(e.Path))
	switch {
	case e.IsDir():
		if err := os.MkdirAll(absPath, 0o755); err != nil {
			return fmt.Errorf("mkdir %q: %w", e.Path, err)
		}
	case e.Mode == object.ModeSymlink:
		if err := os.Symlink(filepath.FromSlash(string(e.Data)), absPath); err != nil {
			return fmt.Errorf("symlink %q: %w", e.Path, err)
		}
	default:
		return writeFile(absPath, e.Data, filePermFromMode(e.Mode))
	}
	return nil
}

func writeFile(path string, data []byte, perm os.FileMode) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}
