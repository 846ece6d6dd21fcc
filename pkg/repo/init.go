package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/odvcencio/gitlite/pkg/object"
)

// DefaultBranchRef is the ref HEAD points at after Init.
const DefaultBranchRef = "refs/heads/main"

// ErrNoCommits is returned when resolving a ref that does not exist yet,
// such as HEAD in a freshly initialized repository.
var ErrNoCommits = errors.New("ref has no commits yet")

func objectsDir(gitDir string) string {
	return filepath.Join(gitDir, "objects")
}

// Init creates a new repository at path. It creates the .git/ directory
// structure: HEAD, config.toml, objects/ and refs/heads/. Returns an error if
// a .git/ directory already exists.
func Init(path string, opts ...Option) (*Repo, error) {
	gitDir := filepath.Join(path, MetaDirName)

	// Fail if .git/ already exists.
	if _, err := os.Stat(gitDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", gitDir)
	}

	// Create directory structure.
	dirs := []string{
		objectsDir(gitDir),
		filepath.Join(gitDir, "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	// Write default HEAD.
	headPath := filepath.Join(gitDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: "+DefaultBranchRef+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	r, err := newRepo(path, gitDir, opts)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if err := r.WriteConfig(DefaultConfig()); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	r.logger.Debug("initialized repository", zap.String("git_dir", gitDir))
	return r, nil
}

// Open searches upward from path for a .git/ directory and opens the
// repository. Returns an error if no .git/ directory is found.
func Open(path string, opts ...Option) (*Repo, error) {
	// Resolve to absolute path for consistent traversal.
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir := filepath.Join(cur, MetaDirName)
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			return newRepo(cur, gitDir, opts)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			// Reached filesystem root without finding .git/.
			return nil, fmt.Errorf("open: not a repository (or any parent up to /)")
		}
		cur = parent
	}
}

// Head reads .git/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/main"). Otherwise it returns the raw content
// as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.GitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// ResolveRef resolves a ref name to an object hash.
//
// Resolution order:
//  1. A 40-character hex string resolves to itself.
//  2. If name is "HEAD", read HEAD. If HEAD is symbolic, resolve the target ref.
//  3. If name starts with "refs/", read .git/<name>.
//  4. Otherwise, try "refs/heads/<name>".
//
// A ref file that does not exist yet yields ErrNoCommits.
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if h, err := object.ParseHash(name); err == nil {
		return h, nil
	}

	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return object.ZeroHash, err
		}
		// If Head returned a ref path, resolve it recursively.
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		// Detached HEAD: the value is a hash.
		h, err := object.ParseHash(head)
		if err != nil {
			return object.ZeroHash, fmt.Errorf("resolve ref HEAD: %w", err)
		}
		return h, nil
	}

	// Determine the file to read.
	var refPath string
	if strings.HasPrefix(name, "refs/") {
		refPath = filepath.Join(r.GitDir, filepath.FromSlash(name))
	} else {
		refPath = filepath.Join(r.GitDir, "refs", "heads", filepath.FromSlash(name))
	}

	data, err := os.ReadFile(refPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return object.ZeroHash, fmt.Errorf("resolve ref %q: %w", name, ErrNoCommits)
		}
		return object.ZeroHash, fmt.Errorf("resolve ref %q: %w", name, err)
	}
	h, err := object.ParseHash(strings.TrimSpace(string(data)))
	if err != nil {
		return object.ZeroHash, fmt.Errorf("resolve ref %q: %w", name, err)
	}
	return h, nil
}

// UpdateRef writes a hash to the named ref file under .git/ (for example
// "refs/heads/main", or "HEAD" when detached). The file is replaced
// atomically via temp file + rename.
func (r *Repo) UpdateRef(name string, h object.Hash) (err error) {
	refPath := filepath.Join(r.GitDir, filepath.FromSlash(name))
	dir := filepath.Dir(refPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, ".ref-tmp-*")
	if err != nil {
		return fmt.Errorf("update ref %q: tmpfile: %w", name, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			err = multierr.Append(err, removeIfExists(tmpName))
		}
	}()

	if _, err := tmp.WriteString(h.String() + "\n"); err != nil {
		return multierr.Append(fmt.Errorf("update ref %q: write: %w", name, err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	if err := os.Rename(tmpName, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	r.logger.Debug("updated ref", zap.String("ref", name), zap.Stringer("hash", h))
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
