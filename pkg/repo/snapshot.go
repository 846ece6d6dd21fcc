package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/gitlite/pkg/object"
)

// Snapshot is a directory reconstructed from a stored tree. It is built on
// demand and never written back to the store.
type Snapshot struct {
	Path string      // slash-separated path relative to the root; "" for the root
	Tree object.Hash // tree the directory was built from

	// Entries holds the immediate children keyed by their path relative to
	// the snapshot root, e.g. "dir1/a.txt" inside the "dir1" snapshot.
	Entries map[string]*SnapshotEntry
}

// SnapshotEntry is a file or a nested directory.
type SnapshotEntry struct {
	Path string
	Mode object.Mode
	Hash object.Hash
	Data []byte    // file contents; nil for directories
	Dir  *Snapshot // nested directory; nil for files
}

// IsDir reports whether the entry is a nested directory.
func (e *SnapshotEntry) IsDir() bool {
	return e.Dir != nil
}

// Lookup finds the entry at a slash-separated path relative to the root.
func (s *Snapshot) Lookup(p string) (*SnapshotEntry, bool) {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil, false
	}
	cur := s
	parts := strings.Split(p, "/")
	for i := range parts {
		key := strings.Join(parts[:i+1], "/")
		e, ok := cur.Entries[key]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return e, true
		}
		if e.Dir == nil {
			return nil, false
		}
		cur = e.Dir
	}
	return nil, false
}

// Files flattens the snapshot into path -> contents.
func (s *Snapshot) Files() map[string][]byte {
	out := make(map[string][]byte)
	s.collect(out)
	return out
}

func (s *Snapshot) collect(out map[string][]byte) {
	for p, e := range s.Entries {
		if e.Dir != nil {
			e.Dir.collect(out)
			continue
		}
		out[p] = e.Data
	}
}

// Walk calls fn for every entry in path order, parents before children.
func (s *Snapshot) Walk(fn func(e *SnapshotEntry) error) error {
	keys := make([]string, 0, len(s.Entries))
	for k := range s.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := s.Entries[k]
		if err := fn(e); err != nil {
			return err
		}
		if e.Dir != nil {
			if err := e.Dir.Walk(fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reconstruct resolves a commit into the full directory structure of its
// tree with every file's contents loaded.
func (r *Repo) Reconstruct(commit object.Hash) (*Snapshot, error) {
	c, err := r.Store.ReadCommit(commit)
	if err != nil {
		return nil, fmt.Errorf("reconstruct %s: %w", commit, err)
	}
	snap, err := r.ReconstructTree(c.Tree)
	if err != nil {
		return nil, fmt.Errorf("reconstruct %s: %w", commit, err)
	}
	return snap, nil
}

// ReconstructTree resolves a tree hash into a Snapshot.
func (r *Repo) ReconstructTree(tree object.Hash) (*Snapshot, error) {
	src, err := newTreeSource(r.Store, tree)
	if err != nil {
		return nil, err
	}

	v := visitor[*SnapshotEntry]{
		file: func(p string, c child, data []byte) (*SnapshotEntry, error) {
			return &SnapshotEntry{Path: p, Mode: c.mode, Hash: c.hash, Data: data}, nil
		},
		dir: func(p string, self child, kids []visited[*SnapshotEntry]) (*SnapshotEntry, error) {
			snap := &Snapshot{
				Path:    p,
				Tree:    self.hash,
				Entries: make(map[string]*SnapshotEntry, len(kids)),
			}
			for _, k := range kids {
				snap.Entries[k.value.Path] = k.value
			}
			return &SnapshotEntry{Path: p, Mode: object.ModeDir, Hash: self.hash, Dir: snap}, nil
		},
	}

	root, err := walk[*SnapshotEntry](src, "", child{mode: object.ModeDir, hash: tree}, v)
	if err != nil {
		return nil, err
	}
	return root.Dir, nil
}
