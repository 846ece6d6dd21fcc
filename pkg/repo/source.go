package repo

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/odvcencio/gitlite/pkg/object"
)

// child is one immediate entry of a directory-like source. hash is known for
// stored trees and zero for the filesystem.
type child struct {
	name string
	mode object.Mode
	hash object.Hash
}

// childSource is one directory level, either on disk or in the object store.
type childSource interface {
	children() ([]child, error)
	read(c child) ([]byte, error)
	descend(c child) (childSource, error)
}

// visited pairs a child with the value its subtree folded to.
type visited[T any] struct {
	child
	value T
}

// visitor folds files and directories into values. path is slash separated
// and relative to the walk root ("" for the root itself).
type visitor[T any] struct {
	file func(path string, c child, data []byte) (T, error)
	dir  func(path string, self child, kids []visited[T]) (T, error)
}

// walk visits src depth-first, post-order: every child value is computed
// before the directory containing it.
func walk[T any](src childSource, dirPath string, self child, v visitor[T]) (T, error) {
	var zero T
	kids, err := src.children()
	if err != nil {
		return zero, err
	}

	out := make([]visited[T], 0, len(kids))
	for _, c := range kids {
		p := c.name
		if dirPath != "" {
			p = path.Join(dirPath, c.name)
		}

		var val T
		if c.mode.IsDir() {
			sub, err := src.descend(c)
			if err != nil {
				return zero, fmt.Errorf("%s: %w", p, err)
			}
			if val, err = walk(sub, p, c, v); err != nil {
				return zero, err
			}
		} else {
			data, err := src.read(c)
			if err != nil {
				return zero, fmt.Errorf("%s: %w", p, err)
			}
			if val, err = v.file(p, c, data); err != nil {
				return zero, fmt.Errorf("%s: %w", p, err)
			}
		}
		out = append(out, visited[T]{child: c, value: val})
	}
	return v.dir(dirPath, self, out)
}

// ---------------------------------------------------------------------------
// Filesystem adapter
// ---------------------------------------------------------------------------

// fileSource lists a working directory, skipping the metadata directory and
// anything that is not a directory, regular file or symlink.
type fileSource struct {
	dir string
}

func (s fileSource) children() ([]child, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]child, 0, len(entries))
	for _, e := range entries {
		if e.Name() == MetaDirName {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		mode, ok := modeFromFileInfo(info)
		if !ok {
			continue
		}
		out = append(out, child{name: e.Name(), mode: mode})
	}
	return out, nil
}

func (s fileSource) read(c child) ([]byte, error) {
	p := filepath.Join(s.dir, c.name)
	if c.mode == object.ModeSymlink {
		target, err := os.Readlink(p)
		if err != nil {
			return nil, err
		}
		return []byte(filepath.ToSlash(target)), nil
	}
	return os.ReadFile(p)
}

func (s fileSource) descend(c child) (childSource, error) {
	return fileSource{dir: filepath.Join(s.dir, c.name)}, nil
}

// ---------------------------------------------------------------------------
// Object store adapter
// ---------------------------------------------------------------------------

// treeSource lists a decoded tree and resolves its entries through the store.
type treeSource struct {
	store *object.Store
	tree  *object.Tree
}

func newTreeSource(store *object.Store, h object.Hash) (treeSource, error) {
	tr, err := store.ReadTree(h)
	if err != nil {
		return treeSource{}, err
	}
	return treeSource{store: store, tree: tr}, nil
}

func (s treeSource) children() ([]child, error) {
	out := make([]child, 0, len(s.tree.Entries))
	for _, e := range s.tree.Entries {
		out = append(out, child{name: e.Name, mode: e.Mode, hash: e.Hash})
	}
	return out, nil
}

func (s treeSource) read(c child) ([]byte, error) {
	blob, err := s.store.ReadBlob(c.hash)
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

func (s treeSource) descend(c child) (childSource, error) {
	return newTreeSource(s.store, c.hash)
}

var (
	_ childSource = fileSource{}
	_ childSource = treeSource{}
)
