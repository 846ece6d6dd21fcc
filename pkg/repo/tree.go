package repo

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/odvcencio/gitlite/pkg/object"
)

// BuildTree hashes the directory at dir into tree and blob objects, writing
// every object to the store, and returns the root tree hash. Subdirectories
// are built first; the metadata directory is skipped at every level.
func (r *Repo) BuildTree(dir string) (object.Hash, error) {
	v := visitor[object.Hash]{
		file: func(p string, c child, data []byte) (object.Hash, error) {
			h, err := r.Store.WriteBlob(&object.Blob{Data: data})
			if err != nil {
				return object.ZeroHash, err
			}
			r.logger.Debug("hashed file", zap.String("path", p), zap.Stringer("hash", h))
			return h, nil
		},
		dir: func(p string, _ child, kids []visited[object.Hash]) (object.Hash, error) {
			tr := &object.Tree{Entries: make([]object.TreeEntry, 0, len(kids))}
			for _, k := range kids {
				tr.Entries = append(tr.Entries, object.TreeEntry{Mode: k.mode, Name: k.name, Hash: k.value})
			}
			h, err := r.Store.WriteTree(tr)
			if err != nil {
				return object.ZeroHash, fmt.Errorf("write tree (prefix=%q): %w", p, err)
			}
			return h, nil
		},
	}

	h, err := walk(fileSource{dir: dir}, "", child{mode: object.ModeDir}, v)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("build tree: %w", err)
	}
	return h, nil
}

// WriteTree builds the tree for the whole working directory.
func (r *Repo) WriteTree() (object.Hash, error) {
	return r.BuildTree(r.RootDir)
}

// HashFile computes the blob hash of the file at path and, when write is set,
// stores the blob.
func (r *Repo) HashFile(path string, write bool) (object.Hash, error) {
	return HashFile(r.Store, path, write)
}

// HashFile is the store-level form of Repo.HashFile. store may be nil when
// write is false.
func HashFile(store *object.Store, path string, write bool) (object.Hash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("hash-object: %w", err)
	}
	if !write {
		return object.HashObject(object.TypeBlob, data), nil
	}
	h, err := store.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return object.ZeroHash, fmt.Errorf("hash-object: %w", err)
	}
	return h, nil
}
