package object

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/golang-lru/arc/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const defaultTreeCacheSize = 256

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: <root>/ab/cdef0123... Each file holds the zlib-compressed
// encoded object.
type Store struct {
	root   string
	logger *zap.Logger
	trees  *arc.ARCCache[Hash, *Tree]
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithTreeCache sets the number of decoded trees kept in memory. Zero
// disables the cache.
func WithTreeCache(size int) Option {
	return func(s *Store) error {
		if size <= 0 {
			s.trees = nil
			return nil
		}
		cache, err := arc.NewARC[Hash, *Tree](size)
		if err != nil {
			return fmt.Errorf("tree cache: %w", err)
		}
		s.trees = cache
		return nil
	}
}

// NewStore creates a Store rooted at the objects directory. The root itself
// must already exist; fan-out directories are created on first write.
func NewStore(root string, opts ...Option) (*Store, error) {
	s := &Store{root: root, logger: zap.NewNop()}
	opts = append([]Option{WithTreeCache(defaultTreeCacheSize)}, opts...)
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Root returns the objects directory.
func (s *Store) Root() string {
	return s.root
}

// ObjectPath returns the filesystem path for a given hash.
func (s *Store) ObjectPath(h Hash) string {
	hex := h.String()
	return filepath.Join(s.root, hex[:2], hex[2:])
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	_, err := os.Stat(s.ObjectPath(h))
	return err == nil
}

// List returns the hashes of all stored objects in ascending order. Entries
// that are not fan-out directories or object files are ignored.
func (s *Store) List() ([]Hash, error) {
	dirs, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	var out []Hash
	for _, d := range dirs {
		if !d.IsDir() || len(d.Name()) != 2 {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.root, d.Name()))
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, f := range files {
			h, err := ParseHash(d.Name() + f.Name())
			if err != nil || f.IsDir() {
				continue
			}
			out = append(out, h)
		}
	}
	sortHashes(out)
	return out, nil
}

// Put compresses encoded and writes it under h. Writing the same hash twice
// overwrites with identical content. The write goes to a temp file that is
// renamed into place, so readers never see a partial object.
func (s *Store) Put(h Hash, encoded []byte) (err error) {
	if _, statErr := os.Stat(s.root); statErr != nil {
		return &ObjectError{Op: "put", Hash: h, Err: fmt.Errorf("store root: %w", statErr)}
	}
	compressed, err := Compress(encoded)
	if err != nil {
		return &ObjectError{Op: "put", Hash: h, Err: err}
	}

	dest := s.ObjectPath(h)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ObjectError{Op: "put", Hash: h, Err: fmt.Errorf("mkdir: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &ObjectError{Op: "put", Hash: h, Err: fmt.Errorf("tmpfile: %w", err)}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				err = multierr.Append(err, rmErr)
			}
		}
	}()

	if _, err := tmp.Write(compressed); err != nil {
		return &ObjectError{Op: "put", Hash: h, Err: multierr.Append(fmt.Errorf("write: %w", err), tmp.Close())}
	}
	if err := tmp.Close(); err != nil {
		return &ObjectError{Op: "put", Hash: h, Err: fmt.Errorf("close: %w", err)}
	}
	// Loose objects are read-only, as in git.
	if err := os.Chmod(tmpName, 0o444); err != nil {
		return &ObjectError{Op: "put", Hash: h, Err: fmt.Errorf("chmod: %w", err)}
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return &ObjectError{Op: "put", Hash: h, Err: fmt.Errorf("rename: %w", err)}
	}

	s.logger.Debug("stored object", zap.Stringer("hash", h), zap.Int("size", len(encoded)), zap.Int("compressed", len(compressed)))
	return nil
}

// Get returns the decompressed encoded bytes stored under h.
func (s *Store) Get(h Hash) ([]byte, error) {
	compressed, err := os.ReadFile(s.ObjectPath(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ObjectError{Op: "get", Hash: h, Err: ErrObjectNotFound}
		}
		return nil, &ObjectError{Op: "get", Hash: h, Err: err}
	}
	raw, err := Decompress(compressed)
	if err != nil {
		return nil, &ObjectError{Op: "get", Hash: h, Err: err}
	}
	return raw, nil
}

// Write encodes a body of the given type, stores it and returns its hash.
// An object that is already present is not rewritten.
func (s *Store) Write(objType ObjectType, body []byte) (Hash, error) {
	if _, err := ParseObjectType(string(objType)); err != nil {
		return ZeroHash, err
	}
	h := HashObject(objType, body)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	raw := append(envelopeHeader(objType, len(body)), body...)
	if err := s.Put(h, raw); err != nil {
		return ZeroHash, err
	}
	return h, nil
}

// Read retrieves an object by hash, returning its type and body.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	raw, err := s.Get(h)
	if err != nil {
		return "", nil, err
	}
	objType, body, err := ParseEnvelope(raw)
	if err != nil {
		return "", nil, &ObjectError{Op: "read", Hash: h, Err: err}
	}
	return objType, body, nil
}

// ReadObject retrieves and fully decodes an object.
func (s *Store) ReadObject(h Hash) (Object, error) {
	objType, body, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	obj, err := DecodeBody(objType, body)
	if err != nil {
		return nil, &ObjectError{Op: "decode", Hash: h, Err: err}
	}
	return obj, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, body, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, &ObjectError{
			Op:   "read",
			Hash: h,
			Err:  fmt.Errorf("%w: type mismatch: got %q, want %q", ErrCorruptObject, objType, want),
		}
	}
	return body, nil
}

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	body, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(body)
}

// WriteTree serializes and stores a Tree.
func (s *Store) WriteTree(tr *Tree) (Hash, error) {
	body, err := MarshalTree(tr)
	if err != nil {
		return ZeroHash, err
	}
	return s.Write(TypeTree, body)
}

// ReadTree reads and deserializes a Tree. Decoded trees are cached; every
// call returns a fresh copy.
func (s *Store) ReadTree(h Hash) (*Tree, error) {
	if s.trees != nil {
		if tr, ok := s.trees.Get(h); ok {
			return tr.Clone(), nil
		}
	}
	body, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(body)
	if err != nil {
		return nil, &ObjectError{Op: "decode", Hash: h, Err: err}
	}
	if s.trees != nil {
		s.trees.Add(h, tr.Clone())
	}
	return tr, nil
}

// WriteCommit serializes and stores a Commit.
func (s *Store) WriteCommit(c *Commit) (Hash, error) {
	body, err := MarshalCommit(c)
	if err != nil {
		return ZeroHash, err
	}
	return s.Write(TypeCommit, body)
}

// ReadCommit reads and deserializes a Commit.
func (s *Store) ReadCommit(h Hash) (*Commit, error) {
	body, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(body)
	if err != nil {
		return nil, &ObjectError{Op: "decode", Hash: h, Err: err}
	}
	return c, nil
}
