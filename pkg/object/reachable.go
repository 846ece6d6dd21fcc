package object

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

// Reachability is the result of walking the object graph from a set of roots.
type Reachability struct {
	Found   map[Hash]ObjectType // objects present and decodable
	Missing []Hash              // referenced but absent, sorted
	Corrupt []Hash              // undecodable or not matching their hash, sorted
}

// Reachable returns every object reachable from roots by following commit
// parents, commit trees and tree entries. Missing and corrupt objects are
// recorded in the result rather than aborting the walk. Only filesystem
// failures are returned as errors.
func (s *Store) Reachable(roots []Hash) (*Reachability, error) {
	res := &Reachability{Found: make(map[Hash]ObjectType)}
	seen := make(map[Hash]struct{}, len(roots))

	stack := append([]Hash(nil), uniqueHashes(roots)...)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}

		raw, err := s.Get(h)
		if errors.Is(err, ErrObjectNotFound) {
			res.Missing = append(res.Missing, h)
			continue
		}
		if errors.Is(err, ErrCorruptObject) {
			res.Corrupt = append(res.Corrupt, h)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reachable: %w", err)
		}
		if HashBytes(raw) != h {
			res.Corrupt = append(res.Corrupt, h)
			continue
		}

		objType, body, err := ParseEnvelope(raw)
		if err != nil {
			res.Corrupt = append(res.Corrupt, h)
			continue
		}
		refs, err := referencedHashes(objType, body)
		if err != nil {
			res.Corrupt = append(res.Corrupt, h)
			continue
		}
		res.Found[h] = objType
		stack = append(stack, refs...)
	}

	sortHashes(res.Missing)
	sortHashes(res.Corrupt)
	return res, nil
}

// Verify re-hashes the stored bytes of h and reports ErrCorruptObject when
// they do not match the name they are stored under.
func (s *Store) Verify(h Hash) error {
	raw, err := s.Get(h)
	if err != nil {
		return err
	}
	if got := HashBytes(raw); got != h {
		return &ObjectError{Op: "verify", Hash: h, Err: fmt.Errorf("%w: content hashes to %s", ErrCorruptObject, got)}
	}
	return nil
}

func referencedHashes(objType ObjectType, body []byte) ([]Hash, error) {
	switch objType {
	case TypeBlob:
		return nil, nil
	case TypeCommit:
		c, err := UnmarshalCommit(body)
		if err != nil {
			return nil, err
		}
		refs := []Hash{c.Tree}
		if c.Parent != nil {
			refs = append(refs, *c.Parent)
		}
		return refs, nil
	case TypeTree:
		tr, err := UnmarshalTree(body)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, len(tr.Entries))
		for _, e := range tr.Entries {
			refs = append(refs, e.Hash)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownObjectType, objType)
	}
}

func uniqueHashes(in []Hash) []Hash {
	seen := make(map[Hash]struct{}, len(in))
	out := make([]Hash, 0, len(in))
	for _, h := range in {
		if h.IsZero() {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sortHashes(out)
	return out
}

func sortHashes(hs []Hash) {
	sort.Slice(hs, func(i, j int) bool { return bytes.Compare(hs[i][:], hs[j][:]) < 0 })
}
