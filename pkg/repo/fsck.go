package repo

import (
	"errors"

	"go.uber.org/zap"

	"github.com/odvcencio/gitlite/pkg/object"
)

// FsckReport summarizes a consistency check of the object store.
type FsckReport struct {
	*object.Reachability
	Roots    []object.Hash // ref targets the walk started from
	Dangling []object.Hash // stored objects no root reaches, sorted
}

// Fsck walks every object reachable from refs and a detached HEAD, then
// lists stored objects that nothing reaches.
func (r *Repo) Fsck() (*FsckReport, error) {
	refs, err := r.ListRefs("")
	if err != nil {
		return nil, err
	}

	roots := make([]object.Hash, 0, len(refs)+1)
	for _, h := range refs {
		roots = append(roots, h)
	}
	head, err := r.ResolveRef("HEAD")
	switch {
	case err == nil:
		roots = append(roots, head)
	case !errors.Is(err, ErrNoCommits):
		return nil, err
	}

	reach, err := r.Store.Reachable(roots)
	if err != nil {
		return nil, err
	}
	all, err := r.Store.List()
	if err != nil {
		return nil, err
	}

	report := &FsckReport{Reachability: reach, Roots: roots}
	corrupt := make(map[object.Hash]struct{}, len(reach.Corrupt))
	for _, h := range reach.Corrupt {
		corrupt[h] = struct{}{}
	}
	for _, h := range all {
		if _, ok := reach.Found[h]; ok {
			continue
		}
		if _, ok := corrupt[h]; ok {
			continue
		}
		report.Dangling = append(report.Dangling, h)
	}

	r.logger.Debug("fsck complete",
		zap.Int("roots", len(roots)),
		zap.Int("reachable", len(reach.Found)),
		zap.Int("missing", len(reach.Missing)),
		zap.Int("corrupt", len(reach.Corrupt)),
		zap.Int("dangling", len(report.Dangling)),
	)
	return report, nil
}

// OK reports whether no reachable object is missing or corrupt.
func (f *FsckReport) OK() bool {
	return len(f.Missing) == 0 && len(f.Corrupt) == 0
}
