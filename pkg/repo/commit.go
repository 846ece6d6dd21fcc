package repo

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/gitlite/pkg/object"
)

// CommitTree writes a commit for tree with an optional parent. Author and
// committer identities come from the environment and .git/config.toml.
func (r *Repo) CommitTree(tree object.Hash, parent *object.Hash, message string) (object.Hash, error) {
	if _, err := r.Store.ReadTree(tree); err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: tree %s: %w", tree, err)
	}
	if parent != nil {
		if _, err := r.Store.ReadCommit(*parent); err != nil {
			return object.ZeroHash, fmt.Errorf("commit-tree: parent %s: %w", *parent, err)
		}
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: %w", err)
	}
	author, err := r.signature(cfg, "AUTHOR")
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: %w", err)
	}
	committer, err := r.signature(cfg, "COMMITTER")
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: %w", err)
	}

	h, err := r.Store.WriteCommit(&object.Commit{
		Tree:      tree,
		Parent:    parent,
		Author:    author,
		Committer: committer,
		Message:   message,
	})
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: write commit: %w", err)
	}
	return h, nil
}

// Commit snapshots the working directory and advances HEAD.
//
//  1. BuildTree from the working directory
//  2. Resolve HEAD to get parent commit hash (if any)
//  3. Write the commit
//  4. Update the branch HEAD points at, or HEAD itself when detached
func (r *Repo) Commit(message string) (object.Hash, error) {
	if strings.TrimSpace(message) == "" {
		return object.ZeroHash, fmt.Errorf("commit: empty message")
	}

	// 1. Build tree from the working directory.
	treeHash, err := r.WriteTree()
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	// 2. Resolve HEAD to get parent (may not exist for first commit).
	var parent *object.Hash
	parentHash, err := r.ResolveRef("HEAD")
	switch {
	case err == nil:
		parent = &parentHash
	case errors.Is(err, ErrNoCommits):
	default:
		return object.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	// 3. Write the commit.
	commitHash, err := r.CommitTree(treeHash, parent, message)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	// 4. Update current branch ref.
	head, err := r.Head()
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit: read HEAD: %w", err)
	}
	target := "HEAD"
	if strings.HasPrefix(head, "refs/") {
		target = head
	}
	if err := r.UpdateRef(target, commitHash); err != nil {
		return object.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("created commit", zap.Stringer("commit", commitHash), zap.Stringer("tree", treeHash), zap.String("ref", target))
	return commitHash, nil
}

// LogEntry is one commit in first-parent history.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.Commit
}

// Log walks the commit history starting from the given hash, following
// parent links, returning up to limit commits newest first. A limit of zero
// or less means no limit.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	current := start

	for limit <= 0 || len(entries) < limit {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})

		if c.Parent == nil {
			break
		}
		current = *c.Parent
	}

	return entries, nil
}
