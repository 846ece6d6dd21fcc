package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/gitlite/pkg/object"
	"github.com/odvcencio/gitlite/pkg/repo"
)

func newLsTreeCmd() *cobra.Command {
	var nameOnly bool

	cmd := &cobra.Command{
		Use:   "ls-tree [--name-only] <tree-ish>",
		Short: "List the entries of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			tr, err := readTreeish(r, args[0])
			if err != nil {
				return err
			}
			return object.FormatTree(cmd.OutOrStdout(), tr, nameOnly)
		},
	}

	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "list only entry names")
	return cmd
}

// readTreeish resolves name to a tree, peeling a commit to its root tree.
func readTreeish(r *repo.Repo, name string) (*object.Tree, error) {
	h, err := r.ResolveRef(name)
	if err != nil {
		return nil, err
	}
	obj, err := r.Store.ReadObject(h)
	if err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case *object.Tree:
		return o, nil
	case *object.Commit:
		return r.Store.ReadTree(o.Tree)
	default:
		return nil, fmt.Errorf("%s is a %s, not a tree", h, obj.Type())
	}
}
